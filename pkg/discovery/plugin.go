package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"plugin"
	"reflect"
	"strings"
)

// ActionsSymbol is the symbol an action plugin exports. It is either
// `func Actions() []any` or `var Actions []any`, holding Action values or
// reflect.Type values.
const ActionsSymbol = "Actions"

type symbolTable interface {
	Lookup(symName string) (plugin.Symbol, error)
}

// PluginSource loads Go plugins (*.so) found beneath Dir.
type PluginSource struct {
	Dir string

	log  *slog.Logger
	open func(path string) (symbolTable, error)
}

func NewPluginSource(dir string, log *slog.Logger) *PluginSource {
	if log == nil {
		log = slog.Default()
	}

	return &PluginSource{
		Dir:  dir,
		log:  log.With("component", "discovery.plugin"),
		open: openPlugin,
	}
}

// Discover opens every plugin under Dir and returns the action types they
// export. A plugin that fails to open or exports the wrong symbol is reported
// in the error and does not stop the walk.
func (s *PluginSource) Discover(root string) ([]reflect.Type, error) {
	dir := strings.TrimSpace(s.Dir)
	if dir == "" {
		return nil, nil
	}

	var (
		found []reflect.Type
		errs  []error
	)

	walkErr := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			errs = append(errs, fmt.Errorf("walk %s: %w", path, err))
			return nil
		}
		if entry.IsDir() || filepath.Ext(path) != ".so" {
			return nil
		}

		types, err := s.load(path)
		if err != nil {
			errs = append(errs, err)
			return nil
		}

		s.log.Info("Loaded action plugin", "path", path, "actions", len(types))
		found = append(found, types...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan plugin dir %s: %w", dir, walkErr)
	}

	return filterByRoot(found, root), errors.Join(errs...)
}

func (s *PluginSource) load(path string) ([]reflect.Type, error) {
	table, err := s.open(path)
	if err != nil {
		return nil, fmt.Errorf("open plugin %s: %w", path, err)
	}

	symbol, err := table.Lookup(ActionsSymbol)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", path, err)
	}

	var values []any
	switch typed := symbol.(type) {
	case func() []any:
		values = typed()
	case *[]any:
		if typed != nil {
			values = *typed
		}
	default:
		return nil, fmt.Errorf("plugin %s: symbol %s has unsupported type %T", path, ActionsSymbol, symbol)
	}

	types := make([]reflect.Type, 0, len(values))
	for _, value := range values {
		if t := typeOf(value); t != nil {
			types = append(types, t)
		}
	}

	return types, nil
}

func openPlugin(path string) (symbolTable, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}

	return p, nil
}
