// Package discovery locates Action implementations that were not registered
// explicitly. Sources only report types; registering them is the executor's
// job.
package discovery

import (
	"errors"
	"reflect"
	"strings"
	"sync"
)

// Source returns every concrete Action type found beneath a package root.
//
// A Source tolerates individual load failures: the returned slice holds
// everything that did load and the error aggregates what did not.
type Source interface {
	Discover(root string) ([]reflect.Type, error)
}

// Catalog is an in-process Source. Action packages add their types from
// init functions, which makes importing a package the equivalent of loading it.
type Catalog struct {
	mu    sync.RWMutex
	types []reflect.Type
	seen  map[reflect.Type]struct{}
}

// Default is the process-wide catalog fed by Provide and Register.
var Default = NewCatalog()

func NewCatalog() *Catalog {
	return &Catalog{seen: make(map[reflect.Type]struct{})}
}

// Provide adds types to the default catalog.
func Provide(types ...reflect.Type) {
	Default.Provide(types...)
}

// Register adds the types of the given values to the default catalog.
func Register(values ...any) {
	Default.Register(values...)
}

// Provide adds types to the catalog. Duplicates and nil types are ignored.
func (c *Catalog) Provide(types ...reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range types {
		if t == nil {
			continue
		}
		if _, ok := c.seen[t]; ok {
			continue
		}
		c.seen[t] = struct{}{}
		c.types = append(c.types, t)
	}
}

// Register adds the dynamic type of each value. A reflect.Type value is added
// as is, so both Register(&MyAction{}) and Register(reflect.TypeFor[MyAction]())
// work.
func (c *Catalog) Register(values ...any) {
	types := make([]reflect.Type, 0, len(values))
	for _, value := range values {
		types = append(types, typeOf(value))
	}

	c.Provide(types...)
}

// Discover returns the catalog types under root in registration order.
func (c *Catalog) Discover(root string) ([]reflect.Type, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return filterByRoot(c.types, root), nil
}

// Multi merges several sources. Each source is asked even when an earlier
// one fails.
type Multi []Source

func (m Multi) Discover(root string) ([]reflect.Type, error) {
	var (
		found []reflect.Type
		errs  []error
	)
	for _, source := range m {
		if source == nil {
			continue
		}
		types, err := source.Discover(root)
		found = append(found, types...)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return found, errors.Join(errs...)
}

// PackagePath returns the import path declaring t, looking through pointers.
func PackagePath(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.PkgPath()
}

// InNamespace reports whether pkgPath equals root or lies beneath it.
// An empty root contains everything.
func InNamespace(pkgPath string, root string) bool {
	root = strings.TrimSuffix(strings.TrimSpace(root), "/")
	if root == "" {
		return true
	}

	return pkgPath == root || strings.HasPrefix(pkgPath, root+"/")
}

func filterByRoot(types []reflect.Type, root string) []reflect.Type {
	out := make([]reflect.Type, 0, len(types))
	for _, t := range types {
		if InNamespace(PackagePath(t), root) {
			out = append(out, t)
		}
	}

	return out
}

func typeOf(value any) reflect.Type {
	if t, ok := value.(reflect.Type); ok {
		return t
	}

	return reflect.TypeOf(value)
}

// InNamespaceAny reports whether pkgPath lies beneath any non-empty root.
func InNamespaceAny(pkgPath string, roots []string) bool {
	for _, root := range roots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		if InNamespace(pkgPath, root) {
			return true
		}
	}

	return false
}
