package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"plugin"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type alphaAction struct{}

type betaAction struct{}

type fakeSymbols map[string]plugin.Symbol

func (f fakeSymbols) Lookup(name string) (plugin.Symbol, error) {
	symbol, ok := f[name]
	if !ok {
		return nil, errors.New("symbol " + name + " not found")
	}

	return symbol, nil
}

type failingSource struct{ err error }

func (f failingSource) Discover(string) ([]reflect.Type, error) {
	return nil, f.err
}

func TestCatalogDiscoverFiltersByRoot(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	c.Register(&alphaAction{}, reflect.TypeFor[betaAction](), &alphaAction{}, nil)

	all, err := c.Discover("")
	require.NoError(t, err)
	require.Equal(t, []reflect.Type{reflect.TypeFor[*alphaAction](), reflect.TypeFor[betaAction]()}, all)

	scoped, err := c.Discover("actionkit/pkg")
	require.NoError(t, err)
	require.Len(t, scoped, 2)

	none, err := c.Discover("actionkit/pkg/disc")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestInNamespace(t *testing.T) {
	t.Parallel()

	require.True(t, InNamespace("actionkit/actions", "actionkit"))
	require.True(t, InNamespace("actionkit/actions", "actionkit/actions/"))
	require.True(t, InNamespace("anything", ""))
	require.False(t, InNamespace("actionkitextra/actions", "actionkit"))
}

func TestPackagePathLooksThroughPointers(t *testing.T) {
	t.Parallel()

	require.Equal(t, "actionkit/pkg/discovery", PackagePath(reflect.TypeFor[**alphaAction]()))
	require.Equal(t, "", PackagePath(nil))
}

func TestMultiKeepsGoingAfterFailure(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	c.Register(betaAction{})

	boom := errors.New("boom")
	types, err := Multi{failingSource{err: boom}, nil, c}.Discover("")
	require.ErrorIs(t, err, boom)
	require.Equal(t, []reflect.Type{reflect.TypeFor[betaAction]()}, types)
}

func TestPluginSourceToleratesBrokenPlugins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	for _, name := range []string{"good.so", "broken.so", "nosymbol.so", "wrongtype.so", "readme.txt"} {
		path := filepath.Join(dir, name)
		if name == "good.so" {
			path = filepath.Join(nested, name)
		}
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	}

	source := NewPluginSource(dir, nil)
	source.open = func(path string) (symbolTable, error) {
		switch filepath.Base(path) {
		case "good.so":
			return fakeSymbols{ActionsSymbol: func() []any { return []any{&alphaAction{}, reflect.TypeFor[betaAction]()} }}, nil
		case "nosymbol.so":
			return fakeSymbols{}, nil
		case "wrongtype.so":
			return fakeSymbols{ActionsSymbol: 42}, nil
		case "readme.txt":
			t.Fatal("non-plugin file must not be opened")
		}
		return nil, errors.New("invalid ELF header")
	}

	types, err := source.Discover("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken.so")
	require.Contains(t, err.Error(), "nosymbol.so")
	require.Contains(t, err.Error(), "wrongtype.so")
	require.Equal(t, []reflect.Type{reflect.TypeFor[*alphaAction](), reflect.TypeFor[betaAction]()}, types)
}

func TestPluginSourceVariableSymbol(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vars.so"), []byte("x"), 0o600))

	exported := []any{betaAction{}}
	source := NewPluginSource(dir, nil)
	source.open = func(string) (symbolTable, error) {
		return fakeSymbols{ActionsSymbol: &exported}, nil
	}

	types, err := source.Discover("actionkit/pkg/discovery")
	require.NoError(t, err)
	require.Equal(t, []reflect.Type{reflect.TypeFor[betaAction]()}, types)
}

func TestPluginSourceMissingDirectory(t *testing.T) {
	t.Parallel()

	source := NewPluginSource(filepath.Join(t.TempDir(), "missing"), nil)
	_, err := source.Discover("")
	require.Error(t, err)

	empty := NewPluginSource("", nil)
	types, err := empty.Discover("")
	require.NoError(t, err)
	require.Empty(t, types)
}
