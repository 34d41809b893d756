package decls

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/hackemit/ast"
)

func reifiedBox() *Class {
	return &Class{Name: "Box", TParams: []TParam{
		{Name: "T", Reified: ast.Reified},
		{Name: "U", Reified: ast.Erased},
	}}
}

func TestMemoryLookupIsCaseInsensitive(t *testing.T) {
	m := NewMemory(reifiedBox())
	c, err := m.Class("\\BOX")
	require.NoError(t, err)
	assert.True(t, c.HasReifiedGenerics())

	_, err = m.Class("Missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNoneProvider(t *testing.T) {
	_, err := None{}.Class("Box")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "decls.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, reifiedBox(), &Class{Name: "Plain"}))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	c, err := s.Class("box")
	require.NoError(t, err)
	assert.Equal(t, "Box", c.Name)
	require.Len(t, c.TParams, 2)
	assert.Equal(t, "T", c.TParams[0].Name)
	assert.Equal(t, ast.Reified, c.TParams[0].Reified)
	assert.Equal(t, ast.Erased, c.TParams[1].Reified)

	plain, err := s.Class("Plain")
	require.NoError(t, err)
	assert.False(t, plain.HasReifiedGenerics())
}

func TestStorePutReplaces(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, reifiedBox()))
	require.NoError(t, s.Put(ctx, &Class{Name: "Box", TParams: []TParam{{Name: "V"}}}))

	c, err := s.Class("Box")
	require.NoError(t, err)
	require.Len(t, c.TParams, 1)
	assert.Equal(t, "V", c.TParams[0].Name)
	assert.False(t, c.HasReifiedGenerics())
}

func TestStoreMissing(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Class("Nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreNames(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, &Class{Name: "Zed"}, reifiedBox()))
	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Box", "Zed"}, names)
}

type failing struct{}

func (failing) Class(string) (*Class, error) { return nil, errors.New("disk on fire") }

func TestChain(t *testing.T) {
	local := NewMemory(&Class{Name: "Box"})
	chain := Chain{local, NewMemory(reifiedBox(), &Class{Name: "Other"})}

	c, err := chain.Class("Box")
	require.NoError(t, err)
	assert.False(t, c.HasReifiedGenerics(), "earlier providers win")

	c, err = chain.Class("other")
	require.NoError(t, err)
	assert.Equal(t, "Other", c.Name)

	_, err = chain.Class("Missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Chain{None{}, failing{}, local}.Class("Box")
	assert.EqualError(t, err, "disk on fire")
}
