package sourcecache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/sourcecache"
	"github.com/microcad/ucad/internal/syntax"
)

// fakeExternals is a minimal stand-in for internal/externals's resolver,
// sufficient to exercise the cache's lookup/insert contract in isolation.
type fakeExternals struct {
	byPath map[string]ident.QualifiedName
}

func (f *fakeExternals) NameForPath(path string) (ident.QualifiedName, bool) {
	n, ok := f.byPath[path]
	return n, ok
}

func (f *fakeExternals) Fetch(name ident.QualifiedName) (ident.QualifiedName, string, bool) {
	for path, n := range f.byPath {
		if n.Equal(name) {
			return n, path, true
		}
	}
	return ident.QualifiedName{}, "", false
}

func newFile(filename string, hash uint64) *syntax.SourceFile {
	return &syntax.SourceFile{Filename: filename, Hash: hash}
}

func TestNewRootRetrievableByHashAndPath(t *testing.T) {
	root := newFile("main.ucad", 1)
	ext := &fakeExternals{byPath: map[string]ident.QualifiedName{}}
	cache := sourcecache.New(root, ext)

	got, err := cache.GetByHash(1)
	require.NoError(t, err)
	assert.Same(t, root, got)

	got, err = cache.GetByPath("main.ucad")
	require.NoError(t, err)
	assert.Same(t, root, got)

	_, err = cache.GetByName(ident.Parse("main"))
	require.Error(t, err)
}

func TestInsertIsIdempotentByHash(t *testing.T) {
	root := newFile("main.ucad", 1)
	ext := &fakeExternals{byPath: map[string]ident.QualifiedName{
		"lib/a.ucad": ident.Parse("a"),
	}}
	cache := sourcecache.New(root, ext)

	a := newFile("lib/a.ucad", 2)
	name1, err := cache.Insert(a)
	require.NoError(t, err)
	assert.Equal(t, "a", name1.String())

	name2, err := cache.Insert(a)
	require.NoError(t, err)
	assert.Equal(t, name1.String(), name2.String())

	got, err := cache.GetByName(ident.Parse("a"))
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestGetByNameSignalsSymbolMustBeLoaded(t *testing.T) {
	root := newFile("main.ucad", 1)
	ext := &fakeExternals{byPath: map[string]ident.QualifiedName{
		"lib/geo/circle.ucad": ident.Parse("geo::circle"),
	}}
	cache := sourcecache.New(root, ext)

	_, err := cache.GetByName(ident.Parse("geo::circle"))
	require.Error(t, err)
	cerr, ok := err.(*sourcecache.CacheError)
	require.True(t, ok)
	assert.Equal(t, sourcecache.KindSymbolMustBeLoaded, cerr.Kind)
	assert.Equal(t, "lib/geo/circle.ucad", cerr.Path)
}

func TestHashSourceStableAndDistinct(t *testing.T) {
	a := sourcecache.HashSource("module Box { }")
	b := sourcecache.HashSource("module Box { }")
	c := sourcecache.HashSource("module Sphere { }")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGetByHashUnknown(t *testing.T) {
	root := newFile("main.ucad", 1)
	ext := &fakeExternals{byPath: map[string]ident.QualifiedName{}}
	cache := sourcecache.New(root, ext)

	_, err := cache.GetByHash(99)
	require.Error(t, err)
	cerr, ok := err.(*sourcecache.CacheError)
	require.True(t, ok)
	assert.Equal(t, sourcecache.KindUnknownHash, cerr.Kind)
}
