package externals_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcad/ucad/internal/externals"
	"github.com/microcad/ucad/internal/ident"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewIndexesPlainFileByRelativePath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "geo2d", "circle.ucad"), "module circle() {}")

	ext, err := externals.New([]string{root})
	require.NoError(t, err)

	assert.Contains(t, ext.Names(), "geo2d::circle")
}

func TestNewIndexesModDirectoryByDirName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "std", "mod.ucad"), "namespace std {}")

	ext, err := externals.New([]string{root})
	require.NoError(t, err)

	assert.Contains(t, ext.Names(), "std")
}

func TestFetchReturnsLongestPrefixMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "std", "mod.ucad"), "namespace std {}")
	writeFile(t, filepath.Join(root, "std", "geo2d", "circle.ucad"), "module circle() {}")

	ext, err := externals.New([]string{root})
	require.NoError(t, err)

	name, path, ok := ext.Fetch(ident.Parse("std::geo2d::circle::Variant"))
	require.True(t, ok)
	assert.Equal(t, "std::geo2d::circle", name.String())
	assert.Contains(t, path, filepath.Join("std", "geo2d", "circle.ucad"))
}

func TestFetchExternalErrorsWhenNotFound(t *testing.T) {
	root := t.TempDir()
	ext, err := externals.New([]string{root})
	require.NoError(t, err)

	_, _, err = ext.FetchExternal(ident.Parse("nonexistent::thing"))
	require.Error(t, err)
}

func TestNewWithNoSearchPaths(t *testing.T) {
	ext, err := externals.New(nil)
	require.NoError(t, err)
	assert.Empty(t, ext.Names())
}
