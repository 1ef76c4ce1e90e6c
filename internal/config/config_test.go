package config_test

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcad/ucad/internal/config"
)

func TestRegisterFlagsParsesRepeatablePathsAndVerbosity(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-P", "a", "-P", "b,c", "-v", "-v", "-T"}))

	assert.Equal(t, []string{"a", "b", "c"}, cfg.SearchPaths)
	assert.Equal(t, 2, cfg.Verbose)
	assert.True(t, cfg.Time)
}

func TestDefaultConfigHasExportDefaults(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "svg", cfg.Export.Sketch)
	assert.Equal(t, "ply", cfg.Export.Part)
	assert.Equal(t, "0.1mm", cfg.DefaultResolution)
}

func TestApplyFileFillsInUnsetFieldsOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
search_paths = ["/opt/ucad/lib"]
default_resolution = "0.05mm"

[export]
sketch = "dxf"
part = "stl"
`), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-C", path}))

	require.NoError(t, cfg.ApplyFile(fs))
	assert.Equal(t, []string{"/opt/ucad/lib"}, cfg.SearchPaths)
	assert.Equal(t, "dxf", cfg.Export.Sketch)
	assert.Equal(t, "stl", cfg.Export.Part)
	assert.Equal(t, "0.05mm", cfg.DefaultResolution)
}

func TestApplyFileLeavesExplicitSearchPathsAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`search_paths = ["/opt/ucad/lib"]`), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-C", path, "-P", "./lib"}))

	require.NoError(t, cfg.ApplyFile(fs))
	assert.Equal(t, []string{"./lib"}, cfg.SearchPaths)
}

func TestApplyFileWithNoConfigFileAnywhereIsNoOp(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))
	require.NoError(t, cfg.ApplyFile(fs))
	assert.Empty(t, cfg.SearchPaths)
}
