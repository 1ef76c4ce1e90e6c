package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcad/ucad/internal/config"
)

const boxSource = `
workbench Box(size: Scalar) {}
Box(size: 2);
`

func writeSource(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.ucad")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func newTestFlagSet(name string) (*flag.FlagSet, *config.Config) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg := config.RegisterFlags(fs)
	cfg.OmitDefaultLibs = true
	return fs, cfg
}

func TestRunParseSucceedsOnWellFormedFile(t *testing.T) {
	path := writeSource(t, boxSource)
	fs, cfg := newTestFlagSet("parse")
	assert.NoError(t, runParse(fs, cfg, []string{path}))
}

func TestRunParseRejectsMissingFile(t *testing.T) {
	fs, cfg := newTestFlagSet("parse")
	assert.Error(t, runParse(fs, cfg, []string{filepath.Join(t.TempDir(), "missing.ucad")}))
}

func TestRunResolveSucceedsOnWellFormedFile(t *testing.T) {
	path := writeSource(t, boxSource)
	fs, cfg := newTestFlagSet("resolve")
	assert.NoError(t, runResolve(fs, cfg, []string{path}))
}

func TestRunResolveReportsUnknownUse(t *testing.T) {
	path := writeSource(t, "use nonexistent::thing;\n")
	fs, cfg := newTestFlagSet("resolve")
	assert.Error(t, runResolve(fs, cfg, []string{path}))
}

func TestRunEvalSucceedsOnWorkbenchCall(t *testing.T) {
	path := writeSource(t, boxSource)
	fs, cfg := newTestFlagSet("eval")
	assert.NoError(t, runEval(fs, cfg, []string{path}))
}

func TestRunExportWritesDebugFile(t *testing.T) {
	path := writeSource(t, boxSource)
	out := filepath.Join(t.TempDir(), "box.dbg")

	fs, cfg := newTestFlagSet("export")
	require.NoError(t, runExport(fs, cfg, []string{"-o", out, path}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Workpiece")
}

func TestRunExportListsRegisteredExporters(t *testing.T) {
	fs, cfg := newTestFlagSet("export")
	assert.NoError(t, runExport(fs, cfg, []string{"-l"}))
}

func TestRunCreateWritesTemplateAndRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.ucad")

	fs, cfg := newTestFlagSet("create")
	require.NoError(t, runCreate(fs, cfg, []string{path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "workbench main()")

	fs2, cfg2 := newTestFlagSet("create")
	assert.Error(t, runCreate(fs2, cfg2, []string{path}))
}

func TestRunInstallCopiesLibraryDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "lib.ucad"), []byte(boxSource), 0o644))

	fs, cfg := newTestFlagSet("install")
	require.NoError(t, runInstall(fs, cfg, []string{src}))

	dest := filepath.Join(config.GlobalRootDir(), filepath.Base(src), "lib.ucad")
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, boxSource, string(data))
}
