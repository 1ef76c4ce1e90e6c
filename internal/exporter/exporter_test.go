package exporter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcad/ucad/internal/exporter"
	"github.com/microcad/ucad/internal/model"
)

func TestDefaultRegistryResolvesDebugExporterByIdAndExtension(t *testing.T) {
	r := exporter.NewDefaultRegistry()

	byId, err := r.ExporterByID("debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", byId.Id())

	byExt, err := r.ExporterByFilename("out.DBG")
	require.NoError(t, err)
	assert.Same(t, byId, byExt)
}

func TestExporterByFilenameUnknownExtensionIsError(t *testing.T) {
	r := exporter.NewDefaultRegistry()
	_, err := r.ExporterByFilename("out.stl")
	require.Error(t, err)
	var exportErr *exporter.Error
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, exporter.KindUnknownExporter, exportErr.Kind)
}

func TestDebugExporterWritesNodeTreeAndImporterReadsItBack(t *testing.T) {
	root := model.Group(model.Origin{})
	child, err := model.NewBuilder(model.ElementWorkpiece, model.Origin{}).Build()
	require.NoError(t, err)
	require.NoError(t, root.Append(child))

	r := exporter.NewDefaultRegistry()
	e, err := r.ExporterByID("debug")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.dbg")
	v, err := e.Export(root, path, 0.1)
	require.NoError(t, err)
	assert.Equal(t, path, v.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Group")
	assert.Contains(t, string(data), "Workpiece")

	imp, err := r.ImporterByFilename(path)
	require.NoError(t, err)
	roundTripped, err := imp.Import(path)
	require.NoError(t, err)
	assert.Equal(t, string(data), roundTripped.String())
}

func TestRegistryIdsAreSorted(t *testing.T) {
	r := exporter.NewDefaultRegistry()
	assert.Equal(t, []string{"debug"}, r.Ids())
}
