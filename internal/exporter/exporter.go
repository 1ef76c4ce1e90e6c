// Package exporter implements the Exporter/Importer registry contract
// of spec.md §6.4: "An Exporter exposes id(), file_extensions(), and
// export(model, filename, resolution) -> Value. An Importer exposes
// symmetric operations. The core calls them by id (from an export
// attribute) or by extension inference. Registries are populated at
// startup; the core does not install them itself."
//
// Concrete geometry formats (SVG/STL/PLY) stay out of scope per
// spec.md's Non-goals; this package is the contract plus one reference
// implementation (a "debug" exporter/importer) that exercises it
// end to end, grounded on export/ply.rs's sequential header-writing
// shape and export/svg/attributes.rs's attribute-from-node derivation.
package exporter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/microcad/ucad/internal/model"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/value"
)

// Exporter writes a model node's geometry/properties to a file.
type Exporter interface {
	Id() string
	FileExtensions() []string
	Export(n *model.Node, filename string, resolution float64) (value.Value, error)
}

// Importer reads an external file into a Value, the symmetric
// counterpart spec.md §6.4 names.
type Importer interface {
	Id() string
	FileExtensions() []string
	Import(filename string) (value.Value, error)
}

// Kind classifies a registry lookup failure.
type Kind int

const (
	KindUnknownExporter Kind = iota
	KindUnknownImporter
	KindAmbiguousExtension
	KindUndeterminedOutputType
)

// Error reports a registry lookup failure.
type Error struct {
	Kind Kind
	Id   string
	Ext  string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnknownExporter:
		return "exporter: unknown exporter id " + e.Id
	case KindUnknownImporter:
		return "exporter: unknown importer id " + e.Id
	case KindAmbiguousExtension:
		return "exporter: ambiguous file extension " + e.Ext
	default:
		return "exporter: could not determine output type"
	}
}

// Registry holds every exporter/importer the CLI wires in at startup.
// The core never populates it itself (spec.md §6.4).
type Registry struct {
	exporters   map[string]Exporter
	importers   map[string]Importer
	extToExport map[string]Exporter
	extToImport map[string]Importer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		exporters:   map[string]Exporter{},
		importers:   map[string]Importer{},
		extToExport: map[string]Exporter{},
		extToImport: map[string]Importer{},
	}
}

// RegisterExporter adds e, indexed by id and every extension it claims.
func (r *Registry) RegisterExporter(e Exporter) {
	r.exporters[e.Id()] = e
	for _, ext := range e.FileExtensions() {
		r.extToExport[strings.ToLower(ext)] = e
	}
}

// RegisterImporter adds i, indexed by id and every extension it claims.
func (r *Registry) RegisterImporter(i Importer) {
	r.importers[i.Id()] = i
	for _, ext := range i.FileExtensions() {
		r.extToImport[strings.ToLower(ext)] = i
	}
}

// ExporterByID looks up a previously registered exporter.
func (r *Registry) ExporterByID(id string) (Exporter, error) {
	e, ok := r.exporters[id]
	if !ok {
		return nil, &Error{Kind: KindUnknownExporter, Id: id}
	}
	return e, nil
}

// ExporterByFilename infers the exporter from filename's extension
// (spec.md §6.3's "when omitted, uses the default exporter ... ").
func (r *Registry) ExporterByFilename(filename string) (Exporter, error) {
	ext := extOf(filename)
	e, ok := r.extToExport[ext]
	if !ok {
		return nil, &Error{Kind: KindUnknownExporter, Ext: ext}
	}
	return e, nil
}

// ImporterByID looks up a previously registered importer.
func (r *Registry) ImporterByID(id string) (Importer, error) {
	i, ok := r.importers[id]
	if !ok {
		return nil, &Error{Kind: KindUnknownImporter, Id: id}
	}
	return i, nil
}

// ImporterByFilename infers the importer from filename's extension.
func (r *Registry) ImporterByFilename(filename string) (Importer, error) {
	ext := extOf(filename)
	i, ok := r.extToImport[ext]
	if !ok {
		return nil, &Error{Kind: KindUnknownImporter, Ext: ext}
	}
	return i, nil
}

// Ids returns every registered exporter id, sorted, for `-l`/`--list`
// style CLI output.
func (r *Registry) Ids() []string {
	ids := make([]string, 0, len(r.exporters))
	for id := range r.exporters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func extOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// NewDefaultRegistry returns a registry with the "debug" exporter and
// importer registered — the reference implementation every other
// concrete format is deliberately left out of scope in favor of
// (spec.md's Non-goals).
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterExporter(DebugExporter{})
	r.RegisterImporter(DebugImporter{})
	return r
}

// DebugExporter writes a plain-text dump of a node's subtree: one
// indented line per node naming its kind, properties and attributes.
// It stands in for a real geometry exporter (PLY/SVG/STL), whose
// header-then-body writeln sequence (export/ply.rs's PlyWriter) it
// borrows the shape of without any geometry dependency.
type DebugExporter struct{}

func (DebugExporter) Id() string              { return "debug" }
func (DebugExporter) FileExtensions() []string { return []string{"dbg", "txt"} }

func (DebugExporter) Export(n *model.Node, filename string, resolution float64) (value.Value, error) {
	f, err := os.Create(filename)
	if err != nil {
		return value.Value{}, err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# µcad debug export (resolution=%g)\n", resolution)
	writeNode(w, n, 0)
	if err := w.Flush(); err != nil {
		return value.Value{}, err
	}
	return value.String(filename, srcref.None()), nil
}

func writeNode(w io.Writer, n *model.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s", indent, n.Kind)
	if n.Id != nil {
		fmt.Fprintf(w, " %s", n.Id)
	}
	fmt.Fprintln(w)
	for id, v := range n.Properties {
		fmt.Fprintf(w, "%s  %s = %s\n", indent, id, v.String())
	}
	for _, a := range n.Attributes {
		fmt.Fprintf(w, "%s  @%s = %s\n", indent, a.Id, a.Value.String())
	}
	for _, c := range n.Children {
		writeNode(w, c, depth+1)
	}
}

// DebugImporter reads back a file written by DebugExporter as a raw
// string Value — mostly useful for round-trip tests of the registry
// contract itself, since there is no geometry to reconstruct.
type DebugImporter struct{}

func (DebugImporter) Id() string              { return "debug" }
func (DebugImporter) FileExtensions() []string { return []string{"dbg", "txt"} }

func (DebugImporter) Import(filename string) (value.Value, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return value.Value{}, err
	}
	return value.String(string(data), srcref.None()), nil
}
