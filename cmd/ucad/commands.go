package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/microcad/ucad/internal/config"
	"github.com/microcad/ucad/internal/exporter"
	"github.com/microcad/ucad/internal/model"
	"github.com/microcad/ucad/internal/symbol"
)

// runParse parses a file and reports its top-level statement count,
// the cheapest possible smoke test for the grammar (spec.md §6.3's
// "parse: print the syntax tree or diagnostics, do nothing else").
func runParse(fs *flag.FlagSet, cfg *config.Config, args []string) error {
	if err := finishFlags(fs, cfg, args); err != nil {
		return err
	}
	path, err := requireFile(fs)
	if err != nil {
		return err
	}

	start := time.Now()
	p, err := newPipeline(path, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("parsed %d statement(s) from %s\n", len(p.root.Statements), path)
	reportTime(cfg, start)
	return nil
}

// runResolve parses and resolves a file, printing a summary of the
// symbol tree it built.
func runResolve(fs *flag.FlagSet, cfg *config.Config, args []string) error {
	if err := finishFlags(fs, cfg, args); err != nil {
		return err
	}
	path, err := requireFile(fs)
	if err != nil {
		return err
	}

	start := time.Now()
	p, err := newPipeline(path, cfg)
	if err != nil {
		return err
	}
	if err := p.resolve(); err != nil {
		return err
	}
	printSymbols(p.resolver.Root, 0)
	reportTime(cfg, start)
	return nil
}

// runEval parses, resolves and evaluates a file, printing its trailing
// value (spec.md §4.5: a source file's value is its last statement's).
func runEval(fs *flag.FlagSet, cfg *config.Config, args []string) error {
	if err := finishFlags(fs, cfg, args); err != nil {
		return err
	}
	path, err := requireFile(fs)
	if err != nil {
		return err
	}

	start := time.Now()
	p, err := newPipeline(path, cfg)
	if err != nil {
		return err
	}
	if err := p.resolve(); err != nil {
		return err
	}
	result, models, err := p.eval()
	if err != nil {
		return err
	}
	if hadErrors := p.report(); hadErrors {
		os.Exit(1)
	}
	if !result.IsNone() {
		fmt.Println(result.String())
	}
	fmt.Printf("%d root model(s)\n", len(models))
	reportTime(cfg, start)
	return nil
}

// runExport parses, resolves, evaluates and writes out every exportable
// model the run produced, mirroring original_source/tools/cli/commands/
// export.rs's ExportArgs (an output file, an optional exporter id, a
// resolution override and a -l/--list of registered exporters).
func runExport(fs *flag.FlagSet, cfg *config.Config, args []string) error {
	var (
		out        = fs.String("o", "", "output file (default: derived from the input file name)")
		exporterID = fs.String("e", "", "exporter id (default: inferred from the output extension)")
		resolution = fs.Float64("r", 0, "resolution override, in mm (default: from -C config or 0.1mm)")
		list       = fs.Bool("l", false, "list the registered exporter ids and exit")
		layers     repeatedFlag
	)
	fs.Var(&layers, "layer", "extra search path for this export only (repeatable)")
	if err := finishFlags(fs, cfg, args); err != nil {
		return err
	}
	cfg.SearchPaths = append(cfg.SearchPaths, layers...)

	registry := exporter.NewDefaultRegistry()
	if *list {
		for _, id := range registry.Ids() {
			fmt.Println(id)
		}
		return nil
	}

	path, err := requireFile(fs)
	if err != nil {
		return err
	}

	start := time.Now()
	p, err := newPipeline(path, cfg)
	if err != nil {
		return err
	}
	if err := p.resolve(); err != nil {
		return err
	}
	_, models, err := p.eval()
	if err != nil {
		return err
	}
	if hadErrors := p.report(); hadErrors {
		os.Exit(1)
	}

	res := *resolution
	if res == 0 {
		res = parseResolutionMM(cfg.DefaultResolution)
	}

	targets := exportTargets(models)
	if len(targets) == 0 {
		return fmt.Errorf("no exportable model in %s", path)
	}

	for i, n := range targets {
		filename := *out
		if filename == "" {
			filename = defaultExportName(cfg, path, n, i, len(targets))
		}
		e, eerr := exporterFor(registry, *exporterID, filename, n)
		if eerr != nil {
			return eerr
		}
		v, werr := e.Export(n, filename, res)
		if werr != nil {
			return werr
		}
		fmt.Printf("exported %s -> %s\n", n.Kind, v.String())
	}
	reportTime(cfg, start)
	return nil
}

// repeatedFlag implements flag.Value for a plain repeatable string
// flag, the `--layer` override export.rs's ExportArgs.layers names
// (the original's "search path good for this export only" behavior,
// distinct from `-P`'s run-wide search paths).
type repeatedFlag []string

func (r *repeatedFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatedFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

// exportTargets mirrors export.rs's target selection: nodes tagged
// with an `export` attribute take priority; with none tagged, every
// root model the evaluation produced is exported.
func exportTargets(roots []*model.Node) []*model.Node {
	var tagged []*model.Node
	for _, root := range roots {
		for _, n := range root.Descendants() {
			if _, ok := n.Attribute("export"); ok {
				tagged = append(tagged, n)
			}
		}
	}
	if len(tagged) > 0 {
		return tagged
	}
	return roots
}

func exporterFor(registry *exporter.Registry, id, filename string, n *model.Node) (exporter.Exporter, error) {
	if id == "" {
		if v, ok := n.Attribute("exporter"); ok {
			id = v.Str()
		}
	}
	if id != "" {
		return registry.ExporterByID(id)
	}
	return registry.ExporterByFilename(filename)
}

// defaultExportName picks an output file from the node's deduced
// output type, using the sketch/part extensions config.Export names
// (spec.md §6.3's "sketch/part default export type"; concrete svg/ply
// exporters are left out of scope per the Non-goals, so this almost
// always resolves to the "debug" exporter's own extension instead).
func defaultExportName(cfg *config.Config, srcPath string, n *model.Node, index, total int) string {
	stem := stemOf(srcPath)
	if v, ok := n.Attribute("export"); ok && v.Str() != "" {
		return v.Str()
	}

	ext := "dbg"
	switch n.Output.Type {
	case model.OutputGeometry2D:
		ext = cfg.Export.Sketch
	case model.OutputGeometry3D:
		ext = cfg.Export.Part
	}

	if total == 1 {
		return stem + "." + ext
	}
	return fmt.Sprintf("%s-%d.%s", stem, index, ext)
}

// runCreate scaffolds a new source file from the minimal template every
// µcad project starts from: a comment naming the file, an empty main
// workbench and a call to it, per spec.md §6.3's "create: write a stub file, do not
// overwrite an existing one".
func runCreate(fs *flag.FlagSet, cfg *config.Config, args []string) error {
	if err := finishFlags(fs, cfg, args); err != nil {
		return err
	}
	path, err := requireFile(fs)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing file %s", path)
	}

	name := stemOf(path)
	const template = "// %s\n\nworkbench main() {\n}\n\nmain();\n"
	if err := os.WriteFile(path, []byte(fmt.Sprintf(template, name)), 0o644); err != nil {
		return err
	}
	fmt.Printf("created %s\n", path)
	return nil
}

// runInstall copies a library directory into the per-user global root
// (config.GlobalRootDir), the `-P` search path every other run picks up
// automatically unless -omit-default-libs was given.
func runInstall(fs *flag.FlagSet, cfg *config.Config, args []string) error {
	if err := finishFlags(fs, cfg, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: ucad install <library-dir>")
	}
	src := fs.Arg(0)
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("install: %s is not a directory", src)
	}

	dest := filepath.Join(config.GlobalRootDir(), filepath.Base(src))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := copyDir(src, dest); err != nil {
		return err
	}
	fmt.Printf("installed %s -> %s\n", src, dest)
	return nil
}

func copyDir(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}

func requireFile(fs *flag.FlagSet) (string, error) {
	if fs.NArg() < 1 {
		return "", fmt.Errorf("usage: ucad %s [flags] <file>", fs.Name())
	}
	return fs.Arg(0), nil
}

func reportTime(cfg *config.Config, start time.Time) {
	if cfg.Time {
		fmt.Printf("%s: %s\n", "elapsed", time.Since(start))
	}
}

func printSymbols(s *symbol.Symbol, depth int) {
	names := s.Children.Values()
	sort.Slice(names, func(i, j int) bool { return names[i].Id.String() < names[j].Id.String() })
	for _, child := range names {
		fmt.Printf("%s%s (%s)\n", indent(depth), child.Id, child.Kind)
		printSymbols(child, depth+1)
	}
}

func indent(depth int) string {
	out := make([]byte, depth*2)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}

// parseResolutionMM accepts a bare "0.1mm"-style string from config and
// extracts its numeric millimeter value; anything it cannot parse falls
// back to the spec.md §4.7 default of 0.1mm.
func parseResolutionMM(s string) float64 {
	var v float64
	if _, err := fmt.Sscanf(s, "%f", &v); err != nil || v <= 0 {
		return 0.1
	}
	return v
}
