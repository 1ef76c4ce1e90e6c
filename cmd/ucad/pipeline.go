package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcad/ucad/internal/config"
	"github.com/microcad/ucad/internal/diag"
	"github.com/microcad/ucad/internal/eval"
	"github.com/microcad/ucad/internal/externals"
	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/model"
	"github.com/microcad/ucad/internal/parse"
	"github.com/microcad/ucad/internal/sourcecache"
	"github.com/microcad/ucad/internal/symbol"
	"github.com/microcad/ucad/internal/syntax"
	"github.com/microcad/ucad/internal/value"
)

// pipeline is the shared parse -> resolve -> evaluate run every
// non-trivial subcommand drives, mirroring the way scala/main.go's
// handleFile closure is reused across the .scala and .srcjar cases:
// one function, parameterized by how far it needs to go.
type pipeline struct {
	externals *externals.Externals
	cache     *sourcecache.Cache
	resolver  *symbol.Resolver
	sink      *diag.Sink
	root      *syntax.SourceFile
}

// newPipeline parses the root file and indexes the configured search
// paths, without resolving or evaluating yet.
func newPipeline(path string, cfg *config.Config) (*pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	source := string(data)
	hash := sourcecache.HashSource(source)

	ext, err := externals.New(cfg.SearchPaths)
	if err != nil {
		return nil, err
	}

	name, ok := ext.NameForPath(path)
	if !ok {
		name = ident.Parse(stemOf(path))
	}
	root, err := parse.ParseSourceFile(path, source, hash, name)
	if err != nil {
		return nil, err
	}

	cache := sourcecache.New(root, ext)
	return &pipeline{externals: ext, cache: cache, root: root, sink: diag.NewSink(0)}, nil
}

// resolve builds the symbol tree for the root file plus every external
// file a `use` statement pulls in transitively. A `use a::b::*` whose
// target isn't defined yet fails FinishUses with KindSymbolNotFound;
// the externals index is consulted for a file that could define it,
// that file is loaded and resolved, and FinishUses is retried —
// spec.md §4.2's resolve-retry loop, since resolveBody/FinishUses
// themselves only know about symbols already in the tree.
func (p *pipeline) resolve() error {
	p.resolver = symbol.NewResolver()
	eval.RegisterBuiltins(p.resolver.Builtin())

	if errs := p.resolver.ResolveSourceFile(p.root); len(errs) > 0 {
		return errs[0]
	}

	for {
		errs := p.resolver.FinishUses()
		if len(errs) == 0 {
			return nil
		}
		progressed := false
		for _, err := range errs {
			rerr, ok := err.(*symbol.ResolveError)
			if !ok || rerr.Kind != symbol.KindSymbolNotFound {
				return err
			}
			_, path, ferr := p.externals.FetchExternal(rerr.Name)
			if ferr != nil {
				return err
			}
			file, lerr := p.loadExternal(path)
			if lerr != nil {
				return lerr
			}
			if errs := p.resolver.ResolveSourceFile(file); len(errs) > 0 {
				return errs[0]
			}
			progressed = true
		}
		if !progressed {
			return errs[0]
		}
	}
}

func (p *pipeline) loadExternal(path string) (*syntax.SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	source := string(data)
	hash := sourcecache.HashSource(source)
	name, _ := p.externals.GetName(path)
	file, err := parse.ParseSourceFile(path, source, hash, name)
	if err != nil {
		return nil, err
	}
	if _, err := p.cache.Insert(file); err != nil {
		return nil, err
	}
	return file, nil
}

// eval evaluates the root file's top-level statements, returning the
// trailing value plus any root-level child models (spec.md §4.5).
func (p *pipeline) eval() (value.Value, []*model.Node, error) {
	ctx := eval.NewContext(p.resolver.Root, p.sink)
	return eval.EvalBody(ctx, p.root.Statements)
}

// report pretty-prints every diagnostic collected so far, returning
// true if at least one Error-level diagnostic was reported (spec.md
// §7: "on any error, the CLI exits non-zero and prints the diagnostic
// report").
func (p *pipeline) report() bool {
	diags := p.sink.All()
	if len(diags) == 0 {
		return false
	}
	fmt.Fprint(os.Stderr, diag.Render(diags, p.cache))
	return p.sink.HasErrors()
}

// stemOf mirrors externals.go's trimExtension, applied to a single
// loose file rather than a scanned search path.
func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
