package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/parse"
	"github.com/microcad/ucad/internal/symbol"
)

func mustResolve(t *testing.T, source string) (*symbol.Resolver, []error) {
	t.Helper()
	file, err := parse.ParseSourceFile("test.ucad", source, 1, ident.Parse("test"))
	require.NoError(t, err)
	r := symbol.NewResolver()
	errs := r.ResolveSourceFile(file)
	errs = append(errs, r.FinishUses()...)
	return r, errs
}

func TestBuiltinPrePopulated(t *testing.T) {
	r := symbol.NewResolver()
	assert.NotNil(t, r.Builtin())
	assert.Equal(t, symbol.KindBuiltin, r.Builtin().Kind)
}

func TestResolveModuleAndWorkbenchAsChildren(t *testing.T) {
	r, errs := mustResolve(t, `
		module geo {
			workbench Box(size: Scalar) {
				value area = size;
			}
		}
	`)
	require.Empty(t, errs)

	geo, err := r.Root.Search(ident.Parse("geo"))
	require.NoError(t, err)
	assert.Equal(t, symbol.KindModule, geo.Kind)

	box, err := r.Root.Search(ident.Parse("geo::Box"))
	require.NoError(t, err)
	assert.Equal(t, symbol.KindWorkbench, box.Kind)

	// the assignment inside Box's body is a local, not a symbol child
	assert.Equal(t, 0, box.Children.Size())
}

func TestDuplicateDefinitionIsAnError(t *testing.T) {
	_, errs := mustResolve(t, `
		workbench Box() {}
		workbench Box() {}
	`)
	require.Len(t, errs, 1)
	rerr, ok := errs[0].(*symbol.ResolveError)
	require.True(t, ok)
	assert.Equal(t, symbol.KindSymbolAlreadyDefined, rerr.Kind)
}

func TestUseSingleInsertsAlias(t *testing.T) {
	r, errs := mustResolve(t, `
		module geo {
			workbench Circle() {}
		}
		use geo::Circle;
	`)
	require.Empty(t, errs)

	circle, err := r.Root.Search(ident.Parse("Circle"))
	require.NoError(t, err)
	assert.Equal(t, symbol.KindWorkbench, circle.Kind)
}

func TestUseAliasInsertsRenamedAlias(t *testing.T) {
	r, errs := mustResolve(t, `
		module geo {
			workbench Circle() {}
		}
		use geo::Circle as C;
	`)
	require.Empty(t, errs)

	_, err := r.Root.Search(ident.Parse("Circle"))
	assert.Error(t, err)

	c, err := r.Root.Search(ident.Parse("C"))
	require.NoError(t, err)
	assert.Equal(t, symbol.KindWorkbench, c.Kind)
}

func TestUseAllInsertsAliasPerChild(t *testing.T) {
	r, errs := mustResolve(t, `
		module geo {
			workbench Circle() {}
			workbench Square() {}
		}
		use geo::*;
	`)
	require.Empty(t, errs)

	_, err := r.Root.Search(ident.Parse("Circle"))
	assert.NoError(t, err)
	_, err = r.Root.Search(ident.Parse("Square"))
	assert.NoError(t, err)
}

func TestLookupWithinDisambiguatesAlias(t *testing.T) {
	r, errs := mustResolve(t, `
		module geo {
			workbench Circle() {}
		}
		use geo::Circle;
	`)
	require.Empty(t, errs)

	within := r.Root
	sym, err := symbol.LookupWithin(r.Root, within, ident.Parse("Circle"))
	require.NoError(t, err)
	assert.Equal(t, symbol.KindWorkbench, sym.Kind)
}
