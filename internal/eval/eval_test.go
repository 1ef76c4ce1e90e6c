package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcad/ucad/internal/diag"
	"github.com/microcad/ucad/internal/eval"
	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/model"
	"github.com/microcad/ucad/internal/parse"
	"github.com/microcad/ucad/internal/symbol"
	"github.com/microcad/ucad/internal/types"
	"github.com/microcad/ucad/internal/unit"
	"github.com/microcad/ucad/internal/value"
)

// runRaw parses, resolves and evaluates source as one source file,
// returning the trailing statement's value, the child models any
// expression statement produced, the diagnostics sink, and any hard
// evaluation error (a failure EvalCall did not downgrade to a
// diagnostic, e.g. a method-call dispatch failure).
func runRaw(t *testing.T, source string) (value.Value, []*model.Node, *diag.Sink, error) {
	t.Helper()
	file, err := parse.ParseSourceFile("test.ucad", source, 1, ident.Parse("test"))
	require.NoError(t, err)

	r := symbol.NewResolver()
	eval.RegisterBuiltins(r.Builtin())
	errs := r.ResolveSourceFile(file)
	errs = append(errs, r.FinishUses()...)
	require.Empty(t, errs)

	sink := diag.NewSink(0)
	ctx := eval.NewContext(r.Root, sink)
	v, kids, err := eval.EvalBody(ctx, file.Statements)
	return v, kids, sink, err
}

// run is runRaw for the common case where evaluation is expected to
// succeed without a hard error (a failed call is still reported to
// the sink rather than aborting).
func run(t *testing.T, source string) (value.Value, []*model.Node, *diag.Sink) {
	t.Helper()
	v, kids, sink, err := runRaw(t, source)
	require.NoError(t, err)
	return v, kids, sink
}

func TestArithmeticWithUnits(t *testing.T) {
	v, _, sink := run(t, `value result = 1mm + 2mm;`)
	require.Empty(t, sink.All())
	assert.Equal(t, float64(3), v.Num())
	assert.Equal(t, unit.Length, v.QuantityKind())
}

func TestArithmeticMixedQuantityIsTypeMismatch(t *testing.T) {
	file, err := parse.ParseSourceFile("test.ucad", `value result = 1mm + 2deg;`, 1, ident.Parse("test"))
	require.NoError(t, err)
	r := symbol.NewResolver()
	errs := r.ResolveSourceFile(file)
	errs = append(errs, r.FinishUses()...)
	require.Empty(t, errs)

	ctx := eval.NewContext(r.Root, diag.NewSink(0))
	_, _, err = eval.EvalBody(ctx, file.Statements)
	require.Error(t, err)
}

func TestMinusBetweenScalarsIsArithmeticNotModelDifference(t *testing.T) {
	v, _, sink := run(t, `value result = 5mm - 2mm;`)
	require.Empty(t, sink.All())
	assert.Equal(t, float64(3), v.Num())
}

func TestWorkbenchCallWithSinglePlanMatchProducesOneModel(t *testing.T) {
	v, _, sink := run(t, `
		workbench Box(size: Scalar) {}
		value result = Box(size: 2);
	`)
	require.Empty(t, sink.All())
	require.True(t, v.Type().IsModel())
	nd, ok := v.ModelRef().(*model.Node)
	require.True(t, ok)
	prop, ok := nd.Property("size")
	require.True(t, ok)
	assert.Equal(t, int64(2), prop.Int())
}

func TestWorkbenchCallMultiplicityProducesArray(t *testing.T) {
	v, _, sink := run(t, `
		workbench Box(size: Scalar) {}
		value result = Box(size: [1, 2, 3]);
	`)
	require.Empty(t, sink.All())
	require.True(t, v.Type().IsArray())
	elems := v.Elems()
	require.Len(t, elems, 3)
	for i, want := range []int64{1, 2, 3} {
		nd := elems[i].ModelRef().(*model.Node)
		prop, ok := nd.Property("size")
		require.True(t, ok)
		assert.Equal(t, want, prop.Int())
	}
}

func TestWorkbenchInitDispatchSetsDerivedProperty(t *testing.T) {
	v, _, sink := run(t, `
		workbench Circle(r: Scalar) {
			init(d: Scalar) {
				prop r = d / 2;
			}
		}
		value result = Circle(d: 6);
	`)
	require.Empty(t, sink.All())
	nd := v.ModelRef().(*model.Node)
	prop, ok := nd.Property("r")
	require.True(t, ok)
	assert.Equal(t, int64(3), prop.Int())
}

func TestWorkbenchInitMissingPropertyIsReported(t *testing.T) {
	_, _, sink := run(t, `
		workbench Circle(r: Scalar) {
			init(d: Scalar) {
				value ignored = d;
			}
		}
		value result = Circle(d: 6);
	`)
	require.NotEmpty(t, sink.All())
}

func TestUseAliasMakesWorkbenchCallable(t *testing.T) {
	v, _, sink := run(t, `
		module geo {
			workbench Circle(r: Scalar) {}
		}
		use geo::Circle;
		value result = Circle(r: 1);
	`)
	require.Empty(t, sink.All())
	assert.True(t, v.Type().IsModel())
}

func TestFunctionCallReturnsExpressionValue(t *testing.T) {
	v, _, sink := run(t, `
		function double(x: Scalar) {
			return x * 2;
		}
		value result = double(x: 4);
	`)
	require.Empty(t, sink.All())
	assert.Equal(t, int64(8), v.Int())
}

func TestFunctionCallDoesNotSupportMultiplicity(t *testing.T) {
	_, _, sink := run(t, `
		function double(x: Scalar) {
			return x * 2;
		}
		value result = double(x: [1, 2]);
	`)
	require.NotEmpty(t, sink.All())
}

func TestAssertPassDoesNotReport(t *testing.T) {
	_, _, sink := run(t, `assert(1 == 1);`)
	assert.Empty(t, sink.All())
}

func TestAssertFailureIsReportedNotAborted(t *testing.T) {
	_, _, sink := run(t, `
		assert(1 == 2, "should not be equal");
		value result = 5;
	`)
	require.NotEmpty(t, sink.All())
}

func TestAssertEqAllElementsMustMatch(t *testing.T) {
	_, _, sink := run(t, `assert_eq([1, 1, 1]);`)
	assert.Empty(t, sink.All())

	_, _, sink2 := run(t, `assert_eq([1, 2, 1]);`)
	assert.NotEmpty(t, sink2.All())
}

func TestMathBuiltinsOperateOnQuantities(t *testing.T) {
	v, _, sink := run(t, `value result = sqrt(9);`)
	require.Empty(t, sink.All())
	assert.Equal(t, float64(3), v.Num())

	v2, _, sink2 := run(t, `value result = abs(0deg - 90deg);`)
	require.Empty(t, sink2.All())
	assert.Equal(t, unit.Angle, v2.QuantityKind())
}

func TestArrayMethodCallsDispatchByName(t *testing.T) {
	v, _, sink := run(t, `value result = [1, 2, 3].count();`)
	require.Empty(t, sink.All())
	assert.Equal(t, int64(3), v.Int())

	v2, _, sink2 := run(t, `value result = [1, 2, 3].ascending();`)
	require.Empty(t, sink2.All())
	assert.True(t, v2.BoolVal())

	v3, _, sink3 := run(t, `value result = [3, 2, 1].ascending();`)
	require.Empty(t, sink3.All())
	assert.False(t, v3.BoolVal())
}

// Method-call dispatch failures are not downgraded to diagnostics the
// way EvalCall downgrades a Call's: they abort evaluation as a hard
// error, since only Call's own lookup/dispatch is the diagnostics
// boundary spec.md names.
func TestUnknownMethodCallIsReported(t *testing.T) {
	_, _, _, err := runRaw(t, `value result = [1, 2].bogus();`)
	require.Error(t, err)
	merr, ok := err.(*eval.Error)
	require.True(t, ok)
	assert.Equal(t, eval.ErrUnknownMethod, merr.Kind)
}

func TestModelGeometryMethodRequiresGeometryKernel(t *testing.T) {
	_, _, _, err := runRaw(t, `
		workbench Box(size: Scalar) {}
		value result = Box(size: 1).volume();
	`)
	require.Error(t, err)
}

func TestIfStatementBranchesOnCondition(t *testing.T) {
	v, _, sink := run(t, `
		function pick(cond: Bool) {
			if cond {
				return 1;
			} else {
				return 2;
			}
		}
		value result = pick(cond: false);
	`)
	require.Empty(t, sink.All())
	assert.Equal(t, int64(2), v.Int())
}

func TestUnknownCallIsReportedAsDiagnosticNotHardError(t *testing.T) {
	v, _, sink := run(t, `value result = bogus(x: 1);`)
	require.NotEmpty(t, sink.All())
	assert.True(t, v.IsNone())
}

func TestUnaryNotNegatesBool(t *testing.T) {
	v, _, sink := run(t, `value result = !(1 == 1);`)
	require.Empty(t, sink.All())
	assert.False(t, v.BoolVal())
	assert.Equal(t, types.KBool, v.Type().Kind())
}
