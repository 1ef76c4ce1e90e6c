package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/parse"
	"github.com/microcad/ucad/internal/syntax"
)

func mustParseFile(t *testing.T, source string) *syntax.SourceFile {
	t.Helper()
	f, err := parse.ParseSourceFile("test.ucad", source, 1, ident.Parse("test"))
	require.NoError(t, err)
	return f
}

func TestParseAssignmentWithNumberUnit(t *testing.T) {
	f := mustParseFile(t, `value x = 5mm;`)
	require.Len(t, f.Statements, 1)
	a, ok := f.Statements[0].(*syntax.AssignmentStatement)
	require.True(t, ok)
	assert.Equal(t, syntax.QualValue, a.Qualifier)
	lit, ok := a.Expr.(*syntax.LiteralExpression)
	require.True(t, ok)
	assert.Equal(t, syntax.LitNumber, lit.Kind)
	assert.Equal(t, float64(5), lit.Number)
	assert.Equal(t, "mm", lit.Unit.Symbol)
}

func TestParseWorkbenchWithInit(t *testing.T) {
	f := mustParseFile(t, `
		workbench Box(size: Scalar) {
			init(w: Scalar, h: Scalar) {
				prop size = w;
			}
		}
	`)
	require.Len(t, f.Statements, 1)
	wb, ok := f.Statements[0].(*syntax.WorkbenchStatement)
	require.True(t, ok)
	assert.Equal(t, "Box", wb.Name.Text)
	require.Len(t, wb.Plan.Params, 1)
	require.Len(t, wb.Inits, 1)
	assert.Len(t, wb.Inits[0].Params.Params, 2)
}

func TestParseUseStatementVariants(t *testing.T) {
	for _, tc := range []struct {
		name   string
		source string
	}{
		{"single", `use a::b::c;`},
		{"wildcard", `use a::b::*;`},
		{"alias", `use a::b as x;`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := mustParseFile(t, tc.source)
			require.Len(t, f.Statements, 1)
			_, ok := f.Statements[0].(*syntax.UseStatement)
			assert.True(t, ok)
		})
	}
}

func TestParseCallExpressionStatement(t *testing.T) {
	f := mustParseFile(t, `circle(radius: 5mm);`)
	require.Len(t, f.Statements, 1)
	es, ok := f.Statements[0].(*syntax.ExpressionStatement)
	require.True(t, ok)
	call, ok := es.Expr.(*syntax.CallExpression)
	require.True(t, ok)
	require.Len(t, call.Args.Args, 1)
	assert.Equal(t, "radius", call.Args.Args[0].Name.Text)
}

func TestParseArithmeticMinusVsModelDifference(t *testing.T) {
	arith := mustParseFile(t, `value x = 5mm - 2mm;`)
	a := arith.Statements[0].(*syntax.AssignmentStatement)
	bop, ok := a.Expr.(*syntax.BinaryOpExpression)
	require.True(t, ok)
	assert.Equal(t, syntax.OpMinus, bop.Op)
	assert.False(t, bop.ModelShaped)

	diff := mustParseFile(t, `value x = box(size: 1mm) - sphere(radius: 1mm);`)
	d := diff.Statements[0].(*syntax.AssignmentStatement)
	dbop, ok := d.Expr.(*syntax.BinaryOpExpression)
	require.True(t, ok)
	assert.Equal(t, syntax.OpDifference, dbop.Op)
	assert.True(t, dbop.ModelShaped)
}

func TestParseFormatStringWithSpec(t *testing.T) {
	f := mustParseFile(t, `value x = "r={radius:.2}";`)
	a := f.Statements[0].(*syntax.AssignmentStatement)
	fs, ok := a.Expr.(*syntax.FormatStringExpression)
	require.True(t, ok)
	require.Len(t, fs.Pieces, 2)
	assert.Equal(t, "r=", fs.Pieces[0].Text)
	assert.Equal(t, ".2", fs.Pieces[1].Spec)
}

func TestParseMarkerStatement(t *testing.T) {
	f := mustParseFile(t, `@children;`)
	require.Len(t, f.Statements, 1)
	m, ok := f.Statements[0].(*syntax.MarkerStatement)
	require.True(t, ok)
	assert.Equal(t, "children", m.Name.Text)
}

func TestParseIfStatement(t *testing.T) {
	f := mustParseFile(t, `
		if x > 1mm {
			return x;
		} else {
			return 0mm;
		}
	`)
	ifs, ok := f.Statements[0].(*syntax.IfStatement)
	require.True(t, ok)
	assert.NotNil(t, ifs.Cond)
	assert.Len(t, ifs.Then, 1)
	assert.Len(t, ifs.Else, 1)
}

func TestParseMethodCallAndPropertyAccess(t *testing.T) {
	f := mustParseFile(t, `value x = shape.translate(x: 1mm).volume;`)
	a := f.Statements[0].(*syntax.AssignmentStatement)
	prop, ok := a.Expr.(*syntax.PropertyAccessExpression)
	require.True(t, ok)
	assert.Equal(t, "volume", prop.Name.Text)
	_, ok = prop.Receiver.(*syntax.MethodCallExpression)
	assert.True(t, ok)
}

func TestParseUnknownUnitErrors(t *testing.T) {
	_, err := parse.ParseSourceFile("test.ucad", `value x = 5bogus;`, 1, ident.Parse("test"))
	assert.Error(t, err)
}
