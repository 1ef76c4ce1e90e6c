package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/types"
	"github.com/microcad/ucad/internal/unit"
	"github.com/microcad/ucad/internal/value"
)

func TestArithAddsLengths(t *testing.T) {
	a := value.Quantity(3, unit.Length, srcref.None())
	b := value.Quantity(4, unit.Length, srcref.None())

	sum, err := value.Arith(value.OpAdd, a, b, srcref.None())
	require.NoError(t, err)
	assert.Equal(t, unit.Length, sum.QuantityKind())
	assert.Equal(t, float64(7), sum.Num())
}

func TestArithLengthTimesLengthIsArea(t *testing.T) {
	a := value.Quantity(2, unit.Length, srcref.None())
	b := value.Quantity(3, unit.Length, srcref.None())

	product, err := value.Arith(value.OpMul, a, b, srcref.None())
	require.NoError(t, err)
	assert.Equal(t, unit.Area, product.QuantityKind())
	assert.Equal(t, float64(6), product.Num())
}

func TestArithIncompatibleQuantities(t *testing.T) {
	a := value.Quantity(1, unit.Length, srcref.None())
	b := value.Quantity(1, unit.Angle, srcref.None())

	_, err := value.Arith(value.OpAdd, a, b, srcref.None())
	assert.Error(t, err)
}

func TestArithInvalidPropagates(t *testing.T) {
	inv := value.Invalid(srcref.None())
	n := value.Integer(1, srcref.None())

	result, err := value.Arith(value.OpAdd, inv, n, srcref.None())
	require.NoError(t, err)
	assert.True(t, result.IsInvalid())
}

func TestCompareLengths(t *testing.T) {
	a := value.Quantity(1, unit.Length, srcref.None())
	b := value.Quantity(2, unit.Length, srcref.None())

	lt, err := value.Compare(value.CmpLt, a, b, srcref.None())
	require.NoError(t, err)
	assert.True(t, lt.BoolVal())
}

func TestColorShapeRecognition(t *testing.T) {
	c, err := value.ColorFromString("red", srcref.None())
	require.NoError(t, err)
	assert.True(t, types.IsColor(c.Type()))
	assert.Equal(t, float64(1), c.Named()["r"].Num())
}

func TestColorFromHex(t *testing.T) {
	c, err := value.ColorFromString("#FF0000", srcref.None())
	require.NoError(t, err)
	assert.True(t, types.IsColor(c.Type()))
	assert.InDelta(t, 1.0, c.Named()["r"].Num(), 0.001)
	assert.InDelta(t, 0.0, c.Named()["g"].Num(), 0.001)
}

func TestVec2ShapeRecognition(t *testing.T) {
	v := value.Vec2(1, 2, unit.Length, srcref.None())
	assert.True(t, types.IsVec2(v.Type()))
	assert.False(t, types.IsVec3(v.Type()))
}

func TestToStringPrecision(t *testing.T) {
	q := value.Quantity(3.14159, unit.Scalar, srcref.None())
	s, err := q.ToString(".2")
	require.NoError(t, err)
	assert.Equal(t, "3.14", s)
}

func TestToStringLeadingZeros(t *testing.T) {
	n := value.Integer(7, srcref.None())
	s, err := n.ToString("03")
	require.NoError(t, err)
	assert.Equal(t, "007", s)
}
