package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/unit"
)

// namedColors mirrors original_source/core/color.rs's FromStr match arms.
var namedColors = map[string][4]float32{
	"blue":        {0, 0, 1, 1},
	"red":         {1, 0, 0, 1},
	"green":       {0, 1, 0, 1},
	"yellow":      {1, 1, 0, 1},
	"cyan":        {0, 1, 1, 1},
	"magenta":     {1, 0, 1, 1},
	"black":       {0, 0, 0, 1},
	"white":       {1, 1, 1, 1},
	"gray":        {0.5, 0.5, 0.5, 1},
	"orange":      {1, 0.5, 0, 1},
	"purple":      {0.5, 0, 0.5, 1},
	"pink":        {1, 0.75, 0.8, 1},
	"brown":       {0.6, 0.3, 0.1, 1},
	"lime":        {0.75, 1, 0, 1},
	"teal":        {0, 0.5, 0.5, 1},
	"navy":        {0, 0, 0.5, 1},
	"transparent": {0, 0, 0, 0},
}

// ColorFromString parses a named color or a #RGB/#RGBA/#RRGGBB/#RRGGBBAA
// hex literal into a Color-shaped tuple value, per
// original_source/core/color.rs.
func ColorFromString(s string, ref srcref.SrcRef) (Value, error) {
	if rgba, ok := namedColors[s]; ok {
		return colorTuple(rgba[0], rgba[1], rgba[2], rgba[3], ref), nil
	}
	if strings.HasPrefix(s, "#") {
		return colorFromHex(s, ref)
	}
	return Value{}, fmt.Errorf("value: unknown color name %q", s)
}

func colorFromHex(hex string, ref srcref.SrcRef) (Value, error) {
	body := hex[1:]
	hex4 := func(pos int) (float32, error) {
		n, err := strconv.ParseUint(body[pos:pos+1], 16, 8)
		if err != nil {
			return 0, err
		}
		return float32(n) / 15.0, nil
	}
	hex8 := func(pos int) (float32, error) {
		n, err := strconv.ParseUint(body[pos:pos+2], 16, 8)
		if err != nil {
			return 0, err
		}
		return float32(n) / 255.0, nil
	}
	switch len(body) {
	case 3, 4:
		r, err := hex4(0)
		if err != nil {
			return Value{}, err
		}
		g, err := hex4(1)
		if err != nil {
			return Value{}, err
		}
		b, err := hex4(2)
		if err != nil {
			return Value{}, err
		}
		a := float32(1.0)
		if len(body) == 4 {
			a, err = hex4(3)
			if err != nil {
				return Value{}, err
			}
		}
		return colorTuple(r, g, b, a, ref), nil
	case 6, 8:
		r, err := hex8(0)
		if err != nil {
			return Value{}, err
		}
		g, err := hex8(2)
		if err != nil {
			return Value{}, err
		}
		b, err := hex8(4)
		if err != nil {
			return Value{}, err
		}
		a := float32(1.0)
		if len(body) == 8 {
			a, err = hex8(6)
			if err != nil {
				return Value{}, err
			}
		}
		return colorTuple(r, g, b, a, ref), nil
	default:
		return Value{}, fmt.Errorf("value: invalid hex color %q", hex)
	}
}

func colorTuple(r, g, b, a float32, ref srcref.SrcRef) Value {
	named := map[string]Value{
		"r": Quantity(float64(r), unit.Scalar, ref),
		"g": Quantity(float64(g), unit.Scalar, ref),
		"b": Quantity(float64(b), unit.Scalar, ref),
		"a": Quantity(float64(a), unit.Scalar, ref),
	}
	return Tuple(named, nil, ref)
}

// Vec2 builds a {x, y: Q} tuple value.
func Vec2(x, y float64, q unit.Quantity, ref srcref.SrcRef) Value {
	return Tuple(map[string]Value{
		"x": Quantity(x, q, ref),
		"y": Quantity(y, q, ref),
	}, nil, ref)
}

// Vec3 builds a {x, y, z: Q} tuple value.
func Vec3(x, y, z float64, q unit.Quantity, ref srcref.SrcRef) Value {
	return Tuple(map[string]Value{
		"x": Quantity(x, q, ref),
		"y": Quantity(y, q, ref),
		"z": Quantity(z, q, ref),
	}, nil, ref)
}
