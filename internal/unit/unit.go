// Package unit implements the fixed table of number-literal units
// recognized by the parser (spec.md §6.2) and the quantity algebra
// that arithmetic over Quantity values must preserve (spec.md §3.3).
package unit

import "fmt"

// Quantity classifies a Unit's physical dimension.
type Quantity int

const (
	Scalar Quantity = iota
	Length
	Area
	Volume
	Angle
	Weight
	Density
)

func (q Quantity) String() string {
	switch q {
	case Scalar:
		return "Scalar"
	case Length:
		return "Length"
	case Area:
		return "Area"
	case Volume:
		return "Volume"
	case Angle:
		return "Angle"
	case Weight:
		return "Weight"
	case Density:
		return "Density"
	default:
		return "Unknown"
	}
}

// Unit is a single recognized literal suffix, e.g. "mm" or "deg".
type Unit struct {
	Symbol     string
	Quantity   Quantity
	ToCanonical float64 // multiplier converting a literal value to the canonical internal unit
}

// Canonical internal units: mm (Length), rad (Angle), g (Weight),
// mm² (Area), mm³ (Volume), dimensionless (Scalar), g/mm³ (Density).
var table = []Unit{
	{"", Scalar, 1},
	{"%", Scalar, 0.01},

	{"m", Length, 1000},
	{"cm", Length, 10},
	{"mm", Length, 1},
	{"µm", Length, 0.001},
	{"in", Length, 25.4},
	{"\"", Length, 25.4},
	{"ft", Length, 304.8},
	{"'", Length, 304.8},
	{"yd", Length, 914.4},

	{"deg", Angle, 0.017453292519943295},
	{"°", Angle, 0.017453292519943295},
	{"grad", Angle, 0.015707963267948967},
	{"turn", Angle, 6.283185307179586},
	{"rad", Angle, 1},

	{"g", Weight, 1},
	{"kg", Weight, 1000},
	{"lb", Weight, 453.59237},
	{"oz", Weight, 28.349523125},

	{"m²", Area, 1_000_000},
	{"m2", Area, 1_000_000},
	{"cm²", Area, 100},
	{"cm2", Area, 100},
	{"mm²", Area, 1},
	{"mm2", Area, 1},
	{"in²", Area, 645.16},
	{"in2", Area, 645.16},
	{"ft²", Area, 92903.04},
	{"ft2", Area, 92903.04},
	{"yd²", Area, 836127.36},
	{"yd2", Area, 836127.36},

	{"m³", Volume, 1_000_000_000},
	{"m3", Volume, 1_000_000_000},
	{"cm³", Volume, 1000},
	{"cm3", Volume, 1000},
	{"mm³", Volume, 1},
	{"mm3", Volume, 1},
	{"in³", Volume, 16387.064},
	{"in3", Volume, 16387.064},
	{"ft³", Volume, 28316846.592},
	{"ft3", Volume, 28316846.592},
	{"yd³", Volume, 764554857.984},
	{"yd3", Volume, 764554857.984},
	{"ml", Volume, 1000},
	{"cl", Volume, 10000},
	{"l", Volume, 1_000_000},
	{"µl", Volume, 1},
}

var bySymbol = func() map[string]Unit {
	m := make(map[string]Unit, len(table))
	for _, u := range table {
		m[u.Symbol] = u
	}
	return m
}()

// Lookup returns the Unit for a parsed literal suffix, or ok=false if
// the suffix is not one of the recognized units (spec.md §6.2).
func Lookup(symbol string) (Unit, bool) {
	u, ok := bySymbol[symbol]
	return u, ok
}

// Dimensionless is the implicit unit of an unsuffixed number literal.
var Dimensionless = bySymbol[""]

// Add returns the resulting Quantity of a+b, or ok=false if the
// operation is not defined (only same-quantity addition is valid).
func Add(a, b Quantity) (Quantity, bool) {
	if a == b {
		return a, true
	}
	return Scalar, false
}

// Mul returns the resulting Quantity of a*b per the algebra: Scalar is
// the multiplicative identity, Length*Length=Area, Length*Area=Volume.
func Mul(a, b Quantity) (Quantity, bool) {
	if a == Scalar {
		return b, true
	}
	if b == Scalar {
		return a, true
	}
	switch {
	case a == Length && b == Length:
		return Area, true
	case a == Length && b == Area, a == Area && b == Length:
		return Volume, true
	case a == Weight && b == Density, a == Density && b == Weight:
		return Volume, true
	default:
		return Scalar, false
	}
}

// Div returns the resulting Quantity of a/b: Q/Q=Scalar, Q/Scalar=Q,
// Volume/Area=Length, Volume/Length=Area, Area/Length=Length.
func Div(a, b Quantity) (Quantity, bool) {
	if a == b {
		return Scalar, true
	}
	if b == Scalar {
		return a, true
	}
	switch {
	case a == Volume && b == Area:
		return Length, true
	case a == Volume && b == Length:
		return Area, true
	case a == Area && b == Length:
		return Length, true
	default:
		return Scalar, false
	}
}

// MustLookup panics on an unknown unit; intended for package-internal
// table construction and tests only.
func MustLookup(symbol string) Unit {
	u, ok := Lookup(symbol)
	if !ok {
		panic(fmt.Sprintf("unit: unknown unit %q", symbol))
	}
	return u
}
