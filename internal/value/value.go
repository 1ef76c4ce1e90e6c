// Package value implements the µcad runtime Value union (spec.md §3.4).
package value

import (
	"fmt"
	"sort"
	"strings"

	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/types"
	"github.com/microcad/ucad/internal/unit"
)

// ModelRef is the minimal interface a model-tree node must satisfy to
// be held inside a Value::Model. internal/model implements this; value
// cannot import internal/model directly (model imports value for
// properties), so the dependency is inverted through this interface.
type ModelRef interface {
	ValueModelMarker()
}

// Value is the tagged union described in spec.md §3.4. The zero value
// is None.
type Value struct {
	kind  types.Kind
	none  bool
	i     int64
	b     bool
	s     string
	q     float64
	qkind unit.Quantity
	arr   []Value
	named map[string]Value
	unnamed []Value
	model ModelRef
	ref   srcref.SrcRef
}

func None() Value { return Value{none: true} }

func Integer(v int64, ref srcref.SrcRef) Value { return Value{kind: types.KInteger, i: v, ref: ref} }
func Bool(v bool, ref srcref.SrcRef) Value     { return Value{kind: types.KBool, b: v, ref: ref} }
func String(v string, ref srcref.SrcRef) Value { return Value{kind: types.KString, s: v, ref: ref} }

func Quantity(v float64, q unit.Quantity, ref srcref.SrcRef) Value {
	return Value{kind: types.KQuantity, q: v, qkind: q, ref: ref}
}

func Array(elems []Value, ref srcref.SrcRef) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: types.KArray, arr: cp, ref: ref}
}

// Tuple builds a tuple value from named fields and an ordered unnamed
// list (order preserved for the unnamed slice; structural type
// equality still treats them as a multiset).
func Tuple(named map[string]Value, unnamed []Value, ref srcref.SrcRef) Value {
	n := make(map[string]Value, len(named))
	for k, v := range named {
		n[k] = v
	}
	u := make([]Value, len(unnamed))
	copy(u, unnamed)
	return Value{kind: types.KTuple, named: n, unnamed: u, ref: ref}
}

func Model(m ModelRef, ref srcref.SrcRef) Value {
	return Value{kind: types.KModel, model: m, ref: ref}
}

func Invalid(ref srcref.SrcRef) Value { return Value{kind: types.KInvalid, ref: ref} }

func (v Value) IsNone() bool    { return v.none }
func (v Value) IsInvalid() bool { return !v.none && v.kind == types.KInvalid }
func (v Value) SrcRef() srcref.SrcRef { return v.ref }

func (v Value) Int() int64     { return v.i }
func (v Value) BoolVal() bool  { return v.b }
func (v Value) Str() string    { return v.s }
func (v Value) Num() float64   { return v.q }
func (v Value) QuantityKind() unit.Quantity { return v.qkind }
func (v Value) Elems() []Value { return v.arr }
func (v Value) Named() map[string]Value { return v.named }
func (v Value) Unnamed() []Value { return v.unnamed }
func (v Value) ModelRef() ModelRef { return v.model }

// Type performs the total type-of-value projection (spec.md §3.4).
func (v Value) Type() types.Type {
	if v.none {
		return types.Invalid()
	}
	switch v.kind {
	case types.KInteger:
		return types.Integer()
	case types.KBool:
		return types.Bool()
	case types.KString:
		return types.String()
	case types.KQuantity:
		return types.Quantity(v.qkind)
	case types.KArray:
		if len(v.arr) == 0 {
			return types.Array(types.Invalid())
		}
		return types.Array(v.arr[0].Type())
	case types.KTuple:
		named := make(map[string]types.Type, len(v.named))
		for k, fv := range v.named {
			named[k] = fv.Type()
		}
		unnamed := make([]types.Type, len(v.unnamed))
		for i, fv := range v.unnamed {
			unnamed[i] = fv.Type()
		}
		return types.Tuple(named, unnamed)
	case types.KModel:
		return types.Model()
	default:
		return types.Invalid()
	}
}

func (v Value) String() string {
	if v.none {
		return "None"
	}
	switch v.kind {
	case types.KInteger:
		return fmt.Sprintf("%d", v.i)
	case types.KBool:
		return fmt.Sprintf("%t", v.b)
	case types.KString:
		return v.s
	case types.KQuantity:
		return fmt.Sprintf("%g%s", v.q, v.qkind)
	case types.KArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case types.KTuple:
		keys := make([]string, 0, len(v.named))
		for k := range v.named {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(v.named)+len(v.unnamed))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s = %s", k, v.named[k]))
		}
		for _, u := range v.unnamed {
			parts = append(parts, u.String())
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case types.KModel:
		return "<model>"
	case types.KInvalid:
		return "<invalid>"
	default:
		return "?"
	}
}

// ToString applies a format-spec conversion for format-string
// interpolation (spec.md §4.5): precision (".N") for quantities/floats
// and leading-zero width ("0N") for integers.
func (v Value) ToString(spec string) (string, error) {
	if spec == "" {
		return v.String(), nil
	}
	precision, width, err := parseFormatSpec(spec)
	if err != nil {
		return "", err
	}
	switch v.kind {
	case types.KQuantity:
		return fmt.Sprintf("%.*f", precision, v.q), nil
	case types.KInteger:
		if width > 0 {
			return fmt.Sprintf("%0*d", width, v.i), nil
		}
		return fmt.Sprintf("%d", v.i), nil
	default:
		return v.String(), nil
	}
}

func parseFormatSpec(spec string) (precision, width int, err error) {
	rest := spec
	if strings.HasPrefix(rest, ".") {
		rest = rest[1:]
		n := 0
		for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
			n = n*10 + int(rest[0]-'0')
			rest = rest[1:]
		}
		return n, 0, nil
	}
	if strings.HasPrefix(rest, "0") {
		n := 0
		for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
			n = n*10 + int(rest[0]-'0')
			rest = rest[1:]
		}
		return 2, n, nil
	}
	return -1, 0, fmt.Errorf("value: invalid format spec %q", spec)
}
