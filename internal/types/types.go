// Package types implements the µcad type lattice (spec.md §3.3):
// primitives, arrays, tuples (with Vec2/Vec3/Color/Size2 recognized
// shapes), Model and Invalid.
package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/microcad/ucad/internal/unit"
)

// Kind discriminates the Type union.
type Kind int

const (
	KInvalid Kind = iota
	KInteger
	KBool
	KString
	KQuantity
	KArray
	KTuple
	KModel
	KNotDetermined
)

// Type is the tagged union of every µcad value type.
type Type struct {
	kind     Kind
	quantity unit.Quantity // valid when kind == KQuantity
	elem     *Type         // valid when kind == KArray
	named    map[string]Type
	unnamed  []Type // unordered multiset, order here is for determinism only
}

func Invalid() Type        { return Type{kind: KInvalid} }
func NotDetermined() Type  { return Type{kind: KNotDetermined} }
func Integer() Type        { return Type{kind: KInteger} }
func Bool() Type           { return Type{kind: KBool} }
func String() Type         { return Type{kind: KString} }
func Quantity(q unit.Quantity) Type { return Type{kind: KQuantity, quantity: q} }
func Model() Type          { return Type{kind: KModel} }

func Array(elem Type) Type {
	e := elem
	return Type{kind: KArray, elem: &e}
}

// Tuple builds a tuple type from named fields and an unnamed multiset
// of element types.
func Tuple(named map[string]Type, unnamed []Type) Type {
	n := make(map[string]Type, len(named))
	for k, v := range named {
		n[k] = v
	}
	u := make([]Type, len(unnamed))
	copy(u, unnamed)
	return Type{kind: KTuple, named: n, unnamed: u}
}

func (t Type) Kind() Kind { return t.kind }
func (t Type) IsInvalid() bool { return t.kind == KInvalid }
func (t Type) IsNotDetermined() bool { return t.kind == KNotDetermined }
func (t Type) IsModel() bool { return t.kind == KModel }
func (t Type) IsArray() bool { return t.kind == KArray }
func (t Type) IsTuple() bool { return t.kind == KTuple }
func (t Type) IsQuantity() bool { return t.kind == KQuantity }

// Quantity returns the quantity kind; only meaningful if IsQuantity().
func (t Type) QuantityKind() unit.Quantity { return t.quantity }

// Elem returns the array element type; only meaningful if IsArray().
func (t Type) Elem() Type {
	if t.elem == nil {
		return Invalid()
	}
	return *t.elem
}

// Named returns the tuple's named fields; only meaningful if IsTuple().
func (t Type) Named() map[string]Type { return t.named }

// Unnamed returns the tuple's unnamed field multiset; only meaningful
// if IsTuple().
func (t Type) Unnamed() []Type { return t.unnamed }

// Equal implements structural/nominal equality: tuples match
// structurally (field sets + types), everything else nominally.
func Equal(a, b Type) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KQuantity:
		return a.quantity == b.quantity
	case KArray:
		return Equal(a.Elem(), b.Elem())
	case KTuple:
		return tupleEqual(a, b)
	default:
		return true
	}
}

func tupleEqual(a, b Type) bool {
	if len(a.named) != len(b.named) || len(a.unnamed) != len(b.unnamed) {
		return false
	}
	for k, va := range a.named {
		vb, ok := b.named[k]
		if !ok || !Equal(va, vb) {
			return false
		}
	}
	// unnamed fields compare as a multiset: tally type signatures.
	sigA := make(map[string]int)
	for _, u := range a.unnamed {
		sigA[u.String()]++
	}
	for _, u := range b.unnamed {
		sigA[u.String()]--
	}
	for _, count := range sigA {
		if count != 0 {
			return false
		}
	}
	return true
}

func (t Type) String() string {
	switch t.kind {
	case KInvalid:
		return "Invalid"
	case KNotDetermined:
		return "NotDetermined"
	case KInteger:
		return "Integer"
	case KBool:
		return "Bool"
	case KString:
		return "String"
	case KQuantity:
		return t.quantity.String()
	case KModel:
		return "Model"
	case KArray:
		return fmt.Sprintf("Array<%s>", t.Elem())
	case KTuple:
		var b strings.Builder
		b.WriteString("Tuple{")
		keys := make([]string, 0, len(t.named))
		for k := range t.named {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", k, t.named[k])
		}
		for _, u := range t.unnamed {
			if len(keys) > 0 || b.Len() > len("Tuple{") {
				b.WriteString(", ")
			}
			b.WriteString(u.String())
		}
		b.WriteString("}")
		return b.String()
	default:
		return "?"
	}
}

// --- Recognized tuple shapes (spec.md §3.3, §9) ---

// tupleElementType returns the single common element type of a tuple's
// named fields, or ok=false if fields are absent or non-uniform.
func tupleElementType(t Type, fields ...string) (Type, bool) {
	if !t.IsTuple() {
		return Invalid(), false
	}
	var common Type
	first := true
	for _, f := range fields {
		ft, ok := t.named[f]
		if !ok {
			return Invalid(), false
		}
		if first {
			common = ft
			first = false
		} else if !Equal(common, ft) {
			return Invalid(), false
		}
	}
	// no extra named fields beyond the recognized set, and no unnamed fields
	if len(t.named) != len(fields) || len(t.unnamed) != 0 {
		return Invalid(), false
	}
	return common, true
}

// IsColor reports whether t has exactly {r,g,b,a: Scalar}.
func IsColor(t Type) bool {
	elem, ok := tupleElementType(t, "r", "g", "b", "a")
	return ok && Equal(elem, Quantity(unit.Scalar))
}

// IsVec2 reports whether t has exactly {x,y: Q} for some common quantity Q.
func IsVec2(t Type) bool {
	elem, ok := tupleElementType(t, "x", "y")
	return ok && elem.IsQuantity()
}

// IsVec3 reports whether t has exactly {x,y,z: Q} for some common quantity Q.
func IsVec3(t Type) bool {
	elem, ok := tupleElementType(t, "x", "y", "z")
	return ok && elem.IsQuantity()
}

// IsSize2D reports whether t has exactly {width,height: Q} for some
// common quantity Q.
func IsSize2D(t Type) bool {
	elem, ok := tupleElementType(t, "width", "height")
	return ok && elem.IsQuantity()
}

// CanCoerce reports whether a value of type `from` may be used where
// `to` is expected, per the implicit-coercion rule (spec.md §3.3): an
// unsuffixed scalar literal may adopt a target quantity, and this
// function additionally treats Integer as coercible to any Quantity's
// scalar (dimensionless) or Integer context. Array multiplicity
// coercion (Array<T> passed for T) is handled by the caller
// (argument matching), not here, since it changes cardinality.
func CanCoerce(from, to Type) bool {
	if Equal(from, to) {
		return true
	}
	if from.kind == KInteger && to.kind == KQuantity {
		return true
	}
	if from.kind == KQuantity && from.quantity == unit.Scalar && to.kind == KQuantity {
		return true
	}
	return false
}
