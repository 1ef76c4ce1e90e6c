package value

import (
	"fmt"

	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/types"
	"github.com/microcad/ucad/internal/unit"
)

// ArithOp enumerates the binary arithmetic operators evaluated over
// Quantity/Integer values (spec.md §4.5). Model operators (&, |, -)
// are handled in internal/eval since they build model nodes, not
// values.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
)

func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

// Arith evaluates a+b, a-b, a*b or a/b over Integer/Quantity operands,
// preserving/deriving quantity types per the algebra in internal/unit.
// Any Invalid operand short-circuits to Invalid (spec.md §3.4).
func Arith(op ArithOp, a, b Value, ref srcref.SrcRef) (Value, error) {
	if a.IsInvalid() || b.IsInvalid() {
		return Invalid(ref), nil
	}

	if a.kind == types.KInteger && b.kind == types.KInteger {
		switch op {
		case OpAdd:
			return Integer(a.i+b.i, ref), nil
		case OpSub:
			return Integer(a.i-b.i, ref), nil
		case OpMul:
			return Integer(a.i*b.i, ref), nil
		case OpDiv:
			if b.i == 0 {
				return Value{}, fmt.Errorf("value: division by zero")
			}
			return Integer(a.i/b.i, ref), nil
		}
	}

	av, aq, aok := asQuantity(a)
	bv, bq, bok := asQuantity(b)
	if !aok || !bok {
		return Value{}, fmt.Errorf("value: cannot apply %s to %s and %s", op, a.Type(), b.Type())
	}

	var resultKind unit.Quantity
	var ok bool
	var result float64
	switch op {
	case OpAdd:
		resultKind, ok = unit.Add(aq, bq)
		result = av + bv
	case OpSub:
		resultKind, ok = unit.Add(aq, bq)
		result = av - bv
	case OpMul:
		resultKind, ok = unit.Mul(aq, bq)
		result = av * bv
	case OpDiv:
		if bv == 0 {
			return Value{}, fmt.Errorf("value: division by zero")
		}
		resultKind, ok = unit.Div(aq, bq)
		result = av / bv
	}
	if !ok {
		return Value{}, fmt.Errorf("value: incompatible quantity types for %s: %s %s", op, aq, bq)
	}
	return Quantity(result, resultKind, ref), nil
}

// asQuantity widens an Integer or Quantity value to a (float64,
// Quantity) pair for arithmetic/comparison; anything else is rejected.
func asQuantity(v Value) (float64, unit.Quantity, bool) {
	switch v.kind {
	case types.KQuantity:
		return v.q, v.qkind, true
	case types.KInteger:
		return float64(v.i), unit.Scalar, true
	default:
		return 0, 0, false
	}
}

// CompareOp enumerates comparison operators; comparisons produce Bool
// (spec.md §4.5), or None when an operand is Invalid.
type CompareOp int

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

// Compare evaluates a comparison, returning a Bool value, or None when
// either operand is Invalid. Quantity
// operands must share a quantity kind (Scalar is compatible with any
// quantity); Integer/Integer and String/String comparisons are
// supported directly.
func Compare(op CompareOp, a, b Value, ref srcref.SrcRef) (Value, error) {
	if a.IsInvalid() || b.IsInvalid() {
		return None(), nil
	}
	var cmp int
	switch {
	case a.kind == types.KInteger && b.kind == types.KInteger:
		cmp = compareInt64(a.i, b.i)
	case a.kind == types.KString && b.kind == types.KString:
		cmp = compareString(a.s, b.s)
	case a.kind == types.KBool && b.kind == types.KBool:
		cmp = compareBool(a.b, b.b)
		if op != CmpEq && op != CmpNe {
			return Value{}, fmt.Errorf("value: cannot order-compare Bool values")
		}
	default:
		av, aq, aok := asQuantity(a)
		bv, bq, bok := asQuantity(b)
		if !aok || !bok {
			return Value{}, fmt.Errorf("value: cannot compare %s and %s", a.Type(), b.Type())
		}
		if aq != bq && aq != unit.Scalar && bq != unit.Scalar {
			return Value{}, fmt.Errorf("value: cannot compare incompatible quantities %s and %s", aq, bq)
		}
		cmp = compareFloat(av, bv)
	}
	var result bool
	switch op {
	case CmpEq:
		result = cmp == 0
	case CmpNe:
		result = cmp != 0
	case CmpLt:
		result = cmp < 0
	case CmpLe:
		result = cmp <= 0
	case CmpGt:
		result = cmp > 0
	case CmpGe:
		result = cmp >= 0
	}
	return Bool(result, ref), nil
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a && b:
		return -1
	default:
		return 1
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
