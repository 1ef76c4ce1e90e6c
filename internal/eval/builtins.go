package eval

import (
	"fmt"
	"math"

	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/symbol"
	"github.com/microcad/ucad/internal/types"
	"github.com/microcad/ucad/internal/unit"
	"github.com/microcad/ucad/internal/value"
)

// BuiltinFn is the functor a KindBuiltin symbol's Def holds, mirroring
// original_source/lang/eval/builtin.rs's `Builtin{id, parameters, f}`:
// a builtin is called exactly like a Function or Workbench symbol,
// just with its body implemented in Go rather than evaluated syntax.
type BuiltinFn func(ctx *Context, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error)

// RegisterBuiltins populates scope (the resolver's `__builtin` symbol,
// returned by symbol.Resolver.Builtin()) with the core builtin
// functions: the assert family grounded on
// original_source/builtin/debug/assert.rs, and a standard set of
// scalar/quantity math functions.
func RegisterBuiltins(scope *symbol.Symbol) {
	add := func(name string, fn BuiltinFn) {
		sym := symbol.New(ident.NewSynthetic(name), symbol.KindBuiltin)
		sym.Def = fn
		scope.Add(sym)
	}

	add("assert", builtinAssert)
	add("assert_eq", builtinAssertEq)
	add("assert_valid", builtinAssertValidity(true))
	add("assert_invalid", builtinAssertValidity(false))

	add("sin", builtinAngleToScalar(math.Sin))
	add("cos", builtinAngleToScalar(math.Cos))
	add("tan", builtinAngleToScalar(math.Tan))
	add("asin", builtinScalarToAngle(math.Asin))
	add("acos", builtinScalarToAngle(math.Acos))
	add("atan", builtinScalarToAngle(math.Atan))
	add("sqrt", builtinScalarUnary(math.Sqrt))
	add("abs", builtinQuantityUnary(math.Abs))
	add("floor", builtinQuantityUnary(math.Floor))
	add("ceil", builtinQuantityUnary(math.Ceil))
	add("pow", builtinScalarBinary(math.Pow))
	add("min", builtinQuantityBinary(math.Min))
	add("max", builtinQuantityBinary(math.Max))
}

// positionalOrNamed fetches an argument by name first (a call may have
// passed it as `name = ...`), falling back to the pos-th positional
// argument, per spec.md §4.5's named-then-positional matching order.
func positionalOrNamed(args *ArgumentValueList, pos int, name string) (value.Value, bool) {
	if av, ok := args.Get(name); ok {
		return av.Value, true
	}
	idx := 0
	for _, a := range args.Args {
		if a.Named {
			continue
		}
		if idx == pos {
			return a.Value, true
		}
		idx++
	}
	return value.Value{}, false
}

func quantityOf(v value.Value) (float64, unit.Quantity, bool) {
	switch v.Type().Kind() {
	case types.KQuantity:
		return v.Num(), v.QuantityKind(), true
	case types.KInteger:
		return float64(v.Int()), unit.Scalar, true
	default:
		return 0, 0, false
	}
}

func missingArg(name string, ref srcref.SrcRef) error {
	return &Error{Kind: ErrMissingParameter, Name: ident.NewSynthetic(name), Ref: ref}
}

func badArgType(name string, ref srcref.SrcRef) error {
	return &Error{Kind: ErrParameterTypeMismatch, Name: ident.NewSynthetic(name), Ref: ref}
}

// builtinAssert implements `assert(cond: Bool, message: String = "false")`:
// a failed assertion is reported to the diagnostics sink, never a hard
// Go error, so sibling statements keep evaluating (assert.rs's
// `context.error(...)` then `Ok(Value::None)` pattern).
func builtinAssert(ctx *Context, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
	cond, ok := positionalOrNamed(args, 0, "cond")
	if !ok {
		return value.Value{}, missingArg("cond", ref)
	}
	if cond.Type().Kind() != types.KBool {
		return value.Value{}, badArgType("cond", ref)
	}
	message := "false"
	if m, ok := positionalOrNamed(args, 1, "message"); ok {
		message = m.Str()
	}
	if !cond.BoolVal() {
		ctx.error(ref, &Error{Kind: ErrAssertionFailed, Message: message, Ref: ref})
	}
	return value.None(), nil
}

// builtinAssertEq implements `assert_eq(a: Array, message: String =
// "false")`: every element of a must compare equal to the first.
func builtinAssertEq(ctx *Context, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
	a, ok := positionalOrNamed(args, 0, "a")
	if !ok {
		return value.Value{}, missingArg("a", ref)
	}
	if !a.Type().IsArray() {
		return value.Value{}, badArgType("a", ref)
	}
	message := "false"
	if m, ok := positionalOrNamed(args, 1, "message"); ok {
		message = m.Str()
	}

	elems := a.Elems()
	equal := true
	for i := 1; i < len(elems); i++ {
		cmp, err := value.Compare(value.CmpEq, elems[0], elems[i], ref)
		if err != nil {
			return value.Value{}, err
		}
		if !cmp.BoolVal() {
			equal = false
			break
		}
	}
	if !equal {
		ctx.error(ref, &Error{Kind: ErrAssertionFailed, Message: message, Ref: ref})
	}
	return value.None(), nil
}

// builtinAssertValidity implements `assert_valid`/`assert_invalid`:
// the sole argument's own evaluated validity (already an Invalid value
// if its expression failed to resolve to anything usable) must match
// expectValid.
func builtinAssertValidity(expectValid bool) BuiltinFn {
	return func(ctx *Context, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
		v, ok := positionalOrNamed(args, 0, "value")
		if !ok {
			return value.Value{}, missingArg("value", ref)
		}
		valid := !v.IsInvalid()
		if valid != expectValid {
			ctx.error(ref, &Error{Kind: ErrAssertionFailed, Message: fmt.Sprintf("expected valid=%t", expectValid), Ref: ref})
		}
		return value.None(), nil
	}
}

// builtinAngleToScalar implements a trig function taking an Angle
// quantity (canonically radians, see internal/unit's table) and
// returning a dimensionless Scalar.
func builtinAngleToScalar(fn func(float64) float64) BuiltinFn {
	return func(ctx *Context, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
		x, ok := positionalOrNamed(args, 0, "x")
		if !ok {
			return value.Value{}, missingArg("x", ref)
		}
		v, q, ok := quantityOf(x)
		if !ok || (q != unit.Angle && q != unit.Scalar) {
			return value.Value{}, badArgType("x", ref)
		}
		return value.Quantity(fn(v), unit.Scalar, ref), nil
	}
}

// builtinScalarToAngle is the inverse: Scalar in, Angle (radians) out.
func builtinScalarToAngle(fn func(float64) float64) BuiltinFn {
	return func(ctx *Context, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
		x, ok := positionalOrNamed(args, 0, "x")
		if !ok {
			return value.Value{}, missingArg("x", ref)
		}
		v, q, ok := quantityOf(x)
		if !ok || q != unit.Scalar {
			return value.Value{}, badArgType("x", ref)
		}
		return value.Quantity(fn(v), unit.Angle, ref), nil
	}
}

// builtinScalarUnary implements a dimensionless unary function (sqrt).
func builtinScalarUnary(fn func(float64) float64) BuiltinFn {
	return func(ctx *Context, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
		x, ok := positionalOrNamed(args, 0, "x")
		if !ok {
			return value.Value{}, missingArg("x", ref)
		}
		v, q, ok := quantityOf(x)
		if !ok || q != unit.Scalar {
			return value.Value{}, badArgType("x", ref)
		}
		return value.Quantity(fn(v), unit.Scalar, ref), nil
	}
}

// builtinQuantityUnary implements a unary function that preserves
// whatever quantity kind its argument already has (abs, floor, ceil).
func builtinQuantityUnary(fn func(float64) float64) BuiltinFn {
	return func(ctx *Context, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
		x, ok := positionalOrNamed(args, 0, "x")
		if !ok {
			return value.Value{}, missingArg("x", ref)
		}
		v, q, ok := quantityOf(x)
		if !ok {
			return value.Value{}, badArgType("x", ref)
		}
		return value.Quantity(fn(v), q, ref), nil
	}
}

// builtinScalarBinary implements a dimensionless binary function (pow).
func builtinScalarBinary(fn func(float64, float64) float64) BuiltinFn {
	return func(ctx *Context, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
		a, ok := positionalOrNamed(args, 0, "base")
		if !ok {
			return value.Value{}, missingArg("base", ref)
		}
		b, ok := positionalOrNamed(args, 1, "exponent")
		if !ok {
			return value.Value{}, missingArg("exponent", ref)
		}
		av, aq, aok := quantityOf(a)
		bv, bq, bok := quantityOf(b)
		if !aok || !bok || aq != unit.Scalar || bq != unit.Scalar {
			return value.Value{}, badArgType("base", ref)
		}
		return value.Quantity(fn(av, bv), unit.Scalar, ref), nil
	}
}

// builtinQuantityBinary implements min/max over two same-quantity
// values.
func builtinQuantityBinary(fn func(float64, float64) float64) BuiltinFn {
	return func(ctx *Context, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
		a, ok := positionalOrNamed(args, 0, "a")
		if !ok {
			return value.Value{}, missingArg("a", ref)
		}
		b, ok := positionalOrNamed(args, 1, "b")
		if !ok {
			return value.Value{}, missingArg("b", ref)
		}
		av, aq, aok := quantityOf(a)
		bv, bq, bok := quantityOf(b)
		if !aok || !bok {
			return value.Value{}, badArgType("a", ref)
		}
		if aq != bq && aq != unit.Scalar && bq != unit.Scalar {
			return value.Value{}, badArgType("b", ref)
		}
		resultKind := aq
		if aq == unit.Scalar {
			resultKind = bq
		}
		return value.Quantity(fn(av, bv), resultKind, ref), nil
	}
}
