package eval

import (
	"fmt"

	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/syntax"
	"github.com/microcad/ucad/internal/value"
)

// evalMethodCall dispatches `expr.id(args)` on the receiver's runtime
// type (spec.md §4.5 "MethodCall"), grounded on
// original_source/lang/parse/call/call_method.rs's CallMethod trait:
// List methods (count/equal/ascending/descending) and ObjectNode's
// `volume` (deferred entirely to a geometry kernel, an external
// collaborator per spec.md §1/§6 — reported as unsupported here rather
// than computed).
func evalMethodCall(ctx *Context, n *syntax.MethodCallExpression) (value.Value, error) {
	recv, err := EvalExpr(ctx, n.Receiver)
	if err != nil {
		return value.Value{}, err
	}
	if recv.IsInvalid() {
		return value.Invalid(n.SrcRef()), nil
	}
	// Argument expressions are still evaluated for their side effects
	// even though no currently supported method reads them, matching
	// call_method.rs's List/ObjectNode impls which both ignore args.
	if _, err := EvalArgumentList(ctx, n.Args); err != nil {
		return value.Value{}, err
	}

	switch {
	case recv.Type().IsArray():
		return evalArrayMethod(recv, n.Name.Text, n.SrcRef())
	case recv.Type().IsModel():
		return evalModelMethod(recv, n.Name.Text, n.SrcRef())
	default:
		return value.Value{}, &Error{Kind: ErrUnknownMethod, Name: n.Name.ToIdent(), Ref: n.SrcRef()}
	}
}

func evalArrayMethod(recv value.Value, name string, ref srcref.SrcRef) (value.Value, error) {
	elems := recv.Elems()
	switch name {
	case "count":
		return value.Integer(int64(len(elems)), ref), nil
	case "equal":
		return value.Bool(allEqual(elems, ref), ref), nil
	case "ascending":
		return value.Bool(isOrdered(elems, ref, true), ref), nil
	case "descending":
		return value.Bool(isOrdered(elems, ref, false), ref), nil
	default:
		return value.Value{}, &Error{Kind: ErrUnknownMethod, Name: ident.NewSynthetic(name), Ref: ref}
	}
}

func evalModelMethod(recv value.Value, name string, ref srcref.SrcRef) (value.Value, error) {
	switch name {
	case "volume", "area", "vertices":
		return value.Value{}, &Error{Kind: ErrStatementNotSupported, Message: fmt.Sprintf("`%s` requires a geometry kernel", name), Ref: ref}
	default:
		return value.Value{}, &Error{Kind: ErrUnknownMethod, Name: ident.NewSynthetic(name), Ref: ref}
	}
}

func allEqual(elems []value.Value, ref srcref.SrcRef) bool {
	for i := 1; i < len(elems); i++ {
		cmp, err := value.Compare(value.CmpEq, elems[0], elems[i], ref)
		if err != nil || !cmp.BoolVal() {
			return false
		}
	}
	return true
}

func isOrdered(elems []value.Value, ref srcref.SrcRef, ascending bool) bool {
	op := value.CmpLe
	if !ascending {
		op = value.CmpGe
	}
	for i := 1; i < len(elems); i++ {
		cmp, err := value.Compare(op, elems[i-1], elems[i], ref)
		if err != nil || !cmp.BoolVal() {
			return false
		}
	}
	return true
}
