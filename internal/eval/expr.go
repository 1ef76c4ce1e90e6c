package eval

import (
	"fmt"
	"strings"

	"github.com/microcad/ucad/internal/model"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/syntax"
	"github.com/microcad/ucad/internal/types"
	"github.com/microcad/ucad/internal/value"
)

// EvalExpr evaluates any syntax.Expression to a value.Value, per
// spec.md §4.5 "Expression evaluation". Errors are returned rather
// than downgraded to diagnostics here; EvalCall is the boundary that
// reports a diagnostic and substitutes Value::None so sibling
// statements keep evaluating (mirroring
// original_source/lang/eval/call/mod.rs's Call::eval).
func EvalExpr(ctx *Context, e syntax.Expression) (value.Value, error) {
	switch n := e.(type) {
	case *syntax.InvalidExpression:
		return value.Invalid(n.SrcRef()), nil
	case *syntax.LiteralExpression:
		return evalLiteral(n), nil
	case *syntax.StringExpression:
		return value.String(n.Value, n.SrcRef()), nil
	case *syntax.FormatStringExpression:
		return evalFormatString(ctx, n)
	case *syntax.ArrayExpression:
		return evalArray(ctx, n)
	case *syntax.TupleExpression:
		return evalTuple(ctx, n)
	case *syntax.BodyExpression:
		v, _, err := EvalBody(ctx, n.Statements)
		return v, err
	case *syntax.CallExpression:
		return EvalCall(ctx, n)
	case *syntax.QualifiedNameExpression:
		return evalQualifiedName(ctx, n)
	case *syntax.BinaryOpExpression:
		return evalBinaryOp(ctx, n)
	case *syntax.UnaryOpExpression:
		return evalUnaryOp(ctx, n)
	case *syntax.ArrayElementAccessExpression:
		return evalArrayElementAccess(ctx, n)
	case *syntax.PropertyAccessExpression:
		return evalPropertyAccess(ctx, n)
	case *syntax.AttributeAccessExpression:
		return evalAttributeAccess(ctx, n)
	case *syntax.MethodCallExpression:
		return evalMethodCall(ctx, n)
	case *syntax.MarkerExpression:
		return evalMarker(ctx, n)
	case *syntax.NestedExpression:
		return evalNested(ctx, n)
	default:
		return value.Value{}, fmt.Errorf("eval: unhandled expression %T", e)
	}
}

func evalLiteral(n *syntax.LiteralExpression) value.Value {
	switch n.Kind {
	case syntax.LitInteger:
		return value.Integer(n.Integer, n.SrcRef())
	case syntax.LitBool:
		return value.Bool(n.Bool, n.SrcRef())
	case syntax.LitNumber:
		return value.Quantity(n.Number*n.Unit.ToCanonical, n.Unit.Quantity, n.SrcRef())
	default:
		return value.Invalid(n.SrcRef())
	}
}

func evalFormatString(ctx *Context, n *syntax.FormatStringExpression) (value.Value, error) {
	var b strings.Builder
	for _, p := range n.Pieces {
		if p.Expr == nil {
			b.WriteString(p.Text)
			continue
		}
		v, err := EvalExpr(ctx, p.Expr)
		if err != nil {
			return value.Value{}, err
		}
		s, err := v.ToString(p.Spec)
		if err != nil {
			return value.Value{}, err
		}
		b.WriteString(s)
	}
	return value.String(b.String(), n.SrcRef()), nil
}

func evalArray(ctx *Context, n *syntax.ArrayExpression) (value.Value, error) {
	elems := make([]value.Value, len(n.Elements))
	for i, el := range n.Elements {
		v, err := EvalExpr(ctx, el)
		if err != nil {
			return value.Value{}, err
		}
		elems[i] = v
	}
	return value.Array(elems, n.SrcRef()), nil
}

func evalTuple(ctx *Context, n *syntax.TupleExpression) (value.Value, error) {
	named := map[string]value.Value{}
	var unnamed []value.Value
	for _, f := range n.Fields {
		v, err := EvalExpr(ctx, f.Value)
		if err != nil {
			return value.Value{}, err
		}
		if f.Name != nil {
			named[f.Name.Text] = v
		} else {
			unnamed = append(unnamed, v)
		}
	}
	return value.Tuple(named, unnamed, n.SrcRef()), nil
}

// evalQualifiedName resolves a bare name reference to a frame-local
// (spec.md §4.5 "Local/property lookup"). A name that is not a local
// never evaluates to a value: it yields the symbol-tree lookup error,
// or ErrLocalNotFound when the name does resolve to a symbol.
func evalQualifiedName(ctx *Context, n *syntax.QualifiedNameExpression) (value.Value, error) {
	if n.Name.Len() == 1 {
		if def, ok := ctx.LookupLocal(n.Name.Ids()[0].String()); ok {
			v, err := ctx.resolveLocalValue(def)
			if err != nil {
				return value.Value{}, err
			}
			return withRef(v, n.SrcRef()), nil
		}
	}
	// Anything the symbol tree holds (workbenches, functions, modules,
	// namespaces, builtins) is a callable, not a value in its own right
	// in this grammar — only a CallExpression resolves through it.
	// A non-local bare name therefore has nothing to bind to here.
	if _, err := ctx.Lookup(n.Name); err != nil {
		return value.Value{}, err
	}
	return value.Value{}, &Error{Kind: ErrLocalNotFound, Message: fmt.Sprintf("`%s` is not a value", n.Name), Ref: n.SrcRef()}
}

func withRef(v value.Value, ref srcref.SrcRef) value.Value {
	switch {
	case v.IsNone():
		return v
	case v.IsInvalid():
		return value.Invalid(ref)
	default:
		return v
	}
}

// evalBinaryOp evaluates both operands once, then dispatches. `-`'s
// parser-time model/arithmetic guess (n.Op == OpDifference) is
// reconsidered here per Open Question 1: a Quantity- or Integer-typed
// operand always forces arithmetic regardless of the parser's tag,
// since only the operand's runtime type can settle it for names bound
// through a local or call result.
func evalBinaryOp(ctx *Context, n *syntax.BinaryOpExpression) (value.Value, error) {
	left, err := EvalExpr(ctx, n.Left)
	if err != nil {
		return value.Value{}, err
	}
	right, err := EvalExpr(ctx, n.Right)
	if err != nil {
		return value.Value{}, err
	}

	switch n.Op {
	case syntax.OpOr, syntax.OpAnd:
		return modelOpValue(operationKindFor(n.Op), left, right, n.SrcRef())
	case syntax.OpDifference:
		if left.Type().IsModel() && right.Type().IsModel() {
			return modelOpValue(model.OpDifference, left, right, n.SrcRef())
		}
		return value.Arith(value.OpSub, left, right, n.SrcRef())
	case syntax.OpEq, syntax.OpNe, syntax.OpLt, syntax.OpLe, syntax.OpGt, syntax.OpGe:
		return value.Compare(compareOpFor(n.Op), left, right, n.SrcRef())
	default:
		return value.Arith(arithOpFor(n.Op), left, right, n.SrcRef())
	}
}

func arithOpFor(op syntax.BinaryOperator) value.ArithOp {
	switch op {
	case syntax.OpPlus:
		return value.OpAdd
	case syntax.OpMinus:
		return value.OpSub
	case syntax.OpTimes:
		return value.OpMul
	case syntax.OpDivide:
		return value.OpDiv
	default:
		return value.OpAdd
	}
}

func compareOpFor(op syntax.BinaryOperator) value.CompareOp {
	switch op {
	case syntax.OpEq:
		return value.CmpEq
	case syntax.OpNe:
		return value.CmpNe
	case syntax.OpLt:
		return value.CmpLt
	case syntax.OpLe:
		return value.CmpLe
	case syntax.OpGt:
		return value.CmpGt
	default:
		return value.CmpGe
	}
}

// modelOpValue builds an Operation model node over two model operands
// (spec.md §4.5: "`&`/`|`/`-` on Model produce an operation model").
// An Invalid operand on either side short-circuits to Invalid; any
// other non-model operand is an ErrTypeMismatch error.
func modelOpValue(op model.OperationKind, left, right value.Value, ref srcref.SrcRef) (value.Value, error) {
	if left.IsInvalid() || right.IsInvalid() {
		return value.Invalid(ref), nil
	}
	if !left.Type().IsModel() || !right.Type().IsModel() {
		return value.Value{}, &Error{Kind: ErrTypeMismatch, Message: "model operators require Model operands", Ref: ref}
	}
	origin := model.Origin{CallRef: ref}
	b := model.Operation(op, origin)
	b.AddChildren(asNode(left), asNode(right))
	built, err := b.Build()
	if err != nil {
		return value.Value{}, err
	}
	return value.Model(built, ref), nil
}

func operationKindFor(op syntax.BinaryOperator) model.OperationKind {
	if op == syntax.OpOr {
		return model.OpUnion
	}
	return model.OpIntersection
}

func asNode(v value.Value) *model.Node {
	n, _ := v.ModelRef().(*model.Node)
	return n
}

func evalUnaryOp(ctx *Context, n *syntax.UnaryOpExpression) (value.Value, error) {
	v, err := EvalExpr(ctx, n.Operand)
	if err != nil {
		return value.Value{}, err
	}
	if v.IsInvalid() {
		return value.Invalid(n.SrcRef()), nil
	}
	switch n.Op {
	case syntax.UnaryNeg:
		return value.Arith(value.OpSub, value.Integer(0, n.SrcRef()), v, n.SrcRef())
	case syntax.UnaryNot:
		if v.Type().Kind() != types.KBool {
			return value.Value{}, &Error{Kind: ErrTypeMismatch, Message: "`!` requires Bool", Ref: n.SrcRef()}
		}
		return value.Bool(!v.BoolVal(), n.SrcRef()), nil
	default:
		return value.Value{}, fmt.Errorf("eval: unknown unary operator")
	}
}

func evalArrayElementAccess(ctx *Context, n *syntax.ArrayElementAccessExpression) (value.Value, error) {
	arr, err := EvalExpr(ctx, n.Array)
	if err != nil {
		return value.Value{}, err
	}
	idx, err := EvalExpr(ctx, n.Index)
	if err != nil {
		return value.Value{}, err
	}
	i := int(idx.Int())
	elems := arr.Elems()
	if i < 0 || i >= len(elems) {
		return value.Value{}, &Error{Kind: ErrListIndexOutOfBounds, Ref: n.SrcRef()}
	}
	return elems[i], nil
}

func evalPropertyAccess(ctx *Context, n *syntax.PropertyAccessExpression) (value.Value, error) {
	recv, err := EvalExpr(ctx, n.Receiver)
	if err != nil {
		return value.Value{}, err
	}
	if named := recv.Named(); named != nil {
		if v, ok := named[n.Name.Text]; ok {
			return v, nil
		}
	}
	if nd := asNode(recv); nd != nil {
		if v, ok := nd.Property(n.Name.Text); ok {
			return v, nil
		}
	}
	return value.Value{}, &Error{Kind: ErrPropertyNotFound, Name: n.Name.ToIdent(), Ref: n.SrcRef()}
}

func evalAttributeAccess(ctx *Context, n *syntax.AttributeAccessExpression) (value.Value, error) {
	recv, err := EvalExpr(ctx, n.Receiver)
	if err != nil {
		return value.Value{}, err
	}
	nd := asNode(recv)
	if nd == nil {
		return value.Value{}, &Error{Kind: ErrTypeMismatch, Message: "`.#` requires a Model receiver", Ref: n.SrcRef()}
	}
	v, ok := nd.Attribute(n.Name.Text)
	if !ok {
		return value.None(), nil
	}
	return v, nil
}

// evalNested evaluates `a.b().c`-shaped chains: the receiver, then
// each subsequent step, applying spec.md §4.5's nesting rule when the
// step produces a Model ("a value can be nested into another only if
// both are models, in which case the second becomes a child of the
// first").
func evalNested(ctx *Context, n *syntax.NestedExpression) (value.Value, error) {
	cur, err := EvalExpr(ctx, n.Receiver)
	if err != nil {
		return value.Value{}, err
	}
	for _, step := range n.Chain {
		next, err := EvalExpr(ctx, step)
		if err != nil {
			return value.Value{}, err
		}
		curNode, curIsModel := cur.ModelRef().(*model.Node)
		nextNode, nextIsModel := next.ModelRef().(*model.Node)
		switch {
		case curIsModel && nextIsModel:
			if err := curNode.Append(nextNode); err != nil {
				return value.Value{}, err
			}
			cur = value.Model(curNode, n.SrcRef())
		case !cur.IsNone() && !next.IsNone():
			return value.Value{}, &Error{Kind: ErrCannotNestItem, Ref: step.SrcRef()}
		default:
			cur = next
		}
	}
	return cur, nil
}

// evalMarker evaluates `@children`: a placeholder model marking where
// the caller-supplied child models should be spliced into a workbench
// body (spec.md's glossary entry for markers).
func evalMarker(ctx *Context, n *syntax.MarkerExpression) (value.Value, error) {
	if n.Name.Text != "children" {
		return value.Value{}, &Error{Kind: ErrStatementNotSupported, Message: fmt.Sprintf("unknown marker @%s", n.Name.Text), Ref: n.SrcRef()}
	}
	placeholder := model.New(model.ElementChildrenPlaceholder, model.Origin{CallRef: n.SrcRef()})
	return value.Model(placeholder, n.SrcRef()), nil
}
