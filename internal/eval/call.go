package eval

import (
	"fmt"

	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/symbol"
	"github.com/microcad/ucad/internal/syntax"
	"github.com/microcad/ucad/internal/value"
)

// EvalCall resolves and dispatches a call expression (spec.md §4.5
// "Calls"). A lookup or dispatch failure is downgraded to a reported
// diagnostic plus Value::None rather than aborting evaluation,
// mirroring original_source/lang/eval/call/mod.rs's Call::eval: the
// caller's sibling statements keep evaluating after one call fails.
func EvalCall(ctx *Context, n *syntax.CallExpression) (value.Value, error) {
	sym, err := ctx.Lookup(n.Name)
	if err != nil {
		ctx.error(n.SrcRef(), err)
		return value.None(), nil
	}

	args, err := EvalArgumentList(ctx, n.Args)
	if err != nil {
		return value.Value{}, err
	}

	v, err := dispatchCall(ctx, sym, args, n.SrcRef())
	if err != nil {
		ctx.error(n.SrcRef(), err)
		return value.None(), nil
	}
	return v, nil
}

func dispatchCall(ctx *Context, sym *symbol.Symbol, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
	switch sym.Kind {
	case symbol.KindBuiltin:
		return evalBuiltinCall(ctx, sym, args, ref)
	case symbol.KindFunction:
		return evalFunctionCall(ctx, sym, args, ref)
	case symbol.KindWorkbench:
		return evalWorkbenchCall(ctx, sym, args, ref)
	default:
		return value.Value{}, &Error{Kind: ErrNotCallable, Name: sym.Id, Ref: ref}
	}
}

// evalFunctionCall runs a Function symbol's body in its own Function
// frame, matching args against its parameter list exactly once (a
// function call never enumerates multiplicity combinations — only a
// workbench call does, per spec.md §4.5).
func evalFunctionCall(ctx *Context, sym *symbol.Symbol, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
	fn, ok := sym.Def.(*syntax.FunctionStatement)
	if !ok {
		return value.Value{}, fmt.Errorf("eval: function symbol %s missing definition", sym.Id)
	}
	params := ResolveParameterList(fn.Params)
	matched, err := FindMatch(ctx, args, params)
	if err != nil {
		return value.Value{}, err
	}
	if matched.HasMulti() {
		return value.Value{}, &Error{Kind: ErrArgumentCountMismatch, Message: "function calls do not support array multiplicity", Name: sym.Id, Ref: ref}
	}

	frame := newFrame(FrameFunction)
	frame.Id = sym.Id
	frame.Scope = sym
	frame.Ref = ref
	for name, v := range matched.SingleArgumentMap() {
		frame.Locals.put(name, LocalDefinition{Kind: LocalValue, Value: v})
	}

	ctx.Push(frame)
	defer ctx.Pop()
	trailing, _, err := evalStatements(ctx, fn.Body)
	if err != nil {
		return value.Value{}, err
	}
	if v, ok := ctx.takeReturn(); ok {
		return v, nil
	}
	return trailing, nil
}

func evalBuiltinCall(ctx *Context, sym *symbol.Symbol, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
	fn, ok := sym.Def.(BuiltinFn)
	if !ok {
		return value.Value{}, fmt.Errorf("eval: builtin symbol %s missing implementation", sym.Id)
	}
	return fn(ctx, args, ref)
}
