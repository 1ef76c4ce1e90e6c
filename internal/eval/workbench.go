package eval

import (
	"fmt"

	"github.com/emirpasic/gods/sets/treeset"

	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/model"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/symbol"
	"github.com/microcad/ucad/internal/syntax"
	"github.com/microcad/ucad/internal/value"
)

// evalWorkbenchCall runs spec.md §4.5 "Workbench calls and
// multiplicity": match against an init (or the plan), enumerate the
// multi-matched combinations, and build one Workpiece model per
// combination.
func evalWorkbenchCall(ctx *Context, sym *symbol.Symbol, args *ArgumentValueList, ref srcref.SrcRef) (value.Value, error) {
	wb, ok := sym.Def.(*syntax.WorkbenchStatement)
	if !ok {
		return value.Value{}, fmt.Errorf("eval: workbench symbol %s missing definition", sym.Id)
	}

	matched, init, err := matchWorkbenchCall(ctx, wb, args, ref)
	if err != nil {
		return value.Value{}, err
	}

	combos := NewCombinations(matched)
	var pieces []*model.Node
	for {
		combo, ok := combos.Next()
		if !ok {
			break
		}
		piece, err := buildWorkpiece(ctx, sym, wb, init, combo, ref)
		if err != nil {
			return value.Value{}, err
		}
		pieces = append(pieces, piece)
	}

	switch len(pieces) {
	case 0:
		return value.None(), nil
	case 1:
		return value.Model(pieces[0], ref), nil
	default:
		elems := make([]value.Value, len(pieces))
		for i, p := range pieces {
			elems[i] = value.Model(p, ref)
		}
		return value.Array(elems, ref), nil
	}
}

// matchWorkbenchCall tries each init in declaration order, falling
// back to the workbench's own plan (spec.md §4.5 steps 1-2). It
// returns the matched init, or nil if the plan matched directly.
func matchWorkbenchCall(ctx *Context, wb *syntax.WorkbenchStatement, args *ArgumentValueList, ref srcref.SrcRef) (*MultiArgumentMap, *syntax.InitStatement, error) {
	for i := range wb.Inits {
		init := &wb.Inits[i]
		params := ResolveParameterList(init.Params)
		if matched, err := FindMatch(ctx, args, params); err == nil {
			return matched, init, nil
		}
	}

	params := ResolveParameterList(wb.Plan)
	matched, err := FindMatch(ctx, args, params)
	if err != nil {
		if len(wb.Inits) > 0 {
			return nil, nil, &Error{Kind: ErrNoMatchingInit, Name: wb.Name.ToIdent(), Ref: ref}
		}
		return nil, nil, err
	}
	return matched, nil, nil
}

// buildWorkpiece builds one Workpiece node for a single multiplicity
// combination (spec.md §4.5 step 5): resolve properties (directly from
// the plan-matched combo, or from an init's body), then evaluate the
// workbench body in a scoped frame that sees those properties as
// locals, collecting any child models the body produces.
func buildWorkpiece(ctx *Context, sym *symbol.Symbol, wb *syntax.WorkbenchStatement, init *syntax.InitStatement, combo map[string]value.Value, ref srcref.SrcRef) (*model.Node, error) {
	origin := model.Origin{Creator: sym.FullName(), CallRef: ref}
	pb := model.Workpiece(nil, origin)
	piece := pb.Node()

	var kids []*model.Node

	if init != nil {
		initKids, err := runInit(ctx, sym, wb, init, piece, combo, ref)
		if err != nil {
			return nil, err
		}
		kids = append(kids, initKids...)
	} else {
		for name, v := range combo {
			piece.SetProperty(name, v)
		}
	}

	bodyFrame := newFrame(FrameWorkbench)
	bodyFrame.Id = sym.Id
	bodyFrame.Scope = sym
	bodyFrame.Node = piece
	bodyFrame.Ref = ref
	for name, v := range piece.Properties {
		bodyFrame.Locals.put(name, LocalDefinition{Kind: LocalValue, Value: v})
	}
	ctx.Push(bodyFrame)
	_, bodyKids, err := evalStatements(ctx, wb.Body)
	ctx.Pop()
	if err != nil {
		return nil, err
	}
	kids = append(kids, bodyKids...)

	pb.AddChildren(kids...)
	return pb.Build()
}

// runInit evaluates a matched init's body against piece, seeding
// uninitializedProps from the workbench's own plan: the properties the
// plan declares are the contract an init's `prop` assignments must
// satisfy (spec.md's "UninitializedProperties" check).
func runInit(ctx *Context, sym *symbol.Symbol, wb *syntax.WorkbenchStatement, init *syntax.InitStatement, piece *model.Node, combo map[string]value.Value, ref srcref.SrcRef) ([]*model.Node, error) {
	frame := newFrame(FrameInit)
	frame.Id = sym.Id
	frame.Scope = sym
	frame.Node = piece
	frame.Ref = ref
	frame.uninitializedProps = treeset.NewWithStringComparator()
	for _, p := range wb.Plan.Params {
		frame.uninitializedProps.Add(p.Name.Text)
	}
	for name, v := range combo {
		frame.Locals.put(name, LocalDefinition{Kind: LocalValue, Value: v})
	}

	ctx.Push(frame)
	_, kids, err := evalStatements(ctx, init.Body)
	ctx.Pop()
	if err != nil {
		return nil, err
	}

	if frame.uninitializedProps.Size() > 0 {
		missing := frame.uninitializedProps.Values()[0].(string)
		return nil, &Error{Kind: ErrUninitializedProperty, Name: ident.NewSynthetic(missing), Ref: ref}
	}
	return kids, nil
}
