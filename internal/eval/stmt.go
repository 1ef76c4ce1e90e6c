package eval

import (
	"fmt"

	"github.com/microcad/ucad/internal/model"
	"github.com/microcad/ucad/internal/syntax"
	"github.com/microcad/ucad/internal/types"
	"github.com/microcad/ucad/internal/value"
)

// EvalBody evaluates a `{ ... }` block in its own Body frame (spec.md
// §4.5's `Body(locals)` frame variant), returning its trailing
// expression-statement value and any child models produced along the
// way (spec.md §4.5 "Attribute handling": "expression statements ...
// produced models adopt the attributes").
func EvalBody(ctx *Context, stmts []syntax.Statement) (value.Value, []*model.Node, error) {
	ctx.Push(newFrame(FrameBody))
	defer ctx.Pop()
	return evalStatements(ctx, stmts)
}

// evalStatements runs stmts against the context's current top frame,
// without pushing a frame of its own — the caller (EvalBody, or a
// Workbench/Function/Init/If frame owner) has already pushed whichever
// frame kind applies. It stops early once a Return is pending so the
// enclosing call can unwind.
func evalStatements(ctx *Context, stmts []syntax.Statement) (value.Value, []*model.Node, error) {
	var trailing value.Value
	var children []*model.Node
	for _, st := range stmts {
		v, kids, err := evalStmt(ctx, st)
		if err != nil {
			return value.Value{}, nil, err
		}
		children = append(children, kids...)
		if ctx.isReturning() {
			return trailing, children, nil
		}
		trailing = v
	}
	return trailing, children, nil
}

func evalStmt(ctx *Context, st syntax.Statement) (value.Value, []*model.Node, error) {
	switch s := st.(type) {
	case *syntax.ModuleStatement, *syntax.NamespaceStatement, *syntax.WorkbenchStatement,
		*syntax.InitStatement, *syntax.FunctionStatement, *syntax.UseStatement:
		// Definitions are already materialized into the symbol tree by
		// internal/symbol's resolver; evaluation skips over them here.
		return value.None(), nil, nil
	case *syntax.ReturnStatement:
		return evalReturn(ctx, s)
	case *syntax.IfStatement:
		return evalIf(ctx, s)
	case *syntax.AssignmentStatement:
		return evalAssignment(ctx, s)
	case *syntax.ExpressionStatement:
		return evalExpressionStatement(ctx, s)
	case *syntax.MarkerStatement:
		return evalMarkerStatement(ctx, s)
	case *syntax.InnerAttributeStatement:
		return evalInnerAttribute(ctx, s)
	default:
		return value.Value{}, nil, fmt.Errorf("eval: unhandled statement %T", st)
	}
}

func evalReturn(ctx *Context, s *syntax.ReturnStatement) (value.Value, []*model.Node, error) {
	frame := ctx.currentCallable()
	if frame == nil {
		return value.Value{}, nil, &Error{Kind: ErrStatementNotSupported, Message: "`return` outside a function", Ref: s.SrcRef()}
	}
	v := value.None()
	if s.Expr != nil {
		var err error
		v, err = EvalExpr(ctx, s.Expr)
		if err != nil {
			return value.Value{}, nil, err
		}
	}
	ctx.setReturn(v)
	return value.None(), nil, nil
}

func evalIf(ctx *Context, s *syntax.IfStatement) (value.Value, []*model.Node, error) {
	cond, err := EvalExpr(ctx, s.Cond)
	if err != nil {
		return value.Value{}, nil, err
	}
	if cond.Type().Kind() != types.KBool {
		return value.Value{}, nil, &Error{Kind: ErrTypeMismatch, Message: "`if` condition must be Bool", Ref: s.Cond.SrcRef()}
	}
	branch := s.Else
	if cond.BoolVal() {
		branch = s.Then
	}
	ctx.Push(newFrame(FrameIf))
	defer ctx.Pop()
	return evalStatements(ctx, branch)
}

func evalAssignment(ctx *Context, s *syntax.AssignmentStatement) (value.Value, []*model.Node, error) {
	v, err := EvalExpr(ctx, s.Expr)
	if err != nil {
		return value.Value{}, nil, err
	}
	if s.Type != nil {
		if want, ok := resolveTypeAnnotation(*s.Type); ok {
			if typeCheck(true, want, v) == NoMatch {
				return value.Value{}, nil, &Error{Kind: ErrTypeMismatch, Name: s.Name.ToIdent(), Expected: want, Got: v.Type(), Ref: s.SrcRef()}
			}
		}
	}

	switch s.Qualifier {
	case syntax.QualProp:
		frame := ctx.currentNode()
		if frame == nil {
			return value.Value{}, nil, &Error{Kind: ErrStatementNotSupported, Message: "`prop` outside a workbench", Ref: s.SrcRef()}
		}
		if _, ok := frame.Locals.get(s.Name.Text); ok {
			return value.Value{}, nil, &Error{Kind: ErrValueAlreadyInitialized, Name: s.Name.ToIdent(), Ref: s.SrcRef()}
		}
		frame.Node.SetProperty(s.Name.Text, v)
		if frame.uninitializedProps != nil {
			frame.uninitializedProps.Remove(s.Name.Text)
		}
	case syntax.QualValue:
		if frame := ctx.currentNode(); frame != nil {
			if _, ok := frame.Node.Property(s.Name.Text); ok {
				return value.Value{}, nil, &Error{Kind: ErrValueAlreadyInitialized, Name: s.Name.ToIdent(), Ref: s.SrcRef()}
			}
		}
		ctx.SetLocal(s.Name.Text, LocalDefinition{Kind: LocalValue, Value: v})
	default: // QualConst
		ctx.SetLocal(s.Name.Text, LocalDefinition{Kind: LocalValue, Value: v})
	}

	var kids []*model.Node
	if len(s.Attributes) > 0 {
		if nd := asNode(v); nd != nil {
			if err := applyAttributes(ctx, nd, s.Attributes); err != nil {
				return value.Value{}, nil, err
			}
		}
	}
	return v, kids, nil
}

func evalExpressionStatement(ctx *Context, s *syntax.ExpressionStatement) (value.Value, []*model.Node, error) {
	v, err := EvalExpr(ctx, s.Expr)
	if err != nil {
		return value.Value{}, nil, err
	}
	var kids []*model.Node
	switch {
	case v.Type().IsModel():
		nd := asNode(v)
		if err := applyAttributes(ctx, nd, s.Attributes); err != nil {
			return value.Value{}, nil, err
		}
		kids = append(kids, nd)
	case v.Type().IsArray() && v.Type().Elem().IsModel():
		for _, e := range v.Elems() {
			nd := asNode(e)
			if nd == nil {
				continue
			}
			if err := applyAttributes(ctx, nd, s.Attributes); err != nil {
				return value.Value{}, nil, err
			}
			kids = append(kids, nd)
		}
	}
	return v, kids, nil
}

func evalMarkerStatement(ctx *Context, s *syntax.MarkerStatement) (value.Value, []*model.Node, error) {
	if s.Name.Text != "children" {
		return value.Value{}, nil, &Error{Kind: ErrStatementNotSupported, Message: fmt.Sprintf("unknown marker @%s", s.Name.Text), Ref: s.SrcRef()}
	}
	placeholder := model.New(model.ElementChildrenPlaceholder, model.Origin{CallRef: s.SrcRef()})
	return value.Model(placeholder, s.SrcRef()), []*model.Node{placeholder}, nil
}

func evalInnerAttribute(ctx *Context, s *syntax.InnerAttributeStatement) (value.Value, []*model.Node, error) {
	frame := ctx.currentNode()
	if frame == nil {
		return value.None(), nil, nil
	}
	attr, err := evalAttribute(ctx, s.Attribute)
	if err != nil {
		return value.Value{}, nil, err
	}
	frame.Node.AddAttribute(attr.Id, attr.Value)
	return value.None(), nil, nil
}

func applyAttributes(ctx *Context, nd *model.Node, attrs []syntax.Attribute) error {
	if nd == nil {
		return nil
	}
	for _, a := range attrs {
		attr, err := evalAttribute(ctx, a)
		if err != nil {
			return err
		}
		nd.AddAttribute(attr.Id, attr.Value)
	}
	return nil
}

func evalAttribute(ctx *Context, a syntax.Attribute) (model.Attribute, error) {
	args, err := EvalArgumentList(ctx, a.Args)
	if err != nil {
		return model.Attribute{}, err
	}
	named := map[string]value.Value{}
	var unnamed []value.Value
	for _, av := range args.Args {
		if av.Named {
			named[av.Name] = av.Value
		} else {
			unnamed = append(unnamed, av.Value)
		}
	}
	if len(named) == 0 && len(unnamed) == 1 {
		return model.Attribute{Id: a.Id.Text, Value: unnamed[0]}, nil
	}
	return model.Attribute{Id: a.Id.Text, Value: value.Tuple(named, unnamed, a.Ref)}, nil
}
