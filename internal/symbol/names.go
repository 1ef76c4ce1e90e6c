package symbol

import (
	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/syntax"
)

// freeName is one qualified name referenced by an expression, paired
// with the src-ref to blame if it doesn't resolve. Grounded on
// original_source/lang/resolve/names.rs's NameList collection pass,
// simplified to name+position (the original additionally distinguishes
// locals to drop them; internal/symbol never adds locals as symbol-tree
// children in the first place, so nothing needs dropping here).
type freeName struct {
	Name ident.QualifiedName
	Ref  srcref.SrcRef
}

// collectNames walks a statement list collecting every qualified name
// referenced by a Call or QualifiedName expression, recursing into
// nested bodies, conditionals and expression subtrees.
func collectNames(stmts []syntax.Statement) []freeName {
	var out []freeName
	var walkStmt func(syntax.Statement)
	var walkExpr func(syntax.Expression)

	walkExpr = func(e syntax.Expression) {
		if e == nil {
			return
		}
		switch v := e.(type) {
		case *syntax.QualifiedNameExpression:
			out = append(out, freeName{Name: v.Name, Ref: v.SrcRef()})
		case *syntax.CallExpression:
			out = append(out, freeName{Name: v.Name, Ref: v.SrcRef()})
			for _, a := range v.Args.Args {
				walkExpr(a.Value)
			}
		case *syntax.BinaryOpExpression:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *syntax.UnaryOpExpression:
			walkExpr(v.Operand)
		case *syntax.ArrayElementAccessExpression:
			walkExpr(v.Array)
			walkExpr(v.Index)
		case *syntax.PropertyAccessExpression:
			walkExpr(v.Receiver)
		case *syntax.AttributeAccessExpression:
			walkExpr(v.Receiver)
		case *syntax.MethodCallExpression:
			walkExpr(v.Receiver)
			for _, a := range v.Args.Args {
				walkExpr(a.Value)
			}
		case *syntax.ArrayExpression:
			for _, el := range v.Elements {
				walkExpr(el)
			}
		case *syntax.TupleExpression:
			for _, f := range v.Fields {
				walkExpr(f.Value)
			}
		case *syntax.FormatStringExpression:
			for _, p := range v.Pieces {
				walkExpr(p.Expr)
			}
		case *syntax.BodyExpression:
			for _, s := range v.Statements {
				walkStmt(s)
			}
		case *syntax.NestedExpression:
			walkExpr(v.Receiver)
			for _, c := range v.Chain {
				walkExpr(c)
			}
		}
	}

	walkStmt = func(st syntax.Statement) {
		switch s := st.(type) {
		case *syntax.AssignmentStatement:
			walkExpr(s.Expr)
		case *syntax.ExpressionStatement:
			walkExpr(s.Expr)
		case *syntax.ReturnStatement:
			walkExpr(s.Expr)
		case *syntax.IfStatement:
			walkExpr(s.Cond)
			for _, t := range s.Then {
				walkStmt(t)
			}
			for _, t := range s.Else {
				walkStmt(t)
			}
		}
	}

	for _, st := range stmts {
		walkStmt(st)
	}
	return out
}
