// Package syntax holds the tree produced by internal/parse: the node
// types named in spec.md §4.3. Each node carries a SrcRef so later
// passes (resolver, evaluator) can report diagnostics against the
// original source text.
//
// Grounded on original_source/lang/parse/source_file/statement.rs and
// lang/parse/module/module_statement.rs for the statement/expression
// variant sets, translated from Rust enums into small Go interfaces
// implemented by one struct per variant — the same shape the teacher
// uses for its own AST-adjacent types (SymbolData/ParseResult as
// plain structs rather than a tagged union).
package syntax

import (
	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/unit"
)

// SourceFile is the root of a parsed file (spec.md §4.3).
type SourceFile struct {
	Name       ident.QualifiedName
	Statements []Statement
	Filename   string
	Source     string
	Hash       uint64
	Ref        srcref.SrcRef
}

func (f *SourceFile) SrcRef() srcref.SrcRef { return f.Ref }

// Statement is any top-level or body-level statement variant.
type Statement interface {
	isStatement()
	SrcRef() srcref.SrcRef
}

// Node is embedded by every Statement implementation to carry its
// source span; NodeAt constructs one from outside the package (used
// by internal/parse when building statement nodes).
type Node struct{ Ref srcref.SrcRef }

func (n Node) SrcRef() srcref.SrcRef { return n.Ref }

// NodeAt builds a Node carrying the given span.
func NodeAt(ref srcref.SrcRef) Node { return Node{Ref: ref} }

// ModuleStatement declares a namespace-like grouping with its own body.
type ModuleStatement struct {
	Node
	Name Identifier
	Body []Statement
}

func (*ModuleStatement) isStatement() {}

// NamespaceStatement is a bare `namespace a::b { ... }` grouping.
type NamespaceStatement struct {
	Node
	Name ident.QualifiedName
	Body []Statement
}

func (*NamespaceStatement) isStatement() {}

// WorkbenchStatement declares a workbench: a plan parameter list, zero
// or more init blocks, and a body (spec.md §4.5's "Workbench calls").
type WorkbenchStatement struct {
	Node
	Name  Identifier
	Plan  ParameterList
	Inits []InitStatement
	Body  []Statement
}

func (*WorkbenchStatement) isStatement() {}

// InitStatement is one `init(...)` block inside a workbench.
type InitStatement struct {
	Node
	Params ParameterList
	Body   []Statement
}

func (*InitStatement) isStatement() {}

// FunctionStatement declares a callable function with a return type.
type FunctionStatement struct {
	Node
	Name    Identifier
	Params  ParameterList
	RetType *TypeAnnotation
	Body    []Statement
}

func (*FunctionStatement) isStatement() {}

// UseDecl is the `Use(name) | UseAll(name) | UseAlias(name, id)`
// variant named in spec.md §4.3.
type UseDecl interface{ isUseDecl() }

type UseSingle struct{ Name ident.QualifiedName }
type UseAll struct{ Name ident.QualifiedName }
type UseAliasDecl struct {
	Name ident.QualifiedName
	As   Identifier
}

func (UseSingle) isUseDecl()    {}
func (UseAll) isUseDecl()       {}
func (UseAliasDecl) isUseDecl() {}

// UseStatement is `use ...;` per spec.md §4.4.
type UseStatement struct {
	Node
	Decl UseDecl
}

func (*UseStatement) isStatement() {}

// ReturnStatement is `return expr?;`.
type ReturnStatement struct {
	Node
	Expr Expression // nil for bare `return;`
}

func (*ReturnStatement) isStatement() {}

// IfStatement is `if cond { ... } else { ... }?`.
type IfStatement struct {
	Node
	Cond     Expression
	Then     []Statement
	Else     []Statement // nil if no else clause
}

func (*IfStatement) isStatement() {}

// AssignQualifier distinguishes const/value/prop assignments
// (spec.md §4.5 "Assignments, if, return").
type AssignQualifier int

const (
	QualConst AssignQualifier = iota
	QualValue
	QualProp
)

// AssignmentStatement is `const|value|prop id: Type? = expr;` with an
// optional attribute list (spec.md §4.5 "Attribute handling").
type AssignmentStatement struct {
	Node
	Qualifier  AssignQualifier
	Name       Identifier
	Type       *TypeAnnotation
	Expr       Expression
	Attributes []Attribute
}

func (*AssignmentStatement) isStatement() {}

// ExpressionStatement is a bare expression used as a statement — most
// commonly a workbench call whose resulting model(s) become children
// of the enclosing body.
type ExpressionStatement struct {
	Node
	Expr       Expression
	Attributes []Attribute
}

func (*ExpressionStatement) isStatement() {}

// MarkerStatement is `@name` (spec.md: "notably `@children`").
type MarkerStatement struct {
	Node
	Name Identifier
}

func (*MarkerStatement) isStatement() {}

// InnerAttributeStatement is `#![attr]`, attached to the enclosing
// body scope rather than to a single statement.
type InnerAttributeStatement struct {
	Node
	Attribute Attribute
}

func (*InnerAttributeStatement) isStatement() {}

// Attribute is one `(id, Value-producing expression)` pair (spec.md
// §4.5 "Attribute handling"); the expression is evaluated lazily by
// internal/eval once the owning model exists.
type Attribute struct {
	Id   Identifier
	Args ArgumentList
	Ref  srcref.SrcRef
}

// TypeAnnotation is a parsed `: Type` suffix on a parameter or
// assignment; resolved to an internal/types.Type during evaluation,
// since full type resolution needs the symbol tree.
type TypeAnnotation struct {
	Name ident.QualifiedName
	Ref  srcref.SrcRef
}

// Identifier is a parsed bare name with its source span, distinct
// from internal/ident.Identifier (which has no span) until the
// resolver interns it.
type Identifier struct {
	Text string
	Ref  srcref.SrcRef
}

func (id Identifier) ToIdent() ident.Identifier { return ident.New(id.Text, id.Ref) }

// Parameter is one entry of a ParameterList: an optional type and
// default expression (spec.md §4.3 "ArgumentList/ParameterList").
type Parameter struct {
	Name    Identifier
	Type    *TypeAnnotation
	Default Expression // nil if no default
	Ref     srcref.SrcRef
}

// ParameterList preserves declaration order.
type ParameterList struct {
	Params []Parameter
	Ref    srcref.SrcRef
}

// Argument is one entry of an ArgumentList: optionally named.
type Argument struct {
	Name  *Identifier // nil for a positional argument
	Value Expression
	Ref   srcref.SrcRef
}

// ArgumentList preserves call-site order.
type ArgumentList struct {
	Args []Argument
	Ref  srcref.SrcRef
}

// Expression is any node in the expression grammar (spec.md §4.3).
type Expression interface {
	isExpression()
	SrcRef() srcref.SrcRef
}

// ExprNode is embedded by every Expression implementation to carry
// its source span; ExprNodeAt constructs one from outside the
// package.
type ExprNode struct{ Ref srcref.SrcRef }

func (n ExprNode) SrcRef() srcref.SrcRef { return n.Ref }

// ExprNodeAt builds an ExprNode carrying the given span.
func ExprNodeAt(ref srcref.SrcRef) ExprNode { return ExprNode{Ref: ref} }

// InvalidExpression marks a parse-recovered hole in the tree.
type InvalidExpression struct{ ExprNode }

func (*InvalidExpression) isExpression() {}

// LiteralKind distinguishes the Literal variants named in spec.md
// §4.3: Number(value, Unit), Integer, Bool.
type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitInteger
	LitBool
)

// LiteralExpression is a parsed numeric/boolean literal.
type LiteralExpression struct {
	ExprNode
	Kind    LiteralKind
	Number  float64
	Integer int64
	Bool    bool
	Unit    unit.Unit // only meaningful when Kind == LitNumber
}

func (*LiteralExpression) isExpression() {}

// StringExpression is a plain (non-interpolated) string literal.
type StringExpression struct {
	ExprNode
	Value string
}

func (*StringExpression) isExpression() {}

// FormatStringPiece is either a literal run of text or an interpolated
// expression with an optional format spec (spec.md §4.3 "Format
// strings"), grounded on original_source/lang/parse/format_string/mod.rs.
type FormatStringPiece struct {
	Text string     // set when Expr == nil
	Expr Expression // set for an interpolated piece
	Spec string     // e.g. ".2", "03"; empty for no spec
}

// FormatStringExpression is `"...{expr[:spec]}..."`.
type FormatStringExpression struct {
	ExprNode
	Pieces []FormatStringPiece
}

func (*FormatStringExpression) isExpression() {}

// ArrayExpression is `[e1, e2, ...]`.
type ArrayExpression struct {
	ExprNode
	Elements []Expression
}

func (*ArrayExpression) isExpression() {}

// TupleField is one `id: expr` (named) or bare `expr` (unnamed)
// element of a TupleExpression.
type TupleField struct {
	Name  *Identifier
	Value Expression
}

// TupleExpression is `(a: 1, b: 2)` or `(1, 2)`, grounded on
// original_source/lang/parse/expression/record_expression.rs.
type TupleExpression struct {
	ExprNode
	Fields []TupleField
}

func (*TupleExpression) isExpression() {}

// BodyExpression is a `{ statements... }` block used as an expression
// (e.g. a workbench/function body evaluated for its trailing value).
type BodyExpression struct {
	ExprNode
	Statements []Statement
}

func (*BodyExpression) isExpression() {}

// CallExpression is `name(args)`.
type CallExpression struct {
	ExprNode
	Name ident.QualifiedName
	Args ArgumentList
}

func (*CallExpression) isExpression() {}

// QualifiedNameExpression is a bare name reference used as a value
// (before resolution decides whether it's a local, constant, or
// symbol lookup).
type QualifiedNameExpression struct {
	ExprNode
	Name ident.QualifiedName
}

func (*QualifiedNameExpression) isExpression() {}

// BinaryOperator enumerates the Pratt-parsed infix operators
// (spec.md §4.3's fixed-precedence table).
type BinaryOperator int

const (
	OpOr BinaryOperator = iota
	OpAnd
	OpDifference
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpPlus
	OpMinus
	OpTimes
	OpDivide
)

// BinaryOpExpression is a parsed infix expression. Disambiguation of
// `-` between model-difference and arithmetic minus is decided at
// parse time by inspecting the shape of the operands (see DESIGN.md's
// Open Question note); ModelShaped records that provisional decision
// for the evaluator to confirm or override.
type BinaryOpExpression struct {
	ExprNode
	Op          BinaryOperator
	Left, Right Expression
	ModelShaped bool
}

func (*BinaryOpExpression) isExpression() {}

// UnaryOperator enumerates the prefix operators.
type UnaryOperator int

const (
	UnaryNeg UnaryOperator = iota
	UnaryNot
)

// UnaryOpExpression is a parsed prefix expression.
type UnaryOpExpression struct {
	ExprNode
	Op      UnaryOperator
	Operand Expression
}

func (*UnaryOpExpression) isExpression() {}

// ArrayElementAccessExpression is `expr[index]`.
type ArrayElementAccessExpression struct {
	ExprNode
	Array Expression
	Index Expression
}

func (*ArrayElementAccessExpression) isExpression() {}

// PropertyAccessExpression is `expr.id` (no call parens).
type PropertyAccessExpression struct {
	ExprNode
	Receiver Expression
	Name     Identifier
}

func (*PropertyAccessExpression) isExpression() {}

// AttributeAccessExpression is `expr.#id`, reading an attribute value
// back off a model (the mirror of Attribute on a statement).
type AttributeAccessExpression struct {
	ExprNode
	Receiver Expression
	Name     Identifier
}

func (*AttributeAccessExpression) isExpression() {}

// MethodCallExpression is `expr.id(args)`, dispatched by
// internal/eval on the receiver's type (spec.md §4.5 "MethodCall").
type MethodCallExpression struct {
	ExprNode
	Receiver Expression
	Name     Identifier
	Args     ArgumentList
}

func (*MethodCallExpression) isExpression() {}

// MarkerExpression is `@name` used in expression position (mirrors
// MarkerStatement; spec.md lists Marker under both Statement and
// Expression since a marker can appear standalone or nested).
type MarkerExpression struct {
	ExprNode
	Name Identifier
}

func (*MarkerExpression) isExpression() {}

// NestedExpression is a parenthesized sub-expression, `(expr)`. The
// `a.b().c`-style chaining spec.md §4.5 calls "Nested expressions" is
// represented directly as a chain of PropertyAccessExpression/
// MethodCallExpression/ArrayElementAccessExpression nodes (built by
// the postfix parser), evaluated left to right by internal/eval per
// that section's nesting rule; Chain is unused by the parser and kept
// only so internal/eval can attach desugared nesting steps if needed.
type NestedExpression struct {
	ExprNode
	Receiver Expression
	Chain    []Expression
}

func (*NestedExpression) isExpression() {}
