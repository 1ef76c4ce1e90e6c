package eval

import (
	"github.com/emirpasic/gods/sets/treeset"

	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/syntax"
	"github.com/microcad/ucad/internal/types"
	"github.com/microcad/ucad/internal/unit"
	"github.com/microcad/ucad/internal/value"
)

// typeByName resolves a bare type-annotation name to a types.Type: the
// primitive names, `Model`, or one of the quantity kind names from
// spec.md §3.3's QuantityType enumeration. `Array` has no bare form
// here since the grammar's TypeAnnotation carries no element-type
// parameter; an Array-typed parameter is left HasType=false, so any
// value, array or not, single-matches it.
func typeByName(name string) (types.Type, bool) {
	switch name {
	case "Integer":
		return types.Integer(), true
	case "Bool":
		return types.Bool(), true
	case "String":
		return types.String(), true
	case "Model":
		return types.Model(), true
	case "Scalar":
		return types.Quantity(unit.Scalar), true
	case "Length":
		return types.Quantity(unit.Length), true
	case "Area":
		return types.Quantity(unit.Area), true
	case "Volume":
		return types.Quantity(unit.Volume), true
	case "Angle":
		return types.Quantity(unit.Angle), true
	case "Weight":
		return types.Quantity(unit.Weight), true
	case "Density":
		return types.Quantity(unit.Density), true
	default:
		return types.Type{}, false
	}
}

// ArgumentValue is one evaluated call argument, preserving name and
// order (spec.md §4.5 "Calls" step 2).
type ArgumentValue struct {
	Name  string // empty for a positional argument
	Named bool
	Value value.Value
	Ref   srcref.SrcRef
}

// ArgumentValueList is an evaluated CallArgumentList, grounded on
// original_source/lang/eval/call/argument_value_list.rs.
type ArgumentValueList struct {
	Args []ArgumentValue
}

// Get returns the named argument, if any.
func (l *ArgumentValueList) Get(name string) (*ArgumentValue, bool) {
	for i := range l.Args {
		if l.Args[i].Named && l.Args[i].Name == name {
			return &l.Args[i], true
		}
	}
	return nil, false
}

// EvalArgumentList evaluates an ArgumentList into an ArgumentValueList,
// rejecting duplicate argument names (spec.md §4.5 "Calls" step 2).
func EvalArgumentList(ctx *Context, list syntax.ArgumentList) (*ArgumentValueList, error) {
	seen := treeset.NewWithStringComparator()
	out := &ArgumentValueList{}
	for _, a := range list.Args {
		v, err := EvalExpr(ctx, a.Value)
		if err != nil {
			return nil, err
		}
		av := ArgumentValue{Value: v, Ref: a.Ref}
		if a.Name != nil {
			if seen.Contains(a.Name.Text) {
				return nil, &Error{Kind: ErrDuplicatedArgument, Name: ident.New(a.Name.Text, a.Name.Ref), Ref: a.Ref}
			}
			seen.Add(a.Name.Text)
			av.Named = true
			av.Name = a.Name.Text
		}
		out.Args = append(out.Args, av)
	}
	return out, nil
}

// ParameterValue is one resolved entry of a ParameterList: its
// declared type (if any) and default expression (if any), evaluated
// lazily only if the default is actually used.
type ParameterValue struct {
	Name    string
	Type    types.Type
	HasType bool
	Default syntax.Expression
	Ref     srcref.SrcRef
}

// ParameterValueList preserves declaration order.
type ParameterValueList struct {
	Params []ParameterValue
}

// ResolveParameterList turns a syntax.ParameterList into a
// ParameterValueList, resolving each type annotation against the
// quantity/primitive name table (a bare type annotation like `Length`
// resolves; anything else, `Array` included, is left untyped,
// matching the permissive duck-typed matching spec.md §4.5 describes
// for SingleMatch/MultiMatch/NoMatch rather than a full nominal type
// checker).
func ResolveParameterList(params syntax.ParameterList) *ParameterValueList {
	out := &ParameterValueList{}
	for _, p := range params.Params {
		pv := ParameterValue{Name: p.Name.Text, Default: p.Default, Ref: p.Ref}
		if p.Type != nil {
			if t, ok := resolveTypeAnnotation(*p.Type); ok {
				pv.Type = t
				pv.HasType = true
			}
		}
		out.Params = append(out.Params, pv)
	}
	return out
}

func resolveTypeAnnotation(t syntax.TypeAnnotation) (types.Type, bool) {
	if t.Name.Len() != 1 {
		return types.Type{}, false
	}
	return typeByName(t.Name.Ids()[0].String())
}

func (l *ParameterValueList) byName(name string) (*ParameterValue, int) {
	for i := range l.Params {
		if l.Params[i].Name == name {
			return &l.Params[i], i
		}
	}
	return nil, -1
}

func (l *ParameterValueList) remove(i int) {
	l.Params = append(l.Params[:i:i], l.Params[i+1:]...)
}

// TypeCheckResult is the per-argument outcome spec.md §4.5 "Argument/
// parameter matching" names.
type TypeCheckResult int

const (
	SingleMatch TypeCheckResult = iota
	MultiMatch
	NoMatch
)

// typeCheck decides whether v can bind to a parameter of type
// paramType (spec.md §4.5's three outcomes).
func typeCheck(hasType bool, paramType types.Type, v value.Value) TypeCheckResult {
	if !hasType {
		return SingleMatch
	}
	vt := v.Type()
	if types.Equal(vt, paramType) || types.CanCoerce(vt, paramType) {
		return SingleMatch
	}
	if vt.IsArray() && (types.Equal(vt.Elem(), paramType) || types.CanCoerce(vt.Elem(), paramType)) {
		return MultiMatch
	}
	return NoMatch
}

// Coefficient is a single value or a multi-value list bound to one
// parameter id during multiplicity expansion (spec.md §4.5
// "Workbench calls and multiplicity" step 3), grounded on
// original_source/lang/parse/call/multiplicity.rs's Coefficient<T>.
type Coefficient struct {
	Single value.Value
	Multi  []value.Value
	IsMulti bool
}

func (c Coefficient) len() int {
	if c.IsMulti {
		return len(c.Multi)
	}
	return 1
}

func (c Coefficient) at(i int) value.Value {
	if c.IsMulti {
		return c.Multi[i]
	}
	return c.Single
}

// MultiArgumentMap is the find_match result: one Coefficient per bound
// parameter id. Order lists the ids in the order the named, positional
// and default passes bound them; Combinations sorts them for a
// deterministic enumeration.
type MultiArgumentMap struct {
	Order []string
	Map   map[string]Coefficient
}

func newMultiArgumentMap() *MultiArgumentMap {
	return &MultiArgumentMap{Map: map[string]Coefficient{}}
}

func (m *MultiArgumentMap) insert(name string, c Coefficient) {
	if _, ok := m.Map[name]; !ok {
		m.Order = append(m.Order, name)
	}
	m.Map[name] = c
}

// FindMatch runs the named/positional/default passes of spec.md §4.5
// "Argument/parameter matching" against args and params, grounded on
// original_source/lang/eval/call/argument_match.rs's ArgumentMatch
// trait (find_and_insert_named/positional/default_arguments,
// find_match).
func FindMatch(ctx *Context, args *ArgumentValueList, params *ParameterValueList) (*MultiArgumentMap, error) {
	if err := checkUnexpectedArguments(args, params); err != nil {
		return nil, err
	}

	remaining := &ParameterValueList{Params: append([]ParameterValue(nil), params.Params...)}
	result := newMultiArgumentMap()

	for _, a := range args.Args {
		if !a.Named {
			continue
		}
		p, i := remaining.byName(a.Name)
		if p == nil {
			continue
		}
		insertMatch(result, *p, a.Value)
		remaining.remove(i)
	}

	positional := 0
	for _, a := range args.Args {
		if a.Named {
			continue
		}
		if positional >= len(remaining.Params) {
			break
		}
		p := remaining.Params[positional]
		insertMatch(result, p, a.Value)
		remaining.remove(positional)
	}

	for i := 0; i < len(remaining.Params); {
		p := remaining.Params[i]
		if p.Default == nil {
			i++
			continue
		}
		v, err := EvalExpr(ctx, p.Default)
		if err != nil {
			return nil, err
		}
		insertMatch(result, p, v)
		remaining.remove(i)
	}

	if len(remaining.Params) > 0 {
		return nil, &Error{Kind: ErrMissingParameter, Name: ident.NewSynthetic(remaining.Params[0].Name), Ref: remaining.Params[0].Ref}
	}
	return result, nil
}

func insertMatch(m *MultiArgumentMap, p ParameterValue, v value.Value) {
	switch typeCheck(p.HasType, p.Type, v) {
	case MultiMatch:
		m.insert(p.Name, Coefficient{IsMulti: true, Multi: v.Elems()})
	default:
		m.insert(p.Name, Coefficient{Single: v})
	}
}

func checkUnexpectedArguments(args *ArgumentValueList, params *ParameterValueList) error {
	for _, a := range args.Args {
		if !a.Named {
			continue
		}
		if _, i := params.byName(a.Name); i < 0 {
			return &Error{Kind: ErrUnexpectedArgument, Name: ident.NewSynthetic(a.Name), Ref: a.Ref}
		}
	}
	return nil
}

// SingleArgumentMap projects a MultiArgumentMap's Single-only bindings
// to a plain value map, for the common builtin/function call case
// where no parameter multi-matched (spec.md: "if exactly one [model],
// it may be used as a Value::Model" generalizes to: if no parameter
// multi-matched, the call has exactly one combination).
func (m *MultiArgumentMap) SingleArgumentMap() map[string]value.Value {
	out := make(map[string]value.Value, len(m.Order))
	for _, name := range m.Order {
		c := m.Map[name]
		if c.IsMulti {
			out[name] = value.Array(c.Multi, srcref.SrcRef{})
		} else {
			out[name] = c.Single
		}
	}
	return out
}

// HasMulti reports whether any bound parameter multi-matched,
// triggering Cartesian-product enumeration.
func (m *MultiArgumentMap) HasMulti() bool {
	for _, c := range m.Map {
		if c.IsMulti {
			return true
		}
	}
	return false
}
