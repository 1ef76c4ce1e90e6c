// Package symbol implements the symbol tree and resolver of spec.md
// §3.5/§4.4: a tree of Symbol nodes rooted at an implicit global,
// populated from parsed source files, with use-statements translated
// into alias edits and a Lookup contract that follows aliases once per
// lookup while skipping deleted symbols.
//
// Grounded on original_source/lang/resolve/lookup.rs (the Lookup trait
// and its lookup_within/lookup_within_many alias-disambiguation rules)
// and original_source/lang/resolve/symbol_map.rs/symbol_table.rs (the
// children-map-with-alias-link shape). Declaration order is preserved
// with github.com/emirpasic/gods/maps/linkedhashmap, the teacher's
// ordered-container library (scala/parser.go uses its sibling
// treeset for the same reason: deterministic iteration for
// deterministic diagnostics/output).
package symbol

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/microcad/ucad/internal/ident"
)

// Kind classifies what a Symbol was declared as.
type Kind int

const (
	KindSourceFile Kind = iota
	KindModule
	KindNamespace
	KindWorkbench
	KindInit
	KindFunction
	KindBuiltin
	KindArgument
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindSourceFile:
		return "source-file"
	case KindModule:
		return "module"
	case KindNamespace:
		return "namespace"
	case KindWorkbench:
		return "workbench"
	case KindInit:
		return "init"
	case KindFunction:
		return "function"
	case KindBuiltin:
		return "builtin"
	case KindArgument:
		return "argument"
	case KindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Symbol is one node of the symbol tree.
type Symbol struct {
	Id       ident.Identifier
	Kind     Kind
	Alias    ident.QualifiedName // valid when Kind == KindAlias: the aliased target name
	Parent   *Symbol
	Children *SymbolMap
	Deleted  bool

	// Def is an opaque payload the evaluator attaches (e.g. the parsed
	// *syntax.WorkbenchStatement/*syntax.FunctionStatement this symbol
	// was built from); internal/symbol itself never reads it.
	Def any
}

// New creates a detached symbol of the given kind.
func New(id ident.Identifier, kind Kind) *Symbol {
	return &Symbol{Id: id, Kind: kind, Children: NewMap()}
}

// NewAlias creates an alias symbol pointing at target.
func NewAlias(id ident.Identifier, target ident.QualifiedName) *Symbol {
	return &Symbol{Id: id, Kind: KindAlias, Alias: target, Children: NewMap()}
}

// IsAlias reports whether this symbol is an alias for another.
func (s *Symbol) IsAlias() bool { return s.Kind == KindAlias }

// FullName walks the parent chain to build this symbol's fully
// qualified name.
func (s *Symbol) FullName() ident.QualifiedName {
	var chain []ident.Identifier
	for n := s; n != nil && !n.Id.IsEmpty(); n = n.Parent {
		chain = append([]ident.Identifier{n.Id}, chain...)
	}
	return ident.NewQualifiedName(chain...)
}

// Add inserts child as a named child of s, setting child.Parent.
func (s *Symbol) Add(child *Symbol) {
	child.Parent = s
	s.Children.Put(child.Id, child)
}

// Search resolves name relative to s: the first identifier looked up
// among s's children, following at most one alias hop, then
// recursively searched within the match using the remaining segments.
// Mirrors original_source/lang/resolve/symbol_map.rs's SymbolMap::search.
func (s *Symbol) Search(name ident.QualifiedName) (*Symbol, error) {
	if name.IsEmpty() {
		return s, nil
	}
	head, tail, _ := name.SplitFirst()
	child, ok := s.Children.Get(head)
	if !ok || child.Deleted {
		return nil, &ResolveError{Kind: KindSymbolNotFound, Name: name}
	}
	if child.IsAlias() {
		// An alias's target is always recorded as a fully qualified name
		// by the resolver (see applyUse in resolve.go), so it is looked
		// up from the global root rather than relative to the scope the
		// `use` statement appeared in.
		target, err := s.root().Search(child.Alias)
		if err != nil {
			return nil, err
		}
		return target.Search(tail)
	}
	if tail.IsEmpty() {
		return child, nil
	}
	return child.Search(tail)
}

// root walks up to the global symbol owning s.
func (s *Symbol) root() *Symbol {
	root := s
	for root.Parent != nil {
		root = root.Parent
	}
	return root
}

// SymbolMap is an insertion-ordered Identifier -> *Symbol map.
type SymbolMap struct {
	m *linkedhashmap.Map
}

// NewMap creates an empty, insertion-ordered symbol map.
func NewMap() *SymbolMap { return &SymbolMap{m: linkedhashmap.New()} }

func (m *SymbolMap) Put(id ident.Identifier, s *Symbol) { m.m.Put(id.String(), s) }

func (m *SymbolMap) Get(id ident.Identifier) (*Symbol, bool) {
	v, ok := m.m.Get(id.String())
	if !ok {
		return nil, false
	}
	return v.(*Symbol), true
}

// Values returns the map's symbols in insertion order.
func (m *SymbolMap) Values() []*Symbol {
	vals := m.m.Values()
	out := make([]*Symbol, len(vals))
	for i, v := range vals {
		out[i] = v.(*Symbol)
	}
	return out
}

func (m *SymbolMap) Size() int { return m.m.Size() }
