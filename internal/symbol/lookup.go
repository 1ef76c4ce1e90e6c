package symbol

import "github.com/microcad/ucad/internal/ident"

// Lookup searches the global root for name, returning the deepest
// match. Mirrors original_source/lang/resolve/lookup.rs's Lookup trait,
// specialized to a concrete *Symbol root rather than a generic trait
// object, since Go has no blanket-impl equivalent worth the indirection
// here.
func Lookup(root *Symbol, name ident.QualifiedName) (*Symbol, error) {
	return root.Search(name)
}

// LookupWithin searches both the global root and within a given scope.
// If both resolve to different non-alias symbols, it raises
// AmbiguousSymbol; if one is an alias of the other, the non-alias
// symbol wins.
func LookupWithin(root, within *Symbol, name ident.QualifiedName) (*Symbol, error) {
	global, globalErr := root.Search(name)
	relative, relativeErr := within.Search(name)

	switch {
	case globalErr == nil && relativeErr == nil:
		if global == relative {
			return global, nil
		}
		switch {
		case global.IsAlias() && !relative.IsAlias():
			return relative, nil
		case !global.IsAlias() && relative.IsAlias():
			return global, nil
		default:
			return nil, &ResolveError{
				Kind:   KindAmbiguousSymbol,
				Name:   relative.FullName(),
				Others: []ident.QualifiedName{global.FullName()},
			}
		}
	case globalErr == nil:
		return global, nil
	case relativeErr == nil:
		return relative, nil
	default:
		return nil, globalErr
	}
}

// LookupWithinMany searches root and within each of the given scopes,
// returning the single non-alias match. More than one distinct
// non-alias match is ambiguous.
func LookupWithinMany(root *Symbol, withins []*Symbol, name ident.QualifiedName) (*Symbol, error) {
	var found []*Symbol
	seen := map[*Symbol]bool{}
	add := func(s *Symbol) {
		if s != nil && !s.IsAlias() && !seen[s] {
			seen[s] = true
			found = append(found, s)
		}
	}

	for _, w := range withins {
		if s, err := w.Search(name); err == nil {
			add(s)
		}
	}
	if s, err := root.Search(name); err == nil {
		add(s)
	}

	switch len(found) {
	case 0:
		return nil, &ResolveError{Kind: KindSymbolNotFound, Name: name}
	case 1:
		return found[0], nil
	default:
		others := make([]ident.QualifiedName, 0, len(found)-1)
		for _, s := range found[1:] {
			others = append(others, s.FullName())
		}
		return nil, &ResolveError{Kind: KindAmbiguousSymbol, Name: found[0].FullName(), Others: others}
	}
}
