// Package ident implements the interned-identifier and qualified-name
// types threaded through the parser, resolver and evaluator.
package ident

import (
	"strings"

	"github.com/microcad/ucad/internal/srcref"
)

// Builtin is the reserved first identifier of every builtin-rooted
// qualified name, e.g. `__builtin::circle`.
const Builtin = "__builtin"

// Identifier is a short interned string with a SrcRef. Equality and
// hashing consider only the string, per spec.md §3.2.
type Identifier struct {
	name string
	ref  srcref.SrcRef
}

// New creates an Identifier carrying a position.
func New(name string, ref srcref.SrcRef) Identifier {
	return Identifier{name: name, ref: ref}
}

// NewSynthetic creates an Identifier with no source position, for
// compiler-generated names (e.g. builtin registration).
func NewSynthetic(name string) Identifier {
	return Identifier{name: name}
}

func (id Identifier) String() string      { return id.name }
func (id Identifier) SrcRef() srcref.SrcRef { return id.ref }
func (id Identifier) IsEmpty() bool       { return id.name == "" }

// Equal compares identifiers by string only.
func (id Identifier) Equal(other Identifier) bool { return id.name == other.name }

// QualifiedName is an ordered sequence of identifiers: a::b::c.
type QualifiedName struct {
	ids []Identifier
}

// NewQualifiedName builds a QualifiedName from identifiers in order.
func NewQualifiedName(ids ...Identifier) QualifiedName {
	cp := make([]Identifier, len(ids))
	copy(cp, ids)
	return QualifiedName{ids: cp}
}

// Parse splits a "a::b::c" string into a QualifiedName with synthetic
// (position-less) identifiers. Used for symbol-map keys built outside
// the parser (CLI args, externals index, generated aliases).
func Parse(s string) QualifiedName {
	if s == "" {
		return QualifiedName{}
	}
	parts := strings.Split(s, "::")
	ids := make([]Identifier, len(parts))
	for i, p := range parts {
		ids[i] = NewSynthetic(p)
	}
	return QualifiedName{ids: ids}
}

// Len is the number of path segments.
func (q QualifiedName) Len() int { return len(q.ids) }

// IsEmpty reports whether the name has no segments.
func (q QualifiedName) IsEmpty() bool { return len(q.ids) == 0 }

// Ids returns the underlying identifier slice (read-only use expected).
func (q QualifiedName) Ids() []Identifier { return q.ids }

// WithPrefix returns a new QualifiedName with prefix's segments prepended.
func (q QualifiedName) WithPrefix(prefix QualifiedName) QualifiedName {
	combined := make([]Identifier, 0, len(prefix.ids)+len(q.ids))
	combined = append(combined, prefix.ids...)
	combined = append(combined, q.ids...)
	return QualifiedName{ids: combined}
}

// SplitFirst returns the first identifier and the remaining tail. ok is
// false if the name is empty.
func (q QualifiedName) SplitFirst() (head Identifier, tail QualifiedName, ok bool) {
	if len(q.ids) == 0 {
		return Identifier{}, QualifiedName{}, false
	}
	return q.ids[0], QualifiedName{ids: q.ids[1:]}, true
}

// Basename returns the last identifier, i.e. the symbol's own name
// ignoring its namespace path.
func (q QualifiedName) Basename() Identifier {
	if len(q.ids) == 0 {
		return Identifier{}
	}
	return q.ids[len(q.ids)-1]
}

// Parent returns the qualified name with the last segment removed.
func (q QualifiedName) Parent() QualifiedName {
	if len(q.ids) == 0 {
		return QualifiedName{}
	}
	return QualifiedName{ids: q.ids[:len(q.ids)-1]}
}

// IsSubOf reports whether q is other, or nested within other
// (other is a strict prefix of q, or they are equal).
func (q QualifiedName) IsSubOf(other QualifiedName) bool {
	if len(other.ids) > len(q.ids) {
		return false
	}
	for i, id := range other.ids {
		if !id.Equal(q.ids[i]) {
			return false
		}
	}
	return true
}

// IsBuiltin reports whether the first identifier is __builtin.
func (q QualifiedName) IsBuiltin() bool {
	return len(q.ids) > 0 && q.ids[0].name == Builtin
}

// Equal compares two qualified names by their identifier strings.
func (q QualifiedName) Equal(other QualifiedName) bool {
	if len(q.ids) != len(other.ids) {
		return false
	}
	for i := range q.ids {
		if !q.ids[i].Equal(other.ids[i]) {
			return false
		}
	}
	return true
}

// Key renders a stable map key for this name, for use in Go maps.
func (q QualifiedName) Key() string { return q.String() }

func (q QualifiedName) String() string {
	parts := make([]string, len(q.ids))
	for i, id := range q.ids {
		parts[i] = id.name
	}
	return strings.Join(parts, "::")
}

// SrcRef merges the positions of every contained identifier.
func (q QualifiedName) SrcRef() srcref.SrcRef {
	var r srcref.SrcRef
	for _, id := range q.ids {
		r = srcref.Merge(r, id.ref)
	}
	return r
}
