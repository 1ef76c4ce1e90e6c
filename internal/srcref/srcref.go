// Package srcref carries source positions through every syntactic and
// semantic entity so diagnostics can point back at the offending line.
package srcref

import "fmt"

// SrcRef is an optional (byte-range, line, col, source-hash) span.
//
// The zero value is the "no position" ref: it compares equal to any
// other ref for structural-equality purposes (see Equal) but carries no
// location for diagnostics.
type SrcRef struct {
	valid      bool
	start, end int
	line, col  int
	sourceHash uint64
}

// New builds a SrcRef for a byte range within a hashed source.
func New(start, end, line, col int, sourceHash uint64) SrcRef {
	return SrcRef{valid: true, start: start, end: end, line: line, col: col, sourceHash: sourceHash}
}

// None is the absence of a position, e.g. for synthesized nodes.
func None() SrcRef { return SrcRef{} }

// IsValid reports whether this ref actually carries a position.
func (r SrcRef) IsValid() bool { return r.valid }

// Range returns the [start, end) byte range.
func (r SrcRef) Range() (int, int) { return r.start, r.end }

// Line and Col return the 1-based line/column of the start of the range.
func (r SrcRef) Line() int { return r.line }
func (r SrcRef) Col() int  { return r.col }

// SourceHash identifies which source file this range belongs to.
func (r SrcRef) SourceHash() uint64 { return r.sourceHash }

// Merge returns the minimal SrcRef enclosing both a and b. If either is
// invalid, the other is returned; mismatched source hashes panic, since
// that indicates a bug in the caller (merging across files makes no
// sense).
func Merge(a, b SrcRef) SrcRef {
	if !a.valid {
		return b
	}
	if !b.valid {
		return a
	}
	if a.sourceHash != b.sourceHash {
		panic(fmt.Sprintf("srcref.Merge: mismatched source hashes %x vs %x", a.sourceHash, b.sourceHash))
	}
	start, end := a.start, a.end
	line, col := a.line, a.col
	if b.start < start {
		start = b.start
		line, col = b.line, b.col
	}
	if b.end > end {
		end = b.end
	}
	return SrcRef{valid: true, start: start, end: end, line: line, col: col, sourceHash: a.sourceHash}
}

// Equal compares two refs ignoring position, as required for structural
// equality of syntax trees (spec.md §3.1). Two refs with different
// positions but the same validity compare equal.
func Equal(a, b SrcRef) bool {
	return a.valid == b.valid
}

func (r SrcRef) String() string {
	if !r.valid {
		return "<no-pos>"
	}
	return fmt.Sprintf("%d:%d", r.line, r.col)
}

// Referrer is implemented by every syntactic/semantic entity that
// carries a source reference.
type Referrer interface {
	SrcRef() SrcRef
}
