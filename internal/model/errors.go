package model

import (
	"fmt"

	"github.com/microcad/ucad/internal/ident"
)

// ErrorKind enumerates model-tree structural errors.
type ErrorKind int

const (
	ErrAlreadyParented ErrorKind = iota
	ErrMixedGeometry
	ErrNotDetermined
)

func (k ErrorKind) String() string {
	switch k {
	case ErrAlreadyParented:
		return "already-parented"
	case ErrMixedGeometry:
		return "cannot-mix-geometry"
	case ErrNotDetermined:
		return "not-determined"
	default:
		return "?"
	}
}

// Error is a model-tree structural error (spec.md §7's Eval taxonomy
// entries cannot-mix-geometry and the re-parenting invariant from
// §3.6).
type Error struct {
	Kind ErrorKind
	Id   *ident.Identifier
}

func (e *Error) Error() string {
	if e.Id != nil {
		return fmt.Sprintf("model: %s: %s", e.Kind, e.Id.String())
	}
	return fmt.Sprintf("model: %s", e.Kind)
}
