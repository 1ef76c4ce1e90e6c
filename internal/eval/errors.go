// Package eval implements the evaluator described in spec.md §4.5: a
// Context owning a call stack of frames, expression/statement
// evaluation over internal/value's Value union, call dispatch with
// argument/parameter matching and workbench multiplicity, and the
// model-tree construction that dispatch feeds.
//
// Grounded on original_source/lang/eval/call/mod.rs (the Call::eval
// dispatch shape), original_source/lang/eval/call/argument_match.rs
// (the named/positional/default matching passes), and
// original_source/lang/parse/call/multiplicity.rs (the Combinations
// Cartesian-product iterator).
package eval

import (
	"fmt"

	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/types"
)

// ErrorKind enumerates the Eval taxonomy entries of spec.md §7.
type ErrorKind int

const (
	ErrTypeMismatch ErrorKind = iota
	ErrArgumentCountMismatch
	ErrParameterTypeMismatch
	ErrMissingParameter
	ErrUnexpectedArgument
	ErrDuplicatedArgument
	ErrNotAnLValue
	ErrValueAlreadyInitialized
	ErrCannotMixGeometry
	ErrCannotNestItem
	ErrListIndexOutOfBounds
	ErrPropertyNotFound
	ErrLocalNotFound
	ErrExpectedIterable
	ErrAssertionFailed
	ErrStatementNotSupported
	ErrNoMatchingInit
	ErrErrorLimitReached
	ErrNotCallable
	ErrDivisionByZero
	ErrUnknownMethod
	ErrUninitializedProperty
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTypeMismatch:
		return "type-mismatch"
	case ErrArgumentCountMismatch:
		return "argument-count-mismatch"
	case ErrParameterTypeMismatch:
		return "parameter-type-mismatch"
	case ErrMissingParameter:
		return "missing-parameter"
	case ErrUnexpectedArgument:
		return "unexpected-argument"
	case ErrDuplicatedArgument:
		return "duplicated-argument"
	case ErrNotAnLValue:
		return "not-an-l-value"
	case ErrValueAlreadyInitialized:
		return "value-already-initialized"
	case ErrCannotMixGeometry:
		return "cannot-mix-geometry"
	case ErrCannotNestItem:
		return "cannot-nest-item"
	case ErrListIndexOutOfBounds:
		return "list-index-out-of-bounds"
	case ErrPropertyNotFound:
		return "property-not-found"
	case ErrLocalNotFound:
		return "local-not-found"
	case ErrExpectedIterable:
		return "expected-iterable"
	case ErrAssertionFailed:
		return "assertion-failed"
	case ErrStatementNotSupported:
		return "statement-not-supported"
	case ErrNoMatchingInit:
		return "no-matching-init"
	case ErrErrorLimitReached:
		return "error-limit-reached"
	case ErrNotCallable:
		return "not-callable"
	case ErrDivisionByZero:
		return "division-by-zero"
	case ErrUnknownMethod:
		return "unknown-method"
	case ErrUninitializedProperty:
		return "uninitialized-property"
	default:
		return "?"
	}
}

// Error is a structured evaluation error carrying enough context to
// render a diagnostic (spec.md §6.5/§7).
type Error struct {
	Kind     ErrorKind
	Message  string
	Name     ident.Identifier
	Expected types.Type
	Got      types.Type
	Ref      srcref.SrcRef
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("eval: %s: %s", e.Kind, e.Message)
	}
	switch e.Kind {
	case ErrParameterTypeMismatch:
		return fmt.Sprintf("eval: %s: parameter `%s` expected %s, got %s", e.Kind, e.Name, e.Expected, e.Got)
	case ErrMissingParameter, ErrUnexpectedArgument, ErrDuplicatedArgument, ErrNoMatchingInit, ErrUninitializedProperty:
		return fmt.Sprintf("eval: %s: %s", e.Kind, e.Name)
	default:
		return fmt.Sprintf("eval: %s", e.Kind)
	}
}
