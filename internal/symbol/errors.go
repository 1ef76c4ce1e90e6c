package symbol

import (
	"strings"

	"github.com/microcad/ucad/internal/ident"
)

// ErrorKind enumerates the *Resolve* error taxonomy of spec.md §7.
type ErrorKind int

const (
	KindSymbolNotFound ErrorKind = iota
	KindAmbiguousSymbol
	KindSymbolMustBeLoaded
	KindExternalNotFound
	KindAmbiguousExternal
	KindFileNotFound
	KindSymbolAlreadyDefined
)

func (k ErrorKind) String() string {
	switch k {
	case KindSymbolNotFound:
		return "symbol-not-found"
	case KindAmbiguousSymbol:
		return "ambiguous-symbol"
	case KindSymbolMustBeLoaded:
		return "symbol-must-be-loaded"
	case KindExternalNotFound:
		return "external-not-found"
	case KindAmbiguousExternal:
		return "ambiguous-external"
	case KindFileNotFound:
		return "file-not-found"
	case KindSymbolAlreadyDefined:
		return "symbol-already-defined"
	default:
		return "unknown"
	}
}

// ResolveError reports a symbol-resolution failure.
type ResolveError struct {
	Kind    ErrorKind
	Name    ident.QualifiedName
	Others  []ident.QualifiedName // populated for KindAmbiguousSymbol
	Path    string                // populated for KindSymbolMustBeLoaded/KindFileNotFound
}

func (e *ResolveError) Error() string {
	switch e.Kind {
	case KindAmbiguousSymbol:
		names := make([]string, len(e.Others))
		for i, o := range e.Others {
			names[i] = o.String()
		}
		return "ambiguous symbol " + e.Name.String() + ": also matches " + strings.Join(names, ", ")
	case KindSymbolMustBeLoaded:
		return "symbol " + e.Name.String() + " must be loaded from " + e.Path
	case KindSymbolAlreadyDefined:
		return "symbol already defined: " + e.Name.String()
	default:
		return e.Kind.String() + ": " + e.Name.String()
	}
}
