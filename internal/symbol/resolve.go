package symbol

import (
	"github.com/microcad/ucad/internal/diag"
	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/syntax"
)

// Resolver builds the symbol tree described in spec.md §4.4: a root
// symbol (the implicit global) with `__builtin` pre-populated, grown by
// walking each source file's top-level statements.
type Resolver struct {
	Root *Symbol

	pendingUses []pendingUse
}

type pendingUse struct {
	scope *Symbol
	decl  syntax.UseDecl
}

// NewResolver creates a resolver with an empty global root and a
// pre-populated `__builtin` child, per spec.md §4.4.
func NewResolver() *Resolver {
	root := New(ident.NewSynthetic(""), KindSourceFile)
	root.Add(New(ident.NewSynthetic(ident.Builtin), KindBuiltin))
	return &Resolver{Root: root}
}

// Builtin returns the `__builtin` scope, for internal/eval to populate
// with the core builtin functions and methods.
func (r *Resolver) Builtin() *Symbol {
	b, _ := r.Root.Children.Get(ident.NewSynthetic(ident.Builtin))
	return b
}

// ResolveSourceFile builds symbol-tree children for one source file's
// top-level statements directly under the root (spec.md §4.4 step 1-2).
// Use statements are collected and applied later by FinishUses, once
// every source file in the run has contributed its definitions (step
// 3 can only resolve `use a::b::*` once `a::b`'s children are known).
func (r *Resolver) ResolveSourceFile(file *syntax.SourceFile) []error {
	return r.resolveBody(r.Root, file.Statements)
}

// resolveBody adds children for every definition statement in stmts
// (spec.md §4.4 step 2: "only nested definitions become children;
// locals do not"), recursing into nested bodies. It is used uniformly
// for source files, modules, namespaces, workbenches and functions,
// since the nested-definitions-only rule is the same at every level.
func (r *Resolver) resolveBody(scope *Symbol, stmts []syntax.Statement) []error {
	var errs []error
	define := func(id ident.Identifier, kind Kind, def any) *Symbol {
		if existing, ok := scope.Children.Get(id); ok && !existing.Deleted {
			errs = append(errs, &ResolveError{Kind: KindSymbolAlreadyDefined, Name: existing.FullName()})
		}
		sym := New(id, kind)
		sym.Def = def
		scope.Add(sym)
		return sym
	}

	for _, st := range stmts {
		switch s := st.(type) {
		case *syntax.ModuleStatement:
			sym := define(s.Name.ToIdent(), KindModule, s)
			errs = append(errs, r.resolveBody(sym, s.Body)...)
		case *syntax.NamespaceStatement:
			target := r.ensurePath(scope, s.Name)
			errs = append(errs, r.resolveBody(target, s.Body)...)
		case *syntax.WorkbenchStatement:
			sym := define(s.Name.ToIdent(), KindWorkbench, s)
			errs = append(errs, r.resolveBody(sym, s.Body)...)
			for _, init := range s.Inits {
				errs = append(errs, r.resolveBody(sym, init.Body)...)
			}
		case *syntax.FunctionStatement:
			sym := define(s.Name.ToIdent(), KindFunction, s)
			errs = append(errs, r.resolveBody(sym, s.Body)...)
		case *syntax.UseStatement:
			r.pendingUses = append(r.pendingUses, pendingUse{scope: scope, decl: s.Decl})
		case *syntax.IfStatement:
			errs = append(errs, r.resolveBody(scope, s.Then)...)
			errs = append(errs, r.resolveBody(scope, s.Else)...)
		}
	}
	return errs
}

// ensurePath walks/creates a chain of namespace symbols for a dotted
// namespace name, returning the innermost scope.
func (r *Resolver) ensurePath(scope *Symbol, name ident.QualifiedName) *Symbol {
	cur := scope
	for _, id := range name.Ids() {
		if existing, ok := cur.Children.Get(id); ok {
			cur = existing
			continue
		}
		next := New(id, KindNamespace)
		cur.Add(next)
		cur = next
	}
	return cur
}

// FinishUses applies every use-statement collected while walking source
// files (spec.md §4.4 step 3), once all source files' definitions are
// in place. An unresolved wildcard `use` target surfaces as a
// KindSymbolNotFound ResolveError, which the driving CLI satisfies by
// loading the named external and re-running resolution; single and
// renamed `use` aliases are added without checking their target.
func (r *Resolver) FinishUses() []error {
	var errs []error
	for _, pu := range r.pendingUses {
		if err := r.applyUse(pu); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (r *Resolver) applyUse(pu pendingUse) error {
	switch d := pu.decl.(type) {
	case syntax.UseSingle:
		pu.scope.Add(NewAlias(d.Name.Basename(), d.Name))
	case syntax.UseAliasDecl:
		pu.scope.Add(NewAlias(d.As.ToIdent(), d.Name))
	case syntax.UseAll:
		target, err := r.Root.Search(d.Name)
		if err != nil {
			return err
		}
		for _, child := range target.Children.Values() {
			if child.Deleted {
				continue
			}
			// Open Question 2: a wildcard use of an alias re-exports the
			// alias's target, not a second-level alias-to-an-alias.
			targetName := child.FullName()
			if child.IsAlias() {
				targetName = child.Alias
			}
			pu.scope.Add(NewAlias(child.Id, targetName))
		}
	}
	return nil
}

// VerifyNames is spec.md §4.4 step 4: collect every free qualified
// name used by scope's own statements and confirm it resolves,
// recording unresolved ones as diagnostics against their src-ref. It
// does not attempt overload/argument matching — that is internal/eval's
// job once a call is actually dispatched.
func (r *Resolver) VerifyNames(scope *Symbol, stmts []syntax.Statement, sink *diag.Sink) {
	for _, name := range collectNames(stmts) {
		if _, err := LookupWithin(r.Root, scope, name.Name); err != nil {
			sink.Errorf(name.Ref, "%s", err.Error())
		}
	}
}
