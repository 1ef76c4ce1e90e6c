// Package diag implements the diagnostics sink described in spec.md
// §6.5/§7: a collection of errors/warnings/info carrying SrcRef spans,
// pretty-printed with a line excerpt and caret underline.
//
// Grounded on the teacher's []error-returning Parse (scala/parser.go)
// generalized into a structured, leveled sink, and on
// original_source/lang/diagnostics.rs for the level taxonomy.
package diag

import (
	"fmt"
	"strings"

	"github.com/microcad/ucad/internal/srcref"
)

// Level classifies a diagnostic's severity.
type Level int

const (
	Error Level = iota
	Warning
	Info
)

func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "?"
	}
}

// Diagnostic is a single reported condition.
type Diagnostic struct {
	Level   Level
	Message string
	Ref     srcref.SrcRef
}

// SourceLocator resolves a SrcRef back to a filename and the raw
// source text, for pretty-printing (spec.md §4.1's "map a SrcRef back
// to a file for diagnostics").
type SourceLocator interface {
	FilenameForHash(hash uint64) (string, bool)
	SourceForHash(hash uint64) (string, bool)
}

// Sink collects diagnostics during a single evaluation run and stops
// accepting new ones once an error budget is exhausted (spec.md §5,
// "ErrorLimitReached").
type Sink struct {
	limit       int
	diagnostics []Diagnostic
	errorCount  int
	limitHit    bool
}

// NewSink creates a sink with the given error budget. A limit of 0 or
// less means unlimited.
func NewSink(limit int) *Sink {
	return &Sink{limit: limit}
}

// LimitReached reports whether the error budget has already been hit.
func (s *Sink) LimitReached() bool { return s.limitHit }

// Report appends a diagnostic. Once the error budget for Error-level
// diagnostics is exhausted, further Report calls are dropped and
// LimitReached becomes true; callers should check LimitReached and
// abort evaluation (spec.md §5, EvalError.ErrorLimitReached(N)).
func (s *Sink) Report(level Level, message string, ref srcref.SrcRef) {
	if s.limitHit {
		return
	}
	s.diagnostics = append(s.diagnostics, Diagnostic{Level: level, Message: message, Ref: ref})
	if level == Error {
		s.errorCount++
		if s.limit > 0 && s.errorCount >= s.limit {
			s.limitHit = true
		}
	}
}

func (s *Sink) Errorf(ref srcref.SrcRef, format string, args ...any) {
	s.Report(Error, fmt.Sprintf(format, args...), ref)
}

func (s *Sink) Warnf(ref srcref.SrcRef, format string, args ...any) {
	s.Report(Warning, fmt.Sprintf(format, args...), ref)
}

func (s *Sink) Infof(ref srcref.SrcRef, format string, args ...any) {
	s.Report(Info, fmt.Sprintf(format, args...), ref)
}

// All returns every collected diagnostic, in report order.
func (s *Sink) All() []Diagnostic { return s.diagnostics }

// HasErrors reports whether any Error-level diagnostic was collected.
func (s *Sink) HasErrors() bool { return s.errorCount > 0 }

// ErrorCount returns the number of Error-level diagnostics collected.
func (s *Sink) ErrorCount() int { return s.errorCount }

// Filter returns only diagnostics of the given level, preserving order.
func (s *Sink) Filter(level Level) []Diagnostic {
	var out []Diagnostic
	for _, d := range s.diagnostics {
		if d.Level == level {
			out = append(out, d)
		}
	}
	return out
}

// Render pretty-prints every diagnostic grouped by level: a
// file:line:col preamble, the offending source line, and a caret
// underline of the span (spec.md §6.5).
func Render(diagnostics []Diagnostic, locator SourceLocator) string {
	var b strings.Builder
	for _, level := range []Level{Error, Warning, Info} {
		for _, d := range diagnostics {
			if d.Level != level {
				continue
			}
			renderOne(&b, d, locator)
		}
	}
	return b.String()
}

func renderOne(b *strings.Builder, d Diagnostic, locator SourceLocator) {
	if !d.Ref.IsValid() || locator == nil {
		fmt.Fprintf(b, "%s: %s\n", d.Level, d.Message)
		return
	}
	filename, ok := locator.FilenameForHash(d.Ref.SourceHash())
	if !ok {
		filename = "<unknown>"
	}
	fmt.Fprintf(b, "%s: %s\n  --> %s:%d:%d\n", d.Level, d.Message, filename, d.Ref.Line(), d.Ref.Col())

	source, ok := locator.SourceForHash(d.Ref.SourceHash())
	if !ok {
		return
	}
	lines := strings.Split(source, "\n")
	lineIdx := d.Ref.Line() - 1
	if lineIdx < 0 || lineIdx >= len(lines) {
		return
	}
	line := lines[lineIdx]
	fmt.Fprintf(b, "   %s\n", line)
	col := d.Ref.Col()
	if col < 1 {
		col = 1
	}
	fmt.Fprintf(b, "   %s^\n", strings.Repeat(" ", col-1))
}
