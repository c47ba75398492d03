// Package diag implements the Diagnostics sink collaborator (spec section
// 1 and section 6): every component reports warnings and errors through it
// rather than rendering them directly, so the core stays independent of how
// a caller chooses to present them (terminal, LSP, test harness, ...).
//
// The shape mirrors go/scanner.ErrorList's use throughout lang/scanner,
// lang/parser and lang/resolver: accumulate, sort by position, then turn
// into a single error that implements Unwrap() []error.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mna/adeptc/lang/token"
)

// Severity classifies a diagnostic (spec section 6).
type Severity int

const (
	Warning Severity = iota
	Error
	InternalCompilerError
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case InternalCompilerError:
		return "internal compiler error"
	default:
		return "unknown severity"
	}
}

// WarnFlag names a per-flag gate for a warning (spec section 6), e.g.
// "warn_padded_field".
type WarnFlag string

const (
	WarnPaddedField   WarnFlag = "warn_padded_field"
	WarnPaddedBitfield WarnFlag = "warn_padded_bitfield"
)

// Diagnostic is a single reported condition.
type Diagnostic struct {
	Pos      token.Position
	Severity Severity
	Message  string
	Flag     WarnFlag // set only for gated warnings
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() || d.Pos.Filename != "" {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Sink is the interface every component reports diagnostics through. It is
// the core's view of the external Diagnostics collaborator (spec section
// 1).
type Sink interface {
	Report(Diagnostic)
}

// GateFunc reports whether a warning gated by flag is currently enabled.
// A Sink may embed one; components that emit gated warnings accept it
// alongside the Sink.
type GateFunc func(flag WarnFlag) bool

// AllWarningsEnabled is a GateFunc that never suppresses a warning.
func AllWarningsEnabled(WarnFlag) bool { return true }

// List is a concrete, in-memory Sink that accumulates diagnostics, sorts
// them by position, and turns into a single error — the same contract the
// teacher gets for free from go/scanner.ErrorList, reimplemented here since
// the core's Diagnostic shape differs from go/scanner.Error.
type List struct {
	items []Diagnostic
}

var _ Sink = (*List)(nil)

// Report implements Sink.
func (l *List) Report(d Diagnostic) {
	l.items = append(l.items, d)
}

// Add is a convenience wrapper around Report for plain error-severity
// messages.
func (l *List) Add(pos token.Position, format string, args ...any) {
	l.Report(Diagnostic{Pos: pos, Severity: Error, Message: fmt.Sprintf(format, args...)})
}

// Sort orders diagnostics by filename then offset, stably preserving report
// order for diagnostics at the same position.
func (l *List) Sort() {
	sort.SliceStable(l.items, func(i, j int) bool {
		a, b := l.items[i].Pos, l.items[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Offset < b.Offset
	})
}

// Len returns the number of accumulated diagnostics.
func (l *List) Len() int { return len(l.items) }

// Items returns the accumulated diagnostics in their current order.
func (l *List) Items() []Diagnostic { return l.items }

// HasErrors reports whether any diagnostic at Error severity or above was
// reported.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity >= Error {
			return true
		}
	}
	return false
}

// Err returns nil if no error-or-worse diagnostic was reported, otherwise an
// *Errors wrapping every reported diagnostic, warnings included.
func (l *List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return &Errors{items: l.items}
}

// Errors is the error value returned by List.Err. It implements
// Unwrap() []error so callers can use errors.Is/As across the whole batch,
// matching go/scanner.ErrorList's contract.
type Errors struct {
	items []Diagnostic
}

func (e *Errors) Error() string {
	var sb strings.Builder
	for i, d := range e.items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(d.String())
	}
	return sb.String()
}

func (e *Errors) Unwrap() []error {
	errs := make([]error, len(e.items))
	for i, d := range e.items {
		errs[i] = singleErr{d}
	}
	return errs
}

type singleErr struct{ d Diagnostic }

func (e singleErr) Error() string { return e.d.String() }
