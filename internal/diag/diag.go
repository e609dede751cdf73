// Package diag defines the diagnostics produced while compiling and running
// queries, and the reporter that writes them to the diagnostic stream.
package diag

import (
	"errors"
	"fmt"
)

// Kind classifies a diagnostic.
type Kind string

const (
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindTrace   Kind = "trace"
)

// Location is a position in a query document. Line and Column are 1-based;
// zero means unknown.
type Location struct {
	File   string
	Line   int
	Column int
}

// Valid reports whether the location carries a line.
func (l Location) Valid() bool {
	return l.Line > 0
}

func (l Location) String() string {
	switch {
	case l.Valid():
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	case l.File != "":
		return l.File
	default:
		return ""
	}
}

// Diagnostic is a failure attributed to a source location.
type Diagnostic struct {
	Kind Kind
	Location
	Message string
	Err     error // underlying cause (optional)
}

// New creates an error diagnostic at loc.
func New(loc Location, message string) *Diagnostic {
	return &Diagnostic{Kind: KindError, Location: loc, Message: message}
}

// Newf creates an error diagnostic with a formatted message.
func Newf(loc Location, format string, args ...any) *Diagnostic {
	return New(loc, fmt.Sprintf(format, args...))
}

// Wrap creates an error diagnostic at loc whose message is err's text.
func Wrap(loc Location, err error) *Diagnostic {
	return &Diagnostic{Kind: KindError, Location: loc, Message: err.Error(), Err: err}
}

func (d *Diagnostic) Error() string {
	kind := d.Kind
	if kind == "" {
		kind = KindError
	}
	if loc := d.Location.String(); loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, kind, d.Message)
	}
	return fmt.Sprintf("%s: %s", kind, d.Message)
}

func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// Structured reports whether the diagnostic has a source position.
func (d *Diagnostic) Structured() bool {
	return d.Location.Valid()
}

// As returns the first *Diagnostic in err's chain.
func As(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// Listener receives non-fatal events raised while a query runs.
type Listener interface {
	Warning(loc Location, message string)
	Trace(loc Location, label string, values []string)
}

// Discard is a Listener that drops every event.
var Discard Listener = discard{}

type discard struct{}

func (discard) Warning(Location, string)         {}
func (discard) Trace(Location, string, []string) {}
