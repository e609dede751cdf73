package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	errorLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true)
	warningLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")).Bold(true)
	traceLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// Reporter writes diagnostics, warnings and trace events to the diagnostic
// stream. It implements Listener.
type Reporter struct {
	w     io.Writer
	color bool
}

// NewReporter creates a reporter writing to w. Labels are styled only when w
// is a terminal.
func NewReporter(w io.Writer) *Reporter {
	r := &Reporter{w: w}
	if f, ok := w.(*os.File); ok {
		r.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return r
}

// Report writes err. A *Diagnostic in the chain is written with its location;
// any other error is reported as an unknown failure. A nil err writes nothing.
func (r *Reporter) Report(err error) {
	if err == nil {
		return
	}
	d, ok := As(err)
	if !ok {
		r.line("", KindError, "unknown failure: "+err.Error())
		return
	}
	kind := d.Kind
	if kind == "" {
		kind = KindError
	}
	r.line(d.Location.String(), kind, d.Message)
}

// Warning implements Listener.
func (r *Reporter) Warning(loc Location, message string) {
	r.line(loc.String(), KindWarning, message)
}

// Trace implements Listener. One value is written bare, several in
// parentheses separated by commas.
func (r *Reporter) Trace(loc Location, label string, values []string) {
	msg := label
	switch len(values) {
	case 0:
	case 1:
		msg += " " + values[0]
	default:
		msg += " (" + strings.Join(values, ",") + ")"
	}
	r.line(loc.String(), KindTrace, msg)
}

func (r *Reporter) line(loc string, kind Kind, message string) {
	label := r.label(kind)
	if loc != "" {
		_, _ = fmt.Fprintf(r.w, "%s: %s: %s\n", loc, label, message)
		return
	}
	_, _ = fmt.Fprintf(r.w, "%s: %s\n", label, message)
}

func (r *Reporter) label(kind Kind) string {
	if !r.color {
		return string(kind)
	}
	switch kind {
	case KindWarning:
		return warningLabel.Render(string(kind))
	case KindTrace:
		return traceLabel.Render(string(kind))
	default:
		return errorLabel.Render(string(kind))
	}
}
