package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"starcheck/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	codeColor    = color.New(color.Faint)
	subjectColor = color.New(color.Bold)
)

// Pretty formats diagnostics into a human-readable report. It walks
// bag.Items() (call bag.Sort() beforehand) and prints for each diagnostic:
//
//	<severity> <CODE>: <message>
//	  --> <file>:<callable>(<param>)
//	  note: <note message>
//
// Color is enabled by option only; the writer is never probed.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	if bag == nil {
		return
	}
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s %s: %s\n",
			severityText(d.Severity, opts.Color),
			colorize(codeColor, d.Code.ID(), opts.Color),
			d.Message)
		if !d.Subject.Empty() {
			fmt.Fprintf(w, "  --> %s\n",
				colorize(subjectColor, displaySubject(d.Subject, opts.PathMode), opts.Color))
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(w, "  note: %s", n.Msg)
				if !n.Subject.Empty() {
					fmt.Fprintf(w, " (%s)", displaySubject(n.Subject, opts.PathMode))
				}
				fmt.Fprintln(w)
			}
		}
	}
}

func severityText(sev diag.Severity, colored bool) string {
	switch sev {
	case diag.SevError:
		return colorize(errorColor, "error", colored)
	case diag.SevWarning:
		return colorize(warningColor, "warning", colored)
	default:
		return colorize(infoColor, "info", colored)
	}
}

func colorize(c *color.Color, s string, colored bool) string {
	if !colored {
		return s
	}
	return c.Sprint(s)
}
