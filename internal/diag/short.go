package diag

import (
	"fmt"
	"sort"
	"strings"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Subject  string
	Message  string
}

// FormatShortDiagnostics renders diagnostics into a stable, single-line-per-entry
// representation suitable for CLI short output and golden files. Diagnostics are
// sorted deterministically and returned as a single string (empty when nothing
// remains).
func FormatShortDiagnostics(diags []Diagnostic, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}

	rendered := make([]shortDiagnostic, 0, len(diags))
	for _, d := range diags {
		rendered = append(rendered, shortDiagnostic{
			Severity: severityLabel(d.Severity),
			Code:     d.Code.ID(),
			Subject:  d.Subject.String(),
			Message:  flattenMessage(d.Message),
		})
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			rendered = append(rendered, shortDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Subject:  n.Subject.String(),
				Message:  flattenMessage(n.Msg),
			})
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Subject != dj.Subject {
			return di.Subject < dj.Subject
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s %s", d.Severity, d.Code, d.Subject, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func severityLabel(s Severity) string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func flattenMessage(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
