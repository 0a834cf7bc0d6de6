package diagfmt

import (
	"encoding/json"
	"io"

	"starcheck/internal/diag"
)

// SubjectJSON identifies the checked callable in JSON output.
type SubjectJSON struct {
	File     string `json:"file"`
	Callable string `json:"callable,omitempty"`
	Param    string `json:"param,omitempty"`
}

// NoteJSON is an additional note in JSON output.
type NoteJSON struct {
	Message string      `json:"message"`
	Subject SubjectJSON `json:"subject"`
}

// DiagnosticJSON is one diagnostic in JSON output.
type DiagnosticJSON struct {
	Severity string      `json:"severity"`
	Code     string      `json:"code"`
	Title    string      `json:"title"`
	Message  string      `json:"message"`
	Subject  SubjectJSON `json:"subject"`
	Notes    []NoteJSON  `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root structure of JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
}

// BuildDiagnosticsOutput converts a bag into its JSON form.
func BuildDiagnosticsOutput(bag *diag.Bag, opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Diagnostics: []DiagnosticJSON{}}
	if bag == nil {
		return out
	}
	for _, d := range bag.Items() {
		dj := DiagnosticJSON{
			Severity: severityName(d.Severity),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Subject:  subjectJSON(d.Subject, opts.PathMode),
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{
					Message: n.Msg,
					Subject: subjectJSON(n.Subject, opts.PathMode),
				})
			}
		}
		switch d.Severity {
		case diag.SevError:
			out.Errors++
		case diag.SevWarning:
			out.Warnings++
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	return out
}

// JSON encodes a bag of diagnostics onto the writer.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, opts))
}

func subjectJSON(s diag.Subject, mode PathMode) SubjectJSON {
	return SubjectJSON{
		File:     displayPath(s.File, mode),
		Callable: s.Callable,
		Param:    s.Param,
	}
}

func severityName(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "info"
	}
}
