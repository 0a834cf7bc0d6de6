package diag

type Note struct {
	Subject Subject
	Msg     string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Subject  Subject
	Notes    []Note
}

func New(sev Severity, code Code, subject Subject, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Subject:  subject,
		Message:  msg,
		Notes:    nil,
	}
}

func NewError(code Code, subject Subject, msg string) Diagnostic {
	return New(SevError, code, subject, msg)
}

func NewWarning(code Code, subject Subject, msg string) Diagnostic {
	return New(SevWarning, code, subject, msg)
}

func (d Diagnostic) WithNote(subject Subject, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Subject: subject, Msg: msg})
	return d
}
