package diag

type dedupKey struct {
	code    Code
	sev     Severity
	subject Subject
	msg     string
}

// DedupReporter wraps another Reporter and suppresses duplicate diagnostics
// with the same code, severity, subject and message.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique diagnostics to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(code Code, sev Severity, subject Subject, msg string, notes []Note) {
	if r == nil {
		return
	}
	key := dedupKey{
		code:    code,
		sev:     sev,
		subject: subject,
		msg:     msg,
	}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, subject, msg, notes)
	}
}
