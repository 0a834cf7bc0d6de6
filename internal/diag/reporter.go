package diag

import "sync"

// Reporter is the minimal contract for receiving diagnostics from checks.
// Implementations: BagReporter (collects into a Bag), DedupReporter
// (suppresses duplicates), SyncReporter (serializes a shared sink).
type Reporter interface {
	Report(code Code, sev Severity, subject Subject, msg string, notes []Note)
}

// BagReporter is an adapter writing into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(code Code, sev Severity, subject Subject, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{
		Severity: sev, Code: code, Message: msg,
		Subject: subject, Notes: notes,
	})
}

// SyncReporter wraps another Reporter behind a mutex so validations running
// on separate goroutines may share one sink.
type SyncReporter struct {
	mu   sync.Mutex
	next Reporter
}

func NewSyncReporter(next Reporter) *SyncReporter {
	return &SyncReporter{next: next}
}

func (r *SyncReporter) Report(code Code, sev Severity, subject Subject, msg string, notes []Note) {
	if r == nil || r.next == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next.Report(code, sev, subject, msg, notes)
}
