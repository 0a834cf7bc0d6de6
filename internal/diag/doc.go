// Package diag defines the core diagnostic model shared by all checking phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture findings
//     produced by declaration loading and contract validation.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//
// # Scope
//
// Package diag does not perform any formatting, IO, CLI integration, or
// interactive behaviour. Rendering responsibilities live in internal/diagfmt,
// whereas orchestration lives in internal/driver and the CLI commands.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Subject – the callable (and optionally parameter) the finding is about.
//   - Notes – optional secondary subjects/messages for additional context.
//
// Notes should be used sparingly: each note must add new context (e.g. "slot
// expected here") rather than repeating the diagnostic message.
//
// # Emitting diagnostics
//
// Checks should use a diag.Reporter to decouple emission from storage.
// diag.BagReporter aggregates diagnostics into a Bag, which supports sorting,
// deduplication and merging. Validations of distinct callables may run on
// separate goroutines; either give each goroutine its own Bag or wrap a shared
// sink in SyncReporter.
//
// Keep the data model deterministic: any new fields should honour the
// package's layering constraints and avoid side effects, so the CLI and future
// tooling can safely serialise diagnostics for caching and testing.
package diag
