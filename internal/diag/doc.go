// Package diag defines the diagnostic model shared by the loader, the type
// and value collaborators, and the struct translator.
//
// Diagnostic is the central record: a Severity, a compact Code (see codes.go)
// with a stable string form, a short Message, the Primary span that points at
// the offending declaration, and optional Notes pointing at related
// declarations (e.g. "Ordinal @3 originally used here.").
//
// Producers emit through a Reporter so that emission is decoupled from
// storage. ReportError/ReportWarning return a ReportBuilder that accepts notes
// before Emit. BagReporter collects into a Bag; DedupReporter suppresses
// repeats.
//
// Translation keeps going after a recoverable error so that unrelated problems
// in the same file are reported in one pass; the Bag is what the driver and the
// CLI inspect afterwards.
//
// Package diag does no formatting or IO. Rendering lives in internal/diagfmt.
package diag
