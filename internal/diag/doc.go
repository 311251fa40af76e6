// Package diag defines the diagnostic model shared by the loader, the IR
// parser and the call-site checker.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with a stable string form
//     such as CHK4001.
//   - Message – the exact line the checker prints for the finding.
//   - Primary – the IR file and the source line recovered from debug metadata.
//   - Detail – structured call-site data (callee, argument position, expected
//     and actual) for machine-readable formats.
//   - Notes – optional secondary locations.
//
// # Emitting diagnostics
//
// Producers depend on Reporter only. BagReporter collects into a Bag; the
// driver combines it with a streaming reporter from internal/diagfmt through
// MultiReporter so that text output is written in traversal order while the
// Bag still backs exit codes and the json/short formats.
//
// Package diag does no IO and no terminal formatting; rendering lives in
// internal/diagfmt.
package diag
