// Package errors provides structured error types for the resumable toolchain.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: tree path, node type tag, source line and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTranspile, errors.KindUnsupported).
//		Path("body", "0", "consequent").
//		NodeType("SwitchStatement").
//		Detail("no handler registered").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnsupportedNode(errors.PhaseTranspile, "TryStatement", path)
//	err := errors.FieldMissing(errors.PhaseResume, path, "temp0")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
