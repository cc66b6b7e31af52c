// Package errors provides structured error types for the interop runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the value path, Go and wire type names, and a cause chain.
// Where the external application produced a diagnostic, Detail reproduces it verbatim
// so failures can be matched against the vendor documentation.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
//		Path("props", "x span").
//		GoType("chan int").
//		Detail("cannot marshal channel").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unsupported(errors.PhaseEncode, path, "map[string]struct {}")
//	err := errors.Connection(errors.PhaseLookup, nil)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches on Kind alone, regardless of phase:
//
//	if errors.IsKind(err, errors.KindConnection) {
//		// session was closed
//	}
package errors
