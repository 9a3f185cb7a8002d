// Package errors provides structured error types for the bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category), and carry the bridge operation name and the offending value.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAttribute, errors.KindOutOfRange).
//		Op("set_speed").
//		Value(speed).
//		Detail("speed must be 1..11").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfRange(errors.PhaseAttribute, "set_max_colors", n, 1, 256)
//	err := errors.BufferTooSmall(errors.PhasePalette, "copy_palette_data", need, have)
//
// Only Status crosses the boundary: nil becomes OK and every error becomes
// ERROR. EngineCause recovers the engine's own failure code for logging.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
