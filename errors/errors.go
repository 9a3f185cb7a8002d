package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseHandle    Phase = "handle"    // handle decode and table lookup
	PhaseAttribute Phase = "attribute" // quantization settings
	PhaseImage     Phase = "image"     // pixel source construction
	PhaseQuantize  Phase = "quantize"  // palette selection
	PhaseRemap     Phase = "remap"     // indexed image output
	PhasePalette   Phase = "palette"   // palette extraction
	PhaseHost      Phase = "host"      // guest memory and host module
	PhaseLoad      Phase = "load"      // image and module loading
)

// Kind categorizes the error
type Kind string

const (
	KindNullHandle     Kind = "null_handle"
	KindStaleHandle    Kind = "stale_handle"
	KindKindMismatch   Kind = "kind_mismatch"
	KindOutOfRange     Kind = "value_out_of_range"
	KindBufferTooSmall Kind = "buffer_too_small"
	KindMissingBuffer  Kind = "missing_buffer"
	KindUnsupported    Kind = "unsupported"
	KindInvalidState   Kind = "invalid_state"
	KindEngine         Kind = "engine"
	KindAllocation     Kind = "allocation"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindClosed         Kind = "closed"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Op     string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the bridge operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// OutOfRange creates a value out of range error
func OutOfRange(phase Phase, op string, value any, lo, hi any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfRange,
		Op:     op,
		Value:  value,
		Detail: fmt.Sprintf("value %v outside [%v, %v]", value, lo, hi),
	}
}

// BufferTooSmall creates a buffer capacity error
func BufferTooSmall(phase Phase, op string, need, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBufferTooSmall,
		Op:     op,
		Value:  have,
		Detail: fmt.Sprintf("need %d bytes, capacity %d", need, have),
	}
}

// MissingBuffer creates an absent buffer error
func MissingBuffer(phase Phase, op string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingBuffer,
		Op:     op,
		Detail: "buffer is absent",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidState creates an ordering violation error
func InvalidState(phase Phase, op string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidState,
		Op:     op,
		Detail: detail,
	}
}

// Engine wraps a failure reported by the quantization engine
func Engine(phase Phase, op string, cause error) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindEngine,
		Op:    op,
		Cause: cause,
	}
}

// OutOfBounds creates a guest memory bounds error
func OutOfBounds(phase Phase, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Value:  offset,
		Detail: fmt.Sprintf("range [%d, %d) outside memory", offset, uint64(offset)+uint64(length)),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Load creates a loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}
