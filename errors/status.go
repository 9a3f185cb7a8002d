package errors

import (
	stderrors "errors"

	"github.com/wippyai/liqbridge"
	"github.com/wippyai/liqbridge/engine"
	"github.com/wippyai/liqbridge/resource"
)

// Status collapses err into the two-valued boundary code.
func Status(err error) liqbridge.Status {
	if err == nil {
		return liqbridge.StatusOK
	}
	return liqbridge.StatusError
}

// EngineCause returns the engine failure code carried by err, if any.
// The code is for diagnostics only and never crosses the boundary.
func EngineCause(err error) (engine.Error, bool) {
	var e engine.Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return engine.OK, false
}

// Handle converts a handle table failure into a structured error.
func Handle(op string, err error) *Error {
	kind := KindStaleHandle
	switch {
	case stderrors.Is(err, resource.ErrNullHandle):
		kind = KindNullHandle
	case stderrors.Is(err, resource.ErrKindMismatch):
		kind = KindKindMismatch
	case stderrors.Is(err, resource.ErrTableFull):
		kind = KindAllocation
	case stderrors.Is(err, resource.ErrClosed):
		kind = KindClosed
	}
	return &Error{
		Phase: PhaseHandle,
		Kind:  kind,
		Op:    op,
		Cause: err,
	}
}
