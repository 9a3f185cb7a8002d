package engine

// Error is the engine's failure code. The zero value is success and is never
// returned as an error.
type Error int

const (
	OK Error = iota
	QualityTooLow
	ValueOutOfRange
	OutOfMemory
	Aborted
	BitmapNotAvailable
	BufferTooSmall
	InvalidPointer
	Unsupported
)

func (e Error) Error() string {
	switch e {
	case OK:
		return "ok"
	case QualityTooLow:
		return "quality too low"
	case ValueOutOfRange:
		return "value out of range"
	case OutOfMemory:
		return "out of memory"
	case Aborted:
		return "aborted"
	case BitmapNotAvailable:
		return "bitmap not available"
	case BufferTooSmall:
		return "buffer too small"
	case InvalidPointer:
		return "invalid pointer"
	case Unsupported:
		return "unsupported"
	}
	return "unknown engine error"
}
