package liqbridge

// Status is the two-valued result code returned by every mutating bridge call.
type Status int32

const (
	StatusOK    Status = 0
	StatusError Status = 1
)

func (s Status) String() string {
	if s == StatusOK {
		return "OK"
	}
	return "ERROR"
}

// Sentinels returned by accessors when the handle does not name a live object.
// Zero-valued sentinels collide with legitimate zero results; callers that need
// to tell them apart use the liq package instead.
const (
	NullHandle      int64   = 0
	SentinelWidth   int32   = 0
	SentinelHeight  int32   = 0
	SentinelGamma   float64 = 0.0
	SentinelQuality int32   = 0
	SentinelMSE     float64 = -1.0
	SentinelCount   int32   = 0
	SentinelSize    int32   = -1
)

// ValueType is the core type of a single boundary argument or result slot.
type ValueType byte

const (
	ValueI32 ValueType = 0x7f
	ValueI64 ValueType = 0x7e
	ValueF32 ValueType = 0x7d
	ValueF64 ValueType = 0x7c
)

func (t ValueType) String() string {
	switch t {
	case ValueI32:
		return "i32"
	case ValueI64:
		return "i64"
	case ValueF32:
		return "f32"
	case ValueF64:
		return "f64"
	}
	return "unknown"
}

// Memory is caller-owned linear memory that buffers are read from and written to.
type Memory interface {
	// Read returns a view of length bytes at offset. The view aliases the memory
	// and is only valid until the memory is resized.
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	Size() uint32
}

// Allocator allocates caller-side buffers in a Memory.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}
