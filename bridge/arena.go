package bridge

import (
	"github.com/wippyai/liqbridge"
	"github.com/wippyai/liqbridge/errors"
)

// arenaBase is the first offset handed out; offset 0 stays reserved so a zero
// pointer always means "absent".
const arenaBase = 8

// Arena is an in-process linear memory with a bump allocator. It lets Go
// callers and the explorer drive the function catalog exactly as a wasm guest
// would.
type Arena struct {
	data   []byte
	offset uint32
	limit  uint32
}

var (
	_ liqbridge.Memory    = (*Arena)(nil)
	_ liqbridge.Allocator = (*Arena)(nil)
)

// NewArena creates an arena with size initial bytes that may grow up to limit
// bytes. A limit of 0 disables growth.
func NewArena(size, limit uint32) *Arena {
	size = max(size, arenaBase)
	return &Arena{
		data:   make([]byte, size),
		offset: arenaBase,
		limit:  max(limit, size),
	}
}

// Read returns a view of length bytes at offset.
func (a *Arena) Read(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(a.data)) {
		return nil, errors.OutOfBounds(errors.PhaseHost, offset, length)
	}
	return a.data[offset:end:end], nil
}

func (a *Arena) Write(offset uint32, data []byte) error {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(a.data)) {
		return errors.OutOfBounds(errors.PhaseHost, offset, uint32(len(data)))
	}
	copy(a.data[offset:], data)
	return nil
}

func (a *Arena) Size() uint32 {
	return uint32(len(a.data))
}

// Alloc reserves size bytes aligned to align, growing the backing store when
// the limit allows it.
func (a *Arena) Alloc(size, align uint32) (uint32, error) {
	ptr := alignTo(a.offset, align)
	end := uint64(ptr) + uint64(size)
	if end > uint64(a.limit) {
		return 0, errors.New(errors.PhaseHost, errors.KindAllocation).
			Op("alloc").
			Value(size).
			Detail("arena exhausted: need %d bytes, limit %d", end, a.limit).
			Build()
	}
	if end > uint64(len(a.data)) {
		grown := make([]byte, min(max(end, uint64(len(a.data))*2), uint64(a.limit)))
		copy(grown, a.data)
		a.data = grown
	}
	a.offset = uint32(end)
	return ptr, nil
}

// Free releases the most recent allocation; other frees are ignored until Reset.
func (a *Arena) Free(ptr, size, align uint32) {
	if ptr != 0 && ptr+size == a.offset {
		a.offset = ptr
	}
}

// Reset releases every allocation and zeroes the memory.
func (a *Arena) Reset() {
	clear(a.data)
	a.offset = arenaBase
}

// Used returns the number of bytes currently allocated.
func (a *Arena) Used() uint32 {
	return a.offset - arenaBase
}

func alignTo(offset, align uint32) uint32 {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
