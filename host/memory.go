package host

import (
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/liqbridge"
	"github.com/wippyai/liqbridge/errors"
)

// guestMemory adapts a guest's linear memory to liqbridge.Memory for the
// duration of one host call.
type guestMemory struct {
	mem api.Memory
	fn  string
}

// memoryOf returns the caller's memory. Callers without a memory get one
// that faults on every access.
func memoryOf(mod api.Module, fn string) liqbridge.Memory {
	if mod == nil || mod.Memory() == nil {
		return noMemory(fn)
	}
	return &guestMemory{mem: mod.Memory(), fn: fn}
}

func (m *guestMemory) Read(offset, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		m.fault(offset, length)
		return nil, errors.OutOfBounds(errors.PhaseHost, offset, length)
	}
	return data, nil
}

func (m *guestMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		m.fault(offset, uint32(len(data)))
		return errors.OutOfBounds(errors.PhaseHost, offset, uint32(len(data)))
	}
	return nil
}

func (m *guestMemory) Size() uint32 {
	return m.mem.Size()
}

func (m *guestMemory) fault(offset, length uint32) {
	Logger().Warn("guest memory fault",
		zap.String("func", m.fn),
		zap.Uint32("offset", offset),
		zap.Uint32("length", length),
		zap.Uint32("size", m.mem.Size()),
	)
}

// noMemory stands in for callers that export no linear memory.
type noMemory string

func (m noMemory) Read(offset, length uint32) ([]byte, error) {
	Logger().Warn("guest memory fault: caller has no memory", zap.String("func", string(m)))
	return nil, errors.OutOfBounds(errors.PhaseHost, offset, length)
}

func (m noMemory) Write(offset uint32, data []byte) error {
	Logger().Warn("guest memory fault: caller has no memory", zap.String("func", string(m)))
	return errors.OutOfBounds(errors.PhaseHost, offset, uint32(len(data)))
}

func (noMemory) Size() uint32 { return 0 }
