package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed       = errors.New("handle table closed")
	ErrNullHandle   = errors.New("null handle")
	ErrStaleHandle  = errors.New("stale handle")
	ErrKindMismatch = errors.New("handle kind mismatch")
	ErrTableFull    = errors.New("handle table full")
)

// LocalBackend is an in-memory slot store with per-slot generations.
// Freed slots are reused, but each reuse bumps the generation so handles
// issued for the previous occupant no longer resolve.
type LocalBackend struct {
	entries  []entry
	freeList []uint32
	limit    int
	live     int
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value any
	gen   uint32
	valid bool
}

// NewLocalBackend creates a backend holding at most limit live values.
// A limit <= 0 means the encoding maximum.
func NewLocalBackend(limit int) *LocalBackend {
	if limit <= 0 || limit > maxSlotIdx+1 {
		limit = maxSlotIdx + 1
	}
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
		limit:    limit,
	}
}

// Create stores a value and returns its slot and generation.
func (b *LocalBackend) Create(value any) (slot uint32, gen uint32, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, 0, ErrClosed
	}
	if b.live >= b.limit {
		return 0, 0, ErrTableFull
	}

	if n := len(b.freeList); n > 0 {
		slot = b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		e := &b.entries[slot]
		e.value = value
		e.valid = true
		b.live++
		return slot, e.gen, nil
	}

	b.entries = append(b.entries, entry{value: value, gen: 1, valid: true})
	b.live++
	return uint32(len(b.entries) - 1), 1, nil
}

// Get retrieves the value in slot if gen matches the current occupant.
func (b *LocalBackend) Get(slot, gen uint32) (any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, err := b.lookup(slot, gen)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// Live reports whether slot currently holds the occupant of generation gen.
func (b *LocalBackend) Live(slot, gen uint32) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, err := b.lookup(slot, gen)
	return err == nil
}

// Drop frees the slot and returns its value. The slot's generation advances,
// so a second Drop with the same generation fails with ErrStaleHandle.
func (b *LocalBackend) Drop(slot, gen uint32) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.lookup(slot, gen)
	if err != nil {
		return nil, err
	}

	value := e.value
	e.value = nil
	e.valid = false
	e.gen = nextGen(e.gen)
	b.live--
	b.freeList = append(b.freeList, slot)
	return value, nil
}

// caller holds b.mu
func (b *LocalBackend) lookup(slot, gen uint32) (*entry, error) {
	if b.closed {
		return nil, ErrClosed
	}
	if int(slot) >= len(b.entries) {
		return nil, ErrStaleHandle
	}
	e := &b.entries[slot]
	if !e.valid || e.gen != gen {
		return nil, ErrStaleHandle
	}
	return e, nil
}

func nextGen(g uint32) uint32 {
	g = (g + 1) & maxGen
	if g == 0 {
		g = 1
	}
	return g
}

// Close drops every live value and rejects all further operations.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if b.entries[i].valid {
			if d, ok := b.entries[i].value.(Dropper); ok {
				d.Drop()
			}
			b.entries[i].valid = false
			b.entries[i].value = nil
		}
	}

	b.entries = nil
	b.freeList = nil
	b.live = 0
	return nil
}

// Len returns the number of live values.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// Each iterates over live values in slot order until fn returns false.
func (b *LocalBackend) Each(fn func(slot, gen uint32, value any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(uint32(i), e.gen, e.value) {
				break
			}
		}
	}
}
