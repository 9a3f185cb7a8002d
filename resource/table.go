package resource

import (
	"sync"
)

// Table is a typed, kind-tagged handle table backed by a LocalBackend.
// Handles issued by one Table never resolve in a Table of another kind.
type Table[T any] struct {
	backend   *LocalBackend
	observers map[int]Observer
	nextObs   int
	kind      Kind
	obsMu     sync.RWMutex
}

// NewTable creates a table for values of the given kind.
func NewTable[T any](kind Kind, limit int) *Table[T] {
	return &Table[T]{
		backend:   NewLocalBackend(limit),
		observers: make(map[int]Observer),
		kind:      kind,
	}
}

// Kind returns the kind tag stamped on every handle from this table.
func (t *Table[T]) Kind() Kind {
	return t.kind
}

// Insert stores value and returns its handle.
func (t *Table[T]) Insert(value T) (Handle, error) {
	slot, gen, err := t.backend.Create(value)
	if err != nil {
		t.notify(Event{Type: EventRejected, Kind: t.kind, Value: value, Err: err})
		return 0, err
	}
	h := Encode(t.kind, slot, gen)
	t.notify(Event{Type: EventCreated, Handle: h, Kind: t.kind, Value: value})
	return h, nil
}

// Get resolves h to its value.
func (t *Table[T]) Get(h Handle) (T, error) {
	var zero T
	slot, gen, err := t.resolve(h)
	if err != nil {
		return zero, err
	}
	v, err := t.backend.Get(slot, gen)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Contains reports whether h names a live value in this table.
func (t *Table[T]) Contains(h Handle) bool {
	slot, gen, err := t.resolve(h)
	if err != nil {
		return false
	}
	return t.backend.Live(slot, gen)
}

// Remove frees h and returns its value. Values implementing Dropper are
// dropped before Remove returns.
func (t *Table[T]) Remove(h Handle) (T, error) {
	var zero T
	slot, gen, err := t.resolve(h)
	if err != nil {
		return zero, err
	}
	v, err := t.backend.Drop(slot, gen)
	if err != nil {
		t.notify(Event{Type: EventRejected, Handle: h, Kind: t.kind, Err: err})
		return zero, err
	}
	if d, ok := v.(Dropper); ok {
		d.Drop()
	}
	t.notify(Event{Type: EventDropped, Handle: h, Kind: t.kind, Value: v})
	return v.(T), nil
}

func (t *Table[T]) resolve(h Handle) (slot, gen uint32, err error) {
	if h == 0 {
		return 0, 0, ErrNullHandle
	}
	kind, slot, gen, ok := Decode(h)
	if !ok {
		return 0, 0, ErrStaleHandle
	}
	if kind != t.kind {
		return 0, 0, ErrKindMismatch
	}
	return slot, gen, nil
}

// Subscribe adds an observer and returns a function that removes it.
func (t *Table[T]) Subscribe(o Observer) (unsubscribe func()) {
	t.obsMu.Lock()
	id := t.nextObs
	t.nextObs++
	t.observers[id] = o
	t.obsMu.Unlock()

	return func() {
		t.obsMu.Lock()
		delete(t.observers, id)
		t.obsMu.Unlock()
	}
}

// Len returns the number of live values.
func (t *Table[T]) Len() int {
	return t.backend.Len()
}

// Each iterates over live handles and values until fn returns false.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.backend.Each(func(slot, gen uint32, value any) bool {
		return fn(Encode(t.kind, slot, gen), value.(T))
	})
}

// Clear removes every live value.
func (t *Table[T]) Clear() {
	// Collect handles first to avoid holding the backend lock during Remove
	var handles []Handle
	t.Each(func(h Handle, _ T) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		_, _ = t.Remove(h)
	}
}

// Close releases all values and rejects further operations.
func (t *Table[T]) Close() error {
	return t.backend.Close()
}

func (t *Table[T]) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
