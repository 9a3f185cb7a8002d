package resource

// Handle is an opaque token naming one live object in a Table.
// Handle 0 is reserved and always invalid.
//
// Layout, least significant bit first:
//
//	bits  0-31  slot index + 1
//	bits 32-55  slot generation (never 0)
//	bits 56-62  object kind
//
// Bit 63 is always clear so a handle survives a round trip through a signed
// 64-bit integer unchanged.
type Handle uint64

// Kind tags which table a handle belongs to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindAttribute
	KindPixelSource
	KindResult
	KindPalette
)

func (k Kind) String() string {
	switch k {
	case KindAttribute:
		return "attribute"
	case KindPixelSource:
		return "pixel-source"
	case KindResult:
		return "result"
	case KindPalette:
		return "palette"
	}
	return "invalid"
}

const (
	slotBits   = 32
	genBits    = 24
	kindBits   = 7
	genShift   = slotBits
	kindShift  = slotBits + genBits
	slotMask   = 1<<slotBits - 1
	genMask    = 1<<genBits - 1
	kindMask   = 1<<kindBits - 1
	maxGen     = genMask
	maxSlotIdx = slotMask - 1
)

// Encode packs a slot index, generation and kind into a handle.
// A zero generation yields the zero handle.
func Encode(kind Kind, slot uint32, gen uint32) Handle {
	if gen == 0 || slot > maxSlotIdx {
		return 0
	}
	return Handle(uint64(slot)+1) |
		Handle(uint64(gen&genMask))<<genShift |
		Handle(uint64(kind)&kindMask)<<kindShift
}

// Decode splits a handle into its parts. ok is false for handle 0 and for
// values that could not have been produced by Encode.
func Decode(h Handle) (kind Kind, slot uint32, gen uint32, ok bool) {
	if h == 0 || h>>63 != 0 {
		return KindInvalid, 0, 0, false
	}
	raw := uint32(h & slotMask)
	gen = uint32(h>>genShift) & genMask
	kind = Kind(uint64(h>>kindShift) & kindMask)
	if raw == 0 || gen == 0 {
		return KindInvalid, 0, 0, false
	}
	return kind, raw - 1, gen, true
}

// KindOf returns the kind tag of h without validating liveness.
func KindOf(h Handle) Kind {
	k, _, _, ok := Decode(h)
	if !ok {
		return KindInvalid
	}
	return k
}

// WithKind re-tags h with another kind, keeping slot and generation.
// Used for references derived from an owning object.
func WithKind(h Handle, kind Kind) Handle {
	_, slot, gen, ok := Decode(h)
	if !ok {
		return 0
	}
	return Encode(kind, slot, gen)
}

// Event types for handle lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventRejected
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventRejected:
		return "rejected"
	}
	return "unknown"
}

// Event represents a handle lifecycle event. Err is set for EventRejected.
type Event struct {
	Value  any
	Err    error
	Handle Handle
	Kind   Kind
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Dropper is optionally implemented by stored values that need cleanup.
type Dropper interface {
	Drop()
}
