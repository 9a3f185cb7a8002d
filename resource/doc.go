// Package resource provides generation-checked handle tables.
//
// A handle is a 64-bit token that names one live Go value across a boundary
// that can only carry integers. Each Table stores values of one kind and
// stamps that kind into every handle it issues.
//
// # Handle Table
//
//	attrs := resource.NewTable[*engine.Attr](resource.KindAttribute, 0)
//
//	h, err := attrs.Insert(attr)
//	attr, err := attrs.Get(h)
//	attr, err := attrs.Remove(h)
//
// # Liveness
//
// Slots are recycled, but every free advances the slot's generation and the
// generation is part of the handle. A handle kept after Remove therefore
// fails with ErrStaleHandle instead of resolving to whatever now occupies the
// slot. Presenting a handle to a table of a different kind fails with
// ErrKindMismatch. Handle 0 always fails with ErrNullHandle.
//
// Derived references reuse the owner's slot and generation under another
// kind (see WithKind), so they go stale together with their owner.
//
// # Observers
//
//	stop := attrs.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("%s %s %#x", e.Kind, e.Type, e.Handle)
//	}))
//	defer stop()
//
// # Memory Management
//
// Values are never reclaimed automatically. Remove releases one value and
// calls Drop on values that implement Dropper; Close releases everything
// still live.
package resource
