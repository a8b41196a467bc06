package slots

import (
	"errors"
	"time"

	"autoplay/pkg/playback"
	"autoplay/pkg/sharedTypes"
)

var (
	// ErrSlotInUse means the slot still belongs to another identity; it must
	// be detached before being attached to a new one.
	ErrSlotInUse   = errors.New("slots: render target attached to another item")
	ErrUnknownItem = errors.New("slots: unknown item")
)

// PlaybackBinding is the part of the shared playback resource the registry needs to
// keep a released slot from being drawn into.
type PlaybackBinding interface {
	Active() playback.Handle
	PauseCapturingPosition() time.Duration
	Teardown()
}

// Registry maps identities to tracking records and slots to identities. At
// most one record references a given slot at any instant.
type Registry struct {
	binding PlaybackBinding
	items   map[sharedTypes.ItemID]*Item
	bySlot  map[sharedTypes.SlotID]sharedTypes.ItemID
	order   []sharedTypes.ItemID
}

func NewRegistry(binding PlaybackBinding) *Registry {
	return &Registry{
		binding: binding,
		items:   make(map[sharedTypes.ItemID]*Item),
		bySlot:  make(map[sharedTypes.SlotID]sharedTypes.ItemID),
	}
}

// Upsert creates the record for id or reattaches target to the existing one
// without rewinding it. A nil target creates or refreshes a dormant record.
// Attaching the item to a different slot than before detaches the old slot
// first and clears a previous bind failure.
func (r *Registry) Upsert(id sharedTypes.ItemID, source string, target RenderTarget) (*Item, error) {
	if target != nil {
		if holder, ok := r.bySlot[target.ID()]; ok && holder != id {
			return nil, ErrSlotInUse
		}
	}

	it, ok := r.items[id]
	if !ok {
		it = &Item{ID: id, Source: source}
		r.items[id] = it
		r.order = append(r.order, id)
	} else if source != "" {
		it.Source = source
	}

	if target == nil {
		return it, nil
	}
	if it.Target != nil && it.Target.ID() == target.ID() {
		it.Target = target
		return it, nil
	}
	if it.Target != nil {
		r.detach(it)
	}
	it.Target = target
	it.Failed = false
	it.LastErr = nil
	r.bySlot[target.ID()] = id
	return it, nil
}

// DetachRenderTarget releases slot from the item bound to it. If that item
// holds the live binding, playback is paused with the position captured and
// the binding is torn down. ok is false when no item holds the slot.
func (r *Registry) DetachRenderTarget(slot sharedTypes.SlotID) (*Item, bool) {
	id, ok := r.bySlot[slot]
	if !ok {
		return nil, false
	}
	it := r.items[id]
	r.detach(it)
	return it, true
}

func (r *Registry) detach(it *Item) {
	if it.Target != nil {
		delete(r.bySlot, it.Target.ID())
	}
	if it.Handle.Valid() && it.Handle == r.binding.Active() {
		if it.State == Playing || it.State == Prepared {
			it.Position = r.binding.PauseCapturingPosition()
		}
		r.binding.Teardown()
	}
	it.Target = nil
	it.Prepared = false
	it.Handle = 0
	it.State = Idle
}

func (r *Registry) Find(id sharedTypes.ItemID) (*Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

func (r *Registry) FindByRenderTarget(slot sharedTypes.SlotID) (*Item, bool) {
	id, ok := r.bySlot[slot]
	if !ok {
		return nil, false
	}
	return r.items[id], true
}

// FindByHandle resolves a binding handle back to its item.
func (r *Registry) FindByHandle(h playback.Handle) (*Item, bool) {
	if !h.Valid() {
		return nil, false
	}
	for _, id := range r.order {
		if it := r.items[id]; it.Handle == h {
			return it, true
		}
	}
	return nil, false
}

// Remove detaches and forgets id.
func (r *Registry) Remove(id sharedTypes.ItemID) error {
	it, ok := r.items[id]
	if !ok {
		return ErrUnknownItem
	}
	r.detach(it)
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Items returns the records in first-tracked order.
func (r *Registry) Items() []*Item {
	out := make([]*Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

func (r *Registry) Len() int { return len(r.items) }
