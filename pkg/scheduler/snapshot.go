package scheduler

import (
	"time"

	"autoplay/pkg/sharedTypes"
	"autoplay/pkg/slots"
)

// ItemView is a read-only copy of one tracking record.
type ItemView struct {
	ID         sharedTypes.ItemID
	Slot       sharedTypes.SlotID
	State      slots.State
	Intent     slots.Intent
	Position   time.Duration
	Ratio      float64
	Prepared   bool
	UserPaused bool
	Fullscreen bool
	Failed     bool
	Err        string
}

type Stats struct {
	Binds       uint64
	Prepared    uint64
	Stale       uint64
	Failures    uint64
	Timeouts    uint64
	Pauses      uint64
	BindLatency time.Duration
	FailureRate float64
	Degrading   bool
}

// Snapshot is the scheduler state after a dispatch. It is never mutated once
// published.
type Snapshot struct {
	Items      []ItemView
	Owner      sharedTypes.ItemID
	Fullscreen sharedTypes.ItemID
	Policy     Policy
	Stats      Stats
}

func (s *Snapshot) Item(id sharedTypes.ItemID) (ItemView, bool) {
	for _, v := range s.Items {
		if v.ID == id {
			return v, true
		}
	}
	return ItemView{}, false
}

// BySlot returns the view of the item drawn by slot.
func (s *Snapshot) BySlot(slot sharedTypes.SlotID) (ItemView, bool) {
	if slot == "" {
		return ItemView{}, false
	}
	for _, v := range s.Items {
		if v.Slot == slot {
			return v, true
		}
	}
	return ItemView{}, false
}
