// Package slots tracks logical feed items and the recyclable render slots
// currently drawing them.
package slots

import (
	"time"

	"autoplay/pkg/playback"
	"autoplay/pkg/sharedTypes"
	"autoplay/pkg/visibility"
)

// RenderTarget is a UI slot a video can be drawn into. Implementations must
// be safe to query from the scheduling goroutine.
type RenderTarget interface {
	ID() sharedTypes.SlotID
	IsAvailable() bool
	IsShown() bool
	VisibleRect() (visibility.Rect, bool)
	Size() visibility.Size
	// Surface is handed to the decode backend to draw into.
	Surface() any
}

// Sample reads the target's current geometry.
func Sample(t RenderTarget) visibility.Sample {
	r, ok := t.VisibleRect()
	return visibility.Sample{Visible: r, HasVisible: ok, Shown: t.IsShown(), Full: t.Size()}
}

// Intent is what the scheduler wants the item to do, as opposed to what the
// shared resource is currently doing for it.
type Intent int

const (
	ShouldPause Intent = iota
	ShouldPlay
)

func (i Intent) String() string {
	if i == ShouldPlay {
		return "ShouldPlay"
	}
	return "ShouldPause"
}

// State is the item's position in the playback lifecycle.
type State int

const (
	Idle State = iota
	Binding
	Prepared
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Binding:
		return "Binding"
	case Prepared:
		return "Prepared"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Item is the tracking record for one identity. It survives slot
// reassignment; only the scheduler mutates it.
type Item struct {
	ID     sharedTypes.ItemID
	Source string
	// Target is the slot currently drawing the item, nil while dormant.
	Target RenderTarget

	Position time.Duration
	// Prepared is set once a bind for the current attachment succeeded and
	// cleared on detach or bind failure.
	Prepared   bool
	Intent     Intent
	UserPaused bool
	Fullscreen bool
	// Failed marks a bind failure; the item is skipped until recycled or retried.
	Failed  bool
	LastErr error
	// Timeouts counts consecutive bind timeouts since the last success.
	Timeouts int

	Handle  playback.Handle
	State   State
	BoundAt time.Time
}

// Slot returns the id of the attached slot, or "".
func (it *Item) Slot() sharedTypes.SlotID {
	if it.Target == nil {
		return ""
	}
	return it.Target.ID()
}
