// Package slotstest provides an in-memory render target for tests.
package slotstest

import (
	"math"
	"sync"

	"autoplay/pkg/sharedTypes"
	"autoplay/pkg/visibility"
)

// Target is a render slot whose geometry the test sets directly.
type Target struct {
	id sharedTypes.SlotID

	mu         sync.Mutex
	available  bool
	shown      bool
	full       visibility.Size
	visible    visibility.Rect
	hasVisible bool
}

// NewTarget returns an available, shown, fully visible w×h slot.
func NewTarget(id string, w, h int) *Target {
	return &Target{
		id:         sharedTypes.SlotID(id),
		available:  true,
		shown:      true,
		full:       visibility.Size{W: w, H: h},
		visible:    visibility.Rect{W: w, H: h},
		hasVisible: true,
	}
}

// SetRatio makes the given fraction of the slot's height visible.
func (t *Target) SetRatio(r float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := int(math.Round(float64(t.full.H) * r))
	t.visible = visibility.Rect{Y: t.full.H - h, W: t.full.W, H: h}
	t.hasVisible = h > 0
}

func (t *Target) SetAvailable(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.available = v
}

func (t *Target) SetShown(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shown = v
}

func (t *Target) ID() sharedTypes.SlotID { return t.id }

func (t *Target) IsAvailable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.available
}

func (t *Target) IsShown() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shown
}

func (t *Target) VisibleRect() (visibility.Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible, t.hasVisible
}

func (t *Target) Size() visibility.Size {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.full
}

func (t *Target) Surface() any { return "surface:" + string(t.id) }
