// Package sdlview provides SDL-backed render targets for the scheduler: list
// slots that scroll through a viewport and the fullscreen takeover surface.
package sdlview

import (
	"sync"

	"github.com/google/uuid"
	"github.com/veandco/go-sdl2/sdl"

	"autoplay/pkg/sharedTypes"
	"autoplay/pkg/visibility"
)

// Slot is one rectangle of the feed. Its geometry is written by the render
// loop and read by the scheduler goroutine, so every field is guarded.
type Slot struct {
	id sharedTypes.SlotID

	mu        sync.Mutex
	bounds    sdl.Rect // screen coordinates
	viewport  sdl.Rect
	available bool
	shown     bool
}

// NewSlot creates a hidden, unavailable slot of the given size.
func NewSlot(w, h int32) *Slot {
	return &Slot{
		id:     sharedTypes.SlotID("slot-" + uuid.NewString()),
		bounds: sdl.Rect{W: w, H: h},
	}
}

func (s *Slot) ID() sharedTypes.SlotID { return s.id }

// Place moves the slot to (x, y) on screen.
func (s *Slot) Place(x, y int32) {
	s.mu.Lock()
	s.bounds.X, s.bounds.Y = x, y
	s.mu.Unlock()
}

// Resize changes the slot's full size. Callers post SlotResized afterwards.
func (s *Slot) Resize(w, h int32) {
	s.mu.Lock()
	s.bounds.W, s.bounds.H = w, h
	s.mu.Unlock()
}

// SetViewport sets the screen area the slot is clipped against.
func (s *Slot) SetViewport(vp sdl.Rect) {
	s.mu.Lock()
	s.viewport = vp
	s.mu.Unlock()
}

// SetAvailable marks the drawing surface ready (or gone).
func (s *Slot) SetAvailable(v bool) {
	s.mu.Lock()
	s.available = v
	s.mu.Unlock()
}

func (s *Slot) SetShown(v bool) {
	s.mu.Lock()
	s.shown = v
	s.mu.Unlock()
}

// Bounds returns the slot rectangle in screen coordinates.
func (s *Slot) Bounds() sdl.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

// OnScreen reports whether any part of the slot intersects its viewport.
func (s *Slot) OnScreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown && s.bounds.HasIntersection(&s.viewport)
}

func (s *Slot) IsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

func (s *Slot) IsShown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown
}

// VisibleRect returns the part of the slot inside the viewport, relative to
// the slot's own origin.
func (s *Slot) VisibleRect() (visibility.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inter, ok := s.bounds.Intersect(&s.viewport)
	if !ok {
		return visibility.Rect{}, false
	}
	return visibility.Rect{
		X: int(inter.X - s.bounds.X),
		Y: int(inter.Y - s.bounds.Y),
		W: int(inter.W),
		H: int(inter.H),
	}, true
}

func (s *Slot) Size() visibility.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return visibility.Size{W: int(s.bounds.W), H: int(s.bounds.H)}
}

// Surface is the slot itself; the clock backend never draws into it.
func (s *Slot) Surface() any { return s }
