package input

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

// Edges reports rising edges of level-triggered inputs so a held key or
// button counts once.
type Edges[K comparable] struct {
	down map[K]bool
}

func NewEdges[K comparable]() *Edges[K] {
	return &Edges[K]{down: make(map[K]bool)}
}

// Pressed returns true if k is down now and was up on the previous call.
func (e *Edges[K]) Pressed(k K, down bool) bool {
	was := e.down[k]
	e.down[k] = down
	return down && !was
}

// KeyPressTracker detects fresh presses in sdl.GetKeyboardState output.
type KeyPressTracker struct {
	edges *Edges[sdl.Scancode]
}

func NewKeyPressTracker() KeyPressTracker {
	return KeyPressTracker{edges: NewEdges[sdl.Scancode]()}
}

func (t KeyPressTracker) IsPressed(keyState []uint8, sc sdl.Scancode) bool {
	down := int(sc) < len(keyState) && keyState[sc] != 0
	return t.edges.Pressed(sc, down)
}

// GestureKind classifies what the pointer did.
type GestureKind int

const (
	None GestureKind = iota
	// Tap is a short press released close to where it started.
	Tap
	// Drag is pointer movement while held; DY is the delta since the last update.
	Drag
)

type Gesture struct {
	Kind GestureKind
	X, Y int32
	DY   int32
}

// Pointer turns mouse or touch state into taps and drags.
type Pointer struct {
	// Slop is how far the pointer may travel and still count as a tap.
	Slop int32
	// MaxTap bounds how long a tap may be held.
	MaxTap time.Duration

	down     bool
	dragging bool
	startX   int32
	startY   int32
	lastY    int32
	since    time.Time
}

func NewPointer() *Pointer {
	return &Pointer{Slop: 8, MaxTap: 400 * time.Millisecond}
}

// Update feeds one sample of pointer position and button state.
func (p *Pointer) Update(x, y int32, down bool, now time.Time) Gesture {
	switch {
	case down && !p.down:
		p.down, p.dragging = true, false
		p.startX, p.startY, p.lastY = x, y, y
		p.since = now
		return Gesture{}
	case down:
		if !p.dragging && (abs(x-p.startX) > p.Slop || abs(y-p.startY) > p.Slop) {
			p.dragging = true
		}
		if !p.dragging {
			return Gesture{}
		}
		dy := y - p.lastY
		p.lastY = y
		if dy == 0 {
			return Gesture{}
		}
		return Gesture{Kind: Drag, X: x, Y: y, DY: dy}
	case p.down:
		p.down = false
		if p.dragging || now.Sub(p.since) > p.MaxTap {
			return Gesture{}
		}
		return Gesture{Kind: Tap, X: p.startX, Y: p.startY}
	}
	return Gesture{}
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
