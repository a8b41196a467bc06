// Package visibility computes how much of a render slot is on screen.
package visibility

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	X, Y, W, H int
}

// Size is the full, unclipped size of a slot.
type Size struct {
	W, H int
}

// Sample is what a slot reports about itself on a scroll tick.
type Sample struct {
	Visible    Rect // clipped visible rectangle in slot-local coordinates
	HasVisible bool // false when the slot reports no visible rectangle at all
	Shown      bool // false when the slot, or any ancestor, is hidden
	Full       Size
}

// Estimate returns the visible fraction of the slot in [0,1].
func Estimate(s Sample) float64 {
	if !s.HasVisible || !s.Shown {
		return 0
	}
	return Ratio(s.Visible, s.Full)
}

// Ratio is visible area over full area, clamped to [0,1]. A zero-area slot
// yields 0.
func Ratio(visible Rect, full Size) float64 {
	fullArea := area(full.W, full.H)
	if fullArea == 0 {
		return 0
	}
	r := float64(area(visible.W, visible.H)) / float64(fullArea)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// Percent truncates a ratio to an integer percentage, for logging.
func Percent(ratio float64) int {
	return int(ratio * 100)
}

// Clip intersects slot with viewport (both in container coordinates) and
// returns the visible part in slot-local coordinates. ok is false when they
// do not overlap.
func Clip(slot, viewport Rect) (Rect, bool) {
	x0 := max(slot.X, viewport.X)
	y0 := max(slot.Y, viewport.Y)
	x1 := min(slot.X+slot.W, viewport.X+viewport.W)
	y1 := min(slot.Y+slot.H, viewport.Y+viewport.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}, false
	}
	return Rect{X: x0 - slot.X, Y: y0 - slot.Y, W: x1 - x0, H: y1 - y0}, true
}

func area(w, h int) int64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	return int64(w) * int64(h)
}
