package feed

import "github.com/veandco/go-sdl2/sdl"

// Layout places a vertical list of equally tall items inside a viewport.
type Layout struct {
	Viewport   sdl.Rect
	ItemHeight int32
	Gap        int32
	Margin     int32 // horizontal inset on both sides
}

func (l Layout) stride() int32 {
	if s := l.ItemHeight + l.Gap; s > 0 {
		return s
	}
	return 1
}

// PoolSize is how many slots are needed to cover the viewport at any offset.
func (l Layout) PoolSize() int {
	s := l.stride()
	return int((l.Viewport.H+s-1)/s) + 1
}

// MaxOffset is the largest scroll offset for n items.
func (l Layout) MaxOffset(n int) int32 {
	content := int32(n)*l.stride() - l.Gap
	if content <= l.Viewport.H {
		return 0
	}
	return content - l.Viewport.H
}

// Clamp keeps offset within [0, MaxOffset(n)].
func (l Layout) Clamp(offset int32, n int) int32 {
	return max(0, min(offset, l.MaxOffset(n)))
}

// First is the index of the topmost item intersecting the viewport.
func (l Layout) First(offset int32) int {
	if offset <= 0 {
		return 0
	}
	return int(offset / l.stride())
}

// ItemRect is where item i sits on screen at the given offset.
func (l Layout) ItemRect(i int, offset int32) sdl.Rect {
	return sdl.Rect{
		X: l.Viewport.X + l.Margin,
		Y: l.Viewport.Y + int32(i)*l.stride() - offset,
		W: l.Viewport.W - 2*l.Margin,
		H: l.ItemHeight,
	}
}

// SlotIndex returns the item pool slot k draws when first is the top item.
// Slot k always draws an index congruent to k modulo pool.
func SlotIndex(k, first, pool int) int {
	return first + ((k-first)%pool+pool)%pool
}
