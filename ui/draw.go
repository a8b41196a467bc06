package ui

import "github.com/veandco/go-sdl2/sdl"

// FillRect fills r with c.
func FillRect(renderer *sdl.Renderer, r sdl.Rect, c sdl.Color) {
	renderer.SetDrawColor(c.R, c.G, c.B, c.A)
	renderer.FillRect(&r)
}

// Outline draws a border of the given thickness inside r.
func Outline(renderer *sdl.Renderer, r sdl.Rect, thickness int32, c sdl.Color) {
	renderer.SetDrawColor(c.R, c.G, c.B, c.A)
	for i := int32(0); i < thickness && i*2 < r.W && i*2 < r.H; i++ {
		edge := sdl.Rect{X: r.X + i, Y: r.Y + i, W: r.W - 2*i, H: r.H - 2*i}
		renderer.DrawRect(&edge)
	}
}

// ProgressWidth returns how many pixels of width a bar at fraction f fills.
func ProgressWidth(width int32, f float64) int32 {
	if f <= 0 || width <= 0 {
		return 0
	}
	if f >= 1 {
		return width
	}
	return int32(float64(width) * f)
}

// DrawProgressBar draws a track along the bottom of r with the filled part
// proportional to f.
func DrawProgressBar(renderer *sdl.Renderer, r sdl.Rect, f float64, track, fill sdl.Color) {
	FillRect(renderer, r, track)
	if w := ProgressWidth(r.W, f); w > 0 {
		FillRect(renderer, sdl.Rect{X: r.X, Y: r.Y, W: w, H: r.H}, fill)
	}
}
