package ui

import "github.com/veandco/go-sdl2/sdl"

// DrawGradientRect fills r with a vertical blend from top to bottom.
func DrawGradientRect(renderer *sdl.Renderer, r sdl.Rect, top, bottom sdl.Color) {
	if r.H <= 0 || r.W <= 0 {
		return
	}
	for i := int32(0); i < r.H; i++ {
		c := Lerp(top, bottom, float64(i)/float64(max(r.H-1, 1)))
		renderer.SetDrawColor(c.R, c.G, c.B, c.A)
		renderer.DrawLine(r.X, r.Y+i, r.X+r.W-1, r.Y+i)
	}
}

// Lerp blends a towards b by t in [0,1].
func Lerp(a, b sdl.Color, t float64) sdl.Color {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	mix := func(x, y uint8) uint8 { return uint8(float64(x)*(1-t) + float64(y)*t) }
	return sdl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// Darken scales the colour channels by f, keeping alpha.
func Darken(c sdl.Color, f float64) sdl.Color {
	return Lerp(sdl.Color{A: c.A}, c, f)
}
