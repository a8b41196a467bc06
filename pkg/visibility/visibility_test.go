package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	full := Size{W: 100, H: 200}
	tests := []struct {
		name string
		in   Sample
		want float64
	}{
		{"fully visible", Sample{Visible: Rect{W: 100, H: 200}, HasVisible: true, Shown: true, Full: full}, 1},
		{"half visible", Sample{Visible: Rect{Y: 100, W: 100, H: 100}, HasVisible: true, Shown: true, Full: full}, 0.5},
		{"no visible rect", Sample{Visible: Rect{W: 100, H: 200}, HasVisible: false, Shown: true, Full: full}, 0},
		{"not shown", Sample{Visible: Rect{W: 100, H: 200}, HasVisible: true, Shown: false, Full: full}, 0},
		{"zero area", Sample{Visible: Rect{W: 10, H: 10}, HasVisible: true, Shown: true, Full: Size{W: 0, H: 50}}, 0},
		{"visible larger than full", Sample{Visible: Rect{W: 300, H: 300}, HasVisible: true, Shown: true, Full: full}, 1},
		{"negative extent", Sample{Visible: Rect{W: -10, H: 50}, HasVisible: true, Shown: true, Full: full}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Estimate(tt.in), 1e-9)
		})
	}
}

func TestEstimateAlwaysInUnitRange(t *testing.T) {
	for w := -3; w <= 12; w += 3 {
		for h := -3; h <= 12; h += 3 {
			for fw := 0; fw <= 9; fw += 3 {
				for fh := 0; fh <= 9; fh += 3 {
					r := Estimate(Sample{
						Visible:    Rect{W: w, H: h},
						HasVisible: true,
						Shown:      true,
						Full:       Size{W: fw, H: fh},
					})
					assert.GreaterOrEqual(t, r, 0.0)
					assert.LessOrEqual(t, r, 1.0)
				}
			}
		}
	}
}

func TestClip(t *testing.T) {
	viewport := Rect{X: 0, Y: 0, W: 800, H: 600}

	got, ok := Clip(Rect{X: 0, Y: 400, W: 800, H: 400}, viewport)
	assert.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 800, H: 200}, got)

	got, ok = Clip(Rect{X: 0, Y: -100, W: 800, H: 400}, viewport)
	assert.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 100, W: 800, H: 300}, got)

	_, ok = Clip(Rect{X: 0, Y: 600, W: 800, H: 400}, viewport)
	assert.False(t, ok)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 49, Percent(0.499))
	assert.Equal(t, 100, Percent(1))
	assert.Equal(t, 0, Percent(0))
}
