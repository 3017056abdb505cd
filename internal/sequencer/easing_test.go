package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolateBoundaries(t *testing.T) {
	p0 := Point{X: 12.3, Y: 45.6}
	p1 := Point{X: 789.01, Y: 23.45}

	for _, ease := range []EaseFunc{EaseOutCubic, EaseInOutQuad} {
		assert.Equal(t, p0, Interpolate(p0, p1, 0, ease, -50))
		assert.Equal(t, p1, Interpolate(p0, p1, 1, ease, -50))
		assert.Equal(t, p0, Interpolate(p0, p1, -0.5, ease, -50))
		assert.Equal(t, p1, Interpolate(p0, p1, 1.5, ease, -50))
	}
}

func TestArcOnlyTouchesY(t *testing.T) {
	p0 := Point{X: 0, Y: 0}
	p1 := Point{X: 100, Y: 0}

	flat := Interpolate(p0, p1, 0.5, EaseOutCubic, 0)
	lifted := Interpolate(p0, p1, 0.5, EaseOutCubic, -50)
	assert.Equal(t, flat.X, lifted.X)
	assert.InDelta(t, -50, lifted.Y-flat.Y, 1e-9)
}

func TestEasingCurves(t *testing.T) {
	tests := []struct {
		name string
		ease EaseFunc
		p    float64
		want float64
	}{
		{"cubic start", EaseOutCubic, 0, 0},
		{"cubic half", EaseOutCubic, 0.5, 0.875},
		{"cubic end", EaseOutCubic, 1, 1},
		{"quad start", EaseInOutQuad, 0, 0},
		{"quad quarter", EaseInOutQuad, 0.25, 0.125},
		{"quad half", EaseInOutQuad, 0.5, 0.5},
		{"quad three quarters", EaseInOutQuad, 0.75, 0.875},
		{"quad end", EaseInOutQuad, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.ease(tt.p), 1e-12)
		})
	}
}

func TestFacing(t *testing.T) {
	assert.Equal(t, Left, facingFor(Point{X: 10}, Point{X: 5}))
	assert.Equal(t, Right, facingFor(Point{X: 10}, Point{X: 15}))
	assert.Equal(t, Right, facingFor(Point{X: 10}, Point{X: 10}))
}
