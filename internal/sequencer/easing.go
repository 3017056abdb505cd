package sequencer

import "math"

// EaseFunc maps linear progress in [0,1] to eased progress.
type EaseFunc func(p float64) float64

// EaseOutCubic decelerates into the target. Used for point-to-point legs.
func EaseOutCubic(p float64) float64 {
	return 1 - math.Pow(1-p, 3)
}

// EaseInOutQuad accelerates then decelerates. Used for the continuous loop.
func EaseInOutQuad(p float64) float64 {
	if p < 0.5 {
		return 2 * p * p
	}
	return 1 - math.Pow(-2*p+2, 2)/2
}

// Interpolate returns the position at progress p along the leg p0 -> p1.
// The arc offset arc*sin(p*pi) is applied to y only; a negative arc lifts
// the path. p is clamped to [0,1] and p == 1 returns p1 exactly.
func Interpolate(p0, p1 Point, p float64, ease EaseFunc, arc float64) Point {
	switch {
	case p <= 0:
		return p0
	case p >= 1:
		return p1
	}
	e := ease(p)
	return Point{
		X: p0.X + (p1.X-p0.X)*e,
		Y: p0.Y + (p1.Y-p0.Y)*e + arc*math.Sin(p*math.Pi),
	}
}

// facingFor is fixed at the start of a leg.
func facingFor(from, to Point) Facing {
	if to.X < from.X {
		return Left
	}
	return Right
}
