package poser

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Lerp linearly interpolates between start and end.
func Lerp(start, end, t float64) float64 {
	return start*(1-t) + end*t
}

// NormalizeAngle maps a into [0, 360).
func NormalizeAngle(a float64) float64 {
	n := math.Mod(math.Mod(a, 360)+360, 360)
	if n >= 360 {
		n -= 360
	}
	return n
}

// ShortestAngleDiff returns current-start wrapped into [-180, 180].
// Works for angles outside [-180, 180] and for multi-turn values.
func ShortestAngleDiff(current, start float64) float64 {
	d := NormalizeAngle(current - start)
	if d > 180 {
		d -= 360
	}
	return d
}

// LerpShortestPath interpolates from a toward b along the shorter arc.
// The result is relative to the unnormalized a, so accumulated turns the
// caller tracks are preserved: LerpShortestPath(350, 10, 1) == 370.
func LerpShortestPath(a, b, t float64) float64 {
	delta := NormalizeAngle(b) - NormalizeAngle(a)
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	return a + delta*t
}

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return mgl64.RadToDeg(rad) }

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return mgl64.DegToRad(deg) }

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
