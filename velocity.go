package poser

import (
	"math"
	"time"
)

// DefaultSmoothing is the weight a new velocity sample gets in the running estimate.
const DefaultSmoothing = 0.2

// VelocityTracker keeps an exponentially smoothed angular velocity per joint,
// in degrees per second. Feed it every display frame with Observe.
type VelocityTracker struct {
	// Smoothing is the weight of each new sample in (0, 1]. Zero uses DefaultSmoothing.
	Smoothing float64

	last   Pose
	vel    [JointCount]float64
	primed bool
}

// Observe records pose as seen dt after the previous observation.
func (v *VelocityTracker) Observe(pose Pose, dt time.Duration) {
	if !v.primed {
		v.last = pose
		v.primed = true
		return
	}
	if dt <= 0 {
		v.last = pose
		return
	}
	alpha := v.Smoothing
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultSmoothing
	}
	secs := dt.Seconds()
	for j := range pose {
		raw := ShortestAngleDiff(pose[j], v.last[j]) / secs
		v.vel[j] += alpha * (raw - v.vel[j])
	}
	v.last = pose
}

// Velocity returns j's smoothed angular velocity in degrees per second.
func (v *VelocityTracker) Velocity(j Joint) float64 {
	if !j.Valid() {
		return 0
	}
	return v.vel[j]
}

// Speed returns the largest absolute smoothed velocity across all joints.
func (v *VelocityTracker) Speed() float64 {
	m := 0.0
	for _, s := range v.vel {
		m = math.Max(m, math.Abs(s))
	}
	return m
}

// Reset forgets all history. Call it when the pose is replaced wholesale.
func (v *VelocityTracker) Reset() {
	*v = VelocityTracker{Smoothing: v.Smoothing}
}
