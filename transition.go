package poser

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/tanema/gween"
)

// Style selects how a transition moves between poses.
type Style uint8

const (
	// StyleStandard eases out exponentially.
	StyleStandard Style = iota
	// StyleStepped quantizes values to an angular grid and shakes briefly on arrival.
	StyleStepped
	// StyleFeathered adds decaying noise proportional to each joint's recent velocity.
	StyleFeathered
)

var styleNames = [...]string{
	StyleStandard:  "standard",
	StyleStepped:   "stepped",
	StyleFeathered: "feathered",
}

func (s Style) String() string {
	if int(s) < len(styleNames) {
		return styleNames[s]
	}
	return fmt.Sprintf("style(%d)", uint8(s))
}

// ParseStyle returns the style with the given name. The empty string is standard.
func ParseStyle(name string) (Style, error) {
	if name == "" {
		return StyleStandard, nil
	}
	for i, n := range styleNames {
		if n == name {
			return Style(i), nil
		}
	}
	return StyleStandard, fmt.Errorf("unknown transition style %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(b []byte) error {
	v, err := ParseStyle(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Stepped and feathered tuning.
const (
	DefaultGrid   = 5.0
	DefaultJitter = 120 * time.Millisecond

	// featherGain converts deg/s of smoothed velocity into degrees of noise.
	featherGain = 0.02
	// featherMax caps the noise amplitude in degrees.
	featherMax = 6.0
)

// Transition interpolates from a start pose toward a target over a fixed
// duration. The first Advance anchors the clock. Once finished it keeps
// returning the exact target and never restarts.
type Transition struct {
	Style    Style
	Easing   Easing
	Duration time.Duration
	// Grid is the stepped quantum in degrees. Zero uses DefaultGrid.
	Grid float64
	// Jitter is the stepped post-arrival shake. Zero uses DefaultJitter;
	// a negative value disables it.
	Jitter time.Duration
	// Velocity feeds the feathered style. Nil disables feathering.
	Velocity *VelocityTracker
	// OnComplete runs once with the committed target.
	OnComplete func(Pose)

	start Pose
	end   Pose
	moved [JointCount]bool

	tween    *gween.Tween
	rng      *rand.Rand
	anchor   time.Duration
	anchored bool
	done     bool
}

// NewTransition prepares a transition from start toward target. Joints absent
// from target hold their start value.
func NewTransition(start Pose, target PartialPose, duration time.Duration, style Style, onComplete func(Pose)) *Transition {
	t := &Transition{
		Style:      style,
		Easing:     EaseOutExpo,
		Duration:   max(duration, 0),
		OnComplete: onComplete,
		start:      start,
		end:        start.Apply(target),
		rng:        rand.New(rand.NewPCG(1, 2)),
	}
	for j := range t.end {
		t.moved[j] = t.end[j] != t.start[j]
	}
	return t
}

// Seed reseeds the noise source used by the stepped and feathered styles.
func (t *Transition) Seed(seed uint64) {
	t.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Start returns the pose the transition began from.
func (t *Transition) Start() Pose { return t.start }

// Target returns the full pose the transition commits on completion.
func (t *Transition) Target() Pose { return t.end }

// Done reports whether the target has been committed.
func (t *Transition) Done() bool { return t.done }

// Progress returns the linear progress in [0, 1] at now.
func (t *Transition) Progress(now time.Duration) float64 {
	if t.done {
		return 1
	}
	if !t.anchored {
		return 0
	}
	if t.Duration <= 0 {
		return 1
	}
	return clamp01(float64(now-t.anchor) / float64(t.Duration))
}

// Advance returns the pose at now and whether the transition has finished.
// The finishing call commits the exact target and runs OnComplete.
func (t *Transition) Advance(now time.Duration) (Pose, bool) {
	if t.done {
		return t.end, true
	}
	if !t.anchored {
		t.anchor = now
		t.anchored = true
		if t.Duration > 0 {
			t.tween = gween.New(0, 1, float32(t.Duration.Seconds()), t.Easing.Func())
		}
	}
	elapsed := now - t.anchor

	if elapsed >= t.Duration {
		if t.Style == StyleStepped {
			if jitter := t.jitter(); elapsed < t.Duration+jitter {
				return t.shake(elapsed-t.Duration, jitter), false
			}
		}
		return t.commit(), true
	}

	v, _ := t.tween.Set(float32(elapsed.Seconds()))
	eased := float64(v)
	progress := float64(elapsed) / float64(t.Duration)

	var out Pose
	for j := range out {
		out[j] = LerpShortestPath(t.start[j], t.end[j], eased)
	}
	switch t.Style {
	case StyleStepped:
		grid := t.grid()
		for j := range out {
			if t.moved[j] {
				out[j] = math.Round(out[j]/grid) * grid
			}
		}
	case StyleFeathered:
		if t.Velocity != nil {
			decay := 1 - progress
			for j := range out {
				amp := math.Min(math.Abs(t.Velocity.Velocity(Joint(j)))*featherGain, featherMax)
				out[j] += amp * decay * (t.rng.Float64()*2 - 1)
			}
		}
	}
	return out, false
}

func (t *Transition) commit() Pose {
	t.done = true
	if t.OnComplete != nil {
		t.OnComplete(t.end)
	}
	return t.end
}

// shake offsets moved joints around the target by up to half a grid step,
// fading out over the jitter window.
func (t *Transition) shake(into, window time.Duration) Pose {
	out := t.end
	fade := 1 - float64(into)/float64(window)
	amp := t.grid() / 2 * fade
	for j := range out {
		if t.moved[j] {
			out[j] += amp * (t.rng.Float64()*2 - 1)
		}
	}
	return out
}

func (t *Transition) grid() float64 {
	if t.Grid > 0 {
		return t.Grid
	}
	return DefaultGrid
}

func (t *Transition) jitter() time.Duration {
	switch {
	case t.Jitter < 0:
		return 0
	case t.Jitter == 0:
		return DefaultJitter
	}
	return t.Jitter
}

// Animator owns at most one in-flight transition.
type Animator struct {
	active *Transition
}

// Begin starts t, cancelling and replacing any transition in flight.
func (a *Animator) Begin(t *Transition) { a.active = t }

// Cancel drops the in-flight transition without committing it. It reports
// whether one was running.
func (a *Animator) Cancel() bool {
	had := a.active != nil
	a.active = nil
	return had
}

// Active reports whether a transition is in flight.
func (a *Animator) Active() bool { return a.active != nil }

// Current returns the in-flight transition, or nil.
func (a *Animator) Current() *Transition { return a.active }

// Tick advances the in-flight transition. ok is false when nothing is
// running. A completion callback may Begin a follow-up transition.
func (a *Animator) Tick(now time.Duration) (pose Pose, ok, done bool) {
	t := a.active
	if t == nil {
		return Pose{}, false, false
	}
	pose, done = t.Advance(now)
	if done && a.active == t {
		a.active = nil
	}
	return pose, true, done
}
