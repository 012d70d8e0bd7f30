package poser

import (
	"errors"
	"fmt"
	"time"
)

// Studio defaults.
const (
	DefaultFriction         = 50.0
	DefaultTransitionLength = 700 * time.Millisecond
	CalibrationLength       = 500 * time.Millisecond
	DefaultKeyframeSpacing  = time.Second
)

// ErrNoKeyframes is returned when playback needs at least two keyframes.
var ErrNoKeyframes = errors.New("timeline needs at least two keyframes")

// Options configures a Studio. Zero values select defaults.
type Options struct {
	BaseUnit    float64
	Proportions *Proportions
	Base        Pose
	// Initial is the starting pose. Nil starts in RestPose.
	Initial   *Pose
	Behaviors Behaviors
	Limits    *Limits

	// Friction in [0, 100] damps drags and lengthens the ghost snap-back.
	// Nil uses DefaultFriction.
	Friction    *float64
	Ghosting    bool
	AutoCapture bool

	Style              Style
	TransitionDuration time.Duration
	Grid               float64
	Jitter             time.Duration
	Seed               uint64
}

// Frame is the Studio's published state for one display tick.
type Frame struct {
	Pose          Pose              `json:"pose"`
	Table         Table             `json:"table"`
	Preview       *Pose             `json:"preview,omitempty"`
	PreviewTable  *Table            `json:"preview_table,omitempty"`
	Stretch       map[Joint]float64 `json:"stretch,omitempty"`
	Pins          map[Joint]Vec2    `json:"pins,omitempty"`
	Calibrated    bool              `json:"calibrated"`
	Dragging      bool              `json:"dragging"`
	Transitioning bool              `json:"transitioning"`
	Playing       bool              `json:"playing"`
}

type dragState struct {
	joint Joint
	lastX float64
	start Pose
}

// Studio is one posing session. It owns the pose and everything that edits
// it. Not safe for concurrent use; drive it from a single goroutine.
type Studio struct {
	pose      Pose
	base      Pose
	props     Proportions
	baseUnit  float64
	behaviors Behaviors
	limits    Limits

	friction    float64
	ghosting    bool
	autoCapture bool
	style       Style
	duration    time.Duration
	grid        float64
	jitter      time.Duration
	seed        uint64

	calibrated bool
	calib      *Transition
	drag       *dragState
	preview    *Pose
	pins       map[Joint]Vec2
	stretch    map[Joint]float64

	anim      Animator
	vel       VelocityTracker
	player    *Player
	keyframes []Keyframe

	table   Table
	lastNow time.Duration
	ticked  bool
	debug   bool
}

// NewStudio returns a session configured by opts.
func NewStudio(opts Options) *Studio {
	s := &Studio{
		base:        opts.Base,
		baseUnit:    opts.BaseUnit,
		behaviors:   opts.Behaviors.Clone(),
		friction:    DefaultFriction,
		ghosting:    opts.Ghosting,
		autoCapture: opts.AutoCapture,
		style:       opts.Style,
		duration:    opts.TransitionDuration,
		grid:        opts.Grid,
		jitter:      opts.Jitter,
		seed:        opts.Seed,
		pose:        RestPose,
		props:       DefaultProportions(),
		limits:      DefaultLimits(),
		pins:        make(map[Joint]Vec2),
		stretch:     make(map[Joint]float64),
	}
	if s.baseUnit <= 0 {
		s.baseUnit = DefaultBaseUnit
	}
	if s.duration <= 0 {
		s.duration = DefaultTransitionLength
	}
	if opts.Proportions != nil {
		s.props = *opts.Proportions
	}
	if opts.Initial != nil {
		s.pose = *opts.Initial
	}
	if opts.Limits != nil {
		s.limits = *opts.Limits
	}
	if opts.Friction != nil {
		s.friction = clampFriction(*opts.Friction)
	}
	s.evaluate()
	return s
}

func clampFriction(f float64) float64 {
	return max(0, min(100, f))
}

// SetDebugMode enables or disables debug mode. When enabled, per-frame timing
// and solver stats are logged to stderr along with stretch and winding warnings.
func (s *Studio) SetDebugMode(enabled bool) { s.debug = enabled }

// --- Accessors ---

// Pose returns the committed pose.
func (s *Studio) Pose() Pose { return s.pose }

// Table returns the Global Position Table for the committed pose.
func (s *Studio) Table() Table { return s.table }

// Calibrated reports whether the rig has finished calibrating.
func (s *Studio) Calibrated() bool { return s.calibrated }

// Dragging reports whether a drag is in progress.
func (s *Studio) Dragging() bool { return s.drag != nil }

// Transitioning reports whether a transition is in flight.
func (s *Studio) Transitioning() bool { return s.anim.Active() }

// Behaviors returns a copy of the chain behaviors.
func (s *Studio) Behaviors() Behaviors { return s.behaviors.Clone() }

// BaseUnit returns the base unit length.
func (s *Studio) BaseUnit() float64 { return s.baseUnit }

// Proportions returns the per-part scales.
func (s *Studio) Proportions() Proportions { return s.props }

// Base returns the fixed base offsets.
func (s *Studio) Base() Pose { return s.base }

// Limits returns the joint limits used by SetJoint.
func (s *Studio) Limits() Limits { return s.limits }

// Friction returns the drag damping in [0, 100].
func (s *Studio) Friction() float64 { return s.friction }

// Ghosting reports whether drags edit a preview.
func (s *Studio) Ghosting() bool { return s.ghosting }

// AutoCapture reports whether finished drags are captured as keyframes.
func (s *Studio) AutoCapture() bool { return s.autoCapture }

// Velocity returns the smoothed angular velocity tracker.
func (s *Studio) Velocity() *VelocityTracker { return &s.vel }

// --- Rig configuration ---

// SetBehaviors replaces the chain behaviors.
func (s *Studio) SetBehaviors(b Behaviors) { s.behaviors = b.Clone() }

// SetProportions replaces the per-part scales.
func (s *Studio) SetProportions(p Proportions) {
	s.props = p
	s.evaluate()
}

// SetBase replaces the fixed base offsets.
func (s *Studio) SetBase(p Pose) {
	s.base = p
	s.evaluate()
}

// SetLimits replaces the joint limits. The current pose is left as is;
// limits apply to later edits.
func (s *Studio) SetLimits(l Limits) { s.limits = l }

// SetBaseUnit changes the base unit length. Non-positive or non-finite
// values are ignored.
func (s *Studio) SetBaseUnit(u float64) {
	if u <= 0 || !isFinite(u) {
		return
	}
	s.baseUnit = u
	s.evaluate()
}

// SetFriction sets drag friction, clamped to [0, 100].
func (s *Studio) SetFriction(f float64) { s.friction = clampFriction(f) }

// SetGhosting toggles preview editing during drags.
func (s *Studio) SetGhosting(on bool) { s.ghosting = on }

// SetAutoCapture toggles keyframe capture at the end of each drag.
func (s *Studio) SetAutoCapture(on bool) { s.autoCapture = on }

// --- Calibration ---

// Calibrate eases the rig into the T-pose. Edits that need calibration are
// accepted once the transition completes. A command transition or playback
// in flight is replaced.
func (s *Studio) Calibrate() {
	if s.calibrated || s.calibrating() {
		return
	}
	s.player = nil
	t := NewTransition(s.pose, TPose.Partial(), CalibrationLength, StyleStandard, s.finishCalibration)
	t.Seed(s.seed)
	s.calib = t
	s.anim.Begin(t)
}

// calibrating reports whether the transition in flight completes calibration.
func (s *Studio) calibrating() bool {
	return s.calib != nil && s.anim.Current() == s.calib
}

func (s *Studio) finishCalibration(Pose) {
	s.calibrated = true
	s.calib = nil
}

// --- Direct edits ---

// BeginDrag starts dragging j from pointer position x. Any transition in
// flight is cancelled, leaving the pose where it was.
func (s *Studio) BeginDrag(j Joint, x float64) error {
	if !s.calibrated {
		return ErrNotCalibrated
	}
	if !j.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownJoint, j)
	}
	if !isFinite(x) {
		return fmt.Errorf("begin drag: %w", ErrNonFinite)
	}
	s.anim.Cancel()
	s.player = nil
	s.drag = &dragState{joint: j, lastX: x, start: s.pose}
	if s.ghosting {
		p := s.pose
		s.preview = &p
	}
	return nil
}

// DragTo moves the active drag to pointer position x. The horizontal delta
// is damped by friction and spread through the chain.
func (s *Studio) DragTo(x float64) error {
	if s.drag == nil {
		return ErrNoDrag
	}
	if !isFinite(x) {
		return fmt.Errorf("drag: %w", ErrNonFinite)
	}
	delta := (x - s.drag.lastX) * (1 - s.friction/125)
	s.drag.lastX = x
	if s.preview != nil {
		*s.preview = Propagate(s.drag.joint, delta, *s.preview, s.behaviors)
		return nil
	}
	s.pose = Propagate(s.drag.joint, delta, s.pose, s.behaviors)
	s.evaluate()
	return nil
}

// EndDrag finishes the active drag. With ghosting on, the pose eases into
// the preview, taking longer the higher the friction. With auto-capture on,
// a changed pose is added to the keyframes.
func (s *Studio) EndDrag() error {
	if s.drag == nil {
		return ErrNoDrag
	}
	final := s.pose
	if s.preview != nil {
		final = *s.preview
	}
	if s.autoCapture && final != s.drag.start {
		s.AddKeyframe(final)
	}
	if s.preview != nil {
		d := 50*time.Millisecond + time.Duration(s.friction/100*700)*time.Millisecond
		s.begin(final.Partial(), d, StyleStandard)
	}
	s.drag = nil
	s.preview = nil
	return nil
}

// SetJoint sets j to v, clamped to its limit, and spreads the change through
// the chain.
func (s *Studio) SetJoint(j Joint, v float64) error {
	if !j.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownJoint, j)
	}
	if !isFinite(v) {
		return fmt.Errorf("set %s: %w", j, ErrNonFinite)
	}
	s.anim.Cancel()
	s.player = nil
	v = s.limits.Clamp(j, v)
	s.pose = Propagate(j, v-s.pose[j], s.pose, s.behaviors)
	s.evaluate()
	return nil
}

// ReplacePose swaps in p wholesale, dropping any drag, transition or
// playback and resetting velocity history.
func (s *Studio) ReplacePose(p Pose) {
	s.anim.Cancel()
	s.player = nil
	s.drag = nil
	s.preview = nil
	s.pose = p
	s.vel.Reset()
	s.evaluate()
}

// --- Pins ---

// Pin places the limb ending at j under IK control toward target.
func (s *Studio) Pin(j Joint, target Vec2) error {
	if _, err := LimbFor(j); err != nil {
		return err
	}
	if !target.IsFinite() {
		return fmt.Errorf("pin %s: %w", j, ErrNonFinite)
	}
	s.pins[j] = target
	return nil
}

// Unpin releases j and discards its target. It reports whether j was pinned.
func (s *Studio) Unpin(j Joint) bool {
	_, ok := s.pins[j]
	delete(s.pins, j)
	delete(s.stretch, j)
	return ok
}

// Pins returns a copy of the active pins.
func (s *Studio) Pins() map[Joint]Vec2 {
	out := make(map[Joint]Vec2, len(s.pins))
	for j, v := range s.pins {
		out[j] = v
	}
	return out
}

// --- Transitions ---

// Play eases the pose toward target over d using the configured style.
// A non-positive d uses the configured transition length.
func (s *Studio) Play(target PartialPose, d time.Duration) {
	if d <= 0 {
		d = s.duration
	}
	s.begin(target, d, s.style)
}

// ApplyCommand plays the preset pose named by name.
func (s *Studio) ApplyCommand(name string) error {
	p, err := ParseCommand(name)
	if err != nil {
		return err
	}
	s.Play(p.Partial(), 0)
	return nil
}

// begin replaces the transition in flight. A transition that replaces
// calibration completes it in its place.
func (s *Studio) begin(target PartialPose, d time.Duration, style Style) {
	s.player = nil
	var done func(Pose)
	if s.calibrating() {
		done = s.finishCalibration
	}
	t := NewTransition(s.pose, target, d, style, done)
	t.Grid = s.grid
	t.Jitter = s.jitter
	t.Velocity = &s.vel
	t.Seed(s.seed)
	if done != nil {
		s.calib = t
	}
	s.anim.Begin(t)
}

// --- Keyframes and playback ---

// AddKeyframe captures pose onto the timeline.
func (s *Studio) AddKeyframe(pose Pose) Keyframe {
	kf := NewKeyframe(fmt.Sprintf("Pose %d", len(s.keyframes)+1), pose, DefaultKeyframeSpacing)
	s.keyframes = append(s.keyframes, kf)
	return kf
}

// RemoveKeyframe deletes the keyframe with the given ID.
func (s *Studio) RemoveKeyframe(id string) bool {
	for i, kf := range s.keyframes {
		if kf.ID == id {
			s.keyframes = append(s.keyframes[:i], s.keyframes[i+1:]...)
			return true
		}
	}
	return false
}

// Keyframes returns a copy of the captured keyframes.
func (s *Studio) Keyframes() []Keyframe {
	return append([]Keyframe(nil), s.keyframes...)
}

// SetKeyframes replaces the captured keyframes and stops playback.
func (s *Studio) SetKeyframes(kfs []Keyframe) {
	s.keyframes = append([]Keyframe(nil), kfs...)
	s.player = nil
}

// Timeline returns the keyframes as back-to-back clips.
func (s *Studio) Timeline() Timeline {
	return TimelineFromKeyframes(s.keyframes, EaseInOut)
}

// PlayTimeline starts playing the keyframes from the first one.
func (s *Studio) PlayTimeline(loop bool) error {
	tl := s.Timeline()
	if len(tl) == 0 {
		return ErrNoKeyframes
	}
	s.anim.Cancel()
	s.drag = nil
	s.preview = nil
	s.player = NewPlayer(tl, loop)
	return nil
}

// PlayingClip returns the index of the clip being played. ok is false when
// nothing is playing.
func (s *Studio) PlayingClip() (clip int, ok bool) {
	if s.player == nil {
		return 0, false
	}
	return s.player.Clip(), true
}

// StopTimeline halts playback, keeping the current pose.
func (s *Studio) StopTimeline() { s.player = nil }

// --- Frame loop ---

// Update advances the session to now and returns the frame to display.
// Transitions and playback run first, then forward kinematics, then IK for
// every pin against that table, then a final evaluation of the solved pose.
func (s *Studio) Update(now time.Duration) Frame {
	var dt time.Duration
	if s.ticked {
		dt = now - s.lastNow
	}
	s.lastNow = now
	s.ticked = true

	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	if s.player != nil {
		p, done := s.player.Update(dt)
		s.pose = p
		if done {
			s.player = nil
		}
	} else if p, ok, _ := s.anim.Tick(now); ok {
		s.pose = p
	}

	if s.debug {
		stats.animateTime = time.Since(t0)
		t0 = time.Now()
	}

	s.evaluate()

	if s.debug {
		stats.fkTime = time.Since(t0)
		t0 = time.Now()
	}

	if len(s.pins) > 0 {
		s.solvePins(&stats)
		s.evaluate()
	}

	if s.debug {
		stats.ikTime = time.Since(t0)
		debugCheckPose(&s.pose)
		s.debugLog(stats)
	}

	shown := s.pose
	if s.preview != nil {
		shown = *s.preview
	}
	s.vel.Observe(shown, dt)

	return s.frame()
}

// solvePins runs IK for each pinned limb against the current table. A
// limb's root placement does not depend on its own angles, so one pass
// lands every reachable pin.
func (s *Studio) solvePins(stats *debugStats) {
	for _, j := range PinnableJoints() {
		target, ok := s.pins[j]
		if !ok {
			continue
		}
		limb, _ := LimbFor(j)
		sol := SolveLimb(limb, target, &s.table, s.base)
		s.pose[limb.Root] = sol.Angle1
		s.pose[limb.Mid] = sol.Angle2
		s.stretch[j] = sol.Stretch
		if s.debug {
			stats.pinCount++
			stats.maxStretch = max(stats.maxStretch, sol.Stretch)
			debugCheckStretch(j, sol.Stretch)
		}
	}
}

func (s *Studio) evaluate() {
	s.table = EvaluateBase(s.pose, s.base, s.props, s.baseUnit)
}

func (s *Studio) frame() Frame {
	f := Frame{
		Pose:          s.pose,
		Table:         s.table,
		Calibrated:    s.calibrated,
		Dragging:      s.drag != nil,
		Transitioning: s.anim.Active(),
		Playing:       s.player != nil,
	}
	if s.preview != nil {
		p := *s.preview
		t := EvaluateBase(p, s.base, s.props, s.baseUnit)
		f.Preview = &p
		f.PreviewTable = &t
	}
	if len(s.pins) > 0 {
		f.Pins = s.Pins()
		f.Stretch = make(map[Joint]float64, len(s.stretch))
		for j, v := range s.stretch {
			f.Stretch[j] = v
		}
	}
	return f
}
