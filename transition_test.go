package poser

import (
	"math"
	"testing"
	"time"
)

const ms = time.Millisecond

func TestTransitionCommitsExactTarget(t *testing.T) {
	start := RestPose
	target := PartialPose{LShoulder: -45.123456789, RKnee: 33.3}
	calls := 0
	var committed Pose
	tr := NewTransition(start, target, 700*ms, StyleStandard, func(p Pose) {
		calls++
		committed = p
	})

	if _, done := tr.Advance(1000 * ms); done {
		t.Fatal("first advance only anchors the clock")
	}
	got, done := tr.Advance(1699 * ms)
	if done {
		t.Fatal("should not finish before duration")
	}
	if got[LShoulder] == target[LShoulder] {
		t.Error("eased sample should not already equal the target")
	}

	got, done = tr.Advance(1700 * ms)
	if !done {
		t.Fatal("expected done at duration")
	}
	want := start.Apply(target)
	if got != want {
		t.Errorf("committed %v, want %v", got, want)
	}
	if committed != want || calls != 1 {
		t.Errorf("OnComplete calls = %d, pose %v", calls, committed)
	}

	// Finished transitions never restart.
	got, done = tr.Advance(5000 * ms)
	if !done || got != want || calls != 1 {
		t.Errorf("after finish: done=%v calls=%d", done, calls)
	}
}

func TestTransitionStartsAtStart(t *testing.T) {
	tr := NewTransition(RestPose, TPose.Partial(), 500*ms, StyleStandard, nil)
	got, _ := tr.Advance(0)
	if got != RestPose {
		t.Errorf("first sample = %v, want start", got)
	}
}

func TestTransitionUnspecifiedJointsHold(t *testing.T) {
	start := Pose{Waist: 5, Neck: -7}
	tr := NewTransition(start, PartialPose{Waist: 25}, 100*ms, StyleStandard, nil)
	tr.Advance(0)
	got, _ := tr.Advance(50 * ms)
	assertNear(t, "neck", got[Neck], -7)
	if got[Waist] <= 5 || got[Waist] >= 25 {
		t.Errorf("waist = %v, want between 5 and 25", got[Waist])
	}
}

func TestTransitionTakesShortestArc(t *testing.T) {
	tr := NewTransition(Pose{Torso: 350}, PartialPose{Torso: 10}, 100*ms, StyleStandard, nil)
	tr.Easing = EaseLinear
	tr.Advance(0)
	got, _ := tr.Advance(50 * ms)
	if math.Abs(got[Torso]-360) > 1e-3 {
		t.Errorf("torso midway = %v, want ~360", got[Torso])
	}
}

func TestTransitionZeroDurationCompletesImmediately(t *testing.T) {
	called := false
	tr := NewTransition(Pose{}, PartialPose{LKnee: 40}, 0, StyleStandard, func(Pose) { called = true })
	got, done := tr.Advance(10 * ms)
	if !done || !called {
		t.Fatal("zero-duration transition should finish on first advance")
	}
	assertNear(t, "l_knee", got[LKnee], 40)
}

func TestTransitionProgress(t *testing.T) {
	tr := NewTransition(Pose{}, PartialPose{Waist: 10}, 200*ms, StyleStandard, nil)
	assertNear(t, "before anchor", tr.Progress(0), 0)
	tr.Advance(100 * ms)
	assertNear(t, "quarter", tr.Progress(150*ms), 0.25)
	assertNear(t, "clamped", tr.Progress(900*ms), 1)
}

func TestTransitionSteppedQuantizes(t *testing.T) {
	tr := NewTransition(Pose{Waist: 0, Neck: 1.5}, PartialPose{Waist: 37}, 400*ms, StyleStepped, nil)
	tr.Advance(0)
	for now := 10 * ms; now < 400*ms; now += 30 * ms {
		got, done := tr.Advance(now)
		if done {
			t.Fatal("finished early")
		}
		if r := math.Mod(got[Waist], DefaultGrid); r != 0 {
			t.Errorf("waist %v at %v is off the grid", got[Waist], now)
		}
		// Joints that do not move keep their exact value.
		assertNear(t, "neck", got[Neck], 1.5)
	}
}

func TestTransitionSteppedJittersThenCommits(t *testing.T) {
	tr := NewTransition(Pose{}, PartialPose{Waist: 40}, 100*ms, StyleStepped, nil)
	tr.Jitter = 60 * ms
	tr.Advance(0)

	got, done := tr.Advance(120 * ms)
	if done {
		t.Fatal("should still be shaking")
	}
	if math.Abs(got[Waist]-40) > DefaultGrid/2 {
		t.Errorf("shake %v strays more than half a grid step", got[Waist])
	}

	got, done = tr.Advance(160 * ms)
	if !done {
		t.Fatal("expected commit after the jitter window")
	}
	assertNear(t, "waist", got[Waist], 40)
}

func TestTransitionSteppedNoJitter(t *testing.T) {
	tr := NewTransition(Pose{}, PartialPose{Waist: 40}, 100*ms, StyleStepped, nil)
	tr.Jitter = -1
	tr.Advance(0)
	if _, done := tr.Advance(100 * ms); !done {
		t.Error("negative jitter should commit at duration")
	}
}

func TestTransitionFeatheredFollowsVelocity(t *testing.T) {
	var vel VelocityTracker
	vel.Observe(Pose{}, 0)
	vel.Observe(Pose{LElbow: 10}, 16*ms)

	still := NewTransition(Pose{}, PartialPose{Waist: 30}, 200*ms, StyleStandard, nil)
	feathered := NewTransition(Pose{}, PartialPose{Waist: 30}, 200*ms, StyleFeathered, nil)
	feathered.Velocity = &vel
	still.Advance(0)
	feathered.Advance(0)

	a, _ := still.Advance(50 * ms)
	b, _ := feathered.Advance(50 * ms)
	if a[LElbow] != 0 {
		t.Errorf("standard l_elbow = %v, want 0", a[LElbow])
	}
	if b[LElbow] == 0 {
		t.Error("feathered l_elbow should carry noise")
	}
	if math.Abs(b[LElbow]) > featherMax {
		t.Errorf("noise %v exceeds cap", b[LElbow])
	}
	// Joints at rest get no noise.
	assertNear(t, "r_toe", b[RToe], 0)

	final, done := feathered.Advance(200 * ms)
	if !done || final[LElbow] != 0 || final[Waist] != 30 {
		t.Errorf("feathered commit = %v, done=%v", final, done)
	}
}

func TestParseStyle(t *testing.T) {
	for _, s := range []Style{StyleStandard, StyleStepped, StyleFeathered} {
		got, err := ParseStyle(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStyle(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseStyle("wobbly"); err == nil {
		t.Error("expected error for unknown style")
	}
}

// --- Animator ---

func TestAnimatorBeginReplaces(t *testing.T) {
	var a Animator
	first := NewTransition(Pose{}, PartialPose{Waist: 90}, 100*ms, StyleStandard, nil)
	second := NewTransition(Pose{}, PartialPose{Waist: -90}, 100*ms, StyleStandard, nil)
	a.Begin(first)
	a.Tick(0)
	a.Begin(second)
	if a.Current() != second {
		t.Fatal("Begin should replace the active transition")
	}
	a.Tick(0)
	got, ok, done := a.Tick(100 * ms)
	if !ok || !done {
		t.Fatalf("ok=%v done=%v", ok, done)
	}
	assertNear(t, "waist", got[Waist], -90)
	if a.Active() {
		t.Error("animator should be idle after completion")
	}
}

func TestAnimatorIdleTick(t *testing.T) {
	var a Animator
	if _, ok, _ := a.Tick(0); ok {
		t.Error("idle tick should report nothing running")
	}
	if a.Cancel() {
		t.Error("Cancel on idle animator should report false")
	}
}

func TestAnimatorCompletionCanChain(t *testing.T) {
	var a Animator
	follow := NewTransition(Pose{Waist: 10}, PartialPose{Waist: 20}, 100*ms, StyleStandard, nil)
	first := NewTransition(Pose{}, PartialPose{Waist: 10}, 100*ms, StyleStandard, func(Pose) {
		a.Begin(follow)
	})
	a.Begin(first)
	a.Tick(0)
	a.Tick(100 * ms)
	if a.Current() != follow {
		t.Fatal("follow-up transition should be active")
	}
}

// --- VelocityTracker ---

func TestVelocityTrackerSmooths(t *testing.T) {
	v := VelocityTracker{Smoothing: 0.5}
	v.Observe(Pose{}, 0)
	v.Observe(Pose{Waist: 10}, 100*ms) // raw 100 deg/s
	assertNear(t, "first", v.Velocity(Waist), 50)
	v.Observe(Pose{Waist: 20}, 100*ms)
	assertNear(t, "second", v.Velocity(Waist), 75)
	assertNear(t, "speed", v.Speed(), 75)

	v.Reset()
	assertNear(t, "reset", v.Velocity(Waist), 0)
	assertNear(t, "smoothing kept", v.Smoothing, 0.5)
}

func TestVelocityTrackerWrapsShortestArc(t *testing.T) {
	v := VelocityTracker{Smoothing: 1}
	v.Observe(Pose{Neck: 179}, 0)
	v.Observe(Pose{Neck: -179}, time.Second)
	assertNear(t, "neck", v.Velocity(Neck), 2)
}
