package poser

import (
	"errors"
	"math"
	"testing"
)

const ikEpsilon = 1e-6

func TestSolveTwoBoneIKUnreachableStretches(t *testing.T) {
	sol := SolveTwoBoneIK(Vec2{250, 0}, Vec2{0, 0}, 100, 100, 0, true)
	assertNear(t, "stretch", sol.Stretch, 1.25)
	assertNear(t, "angle2", sol.Angle2, 0)
	// Fully extended along +X: a local rotation of -90 turns +Y onto +X.
	assertNear(t, "angle1", sol.Angle1, -90)
}

func TestSolveTwoBoneIKExactReach(t *testing.T) {
	sol := SolveTwoBoneIK(Vec2{0, 200}, Vec2{0, 0}, 100, 100, 0, false)
	assertNear(t, "stretch", sol.Stretch, 1)
	assertNear(t, "angle2", sol.Angle2, 0)
	assertNear(t, "angle1", sol.Angle1, 0)
}

func TestSolveTwoBoneIKBendDirectionMirrors(t *testing.T) {
	target := Vec2{100, 100}
	left := SolveTwoBoneIK(target, Vec2{}, 100, 100, 0, true)
	right := SolveTwoBoneIK(target, Vec2{}, 100, 100, 0, false)
	assertNear(t, "left angle2", left.Angle2, 90)
	assertNear(t, "right angle2", right.Angle2, -90)
	assertNear(t, "left stretch", left.Stretch, 1)
}

func TestSolveTwoBoneIKSubtractsParentAngle(t *testing.T) {
	a := SolveTwoBoneIK(Vec2{120, 40}, Vec2{}, 100, 80, 0, true)
	b := SolveTwoBoneIK(Vec2{120, 40}, Vec2{}, 100, 80, 30, true)
	assertNear(t, "angle1 delta", a.Angle1-b.Angle1, 30)
	assertNear(t, "angle2", a.Angle2, b.Angle2)
}

func TestSolveTwoBoneIKDegenerateStaysFinite(t *testing.T) {
	sol := SolveTwoBoneIK(Vec2{5, 5}, Vec2{5, 5}, 100, 100, 0, true)
	if math.IsNaN(sol.Angle1) || math.IsNaN(sol.Angle2) {
		t.Errorf("degenerate solve produced NaN: %+v", sol)
	}
	assertNear(t, "folded angle2", sol.Angle2, 180)
}

func TestLimbFor(t *testing.T) {
	for _, j := range PinnableJoints() {
		l, err := LimbFor(j)
		if err != nil {
			t.Fatalf("LimbFor(%s): %v", j, err)
		}
		if l.Effector != j {
			t.Errorf("effector = %s, want %s", l.Effector, j)
		}
		if p, _ := Parent(l.Mid); p != l.Root {
			t.Errorf("%s: mid %s does not hang from root %s", j, l.Mid, l.Root)
		}
		if l.Left != IsLeft(j) {
			t.Errorf("%s: Left = %v", j, l.Left)
		}
	}
	if _, err := LimbFor(LElbow); !errors.Is(err, ErrNotPinnable) {
		t.Errorf("err = %v, want ErrNotPinnable", err)
	}
}

func TestSolveLimbRoundTripsThroughFK(t *testing.T) {
	base := Pose{LShoulder: -75, RShoulder: 75}
	pose := Pose{Torso: 20, Collar: -5, Waist: 10}
	props := DefaultProportions()

	for _, j := range PinnableJoints() {
		limb, _ := LimbFor(j)
		tab := EvaluateBase(pose, base, props, 150)
		root := tab[limb.Upper].Position
		target := root.Add(Vec2{60, 140})

		sol := SolveLimb(limb, target, &tab, base)
		assertNear(t, j.String()+" stretch", sol.Stretch, 1)

		solved := pose
		solved[limb.Root] = sol.Angle1
		solved[limb.Mid] = sol.Angle2
		after := EvaluateBase(solved, base, props, 150)
		tip := limb.Tip(&after)
		if tip.Dist(target) > ikEpsilon {
			t.Errorf("%s tip = %+v, want %+v", j, tip, target)
		}
		if after[limb.Upper].Position.Dist(root) > ikEpsilon {
			t.Errorf("%s root moved", j)
		}
	}
}

func TestSolveLimbUnreachablePointsAtTarget(t *testing.T) {
	limb, _ := LimbFor(RFoot)
	tab := evalRest(Pose{})
	root := tab[limb.Upper].Position
	target := root.Add(Vec2{1000, 0})

	sol := SolveLimb(limb, target, &tab, Pose{})
	if sol.Stretch <= 1 {
		t.Fatalf("stretch = %v, want > 1", sol.Stretch)
	}
	solved := Pose{}
	solved[limb.Root] = sol.Angle1
	solved[limb.Mid] = sol.Angle2
	after := evalRest(solved)
	reach := tab[limb.Upper].Length + tab[limb.Lower].Length
	want := root.Add(Vec2{reach, 0})
	// acos near 1 loses precision, so allow a looser tolerance at full reach.
	if tip := limb.Tip(&after); tip.Dist(want) > 1e-4 {
		t.Errorf("tip = %+v, want %+v", tip, want)
	}
}
