package poser

import (
	"encoding/json"
	"math"
	"testing"
)

func evalRest(pose Pose) Table {
	return Evaluate(pose, DefaultProportions(), 150)
}

func TestEvaluateDeterministic(t *testing.T) {
	pose := RestPose
	pose[Waist] = 12
	pose[RKnee] = -40
	a := evalRest(pose)
	b := evalRest(pose)
	if a != b {
		t.Error("repeated evaluation differs")
	}
}

func TestEvaluateSpineAtRest(t *testing.T) {
	tab := evalRest(Pose{})

	w := tab.Get(PartWaist)
	assertVec(t, "waist.Position", w.Position, Vec2{0, 0})
	assertNear(t, "waist.Rotation", w.Rotation, 0)
	assertNear(t, "waist.Length", w.Length, 159)
	assertVec(t, "waist.End", w.End, Vec2{0, -159})

	assertVec(t, "torso.Position", tab[PartTorso].Position, Vec2{0, -159})
	assertVec(t, "torso.End", tab[PartTorso].End, Vec2{0, -318})
	assertVec(t, "collar.Position", tab[PartCollar].Position, Vec2{0, -318})
	assertNear(t, "collar.Length", tab[PartCollar].Length, 79.5)
	assertVec(t, "collar.End", tab[PartCollar].End, Vec2{0, -397.5})
	assertVec(t, "head.Position", tab[PartHead].Position, Vec2{0, -397.5})
	assertVec(t, "head.End", tab[PartHead].End, Vec2{0, -547.5})
}

func TestEvaluateArmAtRest(t *testing.T) {
	tab := evalRest(Pose{})

	// Half the 219-wide collar to each side, dropped 7.5 below the collar end.
	assertVec(t, "l_upper_arm", tab[PartLUpperArm].Position, Vec2{-109.5, -390})
	assertVec(t, "r_upper_arm", tab[PartRUpperArm].Position, Vec2{109.5, -390})
	assertVec(t, "l_lower_arm", tab[PartLLowerArm].Position, Vec2{-109.5, -231})
	assertVec(t, "l_hand", tab[PartLHand].Position, Vec2{-109.5, -61.5})
	assertVec(t, "l_hand.End", tab[PartLHand].End, Vec2{-109.5, -1.5})
}

func TestEvaluateLegAtRest(t *testing.T) {
	tab := evalRest(Pose{})

	assertVec(t, "l_upper_leg", tab[PartLUpperLeg].Position, Vec2{0, 0})
	assertVec(t, "r_upper_leg", tab[PartRUpperLeg].Position, Vec2{0, 0})
	assertVec(t, "l_lower_leg", tab[PartLLowerLeg].Position, Vec2{0, 259.5})
	assertVec(t, "l_foot", tab[PartLFoot].Position, Vec2{0, 499.5})
	assertVec(t, "l_toe", tab[PartLToe].Position, Vec2{0, 559.5})
	assertVec(t, "l_toe.End", tab[PartLToe].End, Vec2{0, 598.5})
}

func TestEvaluateWaistRotationCarriesEverything(t *testing.T) {
	tab := evalRest(Pose{Waist: 90})

	assertNear(t, "waist.Rotation", tab[PartWaist].Rotation, 90)
	assertVec(t, "waist.End", tab[PartWaist].End, Vec2{159, 0})
	assertNear(t, "torso.Rotation", tab[PartTorso].Rotation, 90)
	assertVec(t, "torso.Position", tab[PartTorso].Position, Vec2{159, 0})
	// Hips stay on the waist point but swing with it.
	assertVec(t, "l_upper_leg", tab[PartLUpperLeg].Position, Vec2{0, 0})
	assertVec(t, "l_upper_leg.End", tab[PartLUpperLeg].End, Vec2{-259.5, 0})
	assertNear(t, "r_toe.Rotation", tab[PartRToe].Rotation, 90)
}

func TestEvaluateRotationsAccumulate(t *testing.T) {
	pose := Pose{Torso: 10, Collar: 5, LShoulder: -20, LElbow: 30}
	tab := evalRest(pose)
	assertNear(t, "collar", tab[PartCollar].Rotation, 15)
	assertNear(t, "l_upper_arm", tab[PartLUpperArm].Rotation, -5)
	assertNear(t, "l_lower_arm", tab[PartLLowerArm].Rotation, 25)
	assertNear(t, "l_hand", tab[PartLHand].Rotation, 25)
}

func TestEvaluateBaseAddsOffsets(t *testing.T) {
	base := Pose{LShoulder: -75, RShoulder: 75}
	got := EvaluateBase(Pose{}, base, DefaultProportions(), 150)
	want := evalRest(base)
	if got != want {
		t.Error("base offsets should match the same pivot offsets")
	}
}

func TestEvaluateProportionsScaleLength(t *testing.T) {
	props := DefaultProportions()
	props[PartTorso] = Scale{W: 1, H: 2}
	tab := Evaluate(Pose{}, props, 150)
	assertNear(t, "torso.Length", tab[PartTorso].Length, 318)
	assertVec(t, "collar.Position", tab[PartCollar].Position, Vec2{0, -477})
}

func TestEvaluateZeroScaleReadsAsOne(t *testing.T) {
	a := Evaluate(Pose{}, Proportions{}, 150)
	b := evalRest(Pose{})
	if a != b {
		t.Error("zero proportions should evaluate like unit proportions")
	}
}

func TestEvaluateArmChainComposed(t *testing.T) {
	pose := Pose{LShoulder: -45, LElbow: 15}
	tab := evalRest(pose)

	s := math.Sqrt2 / 2
	elbow := Vec2{-109.5 + 159*s, -390 + 159*s}
	assertVec(t, "elbow", tab[PartLLowerArm].Position, elbow)
	wrist := elbow.Add(Vec2{169.5 * 0.5, 169.5 * math.Sqrt(3) / 2})
	assertVec(t, "wrist", tab[PartLHand].Position, wrist)
}

func TestTableWorldToLocal(t *testing.T) {
	tab := evalRest(Pose{LShoulder: -45, LElbow: 15})
	wrist := tab[PartLHand].Position
	assertVec(t, "wrist in lower arm", tab.WorldToLocal(PartLLowerArm, wrist), Vec2{0, 169.5})
	assertVec(t, "round trip", tab.LocalToWorld(PartLLowerArm, Vec2{0, 169.5}), wrist)
}

func TestTableJSONKeyedByPart(t *testing.T) {
	tab := evalRest(Pose{})
	data, err := json.Marshal(tab)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]Transform
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if len(m) != PartCount {
		t.Fatalf("len = %d, want %d", len(m), PartCount)
	}
	assertVec(t, "head", m["head"].Position, Vec2{0, -397.5})

	var back Table
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	assertVec(t, "decoded head", back[PartHead].Position, Vec2{0, -397.5})
}

func TestParentPart(t *testing.T) {
	if _, ok := ParentPart(PartWaist); ok {
		t.Error("waist should have no parent")
	}
	tests := map[Part]Part{
		PartTorso:     PartWaist,
		PartHead:      PartCollar,
		PartRUpperArm: PartCollar,
		PartLUpperLeg: PartWaist,
		PartLToe:      PartLFoot,
	}
	for child, want := range tests {
		if got, ok := ParentPart(child); !ok || got != want {
			t.Errorf("ParentPart(%s) = %s, %v; want %s", child, got, ok, want)
		}
	}
	if _, ok := ParentPart(Part(PartCount)); ok {
		t.Error("invalid part should have no parent")
	}
}

func TestDrawsUpwardOnlyForTrunk(t *testing.T) {
	for _, p := range Parts() {
		_, limb := Symmetric(PartJoint(p))
		if DrawsUpward(p) == limb {
			t.Errorf("DrawsUpward(%s) = %v", p, DrawsUpward(p))
		}
	}
}
