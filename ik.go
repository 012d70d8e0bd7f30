package poser

import (
	"fmt"
	"math"
)

// IKSolution is the result of a two-bone solve. Angle1 is the root joint's
// local rotation and Angle2 the middle joint's, both in degrees. Stretch is 1
// when the target is reachable and dist/(len1+len2) when it is not.
type IKSolution struct {
	Angle1  float64 `json:"angle1"`
	Angle2  float64 `json:"angle2"`
	Stretch float64 `json:"stretch"`
}

// SolveTwoBoneIK places the end of a two-bone chain rooted at root at target,
// or as close to it as the bones allow. parentAngle is the world rotation of
// the root joint's parent in degrees. Left limbs bend one way, right limbs the
// mirrored way.
//
// An unreachable target is clamped onto the root->target ray at full reach
// and reported through Stretch. When root and target coincide, Angle1 is
// whatever atan2(0, 0) yields; callers should treat that pose as degenerate.
func SolveTwoBoneIK(target, root Vec2, len1, len2, parentAngle float64, isLeft bool) IKSolution {
	dist := root.Dist(target)
	maxDist := len1 + len2
	stretch := 1.0
	effective := target
	effectiveDist := dist

	if dist > maxDist {
		stretch = dist / maxDist
		effective = root.Add(target.Sub(root).Mul(maxDist / dist))
		effectiveDist = maxDist
	}

	cos2 := (effectiveDist*effectiveDist - len1*len1 - len2*len2) / (2 * len1 * len2)
	angle2 := math.Acos(math.Max(-1, math.Min(1, cos2)))
	if !isLeft {
		angle2 = -angle2
	}

	toTarget := effective.Sub(root).Angle()
	angle1 := toTarget - math.Atan2(len2*math.Sin(angle2), len1+len2*math.Cos(angle2))

	// Limbs hang along local +Y, so a local rotation of 0 points at world 90.
	return IKSolution{
		Angle1:  Deg(angle1) - 90 - parentAngle,
		Angle2:  Deg(angle2),
		Stretch: stretch,
	}
}

// Limb describes a two-bone chain that can be pinned by its effector.
type Limb struct {
	Effector Joint // the pinned joint at the chain's tip
	Root     Joint // shoulder or hip
	Mid      Joint // elbow or knee
	Upper    Part
	Lower    Part
	Parent   Part // part whose world rotation the root is relative to
	Left     bool
}

var limbs = map[Joint]Limb{
	LHand: {Effector: LHand, Root: LShoulder, Mid: LElbow, Upper: PartLUpperArm, Lower: PartLLowerArm, Parent: PartCollar, Left: true},
	RHand: {Effector: RHand, Root: RShoulder, Mid: RElbow, Upper: PartRUpperArm, Lower: PartRLowerArm, Parent: PartCollar},
	LFoot: {Effector: LFoot, Root: LHip, Mid: LKnee, Upper: PartLUpperLeg, Lower: PartLLowerLeg, Parent: PartWaist, Left: true},
	RFoot: {Effector: RFoot, Root: RHip, Mid: RKnee, Upper: PartRUpperLeg, Lower: PartRLowerLeg, Parent: PartWaist},
}

// LimbFor returns the limb ending at effector. Only hands and feet can be pinned.
func LimbFor(effector Joint) (Limb, error) {
	l, ok := limbs[effector]
	if !ok {
		return Limb{}, fmt.Errorf("%w: %s", ErrNotPinnable, effector)
	}
	return l, nil
}

// PinnableJoints returns the effectors accepted by LimbFor.
func PinnableJoints() []Joint { return []Joint{LHand, RHand, LFoot, RFoot} }

// SolveLimb solves limb toward target using the bone lengths and root
// placement in table. The returned angles are pivot values: base is
// subtracted so they can be written straight into a Pose evaluated with
// EvaluateBase(pose, base, ...).
func SolveLimb(limb Limb, target Vec2, table *Table, base Pose) IKSolution {
	upper := table[limb.Upper]
	sol := SolveTwoBoneIK(
		target,
		upper.Position,
		upper.Length,
		table[limb.Lower].Length,
		table[limb.Parent].Rotation,
		limb.Left,
	)
	sol.Angle1 -= base[limb.Root]
	sol.Angle2 -= base[limb.Mid]
	return sol
}

// Tip returns the current world position of the limb's effector.
func (l Limb) Tip(table *Table) Vec2 { return table[l.Lower].End }
