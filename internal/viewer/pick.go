package viewer

import "github.com/phanxgames/poser"

// pickRadius is the hit radius around a joint pivot, in screen pixels.
const pickRadius = 14.0

// jointPosition returns the world position of j's pivot.
func jointPosition(table *poser.Table, j poser.Joint) poser.Vec2 {
	return table[poser.JointPart(j)].Position
}

// pickJoint returns the joint whose pivot is closest to world within
// radius. Pivots that coincide (the hips share the waist's origin) resolve
// to the later joint in topological order so limbs win over the trunk.
func pickJoint(table *poser.Table, world poser.Vec2, radius float64, only []poser.Joint) (poser.Joint, bool) {
	candidates := only
	if candidates == nil {
		candidates = poser.Joints()
	}
	best, found := poser.Joint(0), false
	bestDist := radius
	for _, j := range candidates {
		d := jointPosition(table, j).Dist(world)
		if d <= bestDist {
			best, bestDist, found = j, d, true
		}
	}
	return best, found
}

// pickEffector returns the hand or foot nearest world within radius,
// matching against the tip of each limb rather than the pivot.
func pickEffector(table *poser.Table, world poser.Vec2, radius float64) (poser.Joint, bool) {
	best, found := poser.Joint(0), false
	bestDist := radius
	for _, j := range poser.PinnableJoints() {
		limb, err := poser.LimbFor(j)
		if err != nil {
			continue
		}
		d := limb.Tip(table).Dist(world)
		if d <= bestDist {
			best, bestDist, found = j, d, true
		}
	}
	return best, found
}
