package poser

// DefaultDecay is the propagation factor used for every child when no
// behavior map is configured.
const DefaultDecay = 0.5

// Behavior controls how an edit to a joint's parent reaches the joint.
type Behavior struct {
	// Bend is the share of the parent's delta the joint follows.
	Bend float64 `json:"bend,omitempty" toml:"bend"`
	// Stretch is an additional counter-rotation share, summed with Bend.
	Stretch float64 `json:"stretch,omitempty" toml:"stretch"`
	// Lead marks the joint as leading its chain. Stored for editors; it does
	// not change propagation.
	Lead bool `json:"lead,omitempty" toml:"lead"`
}

// Factor returns the combined propagation factor.
func (b Behavior) Factor() float64 { return b.Bend + b.Stretch }

// Behaviors maps joints to their chain behavior. Absent joints are rigid.
type Behaviors map[Joint]Behavior

// Factor returns the propagation factor for j. A nil map falls back to
// DefaultDecay for every joint.
func (b Behaviors) Factor(j Joint) float64 {
	if b == nil {
		return DefaultDecay
	}
	return b[j].Factor()
}

// Clone returns a copy of b.
func (b Behaviors) Clone() Behaviors {
	if b == nil {
		return nil
	}
	out := make(Behaviors, len(b))
	for j, v := range b {
		out[j] = v
	}
	return out
}

// Propagate applies delta to the edited joint and spreads scaled deltas to
// its descendants breadth-first. Each child receives its parent's delta times
// its own factor and passes that scaled delta on. A zero factor stops the
// walk for that subtree.
func Propagate(edited Joint, delta float64, pose Pose, behaviors Behaviors) Pose {
	if !edited.Valid() {
		return pose
	}
	pose[edited] += delta

	type item struct {
		joint Joint
		delta float64
	}
	var visited [JointCount]bool
	visited[edited] = true
	queue := []item{{edited, delta}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range Children(cur.joint) {
			if visited[c] {
				continue
			}
			f := behaviors.Factor(c)
			if f == 0 {
				continue
			}
			visited[c] = true
			d := cur.delta * f
			pose[c] += d
			queue = append(queue, item{c, d})
		}
	}
	return pose
}
