package poser

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Pose holds one pivot offset (degrees, relative to the parent's world
// rotation) per joint. The array form guarantees no joint is ever absent.
type Pose [JointCount]float64

// Get returns the offset of j.
func (p *Pose) Get(j Joint) float64 { return p[j] }

// Set sets the offset of j.
func (p *Pose) Set(j Joint, v float64) { p[j] = v }

// Partial returns the pose as a PartialPose covering every joint.
func (p Pose) Partial() PartialPose {
	out := make(PartialPose, JointCount)
	for j, v := range p {
		out[Joint(j)] = v
	}
	return out
}

// Equal reports whether p and o hold identical values.
func (p Pose) Equal(o Pose) bool { return p == o }

// Apply returns p with every joint present in partial overwritten.
func (p Pose) Apply(partial PartialPose) Pose {
	for j, v := range partial {
		if j.Valid() {
			p[j] = v
		}
	}
	return p
}

// MarshalJSON encodes the pose as an object keyed by joint name.
func (p Pose) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, JointCount)
	for j, v := range p {
		m[jointNames[j]] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by joint name. Missing joints read as 0.
func (p *Pose) UnmarshalJSON(data []byte) error {
	partial := PartialPose{}
	if err := json.Unmarshal(data, &partial); err != nil {
		return err
	}
	*p = Pose{}.Apply(partial)
	return nil
}

// PartialPose is a sparse pose. Joints absent from the map hold their current value
// when used as a transition target.
type PartialPose map[Joint]float64

// MarshalJSON encodes the partial pose as an object keyed by joint name.
func (pp PartialPose) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, len(pp))
	for j, v := range pp {
		m[j.String()] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by joint name, rejecting unknown joints
// and non-finite values.
func (pp *PartialPose) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	out := make(PartialPose, len(m))
	for name, v := range m {
		j, err := ParseJoint(name)
		if err != nil {
			return err
		}
		if !isFinite(v) {
			return fmt.Errorf("%w: %s", ErrNonFinite, name)
		}
		out[j] = v
	}
	*pp = out
	return nil
}

// Joints returns the joints present in pp in topological order.
func (pp PartialPose) Joints() []Joint {
	out := make([]Joint, 0, len(pp))
	for j := range pp {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Limit is an inclusive angular range in degrees.
type Limit struct {
	Min, Max float64
}

// Limits maps each joint to its allowed range.
type Limits [JointCount]Limit

// DefaultLimits allows -180..180 on every joint.
func DefaultLimits() Limits {
	var l Limits
	for i := range l {
		l[i] = Limit{Min: -180, Max: 180}
	}
	return l
}

// Clamp restricts v to the range configured for j.
func (l Limits) Clamp(j Joint, v float64) float64 {
	return math.Max(l[j].Min, math.Min(l[j].Max, v))
}
