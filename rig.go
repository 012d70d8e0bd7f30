package poser

import "fmt"

// Joint identifies one rotational degree of freedom of the rig.
type Joint uint8

const (
	Waist Joint = iota
	Torso
	Collar
	Neck
	LShoulder
	LElbow
	LHand
	RShoulder
	RElbow
	RHand
	LHip
	LKnee
	LFoot
	LToe
	RHip
	RKnee
	RFoot
	RToe

	// JointCount is the number of joints in the rig.
	JointCount = 18
)

// noJoint marks the absence of a parent or mirror.
const noJoint Joint = 0xff

var jointNames = [JointCount]string{
	"waist", "torso", "collar", "neck",
	"l_shoulder", "l_elbow", "l_hand",
	"r_shoulder", "r_elbow", "r_hand",
	"l_hip", "l_knee", "l_foot", "l_toe",
	"r_hip", "r_knee", "r_foot", "r_toe",
}

// String returns the joint's snake_case name.
func (j Joint) String() string {
	if int(j) < JointCount {
		return jointNames[j]
	}
	return fmt.Sprintf("joint(%d)", uint8(j))
}

// Valid reports whether j names a rig joint.
func (j Joint) Valid() bool { return int(j) < JointCount }

// ParseJoint returns the joint with the given snake_case name.
func ParseJoint(name string) (Joint, error) {
	for i, n := range jointNames {
		if n == name {
			return Joint(i), nil
		}
	}
	return noJoint, fmt.Errorf("%w: %q", ErrUnknownJoint, name)
}

// MarshalText implements encoding.TextMarshaler so joints key JSON objects by name.
func (j Joint) MarshalText() ([]byte, error) {
	if !j.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownJoint, uint8(j))
	}
	return []byte(jointNames[j]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (j *Joint) UnmarshalText(b []byte) error {
	v, err := ParseJoint(string(b))
	if err != nil {
		return err
	}
	*j = v
	return nil
}

// Joints returns every joint in topological order (parents before children).
func Joints() []Joint {
	out := make([]Joint, JointCount)
	for i := range out {
		out[i] = Joint(i)
	}
	return out
}

// Part identifies a rigid body segment driven by exactly one joint.
type Part uint8

const (
	PartWaist Part = iota
	PartTorso
	PartCollar
	PartHead
	PartLUpperArm
	PartLLowerArm
	PartLHand
	PartRUpperArm
	PartRLowerArm
	PartRHand
	PartLUpperLeg
	PartLLowerLeg
	PartLFoot
	PartLToe
	PartRUpperLeg
	PartRLowerLeg
	PartRFoot
	PartRToe

	// PartCount is the number of body parts.
	PartCount = 18
)

const noPart Part = 0xff

var partNames = [PartCount]string{
	"waist", "torso", "collar", "head",
	"l_upper_arm", "l_lower_arm", "l_hand",
	"r_upper_arm", "r_lower_arm", "r_hand",
	"l_upper_leg", "l_lower_leg", "l_foot", "l_toe",
	"r_upper_leg", "r_lower_leg", "r_foot", "r_toe",
}

// String returns the part's snake_case name.
func (p Part) String() string {
	if int(p) < PartCount {
		return partNames[p]
	}
	return fmt.Sprintf("part(%d)", uint8(p))
}

// Valid reports whether p names a body part.
func (p Part) Valid() bool { return int(p) < PartCount }

// ParsePart returns the part with the given snake_case name.
func ParsePart(name string) (Part, error) {
	for i, n := range partNames {
		if n == name {
			return Part(i), nil
		}
	}
	return noPart, fmt.Errorf("%w: %q", ErrUnknownPart, name)
}

// MarshalText implements encoding.TextMarshaler.
func (p Part) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPart, uint8(p))
	}
	return []byte(partNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Part) UnmarshalText(b []byte) error {
	v, err := ParsePart(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Parts returns every part in evaluation order.
func Parts() []Part {
	out := make([]Part, PartCount)
	for i := range out {
		out[i] = Part(i)
	}
	return out
}

// --- Topology tables ---

var jointParent = [JointCount]Joint{
	Waist:     noJoint,
	Torso:     Waist,
	Collar:    Torso,
	Neck:      Collar,
	LShoulder: Collar,
	LElbow:    LShoulder,
	LHand:     LElbow,
	RShoulder: Collar,
	RElbow:    RShoulder,
	RHand:     RElbow,
	LHip:      Waist,
	LKnee:     LHip,
	LFoot:     LKnee,
	LToe:      LFoot,
	RHip:      Waist,
	RKnee:     RHip,
	RFoot:     RKnee,
	RToe:      RFoot,
}

// waist and collar are the only multi-child branch points.
var jointChildren = [JointCount][]Joint{
	Waist:     {Torso, LHip, RHip},
	Torso:     {Collar},
	Collar:    {Neck, LShoulder, RShoulder},
	LShoulder: {LElbow},
	LElbow:    {LHand},
	RShoulder: {RElbow},
	RElbow:    {RHand},
	LHip:      {LKnee},
	LKnee:     {LFoot},
	LFoot:     {LToe},
	RHip:      {RKnee},
	RKnee:     {RFoot},
	RFoot:     {RToe},
}

var jointMirror = [JointCount]Joint{
	Waist:     noJoint,
	Torso:     noJoint,
	Collar:    noJoint,
	Neck:      noJoint,
	LShoulder: RShoulder,
	LElbow:    RElbow,
	LHand:     RHand,
	RShoulder: LShoulder,
	RElbow:    LElbow,
	RHand:     LHand,
	LHip:      RHip,
	LKnee:     RKnee,
	LFoot:     RFoot,
	LToe:      RToe,
	RHip:      LHip,
	RKnee:     LKnee,
	RFoot:     LFoot,
	RToe:      LToe,
}

var jointPart = [JointCount]Part{
	Waist:     PartWaist,
	Torso:     PartTorso,
	Collar:    PartCollar,
	Neck:      PartHead,
	LShoulder: PartLUpperArm,
	LElbow:    PartLLowerArm,
	LHand:     PartLHand,
	RShoulder: PartRUpperArm,
	RElbow:    PartRLowerArm,
	RHand:     PartRHand,
	LHip:      PartLUpperLeg,
	LKnee:     PartLLowerLeg,
	LFoot:     PartLFoot,
	LToe:      PartLToe,
	RHip:      PartRUpperLeg,
	RKnee:     PartRLowerLeg,
	RFoot:     PartRFoot,
	RToe:      PartRToe,
}

var partJoint [PartCount]Joint

func init() {
	for j, p := range jointPart {
		partJoint[p] = Joint(j)
	}
}

// Parent returns j's parent joint. The waist has no parent.
func Parent(j Joint) (Joint, bool) {
	if !j.Valid() {
		return noJoint, false
	}
	p := jointParent[j]
	return p, p != noJoint
}

// Children returns the joints that follow j in a chain reaction. The returned
// slice MUST NOT be mutated.
func Children(j Joint) []Joint {
	if !j.Valid() {
		return nil
	}
	return jointChildren[j]
}

// Symmetric returns the left/right mirror of j. Spine joints have none.
func Symmetric(j Joint) (Joint, bool) {
	if !j.Valid() {
		return noJoint, false
	}
	m := jointMirror[j]
	return m, m != noJoint
}

// JointPart returns the body part whose orientation j's cumulative rotation drives.
func JointPart(j Joint) Part {
	if !j.Valid() {
		return noPart
	}
	return jointPart[j]
}

// PartJoint returns the effector joint of part p.
func PartJoint(p Part) Joint {
	if !p.Valid() {
		return noJoint
	}
	return partJoint[p]
}

// IsLeft reports whether j belongs to the left side of the body.
func IsLeft(j Joint) bool {
	switch j {
	case LShoulder, LElbow, LHand, LHip, LKnee, LFoot, LToe:
		return true
	}
	return false
}
