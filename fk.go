package poser

import "encoding/json"

// Transform is one part's world-space placement.
type Transform struct {
	// Position is the part's pivot (its joint) in world space.
	Position Vec2 `json:"position"`
	// End is the far end of the bone in world space.
	End Vec2 `json:"end"`
	// Rotation is the cumulative world rotation in degrees.
	Rotation float64 `json:"rotation"`
	Length   float64 `json:"length"`
	Width    float64 `json:"width"`

	world [6]float64
}

// Table is the Global Position Table: one Transform per body part.
type Table [PartCount]Transform

// Get returns p's transform.
func (t *Table) Get(p Part) Transform { return t[p] }

// WorldToLocal converts a world-space point into p's bone frame.
func (t *Table) WorldToLocal(p Part, w Vec2) Vec2 {
	x, y := transformPoint(invertAffine(t[p].world), w.X, w.Y)
	return Vec2{x, y}
}

// LocalToWorld converts a point in p's bone frame to world space.
func (t *Table) LocalToWorld(p Part, l Vec2) Vec2 {
	x, y := transformPoint(t[p].world, l.X, l.Y)
	return Vec2{x, y}
}

// MarshalJSON encodes the table as an object keyed by part name.
func (t Table) MarshalJSON() ([]byte, error) {
	m := make(map[string]Transform, PartCount)
	for i := range t {
		m[partNames[i]] = t[i]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by part name. The world matrices are
// rebuilt from position and rotation.
func (t *Table) UnmarshalJSON(data []byte) error {
	var m map[string]Transform
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for name, tr := range m {
		p, err := ParsePart(name)
		if err != nil {
			return err
		}
		tr.world = boneTransform(tr.Position.X, tr.Position.Y, tr.Rotation)
		t[p] = tr
	}
	return nil
}

// --- Part tree ---

type attach uint8

const (
	attachEnd      attach = iota // parent's far end
	attachOrigin                 // parent's pivot (hips share the waist point)
	attachShoulder               // collar end, offset laterally by half the collar width
)

var partParent = [PartCount]Part{
	PartWaist:     noPart,
	PartTorso:     PartWaist,
	PartCollar:    PartTorso,
	PartHead:      PartCollar,
	PartLUpperArm: PartCollar,
	PartLLowerArm: PartLUpperArm,
	PartLHand:     PartLLowerArm,
	PartRUpperArm: PartCollar,
	PartRLowerArm: PartRUpperArm,
	PartRHand:     PartRLowerArm,
	PartLUpperLeg: PartWaist,
	PartLLowerLeg: PartLUpperLeg,
	PartLFoot:     PartLLowerLeg,
	PartLToe:      PartLFoot,
	PartRUpperLeg: PartWaist,
	PartRLowerLeg: PartRUpperLeg,
	PartRFoot:     PartRLowerLeg,
	PartRToe:      PartRFoot,
}

var partAttach = [PartCount]attach{
	PartLUpperArm: attachShoulder,
	PartRUpperArm: attachShoulder,
	PartLUpperLeg: attachOrigin,
	PartRUpperLeg: attachOrigin,
}

var partChildren [PartCount][]Part

func init() {
	for p, parent := range partParent {
		if parent != noPart {
			partChildren[parent] = append(partChildren[parent], Part(p))
		}
	}
}

// ParentPart returns the part p hangs from. The waist has none.
func ParentPart(p Part) (Part, bool) {
	if !p.Valid() {
		return noPart, false
	}
	pp := partParent[p]
	return pp, pp != noPart
}

// --- Evaluation ---

// Evaluate computes the Global Position Table for pose. The waist sits at the
// world origin. Pure and deterministic; safe to call every frame.
func Evaluate(pose Pose, props Proportions, baseUnit float64) Table {
	return EvaluateBase(pose, Pose{}, props, baseUnit)
}

// EvaluateBase is Evaluate with fixed base offsets added to every joint before
// its pivot offset, so a resting stance can be kept apart from user edits.
func EvaluateBase(pose, base Pose, props Proportions, baseUnit float64) Table {
	var t Table
	e := evaluator{pose: &pose, base: &base, props: &props, unit: baseUnit, table: &t}
	e.visit(PartWaist, identityTransform, 0)
	return t
}

type evaluator struct {
	pose  *Pose
	base  *Pose
	props *Proportions
	unit  float64
	table *Table
}

// visit places p under its parent's world frame and recurses depth-first.
func (e *evaluator) visit(p Part, parentWorld [6]float64, parentRot float64) {
	j := partJoint[p]
	local := e.base[j] + e.pose[j]
	ax, ay := e.anchor(p)
	world := multiplyAffine(parentWorld, boneTransform(ax, ay, local))

	length := BoneLength(p, e.props, e.unit)
	reach := length
	if partAnatomy[p].up {
		reach = -length
	}
	ex, ey := transformPoint(world, 0, reach)

	rot := parentRot + local
	e.table[p] = Transform{
		Position: Vec2{world[4], world[5]},
		End:      Vec2{ex, ey},
		Rotation: rot,
		Length:   length,
		Width:    BoneWidth(p, e.props, e.unit),
		world:    world,
	}

	for _, c := range partChildren[p] {
		e.visit(c, world, rot)
	}
}

// anchor returns where p attaches, expressed in its parent's bone frame.
func (e *evaluator) anchor(p Part) (float64, float64) {
	parent := partParent[p]
	if parent == noPart {
		return 0, 0
	}
	end := BoneLength(parent, e.props, e.unit)
	if partAnatomy[parent].up {
		end = -end
	}
	switch partAttach[p] {
	case attachOrigin:
		return 0, 0
	case attachShoulder:
		x := shoulderSpread * BoneWidth(parent, e.props, e.unit)
		if IsLeft(partJoint[p]) {
			x = -x
		}
		return x, end + shoulderDrop*e.unit
	default:
		return 0, end
	}
}
