package poser

// DefaultBaseUnit is the head height, in world units, every bone length scales from.
const DefaultBaseUnit = 150.0

// Scale holds multiplicative width and height factors for one part.
type Scale struct {
	W float64 `json:"w" toml:"w"`
	H float64 `json:"h" toml:"h"`
}

// Proportions holds one Scale per body part.
type Proportions [PartCount]Scale

// DefaultProportions returns unit scales for every part.
func DefaultProportions() Proportions {
	var p Proportions
	for i := range p {
		p[i] = Scale{W: 1, H: 1}
	}
	return p
}

// factor returns the axis factor for part, reading a zero factor as 1.
func (p *Proportions) factor(part Part, height bool) float64 {
	s := p[part]
	f := s.W
	if height {
		f = s.H
	}
	if f == 0 {
		return 1
	}
	return f
}

// anatomy holds raw dimensions relative to the base unit.
type anatomy struct {
	length float64
	width  float64
	up     bool // spine and head extend along local -Y
}

var partAnatomy = [PartCount]anatomy{
	PartWaist:     {length: 1.06, width: 0.9, up: true},
	PartTorso:     {length: 1.06, width: 0.7, up: true},
	PartCollar:    {length: 0.53, width: 1.46, up: true},
	PartHead:      {length: 1.0, width: 0.8, up: true},
	PartLUpperArm: {length: 1.06, width: 0.18},
	PartLLowerArm: {length: 1.13, width: 0.15},
	PartLHand:     {length: 0.4, width: 0.15},
	PartRUpperArm: {length: 1.06, width: 0.18},
	PartRLowerArm: {length: 1.13, width: 0.15},
	PartRHand:     {length: 0.4, width: 0.15},
	PartLUpperLeg: {length: 1.73, width: 0.25},
	PartLLowerLeg: {length: 1.6, width: 0.22},
	PartLFoot:     {length: 0.4, width: 0.2},
	PartLToe:      {length: 0.26, width: 0.2},
	PartRUpperLeg: {length: 1.73, width: 0.25},
	PartRLowerLeg: {length: 1.6, width: 0.22},
	PartRFoot:     {length: 0.4, width: 0.2},
	PartRToe:      {length: 0.26, width: 0.2},
}

// Shoulder rigging, in base units, measured in the collar frame from the collar's end.
const (
	shoulderDrop = 0.05
	// shoulders sit half a collar width to either side
	shoulderSpread = 0.5
)

// BoneLength returns part's scaled length for the given base unit.
func BoneLength(part Part, props *Proportions, baseUnit float64) float64 {
	return partAnatomy[part].length * baseUnit * props.factor(part, true)
}

// BoneWidth returns part's scaled width for the given base unit.
func BoneWidth(part Part, props *Proportions, baseUnit float64) float64 {
	return partAnatomy[part].width * baseUnit * props.factor(part, false)
}

// DrawsUpward reports whether part extends along local -Y (spine and head).
func DrawsUpward(part Part) bool { return partAnatomy[part].up }
