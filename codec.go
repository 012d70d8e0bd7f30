package poser

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"
)

// Text encoding of a pose and its proportions:
//
//	POSE[waist:0;torso:15;...]|PROPS[head:1.00,1.00;collar:1.20,0.90;...]
//
// Angles are rounded to whole degrees. Scales are height then width with two
// decimals. The PROPS section is optional when decoding.

const (
	poseSection  = "POSE"
	propsSection = "PROPS"
)

// Encode returns the text encoding of pose and props.
func Encode(pose Pose, props Proportions) string {
	var b strings.Builder
	b.WriteString(EncodePose(pose))
	b.WriteString("|" + propsSection + "[")
	for i, s := range props {
		if i > 0 {
			b.WriteByte(';')
		}
		h, w := s.H, s.W
		if h == 0 {
			h = 1
		}
		if w == 0 {
			w = 1
		}
		b.WriteString(partNames[i])
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(scalar.Round(h, 2), 'f', 2, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(scalar.Round(w, 2), 'f', 2, 64))
	}
	b.WriteByte(']')
	return b.String()
}

// EncodePose returns the POSE section for pose.
func EncodePose(pose Pose) string {
	var b strings.Builder
	b.WriteString(poseSection + "[")
	for j, v := range pose {
		if j > 0 {
			b.WriteByte(';')
		}
		r := scalar.Round(v, 0)
		if r == 0 {
			r = 0 // drop negative zero
		}
		b.WriteString(jointNames[j])
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(r, 'f', 0, 64))
	}
	b.WriteByte(']')
	return b.String()
}

// Decode parses a text encoding. Missing joints read as 0 and missing parts
// as unit scale. NaN and infinite values are rejected.
func Decode(s string) (Pose, Proportions, error) {
	var pose Pose
	props := DefaultProportions()
	sawPose := false

	for _, sec := range strings.Split(strings.TrimSpace(s), "|") {
		name, body, err := splitSection(sec)
		if err != nil {
			return Pose{}, props, err
		}
		switch name {
		case poseSection:
			sawPose = true
			if err := decodePose(body, &pose); err != nil {
				return Pose{}, props, err
			}
		case propsSection:
			if err := decodeProps(body, &props); err != nil {
				return Pose{}, props, err
			}
		default:
			return Pose{}, props, fmt.Errorf("%w: unknown section %q", ErrMalformedPose, name)
		}
	}
	if !sawPose {
		return Pose{}, props, fmt.Errorf("%w: missing %s section", ErrMalformedPose, poseSection)
	}
	return pose, props, nil
}

// DecodePose parses an encoding and returns only its pose.
func DecodePose(s string) (Pose, error) {
	p, _, err := Decode(s)
	return p, err
}

func splitSection(sec string) (name, body string, err error) {
	sec = strings.TrimSpace(sec)
	open := strings.IndexByte(sec, '[')
	if open <= 0 || !strings.HasSuffix(sec, "]") {
		return "", "", fmt.Errorf("%w: bad section %q", ErrMalformedPose, sec)
	}
	return strings.ToUpper(sec[:open]), sec[open+1 : len(sec)-1], nil
}

func decodePose(body string, pose *Pose) error {
	for _, entry := range entries(body) {
		key, val, ok := strings.Cut(entry, ":")
		if !ok {
			return fmt.Errorf("%w: bad joint entry %q", ErrMalformedPose, entry)
		}
		j, err := ParseJoint(strings.TrimSpace(key))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedPose, err)
		}
		v, err := parseNumber(val)
		if err != nil {
			return fmt.Errorf("joint %s: %w", j, err)
		}
		pose[j] = v
	}
	return nil
}

func decodeProps(body string, props *Proportions) error {
	for _, entry := range entries(body) {
		key, val, ok := strings.Cut(entry, ":")
		if !ok {
			return fmt.Errorf("%w: bad part entry %q", ErrMalformedPose, entry)
		}
		p, err := ParsePart(strings.TrimSpace(key))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedPose, err)
		}
		hs, ws, ok := strings.Cut(val, ",")
		if !ok {
			return fmt.Errorf("%w: part %s needs h,w", ErrMalformedPose, p)
		}
		h, err := parseNumber(hs)
		if err != nil {
			return fmt.Errorf("part %s: %w", p, err)
		}
		w, err := parseNumber(ws)
		if err != nil {
			return fmt.Errorf("part %s: %w", p, err)
		}
		props[p] = Scale{W: w, H: h}
	}
	return nil
}

func entries(body string) []string {
	var out []string
	for _, e := range strings.Split(body, ";") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedPose, s)
	}
	if !isFinite(v) {
		return 0, fmt.Errorf("%w: %q", ErrNonFinite, s)
	}
	return v, nil
}
