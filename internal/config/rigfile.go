package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/phanxgames/poser"
)

// LimitRange is a joint range as written in a rig file.
type LimitRange struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

// RigFile describes a character rig: how edits travel down each chain, the
// base offsets, per-part proportions and joint limits. Every table is keyed
// by joint or part name.
//
//	[behaviors.l_elbow]
//	bend = 0.5
//
//	[base]
//	l_shoulder = -75
//
//	[proportions.head]
//	w = 0.9
//	h = 1.1
type RigFile struct {
	BaseUnit    float64                   `toml:"base_unit"`
	Behaviors   map[string]poser.Behavior `toml:"behaviors"`
	Base        map[string]float64        `toml:"base"`
	Proportions map[string]poser.Scale    `toml:"proportions"`
	Limits      map[string]LimitRange     `toml:"limits"`
}

// LoadRigFile reads and parses a rig file from disk.
func LoadRigFile(path string) (*RigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rig file: %w", err)
	}
	rig, err := ParseRigFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rig, nil
}

// ParseRigFile decodes rig TOML and checks every name it references.
func ParseRigFile(data []byte) (*RigFile, error) {
	var rig RigFile
	if err := toml.Unmarshal(data, &rig); err != nil {
		return nil, fmt.Errorf("parsing rig file: %w", err)
	}
	if err := rig.Validate(); err != nil {
		return nil, err
	}
	return &rig, nil
}

// Validate reports every unknown name, non-finite value or bad range in the rig.
func (r *RigFile) Validate() error {
	var errs []error
	nonFinite := func(field string, vs ...float64) {
		for _, v := range vs {
			if !finite(v) {
				errs = append(errs, fmt.Errorf("%s: %w", field, poser.ErrNonFinite))
				return
			}
		}
	}

	nonFinite("base_unit", r.BaseUnit)
	if r.BaseUnit < 0 {
		errs = append(errs, fmt.Errorf("base_unit must not be negative, got %v", r.BaseUnit))
	}
	for name, b := range r.Behaviors {
		if _, err := poser.ParseJoint(name); err != nil {
			errs = append(errs, fmt.Errorf("behaviors: %w", err))
		}
		nonFinite("behaviors."+name, b.Bend, b.Stretch)
	}
	for name, v := range r.Base {
		if _, err := poser.ParseJoint(name); err != nil {
			errs = append(errs, fmt.Errorf("base: %w", err))
		}
		nonFinite("base."+name, v)
	}
	for name, s := range r.Proportions {
		if _, err := poser.ParsePart(name); err != nil {
			errs = append(errs, fmt.Errorf("proportions: %w", err))
		}
		nonFinite("proportions."+name, s.W, s.H)
		if s.W < 0 || s.H < 0 {
			errs = append(errs, fmt.Errorf("proportions.%s: scales must not be negative", name))
		}
	}
	for name, l := range r.Limits {
		if _, err := poser.ParseJoint(name); err != nil {
			errs = append(errs, fmt.Errorf("limits: %w", err))
		}
		nonFinite("limits."+name, l.Min, l.Max)
		if l.Min > l.Max {
			errs = append(errs, fmt.Errorf("limits.%s: min %v exceeds max %v", name, l.Min, l.Max))
		}
	}
	return errors.Join(errs...)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// JointBehaviors returns the behavior table keyed by joint. A rig with no
// behaviors section returns nil so propagation keeps its default decay.
func (r *RigFile) JointBehaviors() (poser.Behaviors, error) {
	if r.Behaviors == nil {
		return nil, nil
	}
	out := make(poser.Behaviors, len(r.Behaviors))
	for name, b := range r.Behaviors {
		j, err := poser.ParseJoint(name)
		if err != nil {
			return nil, err
		}
		out[j] = b
	}
	return out, nil
}

// BasePose returns the base offsets; unnamed joints are 0.
func (r *RigFile) BasePose() (poser.Pose, error) {
	var p poser.Pose
	for name, v := range r.Base {
		j, err := poser.ParseJoint(name)
		if err != nil {
			return poser.Pose{}, err
		}
		p[j] = v
	}
	return p, nil
}

// PartProportions returns unit scales overridden by the rig's entries.
func (r *RigFile) PartProportions() (poser.Proportions, error) {
	props := poser.DefaultProportions()
	for name, s := range r.Proportions {
		part, err := poser.ParsePart(name)
		if err != nil {
			return poser.Proportions{}, err
		}
		props[part] = s
	}
	return props, nil
}

// JointLimits returns the default limits overridden by the rig's entries.
func (r *RigFile) JointLimits() (poser.Limits, error) {
	limits := poser.DefaultLimits()
	for name, l := range r.Limits {
		j, err := poser.ParseJoint(name)
		if err != nil {
			return poser.Limits{}, err
		}
		limits[j] = poser.Limit{Min: l.Min, Max: l.Max}
	}
	return limits, nil
}

// Apply copies the rig into studio options.
func (r *RigFile) Apply(opts *poser.Options) error {
	behaviors, err := r.JointBehaviors()
	if err != nil {
		return err
	}
	base, err := r.BasePose()
	if err != nil {
		return err
	}
	props, err := r.PartProportions()
	if err != nil {
		return err
	}
	limits, err := r.JointLimits()
	if err != nil {
		return err
	}
	if r.BaseUnit > 0 {
		opts.BaseUnit = r.BaseUnit
	}
	opts.Behaviors = behaviors
	opts.Base = base
	opts.Proportions = &props
	opts.Limits = &limits
	return nil
}
