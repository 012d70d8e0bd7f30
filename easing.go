package poser

import (
	"fmt"

	"github.com/tanema/gween/ease"
)

// Easing selects a unit easing curve.
type Easing uint8

const (
	EaseLinear     Easing = iota // constant speed
	EaseIn                       // cubic ease-in
	EaseOut                      // cubic ease-out
	EaseInOut                    // cubic ease-in-out
	EaseElastic                  // elastic overshoot on arrival
	EaseOutExpo                  // exponential ease-out, the snap-back default
	EaseInOutQuint               // quintic, slow at both ends
	EaseInQuint                  // quintic ease-in, for impacts
)

var easingNames = [...]string{
	EaseLinear:     "linear",
	EaseIn:         "ease-in",
	EaseOut:        "ease-out",
	EaseInOut:      "ease-in-out",
	EaseElastic:    "elastic",
	EaseOutExpo:    "out-expo",
	EaseInOutQuint: "in-out-quint",
	EaseInQuint:    "in-quint",
}

var easingFuncs = [...]ease.TweenFunc{
	EaseLinear:     ease.Linear,
	EaseIn:         ease.InCubic,
	EaseOut:        ease.OutCubic,
	EaseInOut:      ease.InOutCubic,
	EaseElastic:    ease.OutElastic,
	EaseOutExpo:    ease.OutExpo,
	EaseInOutQuint: ease.InOutQuint,
	EaseInQuint:    ease.InQuint,
}

func (e Easing) String() string {
	if int(e) < len(easingNames) {
		return easingNames[e]
	}
	return fmt.Sprintf("easing(%d)", uint8(e))
}

// ParseEasing returns the easing with the given name. The empty string is linear.
func ParseEasing(name string) (Easing, error) {
	if name == "" {
		return EaseLinear, nil
	}
	for i, n := range easingNames {
		if n == name {
			return Easing(i), nil
		}
	}
	return EaseLinear, fmt.Errorf("unknown easing %q", name)
}

// Func returns the gween tween function backing e.
func (e Easing) Func() ease.TweenFunc {
	if int(e) < len(easingFuncs) {
		return easingFuncs[e]
	}
	return ease.Linear
}

// Apply evaluates the curve at t in [0, 1]. The endpoints are exact.
func (e Easing) Apply(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	}
	return float64(e.Func()(float32(t), 0, 1, 1))
}

// MarshalText implements encoding.TextMarshaler.
func (e Easing) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Easing) UnmarshalText(b []byte) error {
	v, err := ParseEasing(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
