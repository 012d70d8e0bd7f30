package poser

import (
	"encoding/json"
	"fmt"
	"time"
)

// scriptStep is a single action in a pose script.
type scriptStep struct {
	Action  string  `json:"action"`
	Joint   string  `json:"joint,omitempty"`
	Label   string  `json:"label,omitempty"`
	Command string  `json:"command,omitempty"`
	Value   float64 `json:"value,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	FromX   float64 `json:"fromX,omitempty"`
	ToX     float64 `json:"toX,omitempty"`
	Frames  int     `json:"frames,omitempty"`
}

// script is the top-level JSON structure for a pose script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

type dragEventKind uint8

const (
	dragPress dragEventKind = iota
	dragMove
	dragRelease
)

// syntheticDrag is one queued pointer event for a scripted drag.
type syntheticDrag struct {
	kind  dragEventKind
	joint Joint
	x     float64
}

// Capture is a pose recorded by a script's capture step.
type Capture struct {
	Label string `json:"label"`
	Pose  Pose   `json:"pose"`
	Table Table  `json:"table"`
}

// ScriptRunner sequences scripted edits across frames for automated pose
// checks. Call Step once per frame before Studio.Update.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	queue     []syntheticDrag
	captures  []Capture
	done      bool
}

// LoadScript parses a JSON pose script.
func LoadScript(data []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse pose script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse pose script: no steps")
	}
	for i, st := range sc.Steps {
		if err := validateStep(st); err != nil {
			return nil, fmt.Errorf("parse pose script: step %d: %w", i, err)
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

func validateStep(st scriptStep) error {
	switch st.Action {
	case "drag", "set", "pin", "unpin":
		if _, err := ParseJoint(st.Joint); err != nil {
			return err
		}
	case "command":
		if _, err := ParseCommand(st.Command); err != nil {
			return err
		}
	case "calibrate", "wait", "capture":
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool { return r.done }

// Captures returns the poses recorded so far.
func (r *ScriptRunner) Captures() []Capture { return r.captures }

// Step advances the runner by one frame against s.
func (r *ScriptRunner) Step(s *Studio) error {
	if r.done {
		return nil
	}
	// Drain queued drag events one per frame before advancing.
	if len(r.queue) > 0 {
		ev := r.queue[0]
		r.queue = r.queue[1:]
		if err := applyDrag(s, ev); err != nil {
			return err
		}
		r.checkDone()
		return nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		r.checkDone()
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++
	if err := r.run(s, st); err != nil {
		return fmt.Errorf("step %d (%s): %w", r.cursor-1, st.Action, err)
	}
	r.checkDone()
	return nil
}

func (r *ScriptRunner) checkDone() {
	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(r.queue) == 0 {
		r.done = true
	}
}

func (r *ScriptRunner) run(s *Studio, st scriptStep) error {
	j, _ := ParseJoint(st.Joint)
	switch st.Action {
	case "calibrate":
		s.Calibrate()
	case "drag":
		r.injectDrag(j, st.FromX, st.ToX, st.Frames)
	case "set":
		return s.SetJoint(j, st.Value)
	case "pin":
		return s.Pin(j, Vec2{st.X, st.Y})
	case "unpin":
		s.Unpin(j)
	case "command":
		return s.ApplyCommand(st.Command)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "capture":
		r.captures = append(r.captures, Capture{Label: st.Label, Pose: s.Pose(), Table: s.Table()})
	}
	return nil
}

// injectDrag queues a press at fromX, frames-2 interpolated moves and a
// move plus release at toX. Minimum frames is 2.
func (r *ScriptRunner) injectDrag(j Joint, fromX, toX float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	r.queue = append(r.queue, syntheticDrag{kind: dragPress, joint: j, x: fromX})
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		r.queue = append(r.queue, syntheticDrag{kind: dragMove, joint: j, x: Lerp(fromX, toX, t)})
	}
	r.queue = append(r.queue, syntheticDrag{kind: dragRelease, joint: j, x: toX})
}

func applyDrag(s *Studio, ev syntheticDrag) error {
	switch ev.kind {
	case dragPress:
		return s.BeginDrag(ev.joint, ev.x)
	case dragMove:
		return s.DragTo(ev.x)
	default:
		if err := s.DragTo(ev.x); err != nil {
			return err
		}
		return s.EndDrag()
	}
}

// RunScript drives s with r until the script finishes or maxFrames frames
// have run, ticking the studio every frame starting at start.
func RunScript(r *ScriptRunner, s *Studio, start, frame time.Duration, maxFrames int) ([]Capture, error) {
	now := start
	for i := 0; i < maxFrames && !r.Done(); i++ {
		if err := r.Step(s); err != nil {
			return r.captures, err
		}
		s.Update(now)
		now += frame
	}
	if !r.Done() {
		return r.captures, fmt.Errorf("pose script unfinished after %d frames", maxFrames)
	}
	return r.captures, nil
}
