package poser

import (
	"time"

	"github.com/google/uuid"
)

// Clip is an immutable interpolation between two full poses.
type Clip struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Duration  time.Duration `json:"duration"`
	StartPose Pose          `json:"start_pose"`
	EndPose   Pose          `json:"end_pose"`
	Easing    Easing        `json:"easing"`
}

// NewClip returns a clip with a fresh ID.
func NewClip(name string, start, end Pose, duration time.Duration, easing Easing) Clip {
	return Clip{
		ID:        uuid.NewString(),
		Name:      name,
		Duration:  duration,
		StartPose: start,
		EndPose:   end,
		Easing:    easing,
	}
}

// PoseAt returns the clip's pose at t after its start. Times past the end
// return EndPose exactly.
func (c Clip) PoseAt(t time.Duration) Pose {
	if t >= c.Duration {
		return c.EndPose
	}
	if t <= 0 {
		return c.StartPose
	}
	return c.blend(c.Easing.Apply(float64(t) / float64(c.Duration)))
}

func (c Clip) blend(eased float64) Pose {
	var out Pose
	for j := range out {
		out[j] = LerpShortestPath(c.StartPose[j], c.EndPose[j], eased)
	}
	return out
}

// Keyframe is a captured pose on the editing timeline.
type Keyframe struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Pose           Pose          `json:"pose"`
	DurationToNext time.Duration `json:"duration_to_next"`
}

// NewKeyframe returns a keyframe with a fresh ID.
func NewKeyframe(name string, pose Pose, toNext time.Duration) Keyframe {
	return Keyframe{ID: uuid.NewString(), Name: name, Pose: pose, DurationToNext: toNext}
}

// Timeline is a sequence of clips played back to back.
type Timeline []Clip

// TimelineFromKeyframes builds one clip per consecutive keyframe pair, each
// lasting the earlier keyframe's DurationToNext.
func TimelineFromKeyframes(kfs []Keyframe, easing Easing) Timeline {
	if len(kfs) < 2 {
		return nil
	}
	tl := make(Timeline, 0, len(kfs)-1)
	for i := 0; i < len(kfs)-1; i++ {
		a, b := kfs[i], kfs[i+1]
		tl = append(tl, NewClip(a.Name+" -> "+b.Name, a.Pose, b.Pose, a.DurationToNext, easing))
	}
	return tl
}

// Duration returns the summed duration of every clip.
func (tl Timeline) Duration() time.Duration {
	var d time.Duration
	for _, c := range tl {
		d += c.Duration
	}
	return d
}

// PoseAt returns the pose t into the timeline. ok is false for an empty
// timeline. Times past the end hold the last clip's EndPose.
func (tl Timeline) PoseAt(t time.Duration) (pose Pose, ok bool) {
	if len(tl) == 0 {
		return Pose{}, false
	}
	for _, c := range tl {
		if t < c.Duration {
			return c.PoseAt(t), true
		}
		t -= c.Duration
	}
	return tl[len(tl)-1].EndPose, true
}

// Player steps a Timeline in real time.
type Player struct {
	timeline Timeline
	total    time.Duration
	elapsed  time.Duration
	loop     bool
	done     bool
}

// NewPlayer returns a player positioned at the start of tl. When loop is set
// playback wraps forever.
func NewPlayer(tl Timeline, loop bool) *Player {
	return &Player{timeline: tl, total: tl.Duration(), loop: loop}
}

// Update advances playback by dt and returns the current pose and whether
// the timeline has finished. A looping player wraps back to the first clip
// on reaching the end, including when dt lands exactly on it.
func (p *Player) Update(dt time.Duration) (Pose, bool) {
	if len(p.timeline) == 0 {
		return Pose{}, true
	}
	last := p.timeline[len(p.timeline)-1].EndPose
	if p.done {
		return last, true
	}
	p.elapsed += max(dt, 0)
	if p.total <= 0 {
		p.done = true
		return last, true
	}
	if p.loop {
		p.elapsed %= p.total
	} else if p.elapsed >= p.total {
		p.done = true
		return last, true
	}
	pose, _ := p.timeline.PoseAt(p.elapsed)
	return pose, false
}

// Clip returns the index of the clip currently playing.
func (p *Player) Clip() int {
	t := p.elapsed
	for i, c := range p.timeline {
		if t < c.Duration {
			return i
		}
		t -= c.Duration
	}
	return max(len(p.timeline)-1, 0)
}

// Reset rewinds playback to the first clip.
func (p *Player) Reset() {
	p.elapsed = 0
	p.done = false
}
