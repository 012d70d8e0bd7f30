package poser

import (
	"fmt"
	"sort"
	"strings"
)

// TPose is the calibration pose: every joint at rest.
var TPose = Pose{}

// RestPose is the relaxed stance the rig starts in, arms lowered 75 degrees.
var RestPose = poseOf(map[Joint]float64{LShoulder: -75, RShoulder: 75})

var commands = map[string]Pose{
	"LUNGE_HEAVY": poseOf(map[Joint]float64{
		Waist: 20, Torso: 15, Neck: -10,
		LShoulder: -60, LElbow: 45,
		RShoulder: 120, RElbow: 30,
		LHip: -90, LKnee: 90,
		RHip: 45, RKnee: -15,
	}),
	"CROUCH_LIGHT": poseOf(map[Joint]float64{
		Waist: 10, Torso: 5,
		LShoulder: -45, LElbow: 30,
		RShoulder: 45, RElbow: 30,
		LHip: -45, LKnee: 60, LFoot: -10,
		RHip: -45, RKnee: 60, RFoot: -10,
	}),
	"REACH_HIGH": poseOf(map[Joint]float64{
		Waist: -10, Torso: -15, Neck: -10,
		LShoulder: -160, LElbow: -15,
		RShoulder: 160, RElbow: -15,
		LFoot: 20, LToe: 30,
		RFoot: 20, RToe: 30,
	}),
	"GUARD_LEFT": poseOf(map[Joint]float64{
		Waist: -30, Torso: -10, Neck: 20,
		LShoulder: -90, LElbow: 120,
		RShoulder: -20, RElbow: 90,
		LHip: -30, LKnee: 45,
		RHip: 15, RKnee: 15,
	}),
	"IDLE_NEUTRAL": RestPose,
	"T_POSE":       TPose,
}

func poseOf(m map[Joint]float64) Pose {
	var p Pose
	for j, v := range m {
		p[j] = v
	}
	return p
}

// ParseCommand returns the preset pose named by command. Matching ignores
// case and surrounding space.
func ParseCommand(command string) (Pose, error) {
	key := strings.ToUpper(strings.TrimSpace(command))
	p, ok := commands[key]
	if !ok {
		return Pose{}, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	return p, nil
}

// Commands returns the preset names in sorted order.
func Commands() []string {
	out := make([]string, 0, len(commands))
	for k := range commands {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
