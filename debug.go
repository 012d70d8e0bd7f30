package poser

import (
	"fmt"
	"os"
	"time"
)

// debugStats holds per-frame timing and solver metrics.
// Only populated when Studio.debug is true.
type debugStats struct {
	animateTime time.Duration
	fkTime      time.Duration
	ikTime      time.Duration
	pinCount    int
	maxStretch  float64
}

// debugLog prints timing and solver stats to stderr.
func (s *Studio) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	total := stats.animateTime + stats.fkTime + stats.ikTime
	_, _ = fmt.Fprintf(os.Stderr,
		"[poser] animate: %v | fk: %v | ik: %v | total: %v\n",
		stats.animateTime, stats.fkTime, stats.ikTime, total)
	if stats.pinCount > 0 {
		_, _ = fmt.Fprintf(os.Stderr,
			"[poser] pins: %d | max stretch: %.3f\n", stats.pinCount, stats.maxStretch)
	}
}

// debugMaxStretch is the stretch above which a pinned limb is reported.
const debugMaxStretch = 1.5

func debugCheckStretch(j Joint, stretch float64) {
	if stretch > debugMaxStretch {
		_, _ = fmt.Fprintf(os.Stderr, "[poser] warning: pin %s stretched %.2fx (threshold %.1f)\n",
			j, stretch, debugMaxStretch)
	}
}

// debugCheckPose warns on stderr about joints that have wound past a full turn.
func debugCheckPose(p *Pose) {
	for j, v := range p {
		if v > 360 || v < -360 {
			_, _ = fmt.Fprintf(os.Stderr, "[poser] warning: joint %s at %.1f exceeds one turn\n",
				Joint(j), v)
		}
	}
}
