package opponent

import (
	"fmt"

	"github.com/lox/carrombot/internal/vec"
)

// Stage is where the opponent is in its turn
type Stage int

const (
	Idle Stage = iota
	Observing
	Deliberating
	Positioning
	Charging
	Striking
	Done
)

// String returns the string representation of the stage
func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Observing:
		return "observing"
	case Deliberating:
		return "deliberating"
	case Positioning:
		return "positioning"
	case Charging:
		return "charging"
	case Striking:
		return "striking"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage from its name.
func (s *Stage) UnmarshalText(text []byte) error {
	for _, v := range []Stage{Idle, Observing, Deliberating, Positioning, Charging, Striking, Done} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

// ThinkingState is the observable progress of a turn. Presentation reads
// copies of it; only the opponent writes it.
type ThinkingState struct {
	Gaze       vec.Vec2 `json:"gaze"`
	Power      float64  `json:"power"`
	InProgress bool     `json:"in_progress"`
	Stage      Stage    `json:"stage"`
}

// glide walks linearly from one point to another in a fixed number of steps,
// yielding steps+1 points including both ends.
type glide struct {
	from, to vec.Vec2
	steps    int
	i        int
}

func newGlide(from, to vec.Vec2, steps int) glide {
	return glide{from: from, to: to, steps: max(steps, 1)}
}

// next returns the next point and whether it was the last one.
func (g *glide) next() (vec.Vec2, bool) {
	p := g.from.Lerp(g.to, float64(g.i)/float64(g.steps))
	g.i++
	return p, g.i > g.steps
}

// sequence is the per-turn state machine. A delay of n ticks after an action
// means the next action runs n ticks later, so wait holds n-1.
type sequence struct {
	stage    Stage
	wait     int
	thinking ThinkingState

	strikerID int
	scan      []vec.Vec2
	scanIndex int
	gaze      glide

	decided bool
	shot    ShotCandidate
	move    glide
	power   int
}

func (q *sequence) active() bool {
	return q.thinking.InProgress
}

func (q *sequence) delay(ticks int) {
	q.wait = max(ticks, 1) - 1
}

func (q *sequence) enter(stage Stage) {
	q.stage = stage
	q.thinking.Stage = stage
}
