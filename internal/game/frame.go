package game

import (
	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/opponent"
	"github.com/lox/carrombot/internal/physics"
)

// Frame is an immutable snapshot of a session for presentation
type Frame struct {
	MatchID       string                  `json:"match_id"`
	Tick          int                     `json:"tick"`
	Turn          Side                    `json:"turn"`
	Phase         Phase                   `json:"phase"`
	TurnNumber    int                     `json:"turn_number"`
	HumanScore    int                     `json:"human_score"`
	OpponentScore int                     `json:"opponent_score"`
	Bodies        []physics.Body          `json:"bodies"`
	Thinking      opponent.ThinkingState  `json:"thinking"`
	Profile       opponent.Profile        `json:"profile"`
	Stats         opponent.Statistics     `json:"stats"`
	Shot          *opponent.ShotCandidate `json:"shot,omitempty"`
	Geometry      board.Geometry          `json:"geometry"`
	HumanAgent    string                  `json:"human_agent"`
}

// Frame builds a snapshot of the current state.
func (s *Session) Frame() Frame {
	m := s.match
	f := Frame{
		MatchID:       m.ID,
		Tick:          s.ticks,
		Turn:          m.Turn,
		Phase:         m.Phase,
		TurnNumber:    m.Turns,
		HumanScore:    m.HumanScore,
		OpponentScore: m.OpponentScore,
		Bodies:        s.world.Bodies(),
		Thinking:      s.opponent.Thinking(),
		Profile:       s.opponent.Profile(),
		Stats:         s.opponent.Stats(),
		Geometry:      s.geometry,
		HumanAgent:    s.agent.Name(),
	}
	if shot, ok := s.opponent.Shot(); ok && f.Thinking.InProgress {
		f.Shot = &shot
	}
	return f
}
