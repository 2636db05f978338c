package game

import (
	"time"

	"github.com/lox/carrombot/internal/opponent"
	"github.com/lox/carrombot/internal/physics"
)

// Match is the state of the rack in play
type Match struct {
	ID            string
	Started       time.Time
	HumanScore    int
	OpponentScore int
	Turn          Side
	Phase         Phase
	Turns         int
	Ticks         int
	Fouls         int
	Pocketed      int
	StrikerID     physics.BodyID

	fallbacksAtStart int
}

// Score returns the score of one side.
func (m *Match) Score(side Side) int {
	if side == Human {
		return m.HumanScore
	}
	return m.OpponentScore
}

func (m *Match) addScore(side Side, points int) int {
	p := &m.OpponentScore
	if side == Human {
		p = &m.HumanScore
	}
	*p = max(0, *p+points)
	return *p
}

// Completion reasons.
const (
	ReasonCleared   = "cleared"
	ReasonTurnLimit = "turn limit"
)

// Result summarises a completed match
type Result struct {
	ID            string        `json:"id"`
	HumanWon      bool          `json:"human_won"`
	HumanScore    int           `json:"human_score"`
	OpponentScore int           `json:"opponent_score"`
	Tier          opponent.Tier `json:"tier"`
	Turns         int           `json:"turns"`
	Ticks         int           `json:"ticks"`
	Fouls         int           `json:"fouls"`
	Fallbacks     int           `json:"fallbacks"`
	Reason        string        `json:"reason"`
}
