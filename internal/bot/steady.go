package bot

import (
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/opponent"
)

// SteadyBot picks among the few best shots with moderate aim
type SteadyBot struct {
	planner
}

// NewSteadyBot creates a new SteadyBot instance
func NewSteadyBot(rng *rand.Rand, logger *log.Logger) *SteadyBot {
	return &SteadyBot{planner{
		rng:     rng,
		logger:  logger.WithPrefix("steady"),
		profile: opponent.DeriveProfile(opponent.Statistics{}),
	}}
}

func (b *SteadyBot) Name() string { return "steady" }

func (b *SteadyBot) PlanShot(v game.View) (game.Shot, bool) {
	thinking := &ThinkingContext{}
	shot := b.plan(v, thinking)
	b.logger.Debug("Shot planned", "launchX", shot.LaunchX, "force", shot.Force, "reasoning", thinking.GetThoughts())
	return shot, true
}
