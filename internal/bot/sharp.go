package bot

import (
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/opponent"
)

// SharpBot always takes the best shot with tight aim
type SharpBot struct {
	planner
}

// NewSharpBot creates a new SharpBot instance
func NewSharpBot(rng *rand.Rand, logger *log.Logger) *SharpBot {
	return &SharpBot{planner{
		rng:     rng,
		logger:  logger.WithPrefix("sharp"),
		profile: opponent.DeriveProfile(opponent.Statistics{GamesPlayed: 1, HumanWins: 1}),
	}}
}

func (b *SharpBot) Name() string { return "sharp" }

func (b *SharpBot) PlanShot(v game.View) (game.Shot, bool) {
	thinking := &ThinkingContext{}
	shot := b.plan(v, thinking)
	b.logger.Debug("Shot planned", "launchX", shot.LaunchX, "force", shot.Force, "reasoning", thinking.GetThoughts())
	return shot, true
}
