package bot

import (
	"math"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/opponent"
	"github.com/lox/carrombot/internal/randutil"
	"github.com/lox/carrombot/internal/vec"
)

// wildBlastChance is how often the wild bot skips planning altogether.
const wildBlastChance = 0.3

// WildBot aims loosely and sometimes just blasts somewhere up the board
type WildBot struct {
	planner
}

// NewWildBot creates a new WildBot instance
func NewWildBot(rng *rand.Rand, logger *log.Logger) *WildBot {
	return &WildBot{planner{
		rng:     rng,
		logger:  logger.WithPrefix("wild"),
		profile: opponent.DeriveProfile(opponent.Statistics{GamesPlayed: 1, OpponentWins: 1}),
	}}
}

func (b *WildBot) Name() string { return "wild" }

func (b *WildBot) PlanShot(v game.View) (game.Shot, bool) {
	thinking := &ThinkingContext{}

	var shot game.Shot
	if b.rng.Float64() < wildBlastChance {
		g := v.Geometry
		angle := -math.Pi/2 + randutil.Between(b.rng, -math.Pi/3, math.Pi/3)
		shot = game.Shot{
			LaunchX:   randutil.Between(b.rng, g.LaunchLimit, g.Size-g.LaunchLimit),
			Direction: vec.FromAngle(angle),
			Force:     randutil.Between(b.rng, 0.05, game.MaxHumanForce),
		}
		thinking.AddThought("no time to think, blasting at %.0f degrees", angle*180/math.Pi)
	} else {
		shot = b.plan(v, thinking)
	}

	b.logger.Debug("Shot planned", "launchX", shot.LaunchX, "force", shot.Force, "reasoning", thinking.GetThoughts())
	return shot, true
}
