// Package bot provides scripted players for the human side of the table, so
// matches can run unattended in the simulator and in live views.
package bot

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/opponent"
	"github.com/lox/carrombot/internal/physics"
	"github.com/lox/carrombot/internal/vec"
)

// ErrUnknownStrategy is returned by New for an unregistered strategy name.
var ErrUnknownStrategy = errors.New("unknown strategy")

var strategies = map[string]func(rng *rand.Rand, logger *log.Logger) game.Agent{
	"sharp":  func(rng *rand.Rand, logger *log.Logger) game.Agent { return NewSharpBot(rng, logger) },
	"steady": func(rng *rand.Rand, logger *log.Logger) game.Agent { return NewSteadyBot(rng, logger) },
	"wild":   func(rng *rand.Rand, logger *log.Logger) game.Agent { return NewWildBot(rng, logger) },
}

// Names lists the registered strategies in sorted order.
func Names() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Valid reports whether name is a registered strategy.
func Valid(name string) bool {
	_, ok := strategies[name]
	return ok
}

// New creates the named strategy.
func New(name string, rng *rand.Rand, logger *log.Logger) (game.Agent, error) {
	ctor, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownStrategy, name, strings.Join(Names(), ", "))
	}
	return ctor(rng, logger), nil
}

// ThinkingContext accumulates the reasons behind a shot for the debug log
type ThinkingContext struct {
	thoughts []string
}

// AddThought records one step of reasoning
func (tc *ThinkingContext) AddThought(format string, args ...any) {
	tc.thoughts = append(tc.thoughts, fmt.Sprintf(format, args...))
}

// GetThoughts returns the complete stream of thoughts
func (tc *ThinkingContext) GetThoughts() string {
	if len(tc.thoughts) == 0 {
		return "No clear reasoning available"
	}
	return strings.Join(tc.thoughts, ". ")
}

// planner scores shots from the human baseline by running the opponent's
// scorer on a board mirrored so that the human line is the launch line.
type planner struct {
	rng     *rand.Rand
	logger  *log.Logger
	profile opponent.Profile
}

func (p *planner) scorer(g board.Geometry) *opponent.Scorer {
	mirrored := g
	mirrored.OpponentBaseline = g.HumanBaseline
	return opponent.NewScorer(mirrored, opponent.DefaultSettings(), p.rng)
}

// plan picks a scored shot, or a straight shot at the nearest piece when
// nothing is reachable.
func (p *planner) plan(v game.View, thinking *ThinkingContext) game.Shot {
	s := p.scorer(v.Geometry)
	candidates := s.Generate(toBodies(v.Pieces), v.Pockets, p.profile)
	thinking.AddThought("%d reachable shots", len(candidates))

	if shot, ok := s.Select(candidates, p.profile); ok {
		thinking.AddThought("going for the %s into pocket %.0f,%.0f", shot.Kind, shot.Pocket.X, shot.Pocket.Y)
		return game.Shot{
			LaunchX:   shot.LaunchX,
			Direction: shot.Direction,
			Force:     legalForce(shot.Impulse),
		}
	}

	from := vec.New(v.Geometry.Size/2, v.Geometry.HumanBaseline)
	target, ok := nearest(v.Pieces, from)
	if !ok {
		thinking.AddThought("board is empty, nudging forward")
		return game.Shot{LaunchX: from.X, Direction: vec.New(0, -1), Force: game.MinHumanForce}
	}
	thinking.AddThought("nothing reachable, hitting the nearest %s", target.Kind)
	return game.Shot{
		LaunchX:   from.X,
		Direction: target.Position.Sub(from).Normalize(),
		Force:     0.1,
	}
}

func toBodies(pieces []physics.Body) []opponent.Body {
	out := make([]opponent.Body, len(pieces))
	for i, b := range pieces {
		out[i] = opponent.Body{ID: int(b.ID), Kind: b.Kind, Position: b.Position, Velocity: b.Velocity}
	}
	return out
}

func nearest(pieces []physics.Body, from vec.Vec2) (physics.Body, bool) {
	var best physics.Body
	found := false
	for _, b := range pieces {
		if !b.Kind.Movable() {
			continue
		}
		if !found || b.Position.Distance(from) < best.Position.Distance(from) {
			best, found = b, true
		}
	}
	return best, found
}

func legalForce(f float64) float64 {
	return max(game.MinHumanForce, min(game.MaxHumanForce, f))
}
