package opponent

import (
	rand "math/rand/v2"
	"sort"

	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/vec"
)

// ShotCandidate is one fully computed (piece, pocket) shot
type ShotCandidate struct {
	PieceID          int        `json:"piece_id"`
	Kind             board.Kind `json:"kind"`
	Target           vec.Vec2   `json:"target"`
	Pocket           vec.Vec2   `json:"pocket"`
	Contact          vec.Vec2   `json:"contact"`
	LaunchX          float64    `json:"launch_x"`
	Direction        vec.Vec2   `json:"direction"`
	Impulse          float64    `json:"impulse"`
	PocketDistance   float64    `json:"pocket_distance"`
	ApproachDistance float64    `json:"approach_distance"`
	Score            float64    `json:"score"`
}

// Scorer enumerates and ranks shots for the opponent
type Scorer struct {
	geometry board.Geometry
	settings Settings
	rng      *rand.Rand
}

// NewScorer creates a scorer drawing its jitter from rng.
func NewScorer(geometry board.Geometry, settings Settings, rng *rand.Rand) *Scorer {
	return &Scorer{geometry: geometry, settings: settings, rng: rng}
}

// Generate builds one candidate for every reachable (piece, pocket) pair.
// Pairs whose contact point sits on the side of the piece facing away from
// the opponent baseline are skipped. Non-movable bodies are ignored.
func (s *Scorer) Generate(pieces []Body, pockets []vec.Vec2, profile Profile) []ShotCandidate {
	g := s.geometry
	facing := g.OpponentFacing()
	reach := g.PieceRadius + g.StrikerRadius - s.settings.ContactOverlap

	var out []ShotCandidate
	for _, piece := range pieces {
		if !piece.Kind.Movable() {
			continue
		}
		for _, pocket := range pockets {
			toPocket := pocket.Sub(piece.Position)
			dir := toPocket.Normalize()
			contact := piece.Position.Sub(dir.Scale(reach))

			if (contact.Y-piece.Position.Y)*facing < 0 {
				continue
			}

			launchX := g.ClampLaunchX(contact.X)
			approach := contact.Sub(vec.New(launchX, g.OpponentBaseline))
			approachDist := approach.Magnitude()
			pocketDist := toPocket.Magnitude()

			score := s.settings.ScoreBase - pocketDist - approachDist + s.bonus(piece.Kind, profile)
			score += s.rng.Float64() * s.settings.ScoreJitter

			angle := approach.Angle() + (s.rng.Float64()-0.5)*profile.AimDeviation
			impulse := (s.settings.BaseImpulse + approachDist*s.settings.DistanceScale) *
				(1 + (s.rng.Float64()-0.5)*profile.StrengthVariance)

			out = append(out, ShotCandidate{
				PieceID:          piece.ID,
				Kind:             piece.Kind,
				Target:           piece.Position,
				Pocket:           pocket,
				Contact:          contact,
				LaunchX:          launchX,
				Direction:        vec.FromAngle(angle),
				Impulse:          impulse,
				PocketDistance:   pocketDist,
				ApproachDistance: approachDist,
				Score:            score,
			})
		}
	}
	return out
}

func (s *Scorer) bonus(kind board.Kind, profile Profile) float64 {
	switch kind {
	case board.Queen:
		return profile.SpecialTargetBonus
	case board.Light:
		return s.settings.LightBonus
	case board.Dark, board.Striker:
		return 0
	default:
		return 0
	}
}

// Select ranks candidates by score and picks one. Reinforced profiles always
// take the best; others choose uniformly among the top PoolSize. The input
// slice is left untouched. It returns false when there is nothing to choose.
func (s *Scorer) Select(candidates []ShotCandidate, profile Profile) (ShotCandidate, bool) {
	if len(candidates) == 0 {
		return ShotCandidate{}, false
	}

	ranked := make([]ShotCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	pool := s.poolSize(profile)
	if pool > len(ranked) {
		pool = len(ranked)
	}
	if pool <= 1 {
		return ranked[0], true
	}
	return ranked[s.rng.IntN(pool)], true
}

func (s *Scorer) poolSize(profile Profile) int {
	if profile.Tier == Reinforced {
		return 1
	}
	return max(s.settings.PoolSize, 1)
}
