// Package board describes the carrom board: piece kinds, point values and the
// fixed geometry both sides play on.
package board

import (
	"fmt"
	"math"

	"github.com/lox/carrombot/internal/vec"
)

// Kind identifies what a disc on the board is
type Kind int

const (
	Light Kind = iota
	Dark
	Queen
	Striker
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case Light:
		return "Light"
	case Dark:
		return "Dark"
	case Queen:
		return "Queen"
	case Striker:
		return "Striker"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind from its name.
func (k *Kind) UnmarshalText(text []byte) error {
	for _, v := range []Kind{Light, Dark, Queen, Striker} {
		if v.String() == string(text) {
			*k = v
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q", text)
}

// Movable reports whether the kind can be pocketed for points.
func (k Kind) Movable() bool {
	switch k {
	case Light, Dark, Queen:
		return true
	case Striker:
		return false
	default:
		return false
	}
}

// Points returns the score awarded for pocketing a piece of this kind.
func (k Kind) Points() int {
	switch k {
	case Light:
		return 20
	case Dark:
		return 10
	case Queen:
		return 50
	case Striker:
		return 0
	default:
		return 0
	}
}

// FoulPenalty is applied when the striker drops into a pocket.
const FoulPenalty = -10

// Geometry holds the fixed dimensions of the board
type Geometry struct {
	Size             float64 `json:"size"` // square board edge length
	PocketRadius     float64 `json:"pocket_radius"`
	PieceRadius      float64 `json:"piece_radius"`
	StrikerRadius    float64 `json:"striker_radius"`
	HumanBaseline    float64 `json:"human_baseline"`    // y coordinate of the human striker line
	OpponentBaseline float64 `json:"opponent_baseline"` // y coordinate of the opponent striker line
	LaunchLimit      float64 `json:"launch_limit"`      // distance from either edge the striker may not cross
	WallInset        float64 `json:"wall_inset"`        // distance from the board edge to the cushion face
	PocketInset      float64 `json:"pocket_inset"`      // distance from each edge to a corner pocket centre
}

// DefaultGeometry returns the standard 800x800 board.
func DefaultGeometry() Geometry {
	return Geometry{
		Size:             800,
		PocketRadius:     38,
		PieceRadius:      16,
		StrikerRadius:    24,
		HumanBaseline:    660,
		OpponentBaseline: 140,
		LaunchLimit:      120,
		WallInset:        10,
		PocketInset:      40,
	}
}

// Center returns the middle of the board.
func (g Geometry) Center() vec.Vec2 {
	return vec.New(g.Size/2, g.Size/2)
}

// Pockets returns the four corner pocket centres.
func (g Geometry) Pockets() []vec.Vec2 {
	lo, hi := g.PocketInset, g.Size-g.PocketInset
	return []vec.Vec2{
		vec.New(lo, lo),
		vec.New(hi, lo),
		vec.New(lo, hi),
		vec.New(hi, hi),
	}
}

// ClampLaunchX constrains x to the legal striker band [LaunchLimit, Size-LaunchLimit].
func (g Geometry) ClampLaunchX(x float64) float64 {
	return math.Max(g.LaunchLimit, math.Min(g.Size-g.LaunchLimit, x))
}

// OpponentFacing returns -1 when the opponent plays from the top edge and +1
// when it plays from the bottom, i.e. the sign of the y axis pointing from the
// centre of the board toward the opponent baseline.
func (g Geometry) OpponentFacing() float64 {
	if g.OpponentBaseline < g.Size/2 {
		return -1
	}
	return 1
}

// Baseline returns the baseline y coordinate for the given side.
func (g Geometry) Baseline(opponent bool) float64 {
	if opponent {
		return g.OpponentBaseline
	}
	return g.HumanBaseline
}

// Placement is one piece of the opening rack.
type Placement struct {
	Kind     Kind
	Position vec.Vec2
}

// Rack returns the opening layout: the queen in the centre, an inner ring of
// six alternating pieces and an outer ring of twelve.
func (g Geometry) Rack() []Placement {
	c := g.Center()
	r := g.PieceRadius

	rack := make([]Placement, 0, 19)
	rack = append(rack, Placement{Kind: Queen, Position: c})

	for i := 0; i < 6; i++ {
		kind := Dark
		if i%2 == 0 {
			kind = Light
		}
		offset := vec.FromAngle(float64(i*60) * math.Pi / 180).Scale(r * 2.1)
		rack = append(rack, Placement{Kind: kind, Position: c.Add(offset)})
	}

	for i := 0; i < 12; i++ {
		kind := Dark
		if (i+1)%2 == 0 {
			kind = Light
		}
		offset := vec.FromAngle(float64(i*30) * math.Pi / 180).Scale(r * 4.2)
		rack = append(rack, Placement{Kind: kind, Position: c.Add(offset)})
	}

	return rack
}
