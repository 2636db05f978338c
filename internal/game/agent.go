package game

import (
	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/physics"
	"github.com/lox/carrombot/internal/vec"
)

// Legal force range for a human shot.
const (
	MinHumanForce = 0.01
	MaxHumanForce = 0.15
)

// View is what the human side sees when it is asked for a shot
type View struct {
	Geometry      board.Geometry
	Striker       physics.Body
	Pieces        []physics.Body
	Pockets       []vec.Vec2
	HumanScore    int
	OpponentScore int
}

// Shot is a human strike: where on the baseline to place the striker, which
// way to flick it and how hard
type Shot struct {
	LaunchX   float64
	Direction vec.Vec2
	Force     float64
}

// Agent plays the human side. PlanShot may return false to keep the session
// waiting, for example while a person is still lining up.
type Agent interface {
	Name() string
	PlanShot(view View) (Shot, bool)
}
