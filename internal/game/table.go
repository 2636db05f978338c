package game

import (
	"github.com/lox/carrombot/internal/opponent"
	"github.com/lox/carrombot/internal/physics"
	"github.com/lox/carrombot/internal/vec"
)

// Table adapts the physics world to the opponent's command surface
type Table struct {
	world *physics.World
}

// NewTable wraps a world.
func NewTable(world *physics.World) *Table {
	return &Table{world: world}
}

var _ opponent.Physics = (*Table)(nil)

func (t *Table) QueryBodies() []opponent.Body {
	bodies := t.world.Bodies()
	out := make([]opponent.Body, len(bodies))
	for i, b := range bodies {
		out[i] = opponent.Body{
			ID:       int(b.ID),
			Kind:     b.Kind,
			Position: b.Position,
			Velocity: b.Velocity,
		}
	}
	return out
}

func (t *Table) Pockets() []vec.Vec2 {
	return t.world.Pockets()
}

func (t *Table) SetKinematicPosition(id int, pos vec.Vec2) error {
	return t.world.SetPosition(physics.BodyID(id), pos)
}

func (t *Table) ApplyImpulse(id int, force vec.Vec2) error {
	return t.world.ApplyForce(physics.BodyID(id), force)
}
