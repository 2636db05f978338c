// Package physics is a small rigid-disc simulation standing in for the
// rigid-body engine the carrom table runs on. It only knows about circles,
// four cushions and air friction.
package physics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/vec"
)

// ErrUnknownBody is returned when a command targets a body that is not in the world.
var ErrUnknownBody = errors.New("unknown body")

// BodyID identifies a body for the lifetime of the world
type BodyID int

// Params tunes the simulation
type Params struct {
	FrictionAir     float64 // fraction of velocity lost per step
	Restitution     float64 // disc-disc and disc-cushion bounce
	StepMillis      float64 // simulated milliseconds per step
	StrikerMass     float64
	PieceMass       float64
	RestSpeed       float64 // speeds below this snap to zero
	SettleThreshold float64 // speed above which a body counts as moving
}

// DefaultParams mirrors the tuning of the original table.
func DefaultParams() Params {
	return Params{
		FrictionAir:     0.02,
		Restitution:     0.6,
		StepMillis:      1000.0 / 60.0,
		StrikerMass:     4,
		PieceMass:       0.8,
		RestSpeed:       0.01,
		SettleThreshold: 0.15,
	}
}

// Body is a read-only snapshot of a disc
type Body struct {
	ID       BodyID     `json:"id"`
	Kind     board.Kind `json:"kind"`
	Position vec.Vec2   `json:"position"`
	Velocity vec.Vec2   `json:"velocity"`
	Radius   float64    `json:"radius"`
	Mass     float64    `json:"mass"`
}

type body struct {
	Body
	force vec.Vec2
}

// World owns every disc on the board
type World struct {
	geometry board.Geometry
	params   Params
	bodies   map[BodyID]*body
	nextID   BodyID
}

// NewWorld creates an empty board.
func NewWorld(geometry board.Geometry, params Params) *World {
	return &World{
		geometry: geometry,
		params:   params,
		bodies:   make(map[BodyID]*body),
		nextID:   1,
	}
}

// Geometry returns the board the world was built for.
func (w *World) Geometry() board.Geometry {
	return w.geometry
}

// Add places a disc of the given kind and returns its id. Radius and mass are
// derived from the kind.
func (w *World) Add(kind board.Kind, pos vec.Vec2) BodyID {
	id := w.nextID
	w.nextID++

	radius, mass := w.geometry.PieceRadius, w.params.PieceMass
	if kind == board.Striker {
		radius, mass = w.geometry.StrikerRadius, w.params.StrikerMass
	}

	w.bodies[id] = &body{Body: Body{
		ID:       id,
		Kind:     kind,
		Position: pos,
		Radius:   radius,
		Mass:     mass,
	}}
	return id
}

// Remove deletes a body. Removing an unknown id is a no-op.
func (w *World) Remove(id BodyID) {
	delete(w.bodies, id)
}

// Clear removes every body for which remove returns true.
func (w *World) Clear(remove func(Body) bool) {
	for id, b := range w.bodies {
		if remove(b.Body) {
			delete(w.bodies, id)
		}
	}
}

// Body returns a snapshot of a single body.
func (w *World) Body(id BodyID) (Body, bool) {
	b, ok := w.bodies[id]
	if !ok {
		return Body{}, false
	}
	return b.Body, true
}

// Bodies returns snapshots of all bodies ordered by id.
func (w *World) Bodies() []Body {
	out := make([]Body, 0, len(w.bodies))
	for _, b := range w.bodies {
		out = append(out, b.Body)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Pockets returns the pocket centres.
func (w *World) Pockets() []vec.Vec2 {
	return w.geometry.Pockets()
}

// SetPosition teleports a body and clears its velocity. This is a kinematic
// move: it never imparts momentum to anything it lands near.
func (w *World) SetPosition(id BodyID, pos vec.Vec2) error {
	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("set position of body %d: %w", id, ErrUnknownBody)
	}
	b.Position = pos
	b.Velocity = vec.Vec2{}
	b.force = vec.Vec2{}
	return nil
}

// SetVelocity overwrites the velocity of a body.
func (w *World) SetVelocity(id BodyID, v vec.Vec2) error {
	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("set velocity of body %d: %w", id, ErrUnknownBody)
	}
	b.Velocity = v
	return nil
}

// ApplyForce queues a force that is integrated on the next Step, so a force
// f changes velocity by f / mass * dt² with dt in milliseconds.
func (w *World) ApplyForce(id BodyID, force vec.Vec2) error {
	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("apply force to body %d: %w", id, ErrUnknownBody)
	}
	b.force = b.force.Add(force)
	return nil
}

// Moving reports whether any body is faster than the settle threshold.
func (w *World) Moving() bool {
	for _, b := range w.bodies {
		if b.Velocity.Magnitude() > w.params.SettleThreshold {
			return true
		}
	}
	return false
}

// Step advances the simulation by one tick.
func (w *World) Step() {
	dt2 := w.params.StepMillis * w.params.StepMillis
	ordered := w.ordered()

	for _, b := range ordered {
		if !b.force.IsZero() {
			b.Velocity = b.Velocity.Add(b.force.Scale(dt2 / b.Mass))
			b.force = vec.Vec2{}
		}
		b.Velocity = b.Velocity.Scale(1 - w.params.FrictionAir)
		if b.Velocity.Magnitude() < w.params.RestSpeed {
			b.Velocity = vec.Vec2{}
		}
		b.Position = b.Position.Add(b.Velocity)
	}

	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			w.collide(ordered[i], ordered[j])
		}
	}

	for _, b := range ordered {
		w.cushion(b)
	}
}

func (w *World) ordered() []*body {
	out := make([]*body, 0, len(w.bodies))
	for _, b := range w.bodies {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) collide(a, b *body) {
	delta := b.Position.Sub(a.Position)
	dist := delta.Magnitude()
	minDist := a.Radius + b.Radius
	if dist >= minDist || dist == 0 {
		return
	}

	n := delta.Scale(1 / dist)
	invA, invB := 1/a.Mass, 1/b.Mass
	invSum := invA + invB

	overlap := minDist - dist
	a.Position = a.Position.Sub(n.Scale(overlap * invA / invSum))
	b.Position = b.Position.Add(n.Scale(overlap * invB / invSum))

	closing := b.Velocity.Sub(a.Velocity).Dot(n)
	if closing >= 0 {
		return
	}
	j := -(1 + w.params.Restitution) * closing / invSum
	a.Velocity = a.Velocity.Sub(n.Scale(j * invA))
	b.Velocity = b.Velocity.Add(n.Scale(j * invB))
}

func (w *World) cushion(b *body) {
	lo := w.geometry.WallInset + b.Radius
	hi := w.geometry.Size - w.geometry.WallInset - b.Radius
	e := w.params.Restitution

	if b.Position.X < lo {
		b.Position.X = lo
		b.Velocity.X = -b.Velocity.X * e
	} else if b.Position.X > hi {
		b.Position.X = hi
		b.Velocity.X = -b.Velocity.X * e
	}
	if b.Position.Y < lo {
		b.Position.Y = lo
		b.Velocity.Y = -b.Velocity.Y * e
	} else if b.Position.Y > hi {
		b.Position.Y = hi
		b.Velocity.Y = -b.Velocity.Y * e
	}
}
