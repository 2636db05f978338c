package opponent

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/randutil"
	"github.com/lox/carrombot/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strikerID = 1

// fakeTable records every command the opponent issues.
type fakeTable struct {
	bodies   []Body
	pockets  []vec.Vec2
	moves    []vec.Vec2
	impulses []vec.Vec2
	failWith error
}

func newFakeTable(pieces ...Body) *fakeTable {
	bodies := []Body{{ID: strikerID, Kind: board.Striker, Position: vec.New(400, 140)}}
	return &fakeTable{
		bodies:  append(bodies, pieces...),
		pockets: board.DefaultGeometry().Pockets(),
	}
}

func (f *fakeTable) QueryBodies() []Body {
	out := make([]Body, len(f.bodies))
	copy(out, f.bodies)
	return out
}

func (f *fakeTable) Pockets() []vec.Vec2 { return f.pockets }

func (f *fakeTable) SetKinematicPosition(id int, pos vec.Vec2) error {
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.bodies {
		if f.bodies[i].ID == id {
			f.bodies[i].Position = pos
		}
	}
	f.moves = append(f.moves, pos)
	return nil
}

func (f *fakeTable) ApplyImpulse(id int, force vec.Vec2) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.impulses = append(f.impulses, force)
	return nil
}

func newTestOpponent(stats *Statistics, seed int64) *Opponent {
	return New(Config{
		Stats:  stats,
		Rand:   randutil.New(seed),
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})
}

type turnTrace struct {
	ticks    int
	stages   []Stage
	maxPower float64
}

// playTurn ticks until the opponent strikes, recording each distinct stage.
func playTurn(t *testing.T, o *Opponent, table Physics) turnTrace {
	t.Helper()
	trace := turnTrace{stages: []Stage{o.Thinking().Stage}}
	for trace.ticks = 1; trace.ticks < 20000; trace.ticks++ {
		struck, err := o.Tick(table)
		require.NoError(t, err)

		state := o.Thinking()
		if state.Stage != trace.stages[len(trace.stages)-1] {
			trace.stages = append(trace.stages, state.Stage)
		}
		trace.maxPower = max(trace.maxPower, state.Power)
		if struck {
			return trace
		}
	}
	t.Fatal("opponent never struck")
	return trace
}

func TestEmptyBoardIsNoOp(t *testing.T) {
	o := newTestOpponent(nil, 1)
	table := newFakeTable()

	started, err := o.BeginTurn(table)
	require.NoError(t, err)
	assert.False(t, started)
	assert.False(t, o.Thinking().InProgress)
	assert.Equal(t, Idle, o.Thinking().Stage)

	struck, err := o.Tick(table)
	require.NoError(t, err)
	assert.False(t, struck)
	assert.Empty(t, table.moves)
	assert.Empty(t, table.impulses)
}

func TestMissingStrikerIsAnError(t *testing.T) {
	o := newTestOpponent(nil, 1)
	table := &fakeTable{
		bodies:  []Body{{ID: 5, Kind: board.Light, Position: vec.New(400, 400)}},
		pockets: board.DefaultGeometry().Pockets(),
	}

	started, err := o.BeginTurn(table)
	assert.ErrorIs(t, err, ErrMissingStriker)
	assert.False(t, started)
	assert.False(t, o.Thinking().InProgress)
}

func TestBeginTurnIsNotReentrant(t *testing.T) {
	o := newTestOpponent(nil, 1)
	table := newFakeTable(Body{ID: 2, Kind: board.Dark, Position: vec.New(300, 400)})

	started, err := o.BeginTurn(table)
	require.NoError(t, err)
	require.True(t, started)

	_, err = o.BeginTurn(table)
	assert.ErrorIs(t, err, ErrTurnInProgress)
}

func TestBeginTurnScansTwoOrThreeTargets(t *testing.T) {
	seen := map[int]bool{}
	for seed := int64(0); seed < 40; seed++ {
		o := newTestOpponent(nil, seed)
		table := newFakeTable(Body{ID: 2, Kind: board.Dark, Position: vec.New(300, 400)})
		_, err := o.BeginTurn(table)
		require.NoError(t, err)

		n := len(o.seq.scan)
		assert.GreaterOrEqual(t, n, 2)
		assert.LessOrEqual(t, n, 3)
		seen[n] = true

		state := o.Thinking()
		assert.True(t, state.InProgress)
		assert.Equal(t, board.DefaultGeometry().Center(), state.Gaze)
		assert.Zero(t, state.Power)
	}
	assert.Len(t, seen, 2)
}

func TestFullTurnRunsStagesInOrder(t *testing.T) {
	stats := &Statistics{GamesPlayed: 3, HumanWins: 3}
	o := newTestOpponent(stats, 42)
	piece := vec.New(300, 400)
	table := newFakeTable(Body{ID: 2, Kind: board.Dark, Position: piece})

	started, err := o.BeginTurn(table)
	require.NoError(t, err)
	require.True(t, started)
	assert.Equal(t, Reinforced, o.Profile().Tier)

	trace := playTurn(t, o, table)
	assert.Equal(t, []Stage{Observing, Deliberating, Positioning, Charging, Striking, Done}, trace.stages)

	shot, ok := o.Shot()
	require.True(t, ok)
	assert.Equal(t, vec.New(40, 760), shot.Pocket)

	// the striker glides along the baseline in MoveSteps+1 kinematic moves
	settings := DefaultSettings()
	require.Len(t, table.moves, settings.MoveSteps+1)
	assert.InDelta(t, 400, table.moves[0].X, 1e-9)
	assert.InDelta(t, shot.LaunchX, table.moves[len(table.moves)-1].X, 1e-9)
	for _, m := range table.moves {
		assert.Equal(t, 140.0, m.Y)
	}

	require.Len(t, table.impulses, 1)
	assert.InDelta(t, shot.Impulse, table.impulses[0].Magnitude(), 1e-9)
	assert.InDelta(t, 1.0, table.impulses[0].Normalize().Dot(shot.Direction), 1e-9)

	state := o.Thinking()
	assert.False(t, state.InProgress)
	assert.Equal(t, piece, state.Gaze)
	assert.InDelta(t, shot.Impulse*settings.PowerDisplayScale, trace.maxPower, 1e-9)

	// every delay is at least one tick, so the whole turn spans well over a hundred
	assert.Greater(t, trace.ticks, 100)

	struck, err := o.Tick(table)
	require.NoError(t, err)
	assert.False(t, struck)
	assert.Equal(t, 0, o.Fallbacks())
}

func TestFallbackWhenEveryPocketIsBehind(t *testing.T) {
	o := newTestOpponent(nil, 3)
	piece := vec.New(400, 770)
	table := newFakeTable(Body{ID: 2, Kind: board.Light, Position: piece})

	started, err := o.BeginTurn(table)
	require.NoError(t, err)
	require.True(t, started)

	trace := playTurn(t, o, table)
	assert.NotContains(t, trace.stages, Positioning)
	assert.NotContains(t, trace.stages, Charging)
	assert.Equal(t, Done, trace.stages[len(trace.stages)-1])

	assert.Empty(t, table.moves)
	require.Len(t, table.impulses, 1)
	assert.InDelta(t, 0.1, table.impulses[0].Magnitude(), 1e-9)
	assert.InDelta(t, 1.0, table.impulses[0].Normalize().Y, 1e-9, "fallback aims straight at the piece")

	_, decided := o.Shot()
	assert.False(t, decided)
	assert.Equal(t, 1, o.Fallbacks())
	assert.False(t, o.Thinking().InProgress)
}

func TestTurnCanRestartAfterStrike(t *testing.T) {
	o := newTestOpponent(nil, 5)
	table := newFakeTable(Body{ID: 2, Kind: board.Queen, Position: vec.New(500, 450)})

	_, err := o.BeginTurn(table)
	require.NoError(t, err)
	playTurn(t, o, table)

	started, err := o.BeginTurn(table)
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, Observing, o.Thinking().Stage)
	_, decided := o.Shot()
	assert.False(t, decided)
}

func TestRecordResultFeedsNextProfile(t *testing.T) {
	stats := &Statistics{}
	o := newTestOpponent(stats, 1)

	o.RecordResult(true)
	assert.Equal(t, Statistics{GamesPlayed: 1, HumanWins: 1}, *stats)
	assert.Equal(t, *stats, o.Stats())

	_, err := o.BeginTurn(newFakeTable(Body{ID: 2, Kind: board.Dark, Position: vec.New(300, 400)}))
	require.NoError(t, err)
	assert.Equal(t, Reinforced, o.Profile().Tier)
}

func TestPhysicsErrorsSurface(t *testing.T) {
	o := newTestOpponent(nil, 9)
	table := newFakeTable(Body{ID: 2, Kind: board.Dark, Position: vec.New(300, 400)})
	_, err := o.BeginTurn(table)
	require.NoError(t, err)

	boom := errors.New("body gone")
	table.failWith = boom

	var tickErr error
	for i := 0; i < 20000 && tickErr == nil; i++ {
		_, tickErr = o.Tick(table)
	}
	assert.ErrorIs(t, tickErr, boom)
}

func TestTurnEmitsEvents(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	sink := events.NewLog(logger)
	var got []events.Entry
	sink.Subscribe(events.SubscriberFunc(func(e events.Entry) { got = append(got, e) }))

	o := New(Config{Rand: randutil.New(4), Logger: logger, Events: sink})
	table := newFakeTable(Body{ID: 2, Kind: board.Dark, Position: vec.New(300, 400)})
	_, err := o.BeginTurn(table)
	require.NoError(t, err)
	playTurn(t, o, table)

	require.NotEmpty(t, got)
	assert.Equal(t, events.AI, got[0].Severity)
	assert.Equal(t, events.Success, got[len(got)-1].Severity)
}
