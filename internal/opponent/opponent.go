// Package opponent implements the computer player: it derives a difficulty
// profile from past results, scores every reachable shot and plays the chosen
// one out as a staged sequence advanced one host tick at a time.
package opponent

import (
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/randutil"
	"github.com/lox/carrombot/internal/vec"
)

var (
	// ErrMissingStriker means the physics collaborator reported pieces but no striker.
	ErrMissingStriker = errors.New("no striker on the board")
	// ErrTurnInProgress is returned when a turn is started while one is still running.
	ErrTurnInProgress = errors.New("opponent turn already in progress")
)

// Body is what the opponent needs to know about a disc
type Body struct {
	ID       int
	Kind     board.Kind
	Position vec.Vec2
	Velocity vec.Vec2
}

// Physics is the narrow command surface the opponent drives the table through
type Physics interface {
	QueryBodies() []Body
	Pockets() []vec.Vec2
	SetKinematicPosition(id int, pos vec.Vec2) error
	ApplyImpulse(id int, force vec.Vec2) error
}

// Config wires an Opponent. Zero fields get defaults.
type Config struct {
	Geometry board.Geometry
	Settings Settings
	Stats    *Statistics
	Rand     *rand.Rand
	Logger   *log.Logger
	Events   events.Sink
}

// Opponent plays the computer side
type Opponent struct {
	geometry  board.Geometry
	settings  Settings
	stats     *Statistics
	scorer    *Scorer
	rng       *rand.Rand
	logger    *log.Logger
	events    events.Sink
	profile   Profile
	seq       sequence
	fallbacks int
}

// New creates an opponent.
func New(cfg Config) *Opponent {
	if cfg.Geometry == (board.Geometry{}) {
		cfg.Geometry = board.DefaultGeometry()
	}
	if cfg.Settings == (Settings{}) {
		cfg.Settings = DefaultSettings()
	}
	if cfg.Stats == nil {
		cfg.Stats = &Statistics{}
	}
	if cfg.Rand == nil {
		cfg.Rand = randutil.New(time.Now().UnixNano())
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Events == nil {
		cfg.Events = events.Discard
	}

	return &Opponent{
		geometry: cfg.Geometry,
		settings: cfg.Settings,
		stats:    cfg.Stats,
		scorer:   NewScorer(cfg.Geometry, cfg.Settings, cfg.Rand),
		rng:      cfg.Rand,
		logger:   cfg.Logger.WithPrefix("opponent"),
		events:   cfg.Events,
		profile:  DeriveProfile(*cfg.Stats),
	}
}

// Thinking returns a copy of the current thinking state.
func (o *Opponent) Thinking() ThinkingState {
	return o.seq.thinking
}

// Profile returns the profile of the current or most recent turn.
func (o *Opponent) Profile() Profile {
	return o.profile
}

// Shot returns the candidate chosen this turn, once deliberation is over.
func (o *Opponent) Shot() (ShotCandidate, bool) {
	return o.seq.shot, o.seq.decided
}

// Stats returns a copy of the match tally.
func (o *Opponent) Stats() Statistics {
	return *o.stats
}

// Fallbacks counts the turns that ended in an undirected strike.
func (o *Opponent) Fallbacks() int {
	return o.fallbacks
}

// RecordResult feeds one completed match into the tally used by the next
// profile.
func (o *Opponent) RecordResult(humanWon bool) {
	o.stats.RecordResult(humanWon)
	rate := o.stats.WinRate()
	o.logger.Info("Match recorded", "humanWon", humanWon, "games", o.stats.GamesPlayed, "humanWinRate", rate)
	o.events.Emit(events.Info, fmt.Sprintf("Match over. Human win rate: %.1f%%", rate*100))
}

// BeginTurn starts the opponent's turn. It returns false without touching
// anything when no movable pieces remain.
func (o *Opponent) BeginTurn(p Physics) (bool, error) {
	if o.seq.active() {
		return false, ErrTurnInProgress
	}

	pieces, striker, found := split(p.QueryBodies())
	if len(pieces) == 0 {
		o.logger.Debug("No pieces left, skipping turn")
		return false, nil
	}
	if !found {
		return false, ErrMissingStriker
	}

	o.profile = DeriveProfile(*o.stats)

	n := max(o.settings.ScanTargetsMin+o.rng.IntN(o.settings.ScanTargetsExtra+1), 1)
	scan := make([]vec.Vec2, n)
	for i := range scan {
		scan[i] = pieces[o.rng.IntN(len(pieces))].Position
	}

	center := o.geometry.Center()
	o.seq = sequence{
		strikerID: striker.ID,
		scan:      scan,
		gaze:      newGlide(center, scan[0], o.settings.ScanSteps),
		thinking:  ThinkingState{Gaze: center, InProgress: true},
	}
	o.seq.enter(Observing)

	o.logger.Info("Turn started",
		"profile", o.profile.Label(),
		"humanWinRate", o.stats.WinRate(),
		"pieces", len(pieces),
		"scanTargets", n)
	o.events.Emit(events.AI, fmt.Sprintf("Observing the board (%s, confidence %.0f%%)",
		o.profile.Label(), o.profile.Confidence*100))
	return true, nil
}

// Tick advances the turn by one host tick. It reports true on the tick the
// striker is hit, after which the turn is over.
func (o *Opponent) Tick(p Physics) (bool, error) {
	q := &o.seq
	if !q.active() {
		return false, nil
	}
	if q.wait > 0 {
		q.wait--
		return false, nil
	}

	switch q.stage {
	case Observing:
		o.observe()
		return false, nil
	case Deliberating:
		return o.deliberate(p)
	case Positioning:
		return false, o.position(p)
	case Charging:
		o.charge()
		return false, nil
	case Striking:
		return o.strike(p)
	case Idle, Done:
		return false, nil
	default:
		return false, fmt.Errorf("unknown stage %d", q.stage)
	}
}

func (o *Opponent) observe() {
	q := &o.seq
	pos, last := q.gaze.next()
	q.thinking.Gaze = pos
	if !last {
		q.delay(o.settings.AimStepTicks)
		return
	}

	q.scanIndex++
	if q.scanIndex < len(q.scan) {
		q.gaze = newGlide(pos, q.scan[q.scanIndex], o.settings.ScanSteps)
	} else {
		q.enter(Deliberating)
		o.events.Emit(events.AI, "Weighing the options")
	}
	q.delay(o.settings.AimStepTicks + o.settings.ScanPauseTicks)
}

func (o *Opponent) deliberate(p Physics) (bool, error) {
	q := &o.seq
	if !q.decided {
		pieces, striker, found := split(p.QueryBodies())
		if !found {
			return false, ErrMissingStriker
		}
		if len(pieces) == 0 {
			o.logger.Warn("Pieces vanished during the turn")
			o.finish()
			return false, nil
		}

		candidates := o.scorer.Generate(pieces, p.Pockets(), o.profile)
		shot, ok := o.scorer.Select(candidates, o.profile)
		if !ok {
			return o.fallback(p, pieces, striker)
		}

		q.decided, q.shot = true, shot
		q.gaze = newGlide(q.thinking.Gaze, shot.Target, o.settings.AimSteps)

		o.logger.Info("Shot selected",
			"piece", shot.Kind.String(),
			"pocket", shot.Pocket,
			"launchX", shot.LaunchX,
			"impulse", shot.Impulse,
			"score", shot.Score,
			"candidates", len(candidates))
		o.events.Emit(events.AI, fmt.Sprintf("Going for the %s (%d options considered)",
			shot.Kind.String(), len(candidates)))
	}

	pos, last := q.gaze.next()
	q.thinking.Gaze = pos
	if !last {
		q.delay(o.settings.AimStepTicks)
		return false, nil
	}

	q.enter(Positioning)
	q.delay(o.settings.AimStepTicks)
	return false, nil
}

func (o *Opponent) position(p Physics) error {
	q := &o.seq
	baseline := o.geometry.OpponentBaseline

	if q.move.steps == 0 {
		striker, ok := find(p.QueryBodies(), q.strikerID)
		if !ok {
			return ErrMissingStriker
		}
		from := vec.New(striker.Position.X, baseline)
		q.move = newGlide(from, vec.New(q.shot.LaunchX, baseline), o.settings.MoveSteps)
	}

	pos, last := q.move.next()
	if err := p.SetKinematicPosition(q.strikerID, pos); err != nil {
		return fmt.Errorf("position striker: %w", err)
	}
	if !last {
		q.delay(o.settings.MoveStepTicks)
		return nil
	}

	q.enter(Charging)
	q.delay(o.settings.MoveStepTicks + o.settings.SettleTicks)
	return nil
}

func (o *Opponent) charge() {
	q := &o.seq
	steps := max(o.settings.PowerSteps, 1)
	full := q.shot.Impulse * o.settings.PowerDisplayScale

	q.thinking.Power = full * float64(q.power) / float64(steps)
	q.power++
	if q.power <= steps {
		q.delay(o.settings.PowerStepTicks)
		return
	}

	q.enter(Striking)
	q.delay(o.settings.PowerStepTicks + o.settings.PreStrikeTicks)
}

func (o *Opponent) strike(p Physics) (bool, error) {
	q := &o.seq
	force := q.shot.Direction.Scale(q.shot.Impulse)
	if err := p.ApplyImpulse(q.strikerID, force); err != nil {
		return false, fmt.Errorf("strike: %w", err)
	}

	o.finish()
	o.logger.Info("Strike", "force", force)
	o.events.Emit(events.Success, "Strike!")
	return true, nil
}

// fallback hits the striker straight at a random piece with a fixed impulse.
func (o *Opponent) fallback(p Physics, pieces []Body, striker Body) (bool, error) {
	target := pieces[o.rng.IntN(len(pieces))]
	dir := target.Position.Sub(striker.Position).Normalize()
	force := dir.Scale(o.settings.FallbackImpulse)

	if err := p.ApplyImpulse(striker.ID, force); err != nil {
		return false, fmt.Errorf("fallback strike: %w", err)
	}

	o.fallbacks++
	o.finish()
	o.logger.Warn("No feasible shot, striking at random", "piece", target.Kind.String())
	o.events.Emit(events.Warning, "No clean shot, taking a swing")
	return true, nil
}

func (o *Opponent) finish() {
	o.seq.thinking.InProgress = false
	o.seq.wait = 0
	o.seq.enter(Done)
}

func split(bodies []Body) (pieces []Body, striker Body, found bool) {
	for _, b := range bodies {
		switch {
		case b.Kind == board.Striker:
			striker, found = b, true
		case b.Kind.Movable():
			pieces = append(pieces, b)
		}
	}
	return pieces, striker, found
}

func find(bodies []Body, id int) (Body, bool) {
	for _, b := range bodies {
		if b.ID == id {
			return b, true
		}
	}
	return Body{}, false
}
