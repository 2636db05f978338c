package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/gameid"
	"github.com/lox/carrombot/internal/opponent"
	"github.com/lox/carrombot/internal/physics"
	"github.com/lox/carrombot/internal/randutil"
	"github.com/lox/carrombot/internal/vec"
)

const (
	DefaultMaxTurns        = 300
	DefaultHumanDelayTicks = 30
)

// ErrNoAgent is returned when a session is created without a human agent.
var ErrNoAgent = errors.New("session needs a human agent")

// Config wires a Session. Zero fields get defaults, except Agent which is required.
type Config struct {
	Geometry        board.Geometry
	Physics         physics.Params
	Opponent        opponent.Settings
	Tick            time.Duration
	MaxTurns        int
	HumanDelayTicks int // ticks the human side waits before shooting

	Agent  Agent
	Stats  *opponent.Statistics
	Rand   *rand.Rand
	Clock  quartz.Clock
	Logger *log.Logger
	Events events.Sink
}

// Session is the root controller: it owns the tally, the opponent, the world
// and the current match.
type Session struct {
	geometry   board.Geometry
	tick       time.Duration
	maxTurns   int
	humanDelay int

	agent    Agent
	world    *physics.World
	table    *Table
	opponent *opponent.Opponent
	stats    *opponent.Statistics
	clock    quartz.Clock
	ids      *gameid.Generator
	logger   *log.Logger
	events   events.Sink

	match     Match
	aimWait   int
	ticks     int
	completed int
	last      Result

	frameHooks []func(Frame)
	matchHooks []func(Result)
}

// NewSession creates a session with the first match racked and the human to play.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Agent == nil {
		return nil, ErrNoAgent
	}
	if cfg.Geometry == (board.Geometry{}) {
		cfg.Geometry = board.DefaultGeometry()
	}
	if cfg.Physics == (physics.Params{}) {
		cfg.Physics = physics.DefaultParams()
	}
	if cfg.Opponent == (opponent.Settings{}) {
		cfg.Opponent = opponent.DefaultSettings()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = opponent.DefaultTick
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.HumanDelayTicks <= 0 {
		cfg.HumanDelayTicks = DefaultHumanDelayTicks
	}
	if cfg.Stats == nil {
		cfg.Stats = &opponent.Statistics{}
	}
	if cfg.Rand == nil {
		cfg.Rand = randutil.New(randutil.Seed(0))
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Events == nil {
		cfg.Events = events.Discard
	}

	world := physics.NewWorld(cfg.Geometry, cfg.Physics)
	s := &Session{
		geometry:   cfg.Geometry,
		tick:       cfg.Tick,
		maxTurns:   cfg.MaxTurns,
		humanDelay: cfg.HumanDelayTicks,
		agent:      cfg.Agent,
		world:      world,
		table:      NewTable(world),
		stats:      cfg.Stats,
		clock:      cfg.Clock,
		ids:        gameid.NewGenerator(cfg.Rand, cfg.Clock),
		logger:     cfg.Logger.WithPrefix("session"),
		events:     cfg.Events,
	}
	s.opponent = opponent.New(opponent.Config{
		Geometry: cfg.Geometry,
		Settings: cfg.Opponent,
		Stats:    cfg.Stats,
		Rand:     cfg.Rand,
		Logger:   cfg.Logger,
		Events:   cfg.Events,
	})

	s.newMatch()
	return s, nil
}

// OnFrame registers a hook called with a fresh Frame after every tick.
func (s *Session) OnFrame(fn func(Frame)) {
	s.frameHooks = append(s.frameHooks, fn)
}

// OnMatchComplete registers a hook called once per completed match.
func (s *Session) OnMatchComplete(fn func(Result)) {
	s.matchHooks = append(s.matchHooks, fn)
}

// Match returns a copy of the match in play.
func (s *Session) Match() Match {
	return s.match
}

// Stats returns a copy of the tally.
func (s *Session) Stats() opponent.Statistics {
	return *s.stats
}

// Opponent exposes the computer player for read-only inspection.
func (s *Session) Opponent() *opponent.Opponent {
	return s.opponent
}

// Completed returns how many matches this session has finished.
func (s *Session) Completed() int {
	return s.completed
}

// Run steps the session once per clock tick until ctx is done or a step fails.
func (s *Session) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.tick, "session", "tick")
	defer ticker.Stop()

	s.logger.Info("Session running", "tick", s.tick, "agent", s.agent.Name())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Step(); err != nil {
				return err
			}
		}
	}
}

// PlayMatch steps as fast as possible until the current match completes.
func (s *Session) PlayMatch(ctx context.Context) (Result, error) {
	target := s.completed + 1
	for i := 0; s.completed < target; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		if err := s.Step(); err != nil {
			return Result{}, err
		}
	}
	return s.last, nil
}

// Step advances the session by exactly one tick.
func (s *Session) Step() error {
	s.ticks++
	m := &s.match
	m.Ticks++

	switch m.Phase {
	case Idle:
		if err := s.beginTurn(); err != nil {
			return err
		}
	case Aiming:
		if err := s.aim(); err != nil {
			return err
		}
	case Thinking:
		struck, err := s.opponent.Tick(s.table)
		if err != nil {
			return fmt.Errorf("opponent turn %d: %w", m.Turns, err)
		}
		if struck || !s.opponent.Thinking().InProgress {
			m.Phase = Moving
		}
	case Moving:
	}

	s.world.Step()
	if err := s.checkPockets(); err != nil {
		return err
	}
	if m.Phase == Moving && !s.world.Moving() {
		s.settle()
	}

	s.publish()
	return nil
}

func (s *Session) beginTurn() error {
	m := &s.match
	m.Turns++

	if m.Turn == Human {
		m.Phase = Aiming
		s.aimWait = s.humanDelay
		s.events.Emit(events.Info, fmt.Sprintf("Turn %d: %s to play", m.Turns, s.agent.Name()))
		return nil
	}

	m.Phase = Thinking
	started, err := s.opponent.BeginTurn(s.table)
	if err != nil {
		return fmt.Errorf("begin opponent turn: %w", err)
	}
	if !started {
		m.Phase = Moving
	}
	return nil
}

func (s *Session) aim() error {
	if s.aimWait > 1 {
		s.aimWait--
		return nil
	}

	shot, ok := s.agent.PlanShot(s.view())
	if !ok {
		return nil
	}

	force := min(shot.Force, MaxHumanForce)
	if force < MinHumanForce || shot.Direction.IsZero() {
		s.logger.Debug("Shot too weak, aiming again", "force", shot.Force)
		s.aimWait = s.humanDelay
		return nil
	}

	m := &s.match
	launch := vec.New(s.geometry.ClampLaunchX(shot.LaunchX), s.geometry.HumanBaseline)
	if err := s.world.SetPosition(m.StrikerID, launch); err != nil {
		return fmt.Errorf("place human striker: %w", err)
	}
	if err := s.world.ApplyForce(m.StrikerID, shot.Direction.Normalize().Scale(force)); err != nil {
		return fmt.Errorf("human strike: %w", err)
	}

	s.logger.Debug("Human shot", "agent", s.agent.Name(), "launchX", launch.X, "force", force)
	m.Phase = Moving
	return nil
}

func (s *Session) view() View {
	v := View{
		Geometry:      s.geometry,
		Pockets:       s.world.Pockets(),
		HumanScore:    s.match.HumanScore,
		OpponentScore: s.match.OpponentScore,
	}
	for _, b := range s.world.Bodies() {
		if b.Kind == board.Striker {
			v.Striker = b
		} else {
			v.Pieces = append(v.Pieces, b)
		}
	}
	return v
}

func (s *Session) checkPockets() error {
	m := &s.match
	for _, b := range s.world.Bodies() {
		for _, pocket := range s.world.Pockets() {
			if b.Position.Distance(pocket) >= s.geometry.PocketRadius {
				continue
			}
			if b.Kind == board.Striker {
				if err := s.foul(); err != nil {
					return err
				}
			} else {
				s.world.Remove(b.ID)
				m.Pocketed++
				score := m.addScore(m.Turn, b.Kind.Points())
				s.logger.Debug("Pocketed", "side", m.Turn.String(), "kind", b.Kind.String(), "score", score)
				s.events.Emit(events.Success, fmt.Sprintf("%s pocketed %s (+%d)", m.Turn, b.Kind, b.Kind.Points()))
			}
			break
		}
	}
	return nil
}

func (s *Session) foul() error {
	m := &s.match
	m.Fouls++
	m.addScore(m.Turn, board.FoulPenalty)

	home := vec.New(s.geometry.Size/2, s.geometry.Baseline(m.Turn == Opponent))
	if err := s.world.SetPosition(m.StrikerID, home); err != nil {
		return fmt.Errorf("reset striker after foul: %w", err)
	}

	s.logger.Debug("Foul", "side", m.Turn.String())
	s.events.Emit(events.Error, fmt.Sprintf("%s foul: striker pocketed (%d)", m.Turn, board.FoulPenalty))
	return nil
}

// settle ends a shot once everything has stopped.
func (s *Session) settle() {
	m := &s.match

	remaining := 0
	for _, b := range s.world.Bodies() {
		if b.Kind.Movable() {
			remaining++
		}
	}

	switch {
	case remaining == 0:
		s.complete(ReasonCleared)
	case m.Turns >= s.maxTurns:
		s.complete(ReasonTurnLimit)
	default:
		s.switchTurn()
	}
}

func (s *Session) switchTurn() {
	m := &s.match
	m.Turn = m.Turn.Other()
	m.Phase = Idle

	s.world.Remove(m.StrikerID)
	m.StrikerID = s.world.Add(board.Striker, vec.New(s.geometry.Size/2, s.geometry.Baseline(m.Turn == Opponent)))
}

// complete records the finished match exactly once and racks the next one.
func (s *Session) complete(reason string) {
	m := s.match
	humanWon := m.HumanScore > m.OpponentScore
	s.opponent.RecordResult(humanWon)

	result := Result{
		ID:            m.ID,
		HumanWon:      humanWon,
		HumanScore:    m.HumanScore,
		OpponentScore: m.OpponentScore,
		Tier:          s.opponent.Profile().Tier,
		Turns:         m.Turns,
		Ticks:         m.Ticks,
		Fouls:         m.Fouls,
		Fallbacks:     s.opponent.Fallbacks() - m.fallbacksAtStart,
		Reason:        reason,
	}
	s.completed++
	s.last = result

	s.logger.Info("Match complete",
		"id", m.ID,
		"reason", reason,
		"humanScore", m.HumanScore,
		"opponentScore", m.OpponentScore,
		"turns", m.Turns,
		"duration", s.clock.Since(m.Started))

	if reason == ReasonTurnLimit {
		s.events.Emit(events.Warning, fmt.Sprintf("Turn limit reached after %d turns", m.Turns))
	}
	winner := Opponent
	if humanWon {
		winner = Human
	}
	s.events.Emit(events.Info, fmt.Sprintf("%s wins %d to %d", winner, m.Score(winner), m.Score(winner.Other())))

	for _, fn := range s.matchHooks {
		fn(result)
	}
	s.newMatch()
}

func (s *Session) newMatch() {
	s.world.Clear(func(physics.Body) bool { return true })
	for _, p := range s.geometry.Rack() {
		s.world.Add(p.Kind, p.Position)
	}
	striker := s.world.Add(board.Striker, vec.New(s.geometry.Size/2, s.geometry.HumanBaseline))

	s.match = Match{
		ID:               s.ids.Next(),
		Started:          s.clock.Now(),
		Turn:             Human,
		Phase:            Idle,
		StrikerID:        striker,
		fallbacksAtStart: s.opponent.Fallbacks(),
	}
	s.aimWait = 0

	s.logger.Info("Match started", "id", s.match.ID, "profile", opponent.DeriveProfile(*s.stats).Label())
	s.events.Emit(events.Info, "New match, human to play")
}

func (s *Session) publish() {
	if len(s.frameHooks) == 0 {
		return
	}
	f := s.Frame()
	for _, fn := range s.frameHooks {
		fn(f)
	}
}
