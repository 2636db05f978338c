// Package simulator plays many headless matches between a scripted human
// strategy and the adaptive opponent and aggregates the outcome.
package simulator

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/carrombot/internal/bot"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/opponent"
	"github.com/lox/carrombot/internal/randutil"
	"github.com/lox/carrombot/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for running simulations
type Config struct {
	Sessions int    // independent sessions, each with its own opponent tally
	Matches  int    // consecutive matches per session
	Seed     int64  // base seed; every session derives its own stream
	Human    string // bot strategy playing the human side
	Workers  int    // sessions played concurrently, defaults to GOMAXPROCS
	Timeout  time.Duration

	// Table is the session template; Agent, Stats, Rand and Logger are
	// filled per session.
	Table game.Config

	Logger   *log.Logger
	Progress func(done, total int)
}

// Simulator runs carrom match simulations
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Sessions <= 0 {
		config.Sessions = 1
	}
	if config.Matches <= 0 {
		config.Matches = 1
	}
	if config.Human == "" {
		config.Human = "steady"
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	return &Simulator{config: config}
}

// Run plays every session and returns the merged statistics. Sessions are
// merged in index order so a fixed seed always yields identical results.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if !bot.Valid(s.config.Human) {
		return nil, fmt.Errorf("human strategy: %w %q", bot.ErrUnknownStrategy, s.config.Human)
	}

	perSession := make([]*statistics.Statistics, s.config.Sessions)
	total := s.config.Sessions * s.config.Matches
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i := range perSession {
		g.Go(func() error {
			stats, err := s.playSession(ctx, i, func() {
				n := done.Add(1)
				if s.config.Progress != nil {
					s.config.Progress(int(n), total)
				}
			})
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			perSession[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &statistics.Statistics{}
	for _, ss := range perSession {
		stats.Merge(ss)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return stats, nil
}

func (s *Simulator) playSession(ctx context.Context, index int, matchDone func()) (*statistics.Statistics, error) {
	seed := randutil.Derive(s.config.Seed, index)
	logger := s.config.Logger.With("session", index)

	agent, err := bot.New(s.config.Human, randutil.New(randutil.Derive(seed, 1)), logger)
	if err != nil {
		return nil, err
	}

	cfg := s.config.Table
	cfg.Agent = agent
	cfg.Stats = &opponent.Statistics{}
	cfg.Rand = randutil.New(seed)
	cfg.Logger = logger
	cfg.Events = nil

	session, err := game.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	stats := &statistics.Statistics{}
	for m := 0; m < s.config.Matches; m++ {
		result, err := s.playMatch(ctx, session)
		if err != nil {
			return nil, fmt.Errorf("match %d (seed %d): %w", m+1, seed, err)
		}
		stats.Add(statistics.MatchResult{
			HumanWon:      result.HumanWon,
			HumanScore:    result.HumanScore,
			OpponentScore: result.OpponentScore,
			Tier:          result.Tier,
			Turns:         result.Turns,
			Fallbacks:     result.Fallbacks,
		})
		logger.Debug("Match complete", "match", m+1, "humanWon", result.HumanWon,
			"human", result.HumanScore, "opponent", result.OpponentScore, "tier", result.Tier)
		matchDone()
	}
	return stats, nil
}

// playMatch runs a single match, bounded by the configured timeout.
func (s *Simulator) playMatch(ctx context.Context, session *game.Session) (game.Result, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}
	return session.PlayMatch(ctx)
}
