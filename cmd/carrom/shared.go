package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/carrombot/internal/bot"
	"github.com/lox/carrombot/internal/config"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/randutil"
)

// setupLogger builds the root logger. Output goes to the log file when one is
// set, otherwise to fallback.
func setupLogger(g *Globals, fallback io.Writer) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(g.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	out, closeFn := fallback, func() {}
	if g.LogFile != "" {
		f, err := os.OpenFile(g.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closeFn = f, func() { _ = f.Close() }
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	return logger, closeFn, nil
}

// signalContext creates a context that is cancelled on interrupt signals
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// table is everything loaded from config and flags needed to seat a session
type table struct {
	cfg    *config.Config
	game   game.Config
	seed   int64
	human  string
	logger *log.Logger
}

// loadTable reads the config file, applies flag overrides and validates the
// result.
func loadTable(g *Globals, logger *log.Logger) (*table, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Seed != nil {
		cfg.Match.Seed = *g.Seed
	}
	if g.Human != "" {
		cfg.Match.Human = g.Human
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", g.Config, err)
	}

	tick, err := cfg.Tick()
	if err != nil {
		return nil, err
	}
	settings, err := cfg.OpponentSettings()
	if err != nil {
		return nil, err
	}
	delay, err := cfg.HumanDelayTicks()
	if err != nil {
		return nil, err
	}

	seed := randutil.Seed(cfg.Match.Seed)
	logger.Info("Table ready", "seed", seed, "human", cfg.Match.Human, "tick", tick)

	return &table{
		cfg: cfg,
		game: game.Config{
			Geometry:        cfg.Geometry(),
			Physics:         cfg.PhysicsParams(),
			Opponent:        settings,
			Tick:            tick,
			MaxTurns:        cfg.Match.MaxTurns,
			HumanDelayTicks: delay,
		},
		seed:   seed,
		human:  cfg.Match.Human,
		logger: logger,
	}, nil
}

// session seats the configured human strategy against the opponent.
func (t *table) session(cfg game.Config) (*game.Session, error) {
	agent, err := bot.New(t.human, randutil.New(randutil.Derive(t.seed, 1)), t.logger)
	if err != nil {
		return nil, err
	}
	cfg.Agent = agent
	cfg.Rand = randutil.New(t.seed)
	cfg.Logger = t.logger
	return game.NewSession(cfg)
}
