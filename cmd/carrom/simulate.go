package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/lox/carrombot/internal/opponent"
	"github.com/lox/carrombot/internal/simulator"
	"github.com/lox/carrombot/internal/statistics"
)

// SimulateCmd plays headless matches and reports the outcome
type SimulateCmd struct {
	Sessions   int           `default:"8" help:"Independent sessions, each with its own opponent record"`
	Matches    int           `default:"10" help:"Consecutive matches per session"`
	Workers    int           `help:"Sessions played in parallel (defaults to GOMAXPROCS)"`
	Timeout    time.Duration `default:"2m" help:"Per-match timeout"`
	WriteStats string        `help:"Write a JSON summary to this path"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	logger, closeLog, err := setupLogger(g, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	t, err := loadTable(g, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	total := c.Sessions * c.Matches
	start := time.Now()
	sim := simulator.New(simulator.Config{
		Sessions: c.Sessions,
		Matches:  c.Matches,
		Seed:     t.seed,
		Human:    t.human,
		Workers:  c.Workers,
		Timeout:  c.Timeout,
		Table:    t.game,
		Logger:   logger,
		Progress: func(done, _ int) {
			if done%10 == 0 || done == total {
				logger.Info("Progress", "matches", done, "total", total)
			}
		},
	})

	stats, err := sim.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(stats, t.human, t.seed, time.Since(start))

	if c.WriteStats != "" {
		if err := stats.WriteJSON(c.WriteStats); err != nil {
			return fmt.Errorf("failed to write stats: %w", err)
		}
		logger.Info("Statistics written", "path", c.WriteStats)
	}
	return nil
}

func printSummary(stats *statistics.Statistics, human string, seed int64, elapsed time.Duration) {
	low, high := stats.ConfidenceInterval95()

	fmt.Printf("\n=== Simulation Results ===\n")
	fmt.Printf("Human strategy: %s (seed %d)\n", human, seed)
	fmt.Printf("Matches: %d in %s\n", stats.Matches, elapsed.Round(time.Millisecond))
	fmt.Printf("Human wins: %d (%.1f%%)  Opponent wins: %d\n",
		stats.HumanWins, stats.HumanWinRate()*100, stats.OpponentWins)
	fmt.Printf("Score margin: %.2f ± %.2f (95%% CI [%.2f, %.2f], p=%.3f), median %.1f\n",
		stats.Mean(), (high-low)/2, low, high, stats.PValue(), stats.Median())
	fmt.Printf("Opponent fallback shots: %d\n", stats.Fallbacks)

	tiers := make([]opponent.Tier, 0, len(stats.Tiers))
	for tier := range stats.Tiers {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })

	fmt.Printf("\nBy opponent mode:\n")
	for _, tier := range tiers {
		ts := stats.Tiers[tier]
		fmt.Printf("  %-10s %4d matches, human won %.1f%%\n", tier, ts.Matches, stats.TierWinRate(tier)*100)
	}
}
