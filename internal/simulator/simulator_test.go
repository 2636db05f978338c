package simulator

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/carrombot/internal/bot"
	"github.com/lox/carrombot/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(seed int64) Config {
	return Config{
		Sessions: 3,
		Matches:  2,
		Seed:     seed,
		Human:    "sharp",
		Workers:  2,
		Timeout:  30 * time.Second,
		Table: game.Config{
			MaxTurns:        4,
			HumanDelayTicks: 1,
		},
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	sim := New(Config{})
	assert.Equal(t, 1, sim.config.Sessions)
	assert.Equal(t, 1, sim.config.Matches)
	assert.Equal(t, "steady", sim.config.Human)
	assert.Positive(t, sim.config.Workers)
	assert.NotNil(t, sim.config.Logger)
}

func TestRunPlaysEveryMatch(t *testing.T) {
	cfg := testConfig(7)

	var mu sync.Mutex
	var seen []int
	cfg.Progress = func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 6, total)
		seen = append(seen, done)
	}

	stats, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, stats.Validate())

	assert.Equal(t, 6, stats.Matches)
	assert.Equal(t, stats.Matches, stats.HumanWins+stats.OpponentWins)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6}, seen)
}

func TestRunIsDeterministic(t *testing.T) {
	first, err := New(testConfig(99)).Run(context.Background())
	require.NoError(t, err)

	cfg := testConfig(99)
	cfg.Workers = 1
	second, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Summary(), second.Summary())
	assert.Equal(t, first.Margins, second.Margins)
}

func TestRunRejectsUnknownStrategy(t *testing.T) {
	cfg := testConfig(1)
	cfg.Human = "psychic"
	_, err := New(cfg).Run(context.Background())
	assert.ErrorIs(t, err, bot.ErrUnknownStrategy)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(1)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
