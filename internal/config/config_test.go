package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/bot"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/opponent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carrom.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, board.DefaultGeometry(), cfg.Geometry())
	assert.Equal(t, DefaultHuman, cfg.Match.Human)
	assert.Equal(t, game.DefaultMaxTurns, cfg.Match.MaxTurns)

	settings, err := cfg.OpponentSettings()
	require.NoError(t, err)
	assert.Equal(t, opponent.DefaultSettings(), settings)

	delay, err := cfg.HumanDelayTicks()
	require.NoError(t, err)
	assert.Equal(t, game.DefaultHumanDelayTicks, delay)
}

func TestLoadOverridesAndKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
board {
  launch_limit = 100
}

timing {
  tick       = "10ms"
  scan_pause = "1s"
}

opponent {
  pool_size   = 5
  light_bonus = 0
}

match {
  human     = "wild"
  seed      = 42
  max_turns = 50
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	g := cfg.Geometry()
	assert.Equal(t, 100.0, g.LaunchLimit)
	assert.Equal(t, 800.0, g.Size, "unset attributes keep their default")

	assert.Equal(t, "wild", cfg.Match.Human)
	assert.Equal(t, int64(42), cfg.Match.Seed)
	assert.Equal(t, 50, cfg.Match.MaxTurns)

	tick, err := cfg.Tick()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, tick)
	assert.InDelta(t, 10.0, cfg.PhysicsParams().StepMillis, 1e-9)

	s, err := cfg.OpponentSettings()
	require.NoError(t, err)
	assert.Equal(t, 5, s.PoolSize)
	assert.Equal(t, 100, s.ScanPauseTicks)
	assert.Equal(t, 2, s.AimStepTicks, "15ms at a 10ms tick rounds to 2")
	// zero means unset, so the stock bonus stays
	assert.Equal(t, 30.0, s.LightBonus)
}

func TestShortDelaysRoundUpToOneTick(t *testing.T) {
	path := writeConfig(t, `
timing {
  aim_step = "1ms"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	s, err := cfg.OpponentSettings()
	require.NoError(t, err)
	assert.Equal(t, 1, s.AimStepTicks)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-positive size", func(c *Config) { c.Board.Size = -1 }},
		{"non-positive piece radius", func(c *Config) { c.Board.PieceRadius = -4 }},
		{"launch limit too wide", func(c *Config) { c.Board.LaunchLimit = 400 }},
		{"pool size below one", func(c *Config) { c.Opponent.PoolSize = 0 }},
		{"zero tick", func(c *Config) { c.Timing.Tick = "0s" }},
		{"garbled duration", func(c *Config) { c.Timing.Settle = "soon" }},
		{"negative max turns", func(c *Config) { c.Match.MaxTurns = -1 }},
		{"unknown human", func(c *Config) { c.Match.Human = "psychic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateUnknownHumanWrapsSentinel(t *testing.T) {
	cfg := Default()
	cfg.Match.Human = "psychic"
	assert.ErrorIs(t, cfg.Validate(), bot.ErrUnknownStrategy)
}

func TestLoadRejectsBadHCL(t *testing.T) {
	path := writeConfig(t, `board { size = `)
	_, err := Load(path)
	assert.Error(t, err)

	path = writeConfig(t, `match { human = 3 4 }`)
	_, err = Load(path)
	assert.Error(t, err)
}
