// Package config loads table, timing and opponent tuning from an HCL file.
//
// Every block and attribute is optional; anything left out keeps the stock
// value, so an empty or missing file yields the default table.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/bot"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/opponent"
	"github.com/lox/carrombot/internal/physics"
)

// DefaultHuman is the strategy driving the human side when none is configured.
const DefaultHuman = "steady"

// Config represents the complete configuration file
type Config struct {
	Board    *BoardConfig    `hcl:"board,block"`
	Physics  *PhysicsConfig  `hcl:"physics,block"`
	Timing   *TimingConfig   `hcl:"timing,block"`
	Opponent *OpponentConfig `hcl:"opponent,block"`
	Match    *MatchConfig    `hcl:"match,block"`
}

// BoardConfig overrides the board geometry
type BoardConfig struct {
	Size             float64 `hcl:"size,optional"`
	PocketRadius     float64 `hcl:"pocket_radius,optional"`
	PieceRadius      float64 `hcl:"piece_radius,optional"`
	StrikerRadius    float64 `hcl:"striker_radius,optional"`
	HumanBaseline    float64 `hcl:"human_baseline,optional"`
	OpponentBaseline float64 `hcl:"opponent_baseline,optional"`
	LaunchLimit      float64 `hcl:"launch_limit,optional"`
	WallInset        float64 `hcl:"wall_inset,optional"`
	PocketInset      float64 `hcl:"pocket_inset,optional"`
}

// PhysicsConfig tunes the simulation
type PhysicsConfig struct {
	FrictionAir     float64 `hcl:"friction_air,optional"`
	Restitution     float64 `hcl:"restitution,optional"`
	StrikerMass     float64 `hcl:"striker_mass,optional"`
	PieceMass       float64 `hcl:"piece_mass,optional"`
	SettleThreshold float64 `hcl:"settle_threshold,optional"`
}

// TimingConfig holds the host tick and the opponent's staged delays, as Go
// duration strings ("15ms", "0.4s").
type TimingConfig struct {
	Tick      string `hcl:"tick,optional"`
	AimStep   string `hcl:"aim_step,optional"`
	ScanPause string `hcl:"scan_pause,optional"`
	MoveStep  string `hcl:"move_step,optional"`
	Settle    string `hcl:"settle,optional"`
	PowerStep string `hcl:"power_step,optional"`
	PreStrike string `hcl:"pre_strike,optional"`
}

// OpponentConfig tunes candidate scoring
type OpponentConfig struct {
	PoolSize      int     `hcl:"pool_size,optional"`
	BaseImpulse   float64 `hcl:"base_impulse,optional"`
	DistanceScale float64 `hcl:"distance_scale,optional"`
	LightBonus    float64 `hcl:"light_bonus,optional"`
	ScoreJitter   float64 `hcl:"score_jitter,optional"`
}

// MatchConfig controls how matches are played
type MatchConfig struct {
	Human      string `hcl:"human,optional"`
	Seed       int64  `hcl:"seed,optional"`
	MaxTurns   int    `hcl:"max_turns,optional"`
	HumanDelay string `hcl:"human_delay,optional"`
}

// Default returns the stock configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from an HCL file. A missing file yields defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	g := board.DefaultGeometry()
	if c.Board == nil {
		c.Board = &BoardConfig{}
	}
	b := c.Board
	orFloat(&b.Size, g.Size)
	orFloat(&b.PocketRadius, g.PocketRadius)
	orFloat(&b.PieceRadius, g.PieceRadius)
	orFloat(&b.StrikerRadius, g.StrikerRadius)
	orFloat(&b.HumanBaseline, g.HumanBaseline)
	orFloat(&b.OpponentBaseline, g.OpponentBaseline)
	orFloat(&b.LaunchLimit, g.LaunchLimit)
	orFloat(&b.WallInset, g.WallInset)
	orFloat(&b.PocketInset, g.PocketInset)

	p := physics.DefaultParams()
	if c.Physics == nil {
		c.Physics = &PhysicsConfig{}
	}
	orFloat(&c.Physics.FrictionAir, p.FrictionAir)
	orFloat(&c.Physics.Restitution, p.Restitution)
	orFloat(&c.Physics.StrikerMass, p.StrikerMass)
	orFloat(&c.Physics.PieceMass, p.PieceMass)
	orFloat(&c.Physics.SettleThreshold, p.SettleThreshold)

	if c.Timing == nil {
		c.Timing = &TimingConfig{}
	}
	t := c.Timing
	orString(&t.Tick, opponent.DefaultTick.String())
	orString(&t.AimStep, "15ms")
	orString(&t.ScanPause, "400ms")
	orString(&t.MoveStep, "15ms")
	orString(&t.Settle, "300ms")
	orString(&t.PowerStep, "25ms")
	orString(&t.PreStrike, "200ms")

	s := opponent.DefaultSettings()
	if c.Opponent == nil {
		c.Opponent = &OpponentConfig{}
	}
	if c.Opponent.PoolSize == 0 {
		c.Opponent.PoolSize = s.PoolSize
	}
	orFloat(&c.Opponent.BaseImpulse, s.BaseImpulse)
	orFloat(&c.Opponent.DistanceScale, s.DistanceScale)
	orFloat(&c.Opponent.LightBonus, s.LightBonus)
	orFloat(&c.Opponent.ScoreJitter, s.ScoreJitter)

	if c.Match == nil {
		c.Match = &MatchConfig{}
	}
	orString(&c.Match.Human, DefaultHuman)
	orString(&c.Match.HumanDelay, "500ms")
	if c.Match.MaxTurns == 0 {
		c.Match.MaxTurns = game.DefaultMaxTurns
	}
}

func orFloat(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

func orString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

// Validate checks the configuration for values the table cannot play with.
func (c *Config) Validate() error {
	b := c.Board
	sizes := map[string]float64{
		"size":           b.Size,
		"pocket_radius":  b.PocketRadius,
		"piece_radius":   b.PieceRadius,
		"striker_radius": b.StrikerRadius,
		"launch_limit":   b.LaunchLimit,
	}
	for name, v := range sizes {
		if v <= 0 {
			return fmt.Errorf("board %s must be positive, got %v", name, v)
		}
	}
	if b.LaunchLimit >= b.Size/2 {
		return fmt.Errorf("board launch_limit %v leaves no launch band on a board of size %v", b.LaunchLimit, b.Size)
	}
	if c.Physics.StrikerMass <= 0 || c.Physics.PieceMass <= 0 {
		return fmt.Errorf("physics masses must be positive")
	}
	if c.Opponent.PoolSize < 1 {
		return fmt.Errorf("opponent pool_size must be at least 1, got %d", c.Opponent.PoolSize)
	}
	if c.Match.MaxTurns < 0 {
		return fmt.Errorf("match max_turns must not be negative, got %d", c.Match.MaxTurns)
	}
	if !bot.Valid(c.Match.Human) {
		return fmt.Errorf("match human: %w %q", bot.ErrUnknownStrategy, c.Match.Human)
	}

	tick, err := c.Tick()
	if err != nil {
		return err
	}
	if tick <= 0 {
		return fmt.Errorf("timing tick must be positive, got %s", tick)
	}
	if _, err := c.OpponentSettings(); err != nil {
		return err
	}
	if _, err := c.HumanDelayTicks(); err != nil {
		return err
	}
	return nil
}

// Geometry returns the configured board geometry.
func (c *Config) Geometry() board.Geometry {
	b := c.Board
	return board.Geometry{
		Size:             b.Size,
		PocketRadius:     b.PocketRadius,
		PieceRadius:      b.PieceRadius,
		StrikerRadius:    b.StrikerRadius,
		HumanBaseline:    b.HumanBaseline,
		OpponentBaseline: b.OpponentBaseline,
		LaunchLimit:      b.LaunchLimit,
		WallInset:        b.WallInset,
		PocketInset:      b.PocketInset,
	}
}

// PhysicsParams returns the configured simulation parameters. The simulated
// step length follows the host tick so one Step covers one tick.
func (c *Config) PhysicsParams() physics.Params {
	p := physics.DefaultParams()
	p.FrictionAir = c.Physics.FrictionAir
	p.Restitution = c.Physics.Restitution
	p.StrikerMass = c.Physics.StrikerMass
	p.PieceMass = c.Physics.PieceMass
	p.SettleThreshold = c.Physics.SettleThreshold
	if tick, err := c.Tick(); err == nil && tick > 0 {
		p.StepMillis = float64(tick) / float64(time.Millisecond)
	}
	return p
}

// Tick returns the host loop interval.
func (c *Config) Tick() (time.Duration, error) {
	return parseDuration("tick", c.Timing.Tick)
}

// OpponentSettings returns the opponent tuning with every delay converted to
// whole ticks of the configured interval.
func (c *Config) OpponentSettings() (opponent.Settings, error) {
	s := opponent.DefaultSettings()
	s.PoolSize = c.Opponent.PoolSize
	s.BaseImpulse = c.Opponent.BaseImpulse
	s.DistanceScale = c.Opponent.DistanceScale
	s.LightBonus = c.Opponent.LightBonus
	s.ScoreJitter = c.Opponent.ScoreJitter

	tick, err := c.Tick()
	if err != nil {
		return s, err
	}

	t := c.Timing
	delays := []struct {
		name  string
		value string
		into  *int
	}{
		{"aim_step", t.AimStep, &s.AimStepTicks},
		{"scan_pause", t.ScanPause, &s.ScanPauseTicks},
		{"move_step", t.MoveStep, &s.MoveStepTicks},
		{"settle", t.Settle, &s.SettleTicks},
		{"power_step", t.PowerStep, &s.PowerStepTicks},
		{"pre_strike", t.PreStrike, &s.PreStrikeTicks},
	}
	for _, d := range delays {
		dur, err := parseDuration(d.name, d.value)
		if err != nil {
			return s, err
		}
		*d.into = opponent.Ticks(dur, tick)
	}
	return s, nil
}

// HumanDelayTicks returns how many ticks the human side waits before shooting.
func (c *Config) HumanDelayTicks() (int, error) {
	tick, err := c.Tick()
	if err != nil {
		return 0, err
	}
	d, err := parseDuration("human_delay", c.Match.HumanDelay)
	if err != nil {
		return 0, err
	}
	return opponent.Ticks(d, tick), nil
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("timing %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timing %s must not be negative, got %s", name, d)
	}
	return d, nil
}
