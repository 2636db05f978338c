package opponent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveProfile(t *testing.T) {
	tests := []struct {
		name  string
		stats Statistics
		want  Tier
	}{
		{"no history", Statistics{}, Standard},
		{"even", Statistics{GamesPlayed: 10, HumanWins: 5, OpponentWins: 5}, Standard},
		{"lower boundary", Statistics{GamesPlayed: 100, HumanWins: 45, OpponentWins: 55}, Standard},
		{"upper boundary", Statistics{GamesPlayed: 100, HumanWins: 55, OpponentWins: 45}, Standard},
		{"just above", Statistics{GamesPlayed: 100, HumanWins: 56, OpponentWins: 44}, Reinforced},
		{"just below", Statistics{GamesPlayed: 100, HumanWins: 44, OpponentWins: 56}, Weakened},
		{"human always wins", Statistics{GamesPlayed: 3, HumanWins: 3}, Reinforced},
		{"human never wins", Statistics{GamesPlayed: 3, OpponentWins: 3}, Weakened},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveProfile(tt.stats).Tier)
		})
	}
}

func TestDeriveProfileValues(t *testing.T) {
	r := DeriveProfile(Statistics{GamesPlayed: 1, HumanWins: 1})
	assert.Equal(t, "Reinforced", r.Label())
	assert.Equal(t, 0.01, r.AimDeviation)
	assert.Equal(t, 0.05, r.StrengthVariance)
	assert.Equal(t, 0.9, r.Confidence)
	assert.Equal(t, 100.0, r.SpecialTargetBonus)

	w := DeriveProfile(Statistics{GamesPlayed: 1, OpponentWins: 1})
	assert.Equal(t, 0.15, w.AimDeviation)
	assert.Equal(t, 0.2, w.StrengthVariance)
	assert.Equal(t, 0.4, w.Confidence)
	assert.Equal(t, 20.0, w.SpecialTargetBonus)

	s := DeriveProfile(Statistics{})
	assert.Equal(t, 0.05, s.AimDeviation)
	assert.Equal(t, 0.7, s.Confidence)
	assert.Equal(t, s, DeriveProfile(Statistics{GamesPlayed: 2, HumanWins: 1, OpponentWins: 1}))
}

func TestRecordResult(t *testing.T) {
	var s Statistics

	s.RecordResult(true)
	assert.Equal(t, Statistics{GamesPlayed: 1, HumanWins: 1}, s)

	s.RecordResult(false)
	assert.Equal(t, Statistics{GamesPlayed: 2, HumanWins: 1, OpponentWins: 1}, s)
	assert.Equal(t, 0.5, s.WinRate())
}

func TestTierAndStageNames(t *testing.T) {
	assert.Equal(t, "Standard", Standard.String())
	assert.Equal(t, "Weakened", Weakened.String())
	assert.Equal(t, "Unknown", Tier(9).String())
	assert.Equal(t, "charging", Charging.String())
	assert.Equal(t, "unknown", Stage(42).String())
}

func TestTicks(t *testing.T) {
	assert.Equal(t, 1, Ticks(15*time.Millisecond, DefaultTick))
	assert.Equal(t, 24, Ticks(400*time.Millisecond, DefaultTick))
	assert.Equal(t, 2, Ticks(25*time.Millisecond, DefaultTick))
	assert.Equal(t, 1, Ticks(0, DefaultTick))
	assert.Equal(t, 1, Ticks(time.Second, 0))
}
