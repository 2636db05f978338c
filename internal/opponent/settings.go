package opponent

import (
	"math"
	"time"
)

// Settings holds the tunables of candidate scoring and the staged turn.
// Delays are counted in host ticks.
type Settings struct {
	PoolSize          int     // how many top candidates non-reinforced profiles choose between
	ContactOverlap    float64 // how far the striker is aimed into the piece
	BaseImpulse       float64
	DistanceScale     float64 // extra impulse per unit of approach distance
	LightBonus        float64
	ScoreBase         float64
	ScoreJitter       float64
	FallbackImpulse   float64
	PowerDisplayScale float64

	ScanTargetsMin   int
	ScanTargetsExtra int
	ScanSteps        int
	AimSteps         int
	MoveSteps        int
	PowerSteps       int

	AimStepTicks   int
	ScanPauseTicks int
	MoveStepTicks  int
	SettleTicks    int
	PowerStepTicks int
	PreStrikeTicks int
}

// DefaultTick is the host loop interval the default delays are expressed in.
const DefaultTick = time.Second / 60

// DefaultSettings returns the stock tuning at DefaultTick.
func DefaultSettings() Settings {
	return Settings{
		PoolSize:          3,
		ContactOverlap:    2,
		BaseImpulse:       0.08,
		DistanceScale:     0.0001,
		LightBonus:        30,
		ScoreBase:         1000,
		ScoreJitter:       50,
		FallbackImpulse:   0.1,
		PowerDisplayScale: 666,

		ScanTargetsMin:   2,
		ScanTargetsExtra: 1,
		ScanSteps:        25,
		AimSteps:         30,
		MoveSteps:        40,
		PowerSteps:       40,

		AimStepTicks:   Ticks(15*time.Millisecond, DefaultTick),
		ScanPauseTicks: Ticks(400*time.Millisecond, DefaultTick),
		MoveStepTicks:  Ticks(15*time.Millisecond, DefaultTick),
		SettleTicks:    Ticks(300*time.Millisecond, DefaultTick),
		PowerStepTicks: Ticks(25*time.Millisecond, DefaultTick),
		PreStrikeTicks: Ticks(200*time.Millisecond, DefaultTick),
	}
}

// Ticks converts a duration to a whole number of ticks, never less than one.
func Ticks(d, tick time.Duration) int {
	if tick <= 0 {
		return 1
	}
	n := int(math.Round(float64(d) / float64(tick)))
	return max(n, 1)
}
