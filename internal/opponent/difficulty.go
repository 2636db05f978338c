package opponent

import "fmt"

// Tier names how hard the opponent is trying this turn
type Tier int

const (
	Standard Tier = iota
	Reinforced
	Weakened
)

// String returns the string representation of the tier
func (t Tier) String() string {
	switch t {
	case Standard:
		return "Standard"
	case Reinforced:
		return "Reinforced"
	case Weakened:
		return "Weakened"
	default:
		return "Unknown"
	}
}

// MarshalText lets tiers appear by name in JSON frames and statistics.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier from its name.
func (t *Tier) UnmarshalText(text []byte) error {
	for _, v := range []Tier{Standard, Reinforced, Weakened} {
		if v.String() == string(text) {
			*t = v
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", text)
}

// Profile is the set of randomness and bias parameters for one turn. It is
// derived once when the turn starts and never changes during it.
type Profile struct {
	Tier               Tier    `json:"tier"`
	AimDeviation       float64 `json:"aim_deviation"`     // radians, full width of the angle jitter
	StrengthVariance   float64 `json:"strength_variance"` // fractional, full width of the impulse jitter
	Confidence         float64 `json:"confidence"`        // display only
	SpecialTargetBonus float64 `json:"special_target_bonus"`
}

// Label is the display name of the profile.
func (p Profile) Label() string {
	return p.Tier.String()
}

const (
	reinforceAbove = 0.55
	weakenBelow    = 0.45
)

// DeriveProfile maps the human's lifetime win rate to a profile. The
// thresholds are strict, so exactly 0.45 and 0.55 stay Standard.
func DeriveProfile(stats Statistics) Profile {
	rate := stats.WinRate()
	switch {
	case rate > reinforceAbove:
		return Profile{Tier: Reinforced, AimDeviation: 0.01, StrengthVariance: 0.05, Confidence: 0.9, SpecialTargetBonus: 100}
	case rate < weakenBelow:
		return Profile{Tier: Weakened, AimDeviation: 0.15, StrengthVariance: 0.2, Confidence: 0.4, SpecialTargetBonus: 20}
	default:
		return Profile{Tier: Standard, AimDeviation: 0.05, StrengthVariance: 0.1, Confidence: 0.7, SpecialTargetBonus: 50}
	}
}

// Statistics is the running match tally. It lives for the process lifetime
// and is owned by whoever runs matches; the opponent only holds a pointer.
type Statistics struct {
	GamesPlayed  int `json:"games_played"`
	HumanWins    int `json:"human_wins"`
	OpponentWins int `json:"opponent_wins"`
}

// RecordResult counts one completed match.
func (s *Statistics) RecordResult(humanWon bool) {
	s.GamesPlayed++
	if humanWon {
		s.HumanWins++
	} else {
		s.OpponentWins++
	}
}

// WinRate returns the human's share of completed matches, or 0.5 before any
// match has finished.
func (s Statistics) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0.5
	}
	return float64(s.HumanWins) / float64(s.GamesPlayed)
}
