// Package statistics aggregates finished matches into the summary the
// simulator reports: win counts per side, per-tier breakdowns and the score
// margin with its confidence interval.
package statistics

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lox/carrombot/internal/opponent"
)

// MatchResult represents the outcome of a single match
type MatchResult struct {
	HumanWon      bool
	HumanScore    int
	OpponentScore int
	Tier          opponent.Tier // opponent tier in force when the match ended
	Turns         int
	Fallbacks     int // opponent fallback shots during the match
}

// Margin is the human score minus the opponent score.
func (r MatchResult) Margin() float64 {
	return float64(r.HumanScore - r.OpponentScore)
}

// TierStats tracks results played against one opponent tier
type TierStats struct {
	Matches   int
	HumanWins int
	SumMargin float64
}

// Statistics tracks the outcome of many matches
type Statistics struct {
	Matches      int
	HumanWins    int
	OpponentWins int
	SumMargin    float64
	SumMargin2   float64   // sum of squares for variance calculation
	Margins      []float64 // kept for the median

	Turns     int
	Fallbacks int

	Tiers map[opponent.Tier]*TierStats
}

// Add incorporates a finished match
func (s *Statistics) Add(result MatchResult) {
	m := result.Margin()
	s.Matches++
	s.SumMargin += m
	s.SumMargin2 += m * m
	s.Margins = append(s.Margins, m)
	s.Turns += result.Turns
	s.Fallbacks += result.Fallbacks

	if result.HumanWon {
		s.HumanWins++
	} else {
		s.OpponentWins++
	}

	if s.Tiers == nil {
		s.Tiers = make(map[opponent.Tier]*TierStats)
	}
	ts, ok := s.Tiers[result.Tier]
	if !ok {
		ts = &TierStats{}
		s.Tiers[result.Tier] = ts
	}
	ts.Matches++
	ts.SumMargin += m
	if result.HumanWon {
		ts.HumanWins++
	}
}

// Merge folds other into s.
func (s *Statistics) Merge(other *Statistics) {
	s.Matches += other.Matches
	s.HumanWins += other.HumanWins
	s.OpponentWins += other.OpponentWins
	s.SumMargin += other.SumMargin
	s.SumMargin2 += other.SumMargin2
	s.Margins = append(s.Margins, other.Margins...)
	s.Turns += other.Turns
	s.Fallbacks += other.Fallbacks

	if len(other.Tiers) > 0 && s.Tiers == nil {
		s.Tiers = make(map[opponent.Tier]*TierStats)
	}
	for tier, ots := range other.Tiers {
		ts, ok := s.Tiers[tier]
		if !ok {
			ts = &TierStats{}
			s.Tiers[tier] = ts
		}
		ts.Matches += ots.Matches
		ts.HumanWins += ots.HumanWins
		ts.SumMargin += ots.SumMargin
	}
}

// HumanWinRate returns the fraction of matches the human side won
func (s *Statistics) HumanWinRate() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.HumanWins) / float64(s.Matches)
}

// Mean returns the average score margin per match
func (s *Statistics) Mean() float64 {
	if s.Matches == 0 {
		return 0
	}
	return s.SumMargin / float64(s.Matches)
}

// Variance returns the sample variance of the margin
func (s *Statistics) Variance() float64 {
	if s.Matches < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumMargin2 - float64(s.Matches)*mean*mean) / float64(s.Matches-1)
}

// StdDev returns the sample standard deviation of the margin
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(math.Max(0, s.Variance()))
}

// StdError returns the standard error of the mean margin
func (s *Statistics) StdError() float64 {
	if s.Matches == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Matches))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
// margin from Student's t with n-1 degrees of freedom. Fewer than two matches
// give a zero-width interval at the mean.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	if s.Matches < 2 {
		return mean, mean
	}
	margin := studentsT(s.Matches-1).Quantile(0.975) * s.StdError()
	return mean - margin, mean + margin
}

// PValue returns the two-tailed p-value for the mean margin differing from
// zero, i.e. for one side being genuinely stronger.
func (s *Statistics) PValue() float64 {
	if s.Matches < 2 {
		return 1
	}
	se := s.StdError()
	if se == 0 {
		if s.Mean() == 0 {
			return 1
		}
		return 0
	}

	t := math.Abs(s.Mean() / se)
	p := 2 * (1 - studentsT(s.Matches-1).CDF(t))
	return math.Min(1, math.Max(0, p))
}

func studentsT(df int) distuv.StudentsT {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
}

// Median returns the median margin
func (s *Statistics) Median() float64 {
	if len(s.Margins) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Margins))
	copy(sorted, s.Margins)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// TierWinRate returns the human win rate against the given tier
func (s *Statistics) TierWinRate(tier opponent.Tier) float64 {
	ts, ok := s.Tiers[tier]
	if !ok || ts.Matches == 0 {
		return 0
	}
	return float64(ts.HumanWins) / float64(ts.Matches)
}

// Validate checks that the tallies agree with each other
func (s *Statistics) Validate() error {
	if s.Matches <= 0 {
		return fmt.Errorf("invalid match count: %d", s.Matches)
	}
	if s.HumanWins+s.OpponentWins != s.Matches {
		return fmt.Errorf("wins (%d human + %d opponent) do not add up to %d matches",
			s.HumanWins, s.OpponentWins, s.Matches)
	}
	if len(s.Margins) != s.Matches {
		return fmt.Errorf("margins length (%d) does not match match count (%d)", len(s.Margins), s.Matches)
	}

	tierMatches := 0
	for tier, ts := range s.Tiers {
		if ts.HumanWins > ts.Matches {
			return fmt.Errorf("%s tier has %d human wins in %d matches", tier, ts.HumanWins, ts.Matches)
		}
		tierMatches += ts.Matches
	}
	if tierMatches != s.Matches {
		return fmt.Errorf("tier matches total (%d) does not match match count (%d)", tierMatches, s.Matches)
	}
	return nil
}

// Summary is the serialised form written by WriteJSON
type Summary struct {
	Matches      int                    `json:"matches"`
	HumanWins    int                    `json:"human_wins"`
	OpponentWins int                    `json:"opponent_wins"`
	HumanWinRate float64                `json:"human_win_rate"`
	MeanMargin   float64                `json:"mean_margin"`
	MedianMargin float64                `json:"median_margin"`
	StdDev       float64                `json:"std_dev"`
	StdError     float64                `json:"std_error"`
	CI95Low      float64                `json:"ci95_low"`
	CI95High     float64                `json:"ci95_high"`
	PValue       float64                `json:"p_value"`
	AvgTurns     float64                `json:"avg_turns"`
	Fallbacks    int                    `json:"fallbacks"`
	Tiers        map[string]TierSummary `json:"tiers"`
}

// TierSummary is one tier's slice of the summary
type TierSummary struct {
	Matches      int     `json:"matches"`
	HumanWins    int     `json:"human_wins"`
	HumanWinRate float64 `json:"human_win_rate"`
	MeanMargin   float64 `json:"mean_margin"`
}

// Summary computes the derived figures.
func (s *Statistics) Summary() Summary {
	low, high := s.ConfidenceInterval95()
	sum := Summary{
		Matches:      s.Matches,
		HumanWins:    s.HumanWins,
		OpponentWins: s.OpponentWins,
		HumanWinRate: s.HumanWinRate(),
		MeanMargin:   s.Mean(),
		MedianMargin: s.Median(),
		StdDev:       s.StdDev(),
		StdError:     s.StdError(),
		CI95Low:      low,
		CI95High:     high,
		PValue:       s.PValue(),
		Fallbacks:    s.Fallbacks,
		Tiers:        make(map[string]TierSummary, len(s.Tiers)),
	}
	if s.Matches > 0 {
		sum.AvgTurns = float64(s.Turns) / float64(s.Matches)
	}
	for tier, ts := range s.Tiers {
		t := TierSummary{Matches: ts.Matches, HumanWins: ts.HumanWins}
		if ts.Matches > 0 {
			t.HumanWinRate = float64(ts.HumanWins) / float64(ts.Matches)
			t.MeanMargin = ts.SumMargin / float64(ts.Matches)
		}
		sum.Tiers[tier.String()] = t
	}
	return sum
}

// WriteJSON writes the summary to path. Readers see either the previous file
// or the complete new one, never a partial write.
func (s *Statistics) WriteJSON(path string) error {
	data, err := json.MarshalIndent(s.Summary(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal statistics: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'), 0o644)
}

// writeFileAtomic stages data in a temp file beside path and renames it into
// place; the temp file must share a filesystem with path for the rename to
// be atomic.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
