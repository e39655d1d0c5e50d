package matchmaker

import (
	"database/sql"
	"math"

	"github.com/wordarena/backend/internal/config"
)

// candidate is one potential seat in an environment's next game. Queued
// participants carry their queue row; standard models are synthesized fresh
// every pass with no queue row (QueueEntryID zero, TimeInQueue -1).
type candidate struct {
	Name         string
	Email        string
	Elo          float64
	TimeInQueue  float64
	PctQueue     float64
	IsHuman      bool
	Standard     bool
	HumanIP      sql.NullString
	QueueEntryID int64
}

// recencyFunc counts games two participants played against each other inside
// the recency window.
type recencyFunc func(a, b string) (int, error)

// scoreCombo returns the probability that this combination becomes a game.
//
// Hard zeros first: any shared email (covers a participant against itself,
// standard against standard, and human against human since all humans share
// the Humanity account), a standard model seated with agents none of which
// has waited past the standard-model threshold, and any Elo gap above the
// delta limit. Otherwise the score is the product of an Elo closeness
// component, a time-in-queue component and a repeat-opponent penalty.
// Combinations larger than two are scored by their worst pair.
func scoreCombo(cfg *config.Config, combo []candidate, recency recencyFunc) (float64, error) {
	for i := 0; i < len(combo); i++ {
		for j := i + 1; j < len(combo); j++ {
			if combo[i].Email == combo[j].Email {
				return 0, nil
			}
		}
	}

	hasStandard := false
	hasHuman := false
	waited := false
	maxPct := 0.0
	for _, c := range combo {
		if c.Standard {
			hasStandard = true
		}
		if c.IsHuman {
			hasHuman = true
		}
		if c.TimeInQueue > cfg.MinWaitForStandardSecs {
			waited = true
		}
		if c.PctQueue > maxPct {
			maxPct = c.PctQueue
		}
	}
	// Standard models only pick up agents that have waited long enough.
	// Humans bypass the wait so a fresh browser session gets a game at once.
	if hasStandard && !hasHuman && !waited {
		return 0, nil
	}

	maxDelta := 0.0
	for i := 0; i < len(combo); i++ {
		for j := i + 1; j < len(combo); j++ {
			if d := math.Abs(combo[i].Elo - combo[j].Elo); d > maxDelta {
				maxDelta = d
			}
		}
	}
	if maxDelta > cfg.MaxEloDelta {
		return 0, nil
	}

	maxRecent := 0
	for i := 0; i < len(combo); i++ {
		for j := i + 1; j < len(combo); j++ {
			n, err := recency(combo[i].Name, combo[j].Name)
			if err != nil {
				return 0, err
			}
			if n > maxRecent {
				maxRecent = n
			}
		}
	}

	eloComponent := math.Pow(1-maxDelta/cfg.MaxEloDelta, 2)
	timeComponent := cfg.PctTimeBase + maxPct*(1-cfg.PctTimeBase)
	recentCap := float64(cfg.NumRecentGamesCap)
	recentComponent := 1 - math.Min(float64(maxRecent), recentCap)/(recentCap*2)

	return eloComponent * timeComponent * recentComponent, nil
}

// kCombinations yields every k-subset of the indexes [0,n) in lexicographic
// order.
func kCombinations(n, k int) [][]int {
	if k <= 0 || k > n {
		return nil
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	var out [][]int
	for {
		pick := make([]int, k)
		copy(pick, idx)
		out = append(out, pick)

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
