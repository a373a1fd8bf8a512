// Package score assigns market-fit scores and labels to candidate records.
package score

import (
	"strings"

	"github.com/macadam-io/macadam/internal/model"
)

// Scoring weights and label thresholds. Fixed policy constants.
const (
	includeWeight = 0.6
	excludeWeight = 0.9
	dotWeight     = 0.4

	includeThreshold = 0.5
	excludeThreshold = 0.2
)

// Scorer computes the market-fit score for a record under a keyword policy.
// Calculate is a pure function: no I/O, no state.
type Scorer struct {
	cfg model.MarketConfig
}

// NewScorer creates a scorer for the given market policy.
func NewScorer(cfg model.MarketConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Calculate scores one record. The score is additive over substring matches
// against a lowercase blob of name, work types, and source name, plus the
// registry flag, and is clamped to [-1, 1].
func (s *Scorer) Calculate(rec model.CanonicalRecord) (float64, model.FitLabel) {
	blob := strings.ToLower(rec.Name + " " + rec.WorkTypes + " " + rec.SourceName)

	score := 0.0
	if containsAny(blob, s.cfg.IncludeTerms) {
		score += includeWeight
	}
	if containsAny(blob, s.cfg.ExcludeTerms) {
		score -= excludeWeight
	}
	if rec.HasDOTFlag {
		score += dotWeight
	}

	score = clamp(score, -1.0, 1.0)
	return score, Label(score)
}

// Label maps a score to its categorical outcome.
func Label(score float64) model.FitLabel {
	switch {
	case score > includeThreshold:
		return model.LabelInclude
	case score < excludeThreshold:
		return model.LabelExclude
	default:
		return model.LabelReview
	}
}

func containsAny(blob string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(blob, t) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
