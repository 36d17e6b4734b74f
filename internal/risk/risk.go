// Package risk computes the deterministic automation-risk score of a listing.
package risk

import (
	"math"
	"strings"

	"github.com/jobrisk/jobrisk/internal/keywords"
	"github.com/jobrisk/jobrisk/internal/model"
)

const (
	Baseline = 5.0
	MinScore = 1.0
	MaxScore = 10.0

	highThreshold   = 8.0
	mediumThreshold = 5.0
)

// Score returns the clamped, one-decimal risk score and its level.
//
// The first job-title override found replaces the baseline. Sector groups,
// then high-risk and low-risk keyword nudges, are added on top before clamping.
func Score(title, jobTitle, sector, contractType string) (float64, model.RiskLevel) {
	text := " " + strings.ToLower(strings.Join([]string{title, jobTitle, sector, contractType}, " ")) + " "

	score := Baseline
	for o := range keywords.Overrides() {
		if strings.Contains(text, o.Keyword) {
			score = o.Score
			break
		}
	}

	for adj := range keywords.SectorAdjustments() {
		if containsAny(text, adj.Keywords) {
			score += adj.Delta
		}
	}

	for kw := range keywords.HighRiskKeywords() {
		if strings.Contains(text, kw) {
			score += keywords.HighNudge
		}
	}
	for kw := range keywords.LowRiskKeywords() {
		if strings.Contains(text, kw) {
			score += keywords.LowNudge
		}
	}

	score = round1(clamp(score))
	return score, LevelFor(score)
}

// LevelFor maps a score to its tier. Tiers are lower-bound inclusive.
func LevelFor(score float64) model.RiskLevel {
	switch {
	case score >= highThreshold:
		return model.RiskHigh
	case score >= mediumThreshold:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Suggestions returns the fixed reconversion suggestions for level.
func Suggestions(level model.RiskLevel) []string {
	return keywords.SuggestionsFor(string(level))
}

func containsAny(text string, kws []string) bool {
	for _, kw := range kws {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
