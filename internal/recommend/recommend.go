// Package recommend answers read-only questions over a set of scored
// listings: synonym-aware search, lower-risk transitions and statistics.
package recommend

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jobrisk/jobrisk/internal/keywords"
	"github.com/jobrisk/jobrisk/internal/model"
)

// DefaultLimit caps RecommendTransition when the caller gives no limit.
const DefaultLimit = 5

// fold puts s in composed form and case-folds it, so "Secrétaire" typed with a
// combining accent still matches.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// ExpandSynonyms returns the folded term followed by the rest of its synonym
// group. The term itself is always first.
func ExpandSynonyms(term string) []string {
	t := fold(strings.TrimSpace(term))
	out := []string{t}
	for _, s := range keywords.Synonyms(t) {
		if s = fold(s); !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// Search returns the records whose title, job title or sector contain any
// expansion of term as a substring. A blank term matches nothing.
func Search(term string, records []model.Listing) []model.Listing {
	var out []model.Listing
	for _, i := range matchIndexes(term, records) {
		out = append(out, records[i])
	}
	return out
}

func matchIndexes(term string, records []model.Listing) []int {
	terms := ExpandSynonyms(term)
	if terms[0] == "" {
		return nil
	}
	var idx []int
	for i, r := range records {
		hay := fold(r.Title + " " + r.JobTitle + " " + r.Sector)
		if slices.ContainsFunc(terms, func(t string) bool { return strings.Contains(hay, t) }) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Transition is a candidate listing with a lower risk than the current job.
type Transition struct {
	Listing model.Listing
	Delta   float64 // average current risk minus the candidate's score
}

// Recommendation is the answer to RecommendTransition.
type Recommendation struct {
	Current     []model.Listing // records matching the current job
	AverageRisk float64
	Sectors     []string // sectors observed among Current, sorted
	Transitions []Transition
}

// RecommendTransition finds listings in the sectors of currentJob that carry
// less risk than currentJob does on average. Listings that match currentJob
// are never suggested. Results are sorted by decreasing Delta and capped at
// limit (DefaultLimit when limit <= 0). found is false when nothing matches
// currentJob.
func RecommendTransition(currentJob string, records []model.Listing, limit int) (rec Recommendation, found bool) {
	matched := matchIndexes(currentJob, records)
	if len(matched) == 0 {
		return Recommendation{}, false
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	isCurrent := make(map[int]bool, len(matched))
	sectors := make(map[string]bool)
	var total float64
	for _, i := range matched {
		isCurrent[i] = true
		sectors[records[i].Sector] = true
		total += records[i].RiskScore
		rec.Current = append(rec.Current, records[i])
	}
	avg := total / float64(len(matched))
	rec.AverageRisk = round(avg, 2)
	for s := range sectors {
		rec.Sectors = append(rec.Sectors, s)
	}
	slices.Sort(rec.Sectors)

	for i, r := range records {
		if isCurrent[i] || !sectors[r.Sector] || r.RiskScore >= avg {
			continue
		}
		rec.Transitions = append(rec.Transitions, Transition{Listing: r, Delta: round(avg-r.RiskScore, 2)})
	}
	slices.SortStableFunc(rec.Transitions, func(a, b Transition) int {
		return cmp.Compare(b.Delta, a.Delta)
	})
	if len(rec.Transitions) > limit {
		rec.Transitions = rec.Transitions[:limit]
	}
	return rec, true
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
