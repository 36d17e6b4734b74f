package recommend

import (
	"cmp"
	"slices"

	"github.com/jobrisk/jobrisk/internal/model"
)

// GroupAverage is the mean risk of the listings sharing one label.
type GroupAverage struct {
	Name    string
	Count   int
	Average float64
}

// Summary describes a record set.
type Summary struct {
	Total       int
	Levels      map[model.RiskLevel]int
	AverageRisk float64
	ByJobTitle  []GroupAverage // highest average first
	BySector    []GroupAverage // highest average first
}

// Stats summarizes records. Averages are rounded to two decimals.
func Stats(records []model.Listing) Summary {
	s := Summary{
		Total: len(records),
		Levels: map[model.RiskLevel]int{
			model.RiskLow:    0,
			model.RiskMedium: 0,
			model.RiskHigh:   0,
		},
	}
	if len(records) == 0 {
		return s
	}

	var total float64
	for _, r := range records {
		s.Levels[r.RiskLevel]++
		total += r.RiskScore
	}
	s.AverageRisk = round(total/float64(len(records)), 2)
	s.ByJobTitle = groupAverages(records, func(l model.Listing) string { return l.JobTitle })
	s.BySector = groupAverages(records, func(l model.Listing) string { return l.Sector })
	return s
}

func groupAverages(records []model.Listing, key func(model.Listing) string) []GroupAverage {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range records {
		k := key(r)
		sums[k] += r.RiskScore
		counts[k]++
	}

	out := make([]GroupAverage, 0, len(counts))
	for k, n := range counts {
		out = append(out, GroupAverage{Name: k, Count: n, Average: round(sums[k]/float64(n), 2)})
	}
	slices.SortFunc(out, func(a, b GroupAverage) int {
		if c := cmp.Compare(b.Average, a.Average); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
