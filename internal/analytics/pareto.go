package analytics

import (
	"sort"

	"moneta/internal/core"
)

// ParetoCategory is one category's share of total spend plus the running
// cumulative percentage, in descending-total order.
type ParetoCategory struct {
	CategoryID        string  `json:"categoryId"`
	Name              string  `json:"name"`
	Total             float64 `json:"total"`
	Percent           float64 `json:"percent"`
	CumulativePercent float64 `json:"cumulativePercent"`
}

// ParetoResult reports how concentrated spending is: the minimal prefix of
// categories whose cumulative share first reaches 80 percent.
type ParetoResult struct {
	CategoryCount int              `json:"categoryCount"`
	ParetoCount   int              `json:"paretoCount"`
	Ratio         float64          `json:"ratio"`
	Categories    []ParetoCategory `json:"categories"`
}

// Pareto sums expense totals per category and finds the smallest set of
// top categories covering at least 80 percent of all spend. Requires at
// least 20 actual transactions.
func Pareto(transactions []core.Transaction, categories []core.Category) (*ParetoResult, bool) {
	if len(actuals(transactions)) < minScoredTransactions {
		return nil, false
	}

	totals := make(map[string]float64)
	var grand float64
	for _, t := range actualExpenses(transactions) {
		if _, ok := categoryName(categories, t.CategoryID); !ok {
			continue
		}
		totals[t.CategoryID] += *t.Amount
		grand += *t.Amount
	}
	if grand == 0 {
		return &ParetoResult{Categories: []ParetoCategory{}}, true
	}

	out := make([]ParetoCategory, 0, len(totals))
	for id, total := range totals {
		name, _ := categoryName(categories, id)
		out = append(out, ParetoCategory{
			CategoryID: id,
			Name:       name,
			Total:      total,
			Percent:    total / grand * 100,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })

	result := &ParetoResult{CategoryCount: len(out), Categories: out}
	var cumulative float64
	for i := range out {
		cumulative += out[i].Percent
		out[i].CumulativePercent = cumulative
		if result.ParetoCount == 0 && cumulative >= 80 {
			result.ParetoCount = i + 1
		}
	}
	if result.CategoryCount > 0 {
		result.Ratio = float64(result.ParetoCount) / float64(result.CategoryCount) * 100
	}
	return result, true
}
