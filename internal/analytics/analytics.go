// Package analytics derives statistical views from ledger data: RFM scoring,
// Pareto concentration, monthly cohort trends and a short-horizon forecast.
// Every function is pure over a transaction snapshot and never mutates it.
// Below the minimum data threshold each analysis reports ok=false instead of
// returning a degenerate result.
package analytics

import (
	"sort"
	"time"

	"moneta/internal/core"
)

const (
	// minScoredTransactions gates RFM, Pareto and cohort analysis.
	minScoredTransactions = 20
	// minForecastPeriods is the number of distinct months required before
	// forecasting.
	minForecastPeriods = 6
	// minAdviceTransactions gates the aggregated recommendations.
	minAdviceTransactions = 10
)

func actuals(transactions []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.Status == core.Actual && t.Amount != nil {
			out = append(out, t)
		}
	}
	return out
}

func actualExpenses(transactions []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.Status == core.Actual && t.Amount != nil && t.Type == core.Expense {
			out = append(out, t)
		}
	}
	return out
}

func categoryName(categories []core.Category, id string) (string, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}

// monthlyTotal holds one calendar month's realized income and expense sums.
type monthlyTotal struct {
	Month   string
	Income  float64
	Expense float64
}

// monthlyTotals buckets actual transactions by calendar month, oldest first.
// Only months with at least one actual transaction appear.
func monthlyTotals(transactions []core.Transaction) []monthlyTotal {
	byMonth := make(map[string]*monthlyTotal)
	for _, t := range actuals(transactions) {
		key := t.Date.MonthKey()
		m, ok := byMonth[key]
		if !ok {
			m = &monthlyTotal{Month: key}
			byMonth[key] = m
		}
		if t.Type == core.Income {
			m.Income += *t.Amount
		} else {
			m.Expense += *t.Amount
		}
	}

	out := make([]monthlyTotal, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// nextMonthKey advances a "2006-01" month key by one calendar month.
func nextMonthKey(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.AddDate(0, 1, 0).Format("2006-01")
}
