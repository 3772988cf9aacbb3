package analytics

import (
	"sort"

	"moneta/internal/core"
)

// Cohort aggregates the actual transactions of one calendar month.
type Cohort struct {
	Month             string             `json:"month"`
	Income            float64            `json:"income"`
	Expense           float64            `json:"expense"`
	Net               float64            `json:"net"`
	IncomeCount       int                `json:"incomeCount"`
	ExpenseCount      int                `json:"expenseCount"`
	AvgIncome         float64            `json:"avgIncome"`
	AvgExpense        float64            `json:"avgExpense"`
	ExpenseByCategory map[string]float64 `json:"expenseByCategory"`
}

// Ratio trend outcomes comparing the first and last cohort's
// expense-to-income ratio.
const (
	RatioWorsened = "worsened"
	RatioImproved = "improved"
	RatioStable   = "stable"
)

// CohortResult carries the chronological cohorts plus the derived trend
// signals.
type CohortResult struct {
	Cohorts      []Cohort `json:"cohorts"`
	DecliningNet bool     `json:"decliningNet"`
	RatioTrend   string   `json:"ratioTrend"`
}

// Cohorts groups actual transactions by calendar month, oldest first, and
// derives two signals: a strictly decreasing net balance over the last three
// cohorts, and a 20 percent relative change in the expense-to-income ratio
// between the first and last cohort. Requires at least 20 actual
// transactions.
func Cohorts(transactions []core.Transaction, categories []core.Category) (*CohortResult, bool) {
	all := actuals(transactions)
	if len(all) < minScoredTransactions {
		return nil, false
	}

	byMonth := make(map[string]*Cohort)
	for _, t := range all {
		key := t.Date.MonthKey()
		c, ok := byMonth[key]
		if !ok {
			c = &Cohort{Month: key, ExpenseByCategory: make(map[string]float64)}
			byMonth[key] = c
		}
		if t.Type == core.Income {
			c.Income += *t.Amount
			c.IncomeCount++
		} else {
			c.Expense += *t.Amount
			c.ExpenseCount++
			if name, ok := categoryName(categories, t.CategoryID); ok {
				c.ExpenseByCategory[name] += *t.Amount
			}
		}
	}

	cohorts := make([]Cohort, 0, len(byMonth))
	for _, c := range byMonth {
		c.Net = c.Income - c.Expense
		if c.IncomeCount > 0 {
			c.AvgIncome = c.Income / float64(c.IncomeCount)
		}
		if c.ExpenseCount > 0 {
			c.AvgExpense = c.Expense / float64(c.ExpenseCount)
		}
		cohorts = append(cohorts, *c)
	}
	sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].Month < cohorts[j].Month })

	return &CohortResult{
		Cohorts:      cohorts,
		DecliningNet: decliningNet(cohorts),
		RatioTrend:   ratioTrend(cohorts),
	}, true
}

// decliningNet reports a strictly decreasing net balance over the last three
// cohorts.
func decliningNet(cohorts []Cohort) bool {
	if len(cohorts) < 3 {
		return false
	}
	last := cohorts[len(cohorts)-3:]
	return last[1].Net < last[0].Net && last[2].Net < last[1].Net
}

// ratioTrend compares the first and last cohort's expense-to-income ratio.
// A relative increase of at least 20 percent reads as worsened, a decrease
// of at least 20 percent as improved. Cohorts without income are skipped.
func ratioTrend(cohorts []Cohort) string {
	if len(cohorts) < 2 {
		return RatioStable
	}
	first, last := cohorts[0], cohorts[len(cohorts)-1]
	if first.Income == 0 || last.Income == 0 {
		return RatioStable
	}
	firstRatio := first.Expense / first.Income
	if firstRatio == 0 {
		return RatioStable
	}
	change := (last.Expense/last.Income - firstRatio) / firstRatio
	switch {
	case change >= 0.20:
		return RatioWorsened
	case change <= -0.20:
		return RatioImproved
	default:
		return RatioStable
	}
}
