// Package budget compares planned budget amounts against realized spending.
// It is a pure read-side consumer of the ledger document and never mutates it.
package budget

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"moneta/internal/core"
)

// Status classifies a budget by its variance as a percentage of the planned
// amount.
type Status string

const (
	StatusOver     Status = "over-budget"  // variance > +10%
	StatusNear     Status = "near-budget"  // variance in (0, +10%]
	StatusOn       Status = "on-budget"    // variance in (-20%, 0]
	StatusUnder    Status = "under-budget" // variance <= -20%
	StatusNoBudget Status = "no-budget"    // planned amount is zero
)

// Item is the analysis result for one budget.
type Item struct {
	BudgetID        string            `json:"budgetId"`
	CategoryID      string            `json:"categoryId"`
	CategoryName    string            `json:"categoryName"`
	SubcategoryID   string            `json:"subcategoryId,omitempty"`
	Period          core.BudgetPeriod `json:"period"`
	Year            int               `json:"year"`
	Month           *int              `json:"month,omitempty"`
	PlannedAmount   float64           `json:"plannedAmount"`
	ActualAmount    float64           `json:"actualAmount"`
	Variance        float64           `json:"variance"`
	VariancePercent float64           `json:"variancePercent"`
	Progress        float64           `json:"progress"`
	Status          Status            `json:"status"`
}

// Report aggregates the per-budget items for one requested period.
type Report struct {
	Year         int     `json:"year"`
	Month        *int    `json:"month,omitempty"`
	TotalPlanned float64 `json:"totalPlanned"`
	TotalActual  float64 `json:"totalActual"`
	Items        []Item  `json:"items"`
}

// Analyzer computes planned-vs-actual variance reports.
type Analyzer struct {
	logger *slog.Logger
}

func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger.With("component", "budget")}
}

// Analyze selects the budgets covering the requested period and compares each
// against the actual spend in its category and date window. Monthly budgets
// require a month match and use that month's window; yearly budgets ignore
// the requested month and use the full year. Budgets whose category no longer
// exists are skipped and logged. Items sort by descending absolute variance
// so the largest misses come first.
func (a *Analyzer) Analyze(ctx context.Context, doc *core.Document, year int, month *int) *Report {
	report := &Report{Year: year, Month: month, Items: []Item{}}

	for _, b := range doc.Budgets {
		if b.Year != year {
			continue
		}
		var start, end core.Date
		switch b.Period {
		case core.Monthly:
			if month == nil || b.Month == nil || *b.Month != *month {
				continue
			}
			start, end = core.MonthWindow(b.Year, *b.Month)
		case core.Yearly:
			start, end = core.YearWindow(b.Year)
		default:
			continue
		}

		category := doc.Category(b.CategoryID)
		if category == nil {
			a.logger.WarnContext(ctx, "Budget references missing category, skipped",
				"budget_id", b.ID, "category_id", b.CategoryID)
			continue
		}

		actual := sumActual(doc.Transactions, b, start, end)
		item := Item{
			BudgetID:      b.ID,
			CategoryID:    b.CategoryID,
			CategoryName:  category.Name,
			SubcategoryID: b.SubcategoryID,
			Period:        b.Period,
			Year:          b.Year,
			Month:         b.Month,
			PlannedAmount: b.PlannedAmount,
			ActualAmount:  actual,
			Variance:      actual - b.PlannedAmount,
		}
		if b.PlannedAmount != 0 {
			item.VariancePercent = item.Variance / b.PlannedAmount * 100
			item.Progress = math.Min(actual/b.PlannedAmount*100, 100)
		}
		item.Status = classify(b.PlannedAmount, item.VariancePercent)

		report.TotalPlanned += b.PlannedAmount
		report.TotalActual += actual
		report.Items = append(report.Items, item)
	}

	sort.SliceStable(report.Items, func(i, j int) bool {
		return math.Abs(report.Items[i].Variance) > math.Abs(report.Items[j].Variance)
	})
	return report
}

func sumActual(transactions []core.Transaction, b core.Budget, start, end core.Date) float64 {
	var total float64
	for _, t := range transactions {
		if t.Status != core.Actual || t.Amount == nil {
			continue
		}
		if t.CategoryID != b.CategoryID {
			continue
		}
		if b.SubcategoryID != "" && t.SubcategoryID != b.SubcategoryID {
			continue
		}
		if !t.Date.InRange(start, end) {
			continue
		}
		total += *t.Amount
	}
	return total
}

func classify(planned, variancePercent float64) Status {
	if planned == 0 {
		return StatusNoBudget
	}
	switch {
	case variancePercent > 10:
		return StatusOver
	case variancePercent > 0:
		return StatusNear
	case variancePercent > -20:
		return StatusOn
	default:
		return StatusUnder
	}
}
