package analytics

import (
	"fmt"
	"time"

	"moneta/internal/core"
)

// Recommendation is one piece of advice derived from the analyses.
type Recommendation struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Recommendations aggregates the signals of the other analyses into advice
// entries. Requires at least 10 actual transactions; the underlying analyses
// keep their own stricter thresholds and simply contribute nothing when
// below them.
func Recommendations(transactions []core.Transaction, categories []core.Category, now time.Time) ([]Recommendation, bool) {
	if len(actuals(transactions)) < minAdviceTransactions {
		return nil, false
	}

	var out []Recommendation

	if scores, ok := RFM(transactions, categories, now); ok && len(scores) > 0 {
		top := scores[0]
		out = append(out, Recommendation{
			Kind:     "rfm",
			Severity: SeverityInfo,
			Message: fmt.Sprintf("%s is your most engaged spending category (score %.1f, %d transactions)",
				top.CategoryName, top.Score, top.Count),
		})
	}

	if pareto, ok := Pareto(transactions, categories); ok && pareto.ParetoCount > 0 {
		severity := SeverityInfo
		if pareto.Ratio <= 34 {
			severity = SeverityWarning
		}
		out = append(out, Recommendation{
			Kind:     "pareto",
			Severity: severity,
			Message: fmt.Sprintf("%d of %d categories account for 80%% of your spending",
				pareto.ParetoCount, pareto.CategoryCount),
		})
	}

	if cohorts, ok := Cohorts(transactions, categories); ok {
		if cohorts.DecliningNet {
			out = append(out, Recommendation{
				Kind:     "cohort",
				Severity: SeverityWarning,
				Message:  "Your net balance has declined three months in a row",
			})
		}
		switch cohorts.RatioTrend {
		case RatioWorsened:
			out = append(out, Recommendation{
				Kind:     "cohort",
				Severity: SeverityWarning,
				Message:  "Your expense-to-income ratio has worsened by 20% or more",
			})
		case RatioImproved:
			out = append(out, Recommendation{
				Kind:     "cohort",
				Severity: SeverityInfo,
				Message:  "Your expense-to-income ratio has improved by 20% or more",
			})
		}
	}

	if forecast, ok := Forecast(transactions); ok {
		if forecast.NegativeBalance {
			out = append(out, Recommendation{
				Kind:     "forecast",
				Severity: SeverityWarning,
				Message:  "Projected expenses exceed projected income next month",
			})
		}
		if forecast.SurplusNote {
			out = append(out, Recommendation{
				Kind:     "forecast",
				Severity: SeverityInfo,
				Message:  "Projected surplus exceeds 20% of this month's net balance",
			})
		}
		if forecast.ExpenseAlert {
			out = append(out, Recommendation{
				Kind:     "forecast",
				Severity: SeverityWarning,
				Message: fmt.Sprintf("Projected expenses change by %.0f%% versus the latest month",
					forecast.ExpenseChangePercent),
			})
		}
		if forecast.IncomeAlert {
			out = append(out, Recommendation{
				Kind:     "forecast",
				Severity: SeverityWarning,
				Message: fmt.Sprintf("Projected income changes by %.0f%% versus the latest month",
					forecast.IncomeChangePercent),
			})
		}
	}

	if len(out) == 0 {
		out = append(out, Recommendation{
			Kind:     "general",
			Severity: SeverityInfo,
			Message:  "Spending looks stable, no notable signals this period",
		})
	}
	return out, true
}
