package ledger

import (
	"context"
	"sort"
	"strings"

	"moneta/internal/core"
)

// SummaryStats aggregates actual and planned totals over a filtered set of
// transactions. Variances compare realized amounts against the planned
// amounts they originated from.
type SummaryStats struct {
	TotalIncome      float64 `json:"totalIncome"`
	TotalExpense     float64 `json:"totalExpense"`
	Balance          float64 `json:"balance"`
	PlannedIncome    float64 `json:"plannedIncome"`
	PlannedExpense   float64 `json:"plannedExpense"`
	IncomeVariance   float64 `json:"incomeVariance"`
	ExpenseVariance  float64 `json:"expenseVariance"`
	TransactionCount int     `json:"transactionCount"`
}

type MonthStat struct {
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
	Count   int     `json:"count"`
}

type CategoryStat struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
	Percent    float64 `json:"percent"`
}

type TagStat struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// GetSummaryStats computes income/expense totals, planned totals and
// realized-vs-planned variance over the filtered transactions.
func (s *Service) GetSummaryStats(ctx context.Context, f Filter) (*SummaryStats, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	stats := &SummaryStats{}
	for _, t := range doc.Transactions {
		if !f.Matches(t) {
			continue
		}
		stats.TransactionCount++

		switch t.Status {
		case core.Actual:
			if t.Amount == nil {
				continue
			}
			if t.Type == core.Income {
				stats.TotalIncome += *t.Amount
			} else {
				stats.TotalExpense += *t.Amount
			}
			if t.PlannedAmount != nil {
				variance := *t.Amount - *t.PlannedAmount
				if t.Type == core.Income {
					stats.IncomeVariance += variance
				} else {
					stats.ExpenseVariance += variance
				}
			}
		case core.Planned:
			if t.PlannedAmount == nil {
				continue
			}
			if t.Type == core.Income {
				stats.PlannedIncome += *t.PlannedAmount
			} else {
				stats.PlannedExpense += *t.PlannedAmount
			}
		}
	}
	stats.Balance = stats.TotalIncome - stats.TotalExpense
	return stats, nil
}

// GetMonthlyStats buckets actual transactions of the given year by calendar
// month. Year 0 means the current year.
func (s *Service) GetMonthlyStats(ctx context.Context, f Filter, year int) ([]MonthStat, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return []MonthStat{}, err
	}
	if year == 0 {
		year = s.now().Year()
	}

	months := make([]MonthStat, 12)
	for i := range months {
		months[i].Month = i + 1
	}
	for _, t := range doc.Transactions {
		if t.Status != core.Actual || t.Amount == nil || t.Date.Year() != year || !f.Matches(t) {
			continue
		}
		m := &months[t.Date.Month()-1]
		m.Count++
		if t.Type == core.Income {
			m.Income += *t.Amount
		} else {
			m.Expense += *t.Amount
		}
	}
	for i := range months {
		months[i].Net = months[i].Income - months[i].Expense
	}
	return months, nil
}

// GetCategoryStats sums actual amounts per category for one transaction
// type, with each category's share of the type total. Transactions whose
// category no longer exists are skipped and logged.
func (s *Service) GetCategoryStats(ctx context.Context, typ core.TransactionType, f Filter) ([]CategoryStat, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return []CategoryStat{}, err
	}
	if typ == "" {
		typ = core.Expense
	}

	byCategory := make(map[string]*CategoryStat)
	var total float64
	for _, t := range doc.Transactions {
		if t.Status != core.Actual || t.Amount == nil || t.Type != typ || !f.Matches(t) {
			continue
		}
		c := doc.Category(t.CategoryID)
		if c == nil {
			s.logger.WarnContext(ctx, "Transaction references missing category, skipped in stats",
				"transaction_id", t.ID, "category_id", t.CategoryID)
			continue
		}
		stat, ok := byCategory[c.ID]
		if !ok {
			stat = &CategoryStat{CategoryID: c.ID, Name: c.Name}
			byCategory[c.ID] = stat
		}
		stat.Total += *t.Amount
		stat.Count++
		total += *t.Amount
	}

	out := make([]CategoryStat, 0, len(byCategory))
	for _, stat := range byCategory {
		if total > 0 {
			stat.Percent = stat.Total / total * 100
		}
		out = append(out, *stat)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

// GetTagStats sums actual amounts per tag over the filtered transactions.
func (s *Service) GetTagStats(ctx context.Context, f Filter) ([]TagStat, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return []TagStat{}, err
	}

	byTag := make(map[string]*TagStat)
	for _, t := range doc.Transactions {
		if t.Status != core.Actual || t.Amount == nil || !f.Matches(t) {
			continue
		}
		for _, name := range t.Tags {
			key := strings.ToLower(name)
			stat, ok := byTag[key]
			if !ok {
				// Prefer the canonical casing from the tag registry.
				canonical := name
				if tag := doc.TagByName(name); tag != nil {
					canonical = tag.Name
				}
				stat = &TagStat{Name: canonical}
				byTag[key] = stat
			}
			stat.Total += *t.Amount
			stat.Count++
		}
	}

	out := make([]TagStat, 0, len(byTag))
	for _, stat := range byTag {
		out = append(out, *stat)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}
