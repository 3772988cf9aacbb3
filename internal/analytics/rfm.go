package analytics

import (
	"sort"
	"time"

	"moneta/internal/core"
)

// RFMScore ranks one expense category by recency, frequency and monetary
// weight. Each component is scored 1 to 5; Score is their arithmetic mean.
type RFMScore struct {
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	RecencyDays  int     `json:"recencyDays"`
	Recency      int     `json:"recency"`
	Frequency    int     `json:"frequency"`
	Monetary     int     `json:"monetary"`
	Score        float64 `json:"score"`
	Total        float64 `json:"total"`
	Count        int     `json:"count"`
}

// RFM scores every expense category with at least one actual transaction,
// best score first. Requires at least 20 actual transactions; below that it
// reports ok=false.
func RFM(transactions []core.Transaction, categories []core.Category, now time.Time) ([]RFMScore, bool) {
	if len(actuals(transactions)) < minScoredTransactions {
		return nil, false
	}

	expenses := actualExpenses(transactions)
	if len(expenses) == 0 {
		return []RFMScore{}, true
	}

	type bucket struct {
		total  float64
		count  int
		latest core.Date
	}
	byCategory := make(map[string]*bucket)
	amounts := make([]float64, 0, len(expenses))
	for _, t := range expenses {
		b, ok := byCategory[t.CategoryID]
		if !ok {
			b = &bucket{}
			byCategory[t.CategoryID] = b
		}
		b.total += *t.Amount
		b.count++
		if t.Date.After(b.latest.Time) {
			b.latest = t.Date
		}
		amounts = append(amounts, *t.Amount)
	}
	// The monetary percentile compares a category's total against the
	// individual transaction amounts, not against other category totals.
	sort.Sort(sort.Reverse(sort.Float64Slice(amounts)))

	out := make([]RFMScore, 0, len(byCategory))
	for id, b := range byCategory {
		name, ok := categoryName(categories, id)
		if !ok {
			continue
		}
		days := int(now.Sub(b.latest.Time).Hours() / 24)
		score := RFMScore{
			CategoryID:   id,
			CategoryName: name,
			RecencyDays:  days,
			Recency:      recencyScore(days),
			Frequency:    frequencyScore(float64(b.count) / float64(len(expenses))),
			Monetary:     monetaryScore(percentileRank(amounts, b.total)),
			Total:        b.total,
			Count:        b.count,
		}
		score.Score = float64(score.Recency+score.Frequency+score.Monetary) / 3
		out = append(out, score)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Total > out[j].Total
	})
	return out, true
}

func recencyScore(days int) int {
	switch {
	case days <= 7:
		return 5
	case days <= 14:
		return 4
	case days <= 30:
		return 3
	case days <= 60:
		return 2
	default:
		return 1
	}
}

func frequencyScore(ratio float64) int {
	switch {
	case ratio >= 0.20:
		return 5
	case ratio >= 0.15:
		return 4
	case ratio >= 0.10:
		return 3
	case ratio >= 0.05:
		return 2
	default:
		return 1
	}
}

func monetaryScore(percentile float64) int {
	switch {
	case percentile >= 80:
		return 5
	case percentile >= 60:
		return 4
	case percentile >= 40:
		return 3
	case percentile >= 20:
		return 2
	default:
		return 1
	}
}

// percentileRank walks a descending-sorted list and ranks the first element
// less than or equal to the value as a fraction of the list length. When no
// element qualifies the rank is 0, even though the queried value is then
// larger than everything in the list.
func percentileRank(sortedDesc []float64, value float64) float64 {
	for i, a := range sortedDesc {
		if a <= value {
			return float64(len(sortedDesc)-i) / float64(len(sortedDesc)) * 100
		}
	}
	return 0
}
