package analytics

import (
	"fmt"
	"testing"

	"moneta/internal/core"
)

// monthFixture builds one month of data: a single income plus n expenses of
// the given amount.
func monthFixture(ts []core.Transaction, year, month int, income float64, expenses int, amount float64) []core.Transaction {
	key := fmt.Sprintf("%d-%d", year, month)
	ts = append(ts, incomeTxn("i-"+key, income, core.NewDate(year, month, 1)))
	for i := 0; i < expenses; i++ {
		ts = append(ts, expenseTxn(fmt.Sprintf("e-%s-%d", key, i), "groceries", amount, core.NewDate(year, month, 10)))
	}
	return ts
}

func TestCohortsBelowThreshold(t *testing.T) {
	ts := bulkExpenses(nil, 19, "groceries", 10, core.NewDate(2024, 6, 1))
	if _, ok := Cohorts(ts, testCategories); ok {
		t.Error("19 transactions should not be enough for cohort analysis")
	}
}

func TestCohortsMetrics(t *testing.T) {
	var ts []core.Transaction
	ts = monthFixture(ts, 2024, 1, 1000, 10, 30) // net 700
	ts = monthFixture(ts, 2024, 2, 1000, 10, 50) // net 500

	result, ok := Cohorts(ts, testCategories)
	if !ok {
		t.Fatal("cohorts should run with 22 transactions")
	}
	if len(result.Cohorts) != 2 {
		t.Fatalf("cohorts = %d, want 2", len(result.Cohorts))
	}

	jan := result.Cohorts[0]
	if jan.Month != "2024-01" {
		t.Errorf("first cohort = %s, want 2024-01 (chronological order)", jan.Month)
	}
	if jan.Income != 1000 || jan.Expense != 300 || jan.Net != 700 {
		t.Errorf("january = %+v, want income 1000 expense 300 net 700", jan)
	}
	if jan.IncomeCount != 1 || jan.ExpenseCount != 10 {
		t.Errorf("january counts = %d/%d, want 1/10", jan.IncomeCount, jan.ExpenseCount)
	}
	if jan.AvgIncome != 1000 || jan.AvgExpense != 30 {
		t.Errorf("january averages = %v/%v, want 1000/30", jan.AvgIncome, jan.AvgExpense)
	}
	if jan.ExpenseByCategory["Groceries"] != 300 {
		t.Errorf("january groceries = %v, want 300", jan.ExpenseByCategory["Groceries"])
	}
}

func TestCohortsDecliningNet(t *testing.T) {
	var ts []core.Transaction
	ts = monthFixture(ts, 2024, 1, 1000, 6, 20) // net 880
	ts = monthFixture(ts, 2024, 2, 1000, 6, 50) // net 700
	ts = monthFixture(ts, 2024, 3, 1000, 6, 80) // net 520
	ts = monthFixture(ts, 2024, 4, 1000, 6, 90) // net 460

	result, ok := Cohorts(ts, testCategories)
	if !ok {
		t.Fatal("cohorts should run")
	}
	if !result.DecliningNet {
		t.Error("three strictly declining nets should trip the signal")
	}
	if result.RatioTrend != RatioWorsened {
		t.Errorf("ratio trend = %s, want worsened (0.12 -> 0.54)", result.RatioTrend)
	}
}

func TestCohortsStableNet(t *testing.T) {
	var ts []core.Transaction
	ts = monthFixture(ts, 2024, 1, 1000, 8, 50)
	ts = monthFixture(ts, 2024, 2, 1000, 8, 50)
	ts = monthFixture(ts, 2024, 3, 1000, 8, 50)

	result, ok := Cohorts(ts, testCategories)
	if !ok {
		t.Fatal("cohorts should run")
	}
	if result.DecliningNet {
		t.Error("flat nets must not trip the decline signal")
	}
	if result.RatioTrend != RatioStable {
		t.Errorf("ratio trend = %s, want stable", result.RatioTrend)
	}
}

func TestCohortsImprovedRatio(t *testing.T) {
	var ts []core.Transaction
	ts = monthFixture(ts, 2024, 1, 1000, 10, 60) // ratio 0.6
	ts = monthFixture(ts, 2024, 2, 1000, 10, 30) // ratio 0.3

	result, ok := Cohorts(ts, testCategories)
	if !ok {
		t.Fatal("cohorts should run")
	}
	if result.RatioTrend != RatioImproved {
		t.Errorf("ratio trend = %s, want improved", result.RatioTrend)
	}
}
