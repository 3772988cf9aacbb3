package ledger

import (
	"context"
	"testing"

	"moneta/internal/core"
)

func TestGetSummaryStatsVariance(t *testing.T) {
	svc := newTestService(t)
	expenseCat, incomeCat, account := seed(t, svc)
	ctx := context.Background()

	if _, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Income, Status: core.Actual, Amount: 1000,
		CategoryID: incomeCat, AccountID: account, Date: "2024-07-01",
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	planned, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Planned, Amount: 200,
		CategoryID: expenseCat, AccountID: account, Date: "2024-07-05",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if _, err := svc.RealizePlannedTransaction(ctx, planned.ID, core.Float(250)); err != nil {
		t.Fatalf("RealizePlannedTransaction: %v", err)
	}
	// A still-planned expense contributes to planned totals only.
	if _, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Planned, Amount: 40,
		CategoryID: expenseCat, AccountID: account, Date: "2024-07-20",
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	stats, err := svc.GetSummaryStats(ctx, Filter{})
	if err != nil {
		t.Fatalf("GetSummaryStats: %v", err)
	}
	if stats.TotalIncome != 1000 {
		t.Errorf("totalIncome = %v, want 1000", stats.TotalIncome)
	}
	if stats.TotalExpense != 250 {
		t.Errorf("totalExpense = %v, want 250 (realized amount, not planned)", stats.TotalExpense)
	}
	if stats.ExpenseVariance != 50 {
		t.Errorf("expenseVariance = %v, want 50 (250 realized against 200 planned)", stats.ExpenseVariance)
	}
	if stats.PlannedExpense != 40 {
		t.Errorf("plannedExpense = %v, want 40", stats.PlannedExpense)
	}
	if stats.Balance != 750 {
		t.Errorf("balance = %v, want 750", stats.Balance)
	}
	if stats.TransactionCount != 3 {
		t.Errorf("transactionCount = %v, want 3", stats.TransactionCount)
	}
}

func TestGetMonthlyStatsBucketsByMonth(t *testing.T) {
	svc := newTestService(t)
	expenseCat, incomeCat, account := seed(t, svc)
	ctx := context.Background()

	fixtures := []struct {
		typ    core.TransactionType
		cat    string
		amount float64
		date   string
	}{
		{core.Income, incomeCat, 500, "2024-01-10"},
		{core.Expense, expenseCat, 120, "2024-01-20"},
		{core.Expense, expenseCat, 80, "2024-03-05"},
		{core.Expense, expenseCat, 999, "2023-03-05"}, // wrong year
	}
	for _, f := range fixtures {
		if _, err := svc.AddTransaction(ctx, TransactionInput{
			Type: f.typ, Status: core.Actual, Amount: f.amount,
			CategoryID: f.cat, AccountID: account, Date: f.date,
		}); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}

	months, err := svc.GetMonthlyStats(ctx, Filter{}, 2024)
	if err != nil {
		t.Fatalf("GetMonthlyStats: %v", err)
	}
	if len(months) != 12 {
		t.Fatalf("months = %d, want 12", len(months))
	}
	jan := months[0]
	if jan.Income != 500 || jan.Expense != 120 || jan.Net != 380 || jan.Count != 2 {
		t.Errorf("january = %+v, want income 500 expense 120 net 380 count 2", jan)
	}
	if months[2].Expense != 80 {
		t.Errorf("march expense = %v, want 80", months[2].Expense)
	}
	if months[1].Count != 0 {
		t.Errorf("february should be empty, got %+v", months[1])
	}
}

func TestGetCategoryStatsSharesAndMissingCategories(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	other, err := svc.AddCategory(ctx, CategoryInput{Name: "Transport", Type: core.Expense})
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}

	for _, f := range []struct {
		cat    string
		amount float64
	}{
		{expenseCat, 300},
		{expenseCat, 100},
		{other.ID, 100},
	} {
		if _, err := svc.AddTransaction(ctx, TransactionInput{
			Type: core.Expense, Status: core.Actual, Amount: f.amount,
			CategoryID: f.cat, AccountID: account, Date: "2024-08-01",
		}); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}

	stats, err := svc.GetCategoryStats(ctx, core.Expense, Filter{})
	if err != nil {
		t.Fatalf("GetCategoryStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats = %d, want 2", len(stats))
	}
	if stats[0].CategoryID != expenseCat || stats[0].Total != 400 {
		t.Errorf("top category = %+v, want %s with total 400", stats[0], expenseCat)
	}
	if stats[0].Percent != 80 {
		t.Errorf("top category percent = %v, want 80", stats[0].Percent)
	}
	if stats[1].Percent != 20 {
		t.Errorf("second category percent = %v, want 20", stats[1].Percent)
	}
}

func TestGetTagStatsCanonicalCasing(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	if _, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 30,
		CategoryID: expenseCat, AccountID: account, Date: "2024-08-02",
		Tags: []string{"Lunch"},
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if _, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 20,
		CategoryID: expenseCat, AccountID: account, Date: "2024-08-03",
		Tags: []string{"lunch"},
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	stats, err := svc.GetTagStats(ctx, Filter{})
	if err != nil {
		t.Fatalf("GetTagStats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats = %d, want 1 (case-insensitive grouping)", len(stats))
	}
	if stats[0].Total != 50 || stats[0].Count != 2 {
		t.Errorf("tag stat = %+v, want total 50 count 2", stats[0])
	}
	if stats[0].Name != "Lunch" {
		t.Errorf("tag name = %q, want registry casing %q", stats[0].Name, "Lunch")
	}
}
