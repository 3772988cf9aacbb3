package ledger

import (
	"context"
	"errors"
	"testing"

	"moneta/internal/core"
	"moneta/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	svc := NewService(store, nil, nil)
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return svc
}

// seed returns ids of an expense category, an income category and the cash
// account from the seeded default document.
func seed(t *testing.T, svc *Service) (expenseCat, incomeCat, account string) {
	t.Helper()
	ctx := context.Background()

	cats, err := svc.GetCategories(ctx, "")
	if err != nil {
		t.Fatalf("GetCategories: %v", err)
	}
	for _, c := range cats {
		switch c.Type {
		case core.Expense:
			expenseCat = c.ID
		case core.Income:
			incomeCat = c.ID
		}
	}
	accounts, err := svc.GetAccounts(ctx, false)
	if err != nil || len(accounts) == 0 {
		t.Fatalf("GetAccounts: %v (%d accounts)", err, len(accounts))
	}
	return expenseCat, incomeCat, accounts[0].ID
}

func accountBalance(t *testing.T, svc *Service, id string) float64 {
	t.Helper()
	accounts, err := svc.GetAccounts(context.Background(), false)
	if err != nil {
		t.Fatalf("GetAccounts: %v", err)
	}
	for _, a := range accounts {
		if a.ID == id {
			return a.Balance
		}
	}
	t.Fatalf("account %s not found", id)
	return 0
}

func TestAddIncomeTransactionAdjustsBalance(t *testing.T) {
	svc := newTestService(t)
	_, incomeCat, account := seed(t, svc)
	ctx := context.Background()

	tr, err := svc.AddTransaction(ctx, TransactionInput{
		Type:       core.Income,
		Status:     core.Actual,
		Amount:     1000,
		CategoryID: incomeCat,
		AccountID:  account,
		Date:       "2024-01-15",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if tr.Amount == nil || *tr.Amount != 1000 {
		t.Errorf("amount = %v, want 1000", tr.Amount)
	}

	if got := accountBalance(t, svc, account); got != 1000 {
		t.Errorf("balance = %v, want 1000", got)
	}
}

func TestAddPlannedTransactionDefaultsPlannedAmount(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	tr, err := svc.AddTransaction(ctx, TransactionInput{
		Type:       core.Expense,
		Status:     core.Planned,
		Amount:     200, // no explicit planned amount: the raw amount is used
		CategoryID: expenseCat,
		AccountID:  account,
		Date:       "2024-02-01",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if tr.Amount != nil {
		t.Error("planned transaction must not carry an amount")
	}
	if tr.PlannedAmount == nil || *tr.PlannedAmount != 200 {
		t.Errorf("plannedAmount = %v, want 200", tr.PlannedAmount)
	}

	// Planned transactions never touch the balance.
	if got := accountBalance(t, svc, account); got != 0 {
		t.Errorf("balance = %v, want 0", got)
	}
}

func TestAddTransactionValidation(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   TransactionInput
		wantErr error
	}{
		{
			name: "missing account",
			input: TransactionInput{
				Type: core.Expense, Amount: 10, CategoryID: expenseCat, Date: "2024-01-01",
			},
			wantErr: core.ErrValidation,
		},
		{
			name: "bad date",
			input: TransactionInput{
				Type: core.Expense, Amount: 10, CategoryID: expenseCat, AccountID: account, Date: "tomorrow",
			},
			wantErr: core.ErrValidation,
		},
		{
			name: "unknown category",
			input: TransactionInput{
				Type: core.Expense, Amount: 10, CategoryID: "nope", AccountID: account, Date: "2024-01-01",
			},
			wantErr: core.ErrNotFound,
		},
		{
			name: "unknown account",
			input: TransactionInput{
				Type: core.Expense, Amount: 10, CategoryID: expenseCat, AccountID: "nope", Date: "2024-01-01",
			},
			wantErr: core.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddTransaction(ctx, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRealizePlannedTransaction(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	planned, err := svc.AddTransaction(ctx, TransactionInput{
		Type:          core.Expense,
		Status:        core.Planned,
		PlannedAmount: core.Float(200),
		CategoryID:    expenseCat,
		AccountID:     account,
		Date:          "2024-03-10",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	realized, err := svc.RealizePlannedTransaction(ctx, planned.ID, core.Float(250))
	if err != nil {
		t.Fatalf("RealizePlannedTransaction: %v", err)
	}
	if realized.Status != core.Actual {
		t.Errorf("status = %v, want actual", realized.Status)
	}
	if realized.Amount == nil || *realized.Amount != 250 {
		t.Errorf("amount = %v, want 250", realized.Amount)
	}
	if realized.PlannedAmount == nil || *realized.PlannedAmount != 200 {
		t.Errorf("plannedAmount = %v, want 200 (preserved for variance)", realized.PlannedAmount)
	}
	if got := accountBalance(t, svc, account); got != -250 {
		t.Errorf("balance = %v, want -250", got)
	}

	// Realize-then-query: the realized transaction shows up as actual.
	actuals, err := svc.GetTransactions(ctx, Filter{Status: core.Actual})
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	found := false
	for _, tr := range actuals {
		if tr.ID == planned.ID {
			found = true
			if tr.PlannedAmount == nil || *tr.PlannedAmount != 200 {
				t.Errorf("queried plannedAmount = %v, want 200", tr.PlannedAmount)
			}
		}
	}
	if !found {
		t.Error("realized transaction missing from actual query")
	}
}

func TestRealizeWithoutAmountFallsBackToPlanned(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	planned, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Planned, Amount: 80,
		CategoryID: expenseCat, AccountID: account, Date: "2024-03-11",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	realized, err := svc.RealizePlannedTransaction(ctx, planned.ID, nil)
	if err != nil {
		t.Fatalf("RealizePlannedTransaction: %v", err)
	}
	if realized.Amount == nil || *realized.Amount != 80 {
		t.Errorf("amount = %v, want 80 (planned amount)", realized.Amount)
	}
}

func TestRealizeUnknownOrActualFails(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	if _, err := svc.RealizePlannedTransaction(ctx, "missing", nil); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown id: error = %v, want ErrNotFound", err)
	}

	actual, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 10,
		CategoryID: expenseCat, AccountID: account, Date: "2024-03-12",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if _, err := svc.RealizePlannedTransaction(ctx, actual.ID, nil); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("already actual: error = %v, want ErrNotFound", err)
	}
}

func TestUpdateMovesBalanceBetweenAccounts(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, accountA := seed(t, svc)
	ctx := context.Background()

	accountB, err := svc.AddAccount(ctx, AccountInput{Name: "Checking", Type: "bank"})
	if err != nil {
		t.Fatalf("AddAccount: %v", err)
	}

	tr, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 100,
		CategoryID: expenseCat, AccountID: accountA, Date: "2024-04-01",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if got := accountBalance(t, svc, accountA); got != -100 {
		t.Fatalf("A balance = %v, want -100", got)
	}

	// Move the transaction to account B without changing the amount:
	// A gains the amount back, B loses it.
	if _, err := svc.UpdateTransaction(ctx, tr.ID, TransactionUpdate{AccountID: &accountB.ID}); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if got := accountBalance(t, svc, accountA); got != 0 {
		t.Errorf("A balance = %v, want 0", got)
	}
	if got := accountBalance(t, svc, accountB.ID); got != -100 {
		t.Errorf("B balance = %v, want -100", got)
	}
}

func TestUpdateAmountDoesNotDoubleCount(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	tr, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 50,
		CategoryID: expenseCat, AccountID: account, Date: "2024-04-02",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	// Same account, new amount: the old contribution must be reversed
	// before the new one is applied.
	if _, err := svc.UpdateTransaction(ctx, tr.ID, TransactionUpdate{Amount: core.Float(75)}); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if got := accountBalance(t, svc, account); got != -75 {
		t.Errorf("balance = %v, want -75", got)
	}
}

func TestUpdateActualToPlannedReversesBalance(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	tr, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 60,
		CategoryID: expenseCat, AccountID: account, Date: "2024-04-03",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	status := core.Planned
	updated, err := svc.UpdateTransaction(ctx, tr.ID, TransactionUpdate{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Amount != nil {
		t.Error("amount must be nil after moving back to planned")
	}
	if updated.PlannedAmount == nil || *updated.PlannedAmount != 60 {
		t.Errorf("plannedAmount = %v, want 60 (taken from the old amount)", updated.PlannedAmount)
	}
	if got := accountBalance(t, svc, account); got != 0 {
		t.Errorf("balance = %v, want 0 (contribution reversed, not re-applied)", got)
	}
}

func TestUpdatePlannedToActualViaUpdate(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	tr, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Planned, Amount: 90,
		CategoryID: expenseCat, AccountID: account, Date: "2024-04-04",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	status := core.Actual
	updated, err := svc.UpdateTransaction(ctx, tr.ID, TransactionUpdate{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Amount == nil || *updated.Amount != 90 {
		t.Errorf("amount = %v, want 90 (from planned amount)", updated.Amount)
	}
	if got := accountBalance(t, svc, account); got != -90 {
		t.Errorf("balance = %v, want -90", got)
	}
}

func TestDeleteTransactionReversesBalance(t *testing.T) {
	svc := newTestService(t)
	_, incomeCat, account := seed(t, svc)
	ctx := context.Background()

	tr, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Income, Status: core.Actual, Amount: 300,
		CategoryID: incomeCat, AccountID: account, Date: "2024-04-05",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	if err := svc.DeleteTransaction(ctx, tr.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if got := accountBalance(t, svc, account); got != 0 {
		t.Errorf("balance = %v, want 0", got)
	}

	if err := svc.DeleteTransaction(ctx, tr.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}

func TestBalanceInvariantAcrossMutations(t *testing.T) {
	svc := newTestService(t)
	expenseCat, incomeCat, account := seed(t, svc)
	ctx := context.Background()

	if _, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Income, Status: core.Actual, Amount: 500,
		CategoryID: incomeCat, AccountID: account, Date: "2024-05-01",
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	planned, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Planned, Amount: 120,
		CategoryID: expenseCat, AccountID: account, Date: "2024-05-02",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if _, err := svc.RealizePlannedTransaction(ctx, planned.ID, core.Float(110)); err != nil {
		t.Fatalf("RealizePlannedTransaction: %v", err)
	}

	// The materialized balance must agree with a from-scratch recompute.
	drifts, err := svc.ReconcileBalances(ctx)
	if err != nil {
		t.Fatalf("ReconcileBalances: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("unexpected drift: %+v", drifts)
	}
	if got := accountBalance(t, svc, account); got != 390 {
		t.Errorf("balance = %v, want 390", got)
	}
}

func TestTagUsageTracking(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	if _, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 10,
		CategoryID: expenseCat, AccountID: account, Date: "2024-06-01",
		Tags: []string{"coffee", "Work"},
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if _, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 12,
		CategoryID: expenseCat, AccountID: account, Date: "2024-06-02",
		Tags: []string{"COFFEE"}, // same tag, different case
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	tags, err := svc.GetTags(ctx, TagQuery{SortBy: "usage"})
	if err != nil {
		t.Fatalf("GetTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("tags = %d, want 2", len(tags))
	}
	if tags[0].Name != "coffee" || tags[0].UsageCount != 2 {
		t.Errorf("top tag = %s(%d), want coffee(2)", tags[0].Name, tags[0].UsageCount)
	}
}

func TestDeleteTagInUseRequiresForce(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	if _, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 10,
		CategoryID: expenseCat, AccountID: account, Date: "2024-06-03",
		Tags: []string{"travel"},
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	tags, err := svc.GetTags(ctx, TagQuery{})
	if err != nil || len(tags) != 1 {
		t.Fatalf("GetTags: %v (%d)", err, len(tags))
	}
	tagID := tags[0].ID

	if err := svc.DeleteTag(ctx, tagID, false); !errors.Is(err, core.ErrTagInUse) {
		t.Fatalf("unforced delete: error = %v, want ErrTagInUse", err)
	}

	if err := svc.DeleteTag(ctx, tagID, true); err != nil {
		t.Fatalf("forced delete: %v", err)
	}
	trs, err := svc.GetTransactions(ctx, Filter{})
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	for _, tr := range trs {
		if tr.HasTag("travel") {
			t.Error("forced tag deletion should strip the tag from transactions")
		}
	}
}

func TestDeleteCategoryRefusedWhileReferenced(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	tr, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 10,
		CategoryID: expenseCat, AccountID: account, Date: "2024-06-04",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	if err := svc.DeleteCategory(ctx, expenseCat); !errors.Is(err, core.ErrCategoryInUse) {
		t.Errorf("error = %v, want ErrCategoryInUse", err)
	}

	if err := svc.DeleteTransaction(ctx, tr.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := svc.DeleteCategory(ctx, expenseCat); err != nil {
		t.Errorf("delete after dereference: %v", err)
	}
}

func TestGetTransactionsFilterAndOrder(t *testing.T) {
	svc := newTestService(t)
	expenseCat, incomeCat, account := seed(t, svc)
	ctx := context.Background()

	dates := []string{"2024-01-10", "2024-03-05", "2024-02-20"}
	for _, d := range dates {
		if _, err := svc.AddTransaction(ctx, TransactionInput{
			Type: core.Expense, Status: core.Actual, Amount: 10,
			CategoryID: expenseCat, AccountID: account, Date: d,
		}); err != nil {
			t.Fatalf("AddTransaction(%s): %v", d, err)
		}
	}
	if _, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Income, Status: core.Actual, Amount: 99,
		CategoryID: incomeCat, AccountID: account, Date: "2024-02-25",
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	expenses, err := svc.GetTransactions(ctx, Filter{Type: core.Expense})
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	if len(expenses) != 3 {
		t.Fatalf("expenses = %d, want 3", len(expenses))
	}
	for i := 1; i < len(expenses); i++ {
		if expenses[i].Date.After(expenses[i-1].Date.Time) {
			t.Errorf("transactions not sorted date-descending: %v before %v",
				expenses[i-1].Date, expenses[i].Date)
		}
	}

	ranged, err := svc.GetTransactions(ctx, Filter{
		StartDate: core.NewDate(2024, 2, 20),
		EndDate:   core.NewDate(2024, 2, 25),
	})
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	if len(ranged) != 2 {
		t.Errorf("inclusive range matched %d, want 2", len(ranged))
	}
}
