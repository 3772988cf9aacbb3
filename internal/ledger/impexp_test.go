package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"moneta/internal/core"
)

func TestExportImportReplaceRoundTrip(t *testing.T) {
	src := newTestService(t)
	expenseCat, _, account := seed(t, src)
	ctx := context.Background()

	if _, err := src.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 42,
		CategoryID: expenseCat, AccountID: account, Date: "2024-09-01",
		Tags: []string{"export"},
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	data, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var envelope struct {
		SchemaVersion int             `json:"schemaVersion"`
		Data          json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("export envelope: %v", err)
	}
	if envelope.SchemaVersion != core.SchemaVersion {
		t.Errorf("schemaVersion = %d, want %d", envelope.SchemaVersion, core.SchemaVersion)
	}

	dst := newTestService(t)
	if err := dst.Import(ctx, data, ImportReplace); err != nil {
		t.Fatalf("Import: %v", err)
	}

	trs, err := dst.GetTransactions(ctx, Filter{})
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	if len(trs) != 1 || trs[0].Amount == nil || *trs[0].Amount != 42 {
		t.Errorf("imported transactions = %+v, want the exported one", trs)
	}
	if got := accountBalance(t, dst, account); got != -42 {
		t.Errorf("imported balance = %v, want -42", got)
	}
}

func TestImportMergeSkipsExistingEntries(t *testing.T) {
	svc := newTestService(t)
	expenseCat, _, account := seed(t, svc)
	ctx := context.Background()

	existing, err := svc.AddTransaction(ctx, TransactionInput{
		Type: core.Expense, Status: core.Actual, Amount: 10,
		CategoryID: expenseCat, AccountID: account, Date: "2024-09-02",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	// The import carries the existing transaction with a different amount,
	// one new transaction, a category whose name collides with a seeded one
	// and an account whose name collides with the cash account.
	cats, err := svc.GetCategories(ctx, core.Expense)
	if err != nil || len(cats) == 0 {
		t.Fatalf("GetCategories: %v", err)
	}
	accounts, err := svc.GetAccounts(ctx, false)
	if err != nil || len(accounts) == 0 {
		t.Fatalf("GetAccounts: %v", err)
	}

	incoming := core.Document{
		Transactions: []core.Transaction{
			{
				ID: existing.ID, Type: core.Expense, Status: core.Actual,
				Amount: core.Float(9999), CategoryID: expenseCat,
				AccountID: account, Date: core.NewDate(2024, 9, 2),
			},
			{
				ID: "imported-1", Type: core.Expense, Status: core.Actual,
				Amount: core.Float(5), CategoryID: expenseCat,
				AccountID: account, Date: core.NewDate(2024, 9, 3),
			},
		},
		Categories: []core.Category{
			{ID: "other-id", Name: cats[0].Name, Type: core.Expense},
			{ID: "new-cat", Name: "Imported", Type: core.Expense},
		},
		Accounts: []core.Account{
			{ID: "other-acc", Name: accounts[0].Name, Balance: 12345},
		},
		Tags: []core.Tag{{ID: "new-tag", Name: "imported"}},
	}
	payload, err := json.Marshal(incoming)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := svc.Import(ctx, payload, ImportMerge); err != nil {
		t.Fatalf("Import: %v", err)
	}

	trs, err := svc.GetTransactions(ctx, Filter{})
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	if len(trs) != 2 {
		t.Fatalf("transactions = %d, want 2", len(trs))
	}
	kept, err := svc.GetTransaction(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if kept.Amount == nil || *kept.Amount != 10 {
		t.Errorf("merge overwrote existing transaction: amount = %v, want 10", kept.Amount)
	}

	cats, err = svc.GetCategories(ctx, core.Expense)
	if err != nil {
		t.Fatalf("GetCategories: %v", err)
	}
	names := map[string]int{}
	for _, c := range cats {
		names[c.Name]++
	}
	if names["Imported"] != 1 {
		t.Errorf("new category not merged: %v", names)
	}
	for name, n := range names {
		if n > 1 {
			t.Errorf("category %q duplicated by merge", name)
		}
	}

	accounts, err = svc.GetAccounts(ctx, false)
	if err != nil {
		t.Fatalf("GetAccounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("accounts = %d, want 1 (name collision skipped)", len(accounts))
	}
}

func TestImportRejectsIncompletePayloads(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		payload string
		mode    ImportMode
	}{
		{"garbage", `{{{`, ImportReplace},
		{"missing transactions", `{"categories":[]}`, ImportReplace},
		{"missing categories", `{"transactions":[]}`, ImportReplace},
		{"unknown mode", `{"transactions":[],"categories":[]}`, ImportMode("upsert")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Import(ctx, []byte(tt.payload), tt.mode)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestImportToleratesMalformedBudgets(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	payload := `{"transactions":[],"categories":[],"budgets":"not-a-list"}`
	if err := svc.Import(ctx, []byte(payload), ImportReplace); err != nil {
		t.Fatalf("Import: %v", err)
	}
	budgets, err := svc.GetBudgets(ctx)
	if err != nil {
		t.Fatalf("GetBudgets: %v", err)
	}
	if len(budgets) != 0 {
		t.Errorf("budgets = %d, want 0 (malformed field coerced to empty)", len(budgets))
	}
}
