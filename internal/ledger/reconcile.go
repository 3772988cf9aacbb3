package ledger

import (
	"context"
	"math"

	"moneta/internal/core"
)

// balanceEpsilon tolerates float accumulation noise when comparing the
// materialized balance against the recomputed one.
const balanceEpsilon = 1e-6

// Drift reports an account whose materialized balance no longer matches the
// sum of its actual transactions.
type Drift struct {
	AccountID string  `json:"accountId"`
	Name      string  `json:"name"`
	Stored    float64 `json:"stored"`
	Computed  float64 `json:"computed"`
}

// ReconcileBalances recomputes every account balance from the transaction
// history and reports accounts that drifted from their incrementally
// maintained value. It is a read-only check: repairing is a separate,
// explicit step.
func (s *Service) ReconcileBalances(ctx context.Context) ([]Drift, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return reconcile(doc), nil
}

// RepairBalances rewrites every account's materialized balance to the value
// recomputed from the transaction history and persists the result. It only
// saves when at least one account drifted.
func (s *Service) RepairBalances(ctx context.Context) ([]Drift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	drifts := reconcile(doc)
	if len(drifts) == 0 {
		return nil, nil
	}

	for _, d := range drifts {
		if account := doc.Account(d.AccountID); account != nil {
			account.Balance = d.Computed
		}
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return drifts, err
	}
	s.logger.InfoContext(ctx, "Repaired drifted account balances", "accounts", len(drifts))
	return drifts, nil
}

func reconcile(doc *core.Document) []Drift {
	computed := make(map[string]float64, len(doc.Accounts))
	for _, t := range doc.Transactions {
		computed[t.AccountID] += t.SignedAmount()
	}

	var drifts []Drift
	for _, a := range doc.Accounts {
		want := computed[a.ID]
		if math.Abs(a.Balance-want) > balanceEpsilon {
			drifts = append(drifts, Drift{
				AccountID: a.ID,
				Name:      a.Name,
				Stored:    a.Balance,
				Computed:  want,
			})
		}
	}
	return drifts
}
