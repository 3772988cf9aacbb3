package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"moneta/internal/core"
)

// Filter narrows transaction queries. Zero values leave a predicate open;
// the date range is inclusive on both ends and compares calendar dates.
type Filter struct {
	Type          core.TransactionType
	Status        core.StatusType
	CategoryID    string
	SubcategoryID string
	AccountID     string
	StartDate     core.Date
	EndDate       core.Date
	Tags          []string
}

// Matches reports whether the transaction passes every set predicate. Tag
// filtering is membership: the transaction must carry at least one of the
// requested tags.
func (f Filter) Matches(t core.Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	if f.SubcategoryID != "" && t.SubcategoryID != f.SubcategoryID {
		return false
	}
	if f.AccountID != "" && t.AccountID != f.AccountID {
		return false
	}
	if !t.Date.InRange(f.StartDate, f.EndDate) {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, tag := range f.Tags {
			if t.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// TagQuery selects the sort order for GetTags.
type TagQuery struct {
	SortBy string // name | usage | created
}

// GetTransactions returns the filtered transactions, newest first.
func (s *Service) GetTransactions(ctx context.Context, f Filter) ([]core.Transaction, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return []core.Transaction{}, err
	}

	out := make([]core.Transaction, 0, len(doc.Transactions))
	for _, t := range doc.Transactions {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetTransaction returns a single transaction by id.
func (s *Service) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	t := doc.Transaction(id)
	if t == nil {
		return nil, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	out := *t
	return &out, nil
}

// GetCategories returns categories, optionally restricted to one type.
func (s *Service) GetCategories(ctx context.Context, typ core.TransactionType) ([]core.Category, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return []core.Category{}, err
	}

	if typ == "" {
		return doc.Categories, nil
	}
	out := make([]core.Category, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetAccounts returns accounts, optionally only active ones.
func (s *Service) GetAccounts(ctx context.Context, activeOnly bool) ([]core.Account, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return []core.Account{}, err
	}

	if !activeOnly {
		return doc.Accounts, nil
	}
	out := make([]core.Account, 0, len(doc.Accounts))
	for _, a := range doc.Accounts {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetTags returns all tags sorted by the requested key: "usage" puts the
// most used first, "created" the most recent first, anything else sorts by
// name.
func (s *Service) GetTags(ctx context.Context, q TagQuery) ([]core.Tag, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return []core.Tag{}, err
	}

	out := make([]core.Tag, len(doc.Tags))
	copy(out, doc.Tags)

	switch q.SortBy {
	case "usage":
		sort.SliceStable(out, func(i, j int) bool { return out[i].UsageCount > out[j].UsageCount })
	case "created":
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	}
	return out, nil
}

// GetBudgets returns all budgets, most recent period first.
func (s *Service) GetBudgets(ctx context.Context) ([]core.Budget, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return []core.Budget{}, err
	}

	out := make([]core.Budget, len(doc.Budgets))
	copy(out, doc.Budgets)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		mi, mj := 0, 0
		if out[i].Month != nil {
			mi = *out[i].Month
		}
		if out[j].Month != nil {
			mj = *out[j].Month
		}
		return mi > mj
	})
	return out, nil
}

// Snapshot returns the full current document for read-side consumers
// (budget analysis, analytics). The returned document is a freshly decoded
// copy; mutating it has no effect on the store.
func (s *Service) Snapshot(ctx context.Context) (*core.Document, error) {
	return s.store.Load(ctx)
}
