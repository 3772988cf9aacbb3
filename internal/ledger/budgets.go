package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"moneta/internal/core"
	"moneta/internal/events"
)

type BudgetInput struct {
	CategoryID    string            `json:"categoryId"`
	SubcategoryID string            `json:"subcategoryId"`
	Period        core.BudgetPeriod `json:"period"`
	Year          int               `json:"year"`
	Month         *int              `json:"month"`
	PlannedAmount float64           `json:"plannedAmount"`
	Description   string            `json:"description"`
}

type BudgetUpdate struct {
	PlannedAmount *float64 `json:"plannedAmount"`
	Description   *string  `json:"description"`
}

func (s *Service) AddBudget(ctx context.Context, in BudgetInput) (*core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	b := core.Budget{
		ID:            uuid.NewString(),
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Period:        in.Period,
		Year:          in.Year,
		Month:         in.Month,
		PlannedAmount: in.PlannedAmount,
		Description:   in.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	if doc.Category(b.CategoryID) == nil {
		return nil, fmt.Errorf("category %s: %w", b.CategoryID, core.ErrNotFound)
	}

	// Two budgets may cover the same category and period; uniqueness is by
	// id only.
	doc.Budgets = append(doc.Budgets, b)

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindBudgetChanged, b.ID)
	return &b, nil
}

func (s *Service) UpdateBudget(ctx context.Context, id string, up BudgetUpdate) (*core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	b := doc.Budget(id)
	if b == nil {
		return nil, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}

	if up.PlannedAmount != nil {
		b.PlannedAmount = *up.PlannedAmount
	}
	if up.Description != nil {
		b.Description = *up.Description
	}
	b.UpdatedAt = s.now()
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindBudgetChanged, id)
	return b, nil
}

func (s *Service) DeleteBudget(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range doc.Budgets {
		if doc.Budgets[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}

	doc.Budgets = append(doc.Budgets[:idx], doc.Budgets[idx+1:]...)
	if err := s.store.Save(ctx, doc); err != nil {
		return err
	}
	s.publish(ctx, events.KindBudgetChanged, id)
	return nil
}
