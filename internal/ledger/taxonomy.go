package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"moneta/internal/core"
	"moneta/internal/events"
)

type CategoryInput struct {
	Name  string               `json:"name"`
	Type  core.TransactionType `json:"type"`
	Color string               `json:"color"`
	Icon  string               `json:"icon"`
}

type CategoryUpdate struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

type SubcategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// AccountInput deliberately has no balance field: an account starts at zero
// and its balance only ever moves through transaction mutations, keeping the
// materialized value reconcilable against the transaction history.
type AccountInput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
	Color    string `json:"color"`
}

type AccountUpdate struct {
	Name     *string `json:"name"`
	Type     *string `json:"type"`
	Currency *string `json:"currency"`
	Color    *string `json:"color"`
	IsActive *bool   `json:"isActive"`
}

func (s *Service) AddCategory(ctx context.Context, in CategoryInput) (*core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	c := core.Category{
		ID:    uuid.NewString(),
		Name:  in.Name,
		Type:  in.Type,
		Color: in.Color,
		Icon:  in.Icon,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	doc.Categories = append(doc.Categories, c)
	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindCategoryChanged, c.ID)
	return &c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, up CategoryUpdate) (*core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	c := doc.Category(id)
	if c == nil {
		return nil, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}

	if up.Name != nil {
		c.Name = *up.Name
	}
	if up.Color != nil {
		c.Color = *up.Color
	}
	if up.Icon != nil {
		c.Icon = *up.Icon
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindCategoryChanged, id)
	return c, nil
}

// DeleteCategory refuses to remove a category that any transaction still
// references.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range doc.Categories {
		if doc.Categories[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}

	var refs int
	for _, t := range doc.Transactions {
		if t.CategoryID == id {
			refs++
		}
	}
	if refs > 0 {
		return fmt.Errorf("%w: %d transactions still use it", core.ErrCategoryInUse, refs)
	}

	doc.Categories = append(doc.Categories[:idx], doc.Categories[idx+1:]...)
	if err := s.store.Save(ctx, doc); err != nil {
		return err
	}
	s.publish(ctx, events.KindCategoryChanged, id)
	return nil
}

func (s *Service) AddSubcategory(ctx context.Context, categoryID string, in SubcategoryInput) (*core.Subcategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	c := doc.Category(categoryID)
	if c == nil {
		return nil, fmt.Errorf("category %s: %w", categoryID, core.ErrNotFound)
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: subcategory name is required", core.ErrValidation)
	}

	sub := core.Subcategory{ID: uuid.NewString(), Name: in.Name, Color: in.Color}
	c.Subcategories = append(c.Subcategories, sub)

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindCategoryChanged, categoryID)
	return &sub, nil
}

func (s *Service) AddAccount(ctx context.Context, in AccountInput) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	a := core.Account{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Type:     in.Type,
		Currency: in.Currency,
		Color:    in.Color,
		IsActive: true,
	}
	if a.Currency == "" {
		a.Currency = doc.Settings.Currency
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	doc.Accounts = append(doc.Accounts, a)
	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindAccountChanged, a.ID)
	return &a, nil
}

// UpdateAccount changes account metadata. The balance is deliberately not
// updatable here: it is maintained by transaction mutations only.
func (s *Service) UpdateAccount(ctx context.Context, id string, up AccountUpdate) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	a := doc.Account(id)
	if a == nil {
		return nil, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}

	if up.Name != nil {
		a.Name = *up.Name
	}
	if up.Type != nil {
		a.Type = *up.Type
	}
	if up.Currency != nil {
		a.Currency = *up.Currency
	}
	if up.Color != nil {
		a.Color = *up.Color
	}
	if up.IsActive != nil {
		a.IsActive = *up.IsActive
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindAccountChanged, id)
	return a, nil
}
