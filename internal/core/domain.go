package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Planned StatusType = "planned"
	Actual  StatusType = "actual"

	Monthly BudgetPeriod = "monthly"
	Yearly  BudgetPeriod = "yearly"
)

type (
	TransactionType string
	StatusType      string
	BudgetPeriod    string

	// Transaction is a single income or expense entry, either planned or
	// realized. Exactly one of Amount and PlannedAmount is authoritative for
	// the current status: a planned transaction carries no Amount, an actual
	// transaction always does.
	Transaction struct {
		ID            string          `json:"id"`
		Type          TransactionType `json:"type"`
		Status        StatusType      `json:"status"`
		Amount        *float64        `json:"amount"`
		PlannedAmount *float64        `json:"plannedAmount,omitempty"`
		CategoryID    string          `json:"categoryId"`
		SubcategoryID string          `json:"subcategoryId,omitempty"`
		AccountID     string          `json:"accountId"`
		Date          Date            `json:"date"`
		Tags          []string        `json:"tags,omitempty"`
		Description   string          `json:"description,omitempty"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}

	Subcategory struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color,omitempty"`
	}

	Category struct {
		ID            string          `json:"id"`
		Name          string          `json:"name"`
		Type          TransactionType `json:"type"`
		Color         string          `json:"color,omitempty"`
		Icon          string          `json:"icon,omitempty"`
		Subcategories []Subcategory   `json:"subcategories,omitempty"`
	}

	// Account materializes its balance: the field is adjusted incrementally
	// on every actual-transaction mutation, never recomputed on read.
	Account struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		Type     string  `json:"type"`
		Balance  float64 `json:"balance"`
		Currency string  `json:"currency"`
		IsActive bool    `json:"isActive"`
		Color    string  `json:"color,omitempty"`
	}

	Budget struct {
		ID            string       `json:"id"`
		CategoryID    string       `json:"categoryId"`
		SubcategoryID string       `json:"subcategoryId,omitempty"`
		Period        BudgetPeriod `json:"period"`
		Year          int          `json:"year"`
		Month         *int         `json:"month,omitempty"`
		PlannedAmount float64      `json:"plannedAmount"`
		Description   string       `json:"description,omitempty"`
		CreatedAt     time.Time    `json:"createdAt"`
		UpdatedAt     time.Time    `json:"updatedAt"`
	}

	Tag struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		Color      string    `json:"color,omitempty"`
		UsageCount int       `json:"usageCount"`
		CreatedAt  time.Time `json:"createdAt"`
	}

	Settings struct {
		Currency string `json:"currency,omitempty"`
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrPersistence   = errors.New("persistence failed")
	ErrCategoryInUse = errors.New("category is referenced by transactions")
	ErrTagInUse      = errors.New("tag is in use")
)

// Float returns a pointer to v, for the nullable amount fields.
func Float(v float64) *float64 { return &v }

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (s StatusType) IsValid() bool {
	return s == Planned || s == Actual
}

func (p BudgetPeriod) IsValid() bool {
	return p == Monthly || p == Yearly
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return errors.New("invalid transaction type")
	}
	if !t.Status.IsValid() {
		return errors.New("invalid transaction status")
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return errors.New("account is required")
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return errors.New("category is required")
	}
	if t.Date.IsZero() {
		return errors.New("date is required")
	}
	switch t.Status {
	case Planned:
		if t.Amount != nil {
			return errors.New("planned transaction must not carry an amount")
		}
		if t.PlannedAmount == nil {
			return errors.New("planned transaction requires a planned amount")
		}
	case Actual:
		if t.Amount == nil {
			return errors.New("actual transaction requires an amount")
		}
	}
	return nil
}

// SignedAmount returns the balance contribution of an actual transaction:
// income adds, expense subtracts. Planned transactions contribute nothing.
func (t Transaction) SignedAmount() float64 {
	if t.Status != Actual || t.Amount == nil {
		return 0
	}
	if t.Type == Expense {
		return -*t.Amount
	}
	return *t.Amount
}

// HasTag reports whether the transaction carries the tag name,
// compared case-insensitively.
func (t Transaction) HasTag(name string) bool {
	for _, tag := range t.Tags {
		if strings.EqualFold(tag, name) {
			return true
		}
	}
	return false
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("category name is required")
	}
	if !c.Type.IsValid() {
		return errors.New("invalid category type")
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("account name is required")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.CategoryID) == "" {
		return errors.New("budget category is required")
	}
	if !b.Period.IsValid() {
		return errors.New("invalid budget period")
	}
	if b.Year < 1900 || b.Year > 9999 {
		return errors.New("invalid budget year")
	}
	if b.Period == Monthly {
		if b.Month == nil || *b.Month < 1 || *b.Month > 12 {
			return errors.New("monthly budget requires a month between 1 and 12")
		}
	}
	if b.PlannedAmount < 0 {
		return errors.New("planned amount cannot be negative")
	}
	return nil
}

func (t Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("tag name is required")
	}
	return nil
}
