// Package ledger owns the canonical ledger document and performs every
// mutation through a load-mutate-save sequence over the storage backend.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"moneta/internal/backend"
	"moneta/internal/core"
	"moneta/internal/events"
)

// Service is the ledger domain manager. Mutations are serialized by an
// in-process lock so two concurrent read-modify-write sequences can never
// overwrite each other at whole-document granularity.
type Service struct {
	store  backend.Store
	events *events.Client
	logger *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

func NewService(store backend.Store, eventsClient *events.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		events: eventsClient,
		logger: logger,
		now:    time.Now,
	}
}

// Init makes sure a document exists in the store. Without it, an empty store
// would hand out freshly generated seed ids on every load; persisting the
// default document once pins them for the session and all later ones.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, doc)
}

// TransactionInput carries the fields accepted when recording a transaction.
type TransactionInput struct {
	Type          core.TransactionType `json:"type"`
	Status        core.StatusType      `json:"status"`
	Amount        float64              `json:"amount"`
	PlannedAmount *float64             `json:"plannedAmount"`
	CategoryID    string               `json:"categoryId"`
	SubcategoryID string               `json:"subcategoryId"`
	AccountID     string               `json:"accountId"`
	Date          string               `json:"date"`
	Tags          []string             `json:"tags"`
	Description   string               `json:"description"`
}

// TransactionUpdate carries partial updates; nil fields are left untouched.
type TransactionUpdate struct {
	Type          *core.TransactionType `json:"type"`
	Status        *core.StatusType      `json:"status"`
	Amount        *float64              `json:"amount"`
	PlannedAmount *float64              `json:"plannedAmount"`
	CategoryID    *string               `json:"categoryId"`
	SubcategoryID *string               `json:"subcategoryId"`
	AccountID     *string               `json:"accountId"`
	Date          *string               `json:"date"`
	Tags          *[]string             `json:"tags"`
	Description   *string               `json:"description"`
}

// AddTransaction validates and appends a new transaction. An actual
// transaction immediately adjusts its account balance; a planned one only
// records its planned amount. Tag usage counters are bumped for every tag
// carried by the transaction.
func (s *Service) AddTransaction(ctx context.Context, in TransactionInput) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	date, err := core.ParseDate(in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	status := in.Status
	if status == "" {
		status = core.Actual
	}

	now := s.now()
	t := core.Transaction{
		ID:            uuid.NewString(),
		Type:          in.Type,
		Status:        status,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		AccountID:     in.AccountID,
		Date:          date,
		Tags:          normalizeTags(in.Tags),
		Description:   in.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	switch status {
	case core.Actual:
		t.Amount = core.Float(in.Amount)
		t.PlannedAmount = in.PlannedAmount
	case core.Planned:
		if in.PlannedAmount != nil {
			t.PlannedAmount = in.PlannedAmount
		} else {
			t.PlannedAmount = core.Float(in.Amount)
		}
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	if doc.Category(t.CategoryID) == nil {
		return nil, fmt.Errorf("category %s: %w", t.CategoryID, core.ErrNotFound)
	}
	account := doc.Account(t.AccountID)
	if account == nil {
		return nil, fmt.Errorf("account %s: %w", t.AccountID, core.ErrNotFound)
	}

	doc.Transactions = append(doc.Transactions, t)
	if t.Status == core.Actual {
		account.Balance += t.SignedAmount()
	}
	s.bumpTagUsage(doc, t.Tags, now)

	if err := s.store.Save(ctx, doc); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist new transaction", "error", err)
		return nil, err
	}
	s.publish(ctx, events.KindTransactionAdded, t.ID)
	return &t, nil
}

// UpdateTransaction applies a partial update. An actual transaction's old
// balance contribution is reversed before anything else, unconditionally,
// even when the account does not change; the new contribution is applied
// afterwards if the resulting status is actual.
func (s *Service) UpdateTransaction(ctx context.Context, id string, up TransactionUpdate) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	t := doc.Transaction(id)
	if t == nil {
		return nil, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}

	// Reverse first so the re-apply below can never double count.
	if t.Status == core.Actual && t.Amount != nil {
		if old := doc.Account(t.AccountID); old != nil {
			old.Balance -= t.SignedAmount()
		}
	}

	oldStatus := t.Status
	newStatus := oldStatus
	if up.Status != nil {
		newStatus = *up.Status
		if !newStatus.IsValid() {
			return nil, fmt.Errorf("%w: invalid status %q", core.ErrValidation, *up.Status)
		}
	}

	switch {
	case oldStatus == core.Planned && newStatus == core.Actual:
		var amount float64
		if up.Amount != nil {
			amount = *up.Amount
		} else if t.PlannedAmount != nil {
			amount = *t.PlannedAmount
		}
		if t.PlannedAmount == nil {
			t.PlannedAmount = t.Amount
		}
		t.Amount = core.Float(amount)

	case oldStatus == core.Actual && newStatus == core.Planned:
		// The reversed balance is not re-applied: the transaction is no
		// longer actual.
		if up.PlannedAmount != nil {
			t.PlannedAmount = up.PlannedAmount
		} else {
			t.PlannedAmount = t.Amount
		}
		t.Amount = nil

	default:
		if up.Amount != nil {
			t.Amount = up.Amount
		}
		if up.PlannedAmount != nil {
			t.PlannedAmount = up.PlannedAmount
		}
	}
	t.Status = newStatus

	if up.Type != nil {
		if !up.Type.IsValid() {
			return nil, fmt.Errorf("%w: invalid type %q", core.ErrValidation, *up.Type)
		}
		t.Type = *up.Type
	}
	if up.CategoryID != nil {
		if doc.Category(*up.CategoryID) == nil {
			return nil, fmt.Errorf("category %s: %w", *up.CategoryID, core.ErrNotFound)
		}
		t.CategoryID = *up.CategoryID
	}
	if up.SubcategoryID != nil {
		t.SubcategoryID = *up.SubcategoryID
	}
	if up.AccountID != nil {
		t.AccountID = *up.AccountID
	}
	if up.Date != nil {
		date, err := core.ParseDate(*up.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
		}
		t.Date = date
	}
	if up.Description != nil {
		t.Description = *up.Description
	}
	if up.Tags != nil {
		newTags := normalizeTags(*up.Tags)
		var added []string
		for _, tag := range newTags {
			if !t.HasTag(tag) {
				added = append(added, tag)
			}
		}
		t.Tags = newTags
		s.bumpTagUsage(doc, added, s.now())
	}
	t.UpdatedAt = s.now()

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	if t.Status == core.Actual {
		account := doc.Account(t.AccountID)
		if account == nil {
			return nil, fmt.Errorf("account %s: %w", t.AccountID, core.ErrNotFound)
		}
		account.Balance += t.SignedAmount()
	}

	if err := s.store.Save(ctx, doc); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist transaction update", "id", id, "error", err)
		return nil, err
	}
	s.publish(ctx, events.KindTransactionUpdated, id)
	return t, nil
}

// RealizePlannedTransaction moves a planned transaction to actual, fixing the
// realized amount and keeping the original planned amount for later variance
// comparison. The realized amount resolves to actualAmount when given, then
// the planned amount, then zero.
func (s *Service) RealizePlannedTransaction(ctx context.Context, id string, actualAmount *float64) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	t := doc.Transaction(id)
	if t == nil || t.Status != core.Planned {
		return nil, fmt.Errorf("planned transaction %s: %w", id, core.ErrNotFound)
	}

	var amount float64
	if actualAmount != nil {
		amount = *actualAmount
	} else if t.PlannedAmount != nil {
		amount = *t.PlannedAmount
	}

	t.Status = core.Actual
	t.Amount = core.Float(amount)
	t.UpdatedAt = s.now()

	account := doc.Account(t.AccountID)
	if account == nil {
		return nil, fmt.Errorf("account %s: %w", t.AccountID, core.ErrNotFound)
	}
	account.Balance += t.SignedAmount()

	if err := s.store.Save(ctx, doc); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist realization", "id", id, "error", err)
		return nil, err
	}
	s.publish(ctx, events.KindTransactionRealized, id)
	return t, nil
}

// DeleteTransaction removes a transaction outright, reversing its balance
// contribution first when it was actual.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range doc.Transactions {
		if doc.Transactions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}

	t := doc.Transactions[idx]
	if t.Status == core.Actual && t.Amount != nil {
		if account := doc.Account(t.AccountID); account != nil {
			account.Balance -= t.SignedAmount()
		}
	}
	doc.Transactions = append(doc.Transactions[:idx], doc.Transactions[idx+1:]...)

	if err := s.store.Save(ctx, doc); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist transaction deletion", "id", id, "error", err)
		return err
	}
	s.publish(ctx, events.KindTransactionDeleted, id)
	return nil
}

// bumpTagUsage increments usage counters for the given tag names, creating
// tags that do not exist yet.
func (s *Service) bumpTagUsage(doc *core.Document, tags []string, now time.Time) {
	for _, name := range tags {
		if tag := doc.TagByName(name); tag != nil {
			tag.UsageCount++
			continue
		}
		doc.Tags = append(doc.Tags, core.Tag{
			ID:         uuid.NewString(),
			Name:       name,
			UsageCount: 1,
			CreatedAt:  now,
		})
	}
}

func (s *Service) publish(ctx context.Context, kind, entityID string) {
	if err := s.events.Publish(ctx, events.NewLedgerEvent(kind, entityID)); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			"kind", kind, "entity_id", entityID, "error", err)
	}
}

func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
