package events

import (
	"encoding/json"
	"time"
)

// Event kinds published after successful mutations.
const (
	KindTransactionAdded    = "transaction.added"
	KindTransactionUpdated  = "transaction.updated"
	KindTransactionRealized = "transaction.realized"
	KindTransactionDeleted  = "transaction.deleted"
	KindCategoryChanged     = "category.changed"
	KindAccountChanged      = "account.changed"
	KindBudgetChanged       = "budget.changed"
	KindTagChanged          = "tag.changed"
	KindDocumentImported    = "document.imported"
)

// LedgerEvent is a lightweight change notification: just the kind and the
// entity id, consumers re-load whatever state they need.
type LedgerEvent struct {
	Kind      string    `json:"kind"`
	EntityID  string    `json:"entityId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind, entityID string) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
