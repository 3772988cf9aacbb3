package core

import (
	"strings"

	"github.com/google/uuid"
)

// SchemaVersion is the current shape of the persisted document.
const SchemaVersion = 2

// Document is the root aggregate: the whole ledger is read and written as one
// record, so a mutation is always a load-mutate-save of the entire document.
type Document struct {
	SchemaVersion int           `json:"schemaVersion"`
	Transactions  []Transaction `json:"transactions"`
	Categories    []Category    `json:"categories"`
	Accounts      []Account     `json:"accounts"`
	Budgets       []Budget      `json:"budgets"`
	Tags          []Tag         `json:"tags"`
	Settings      Settings      `json:"settings"`

	// PlannedTransactions is the pre-v2 schema's separate planned list. It is
	// only populated while decoding old records and is merged into
	// Transactions by Normalize.
	PlannedTransactions []Transaction `json:"plannedTransactions,omitempty"`
}

// DefaultDocument returns the document handed out when no record exists yet:
// two seed categories per type, one cash account, everything else empty.
func DefaultDocument() *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		Transactions:  []Transaction{},
		Categories: []Category{
			{ID: uuid.NewString(), Name: "Salary", Type: Income, Color: "#2e7d32", Icon: "briefcase"},
			{ID: uuid.NewString(), Name: "Other income", Type: Income, Color: "#66bb6a", Icon: "plus-circle"},
			{ID: uuid.NewString(), Name: "Groceries", Type: Expense, Color: "#c62828", Icon: "cart"},
			{ID: uuid.NewString(), Name: "Housing", Type: Expense, Color: "#ef6c00", Icon: "home"},
		},
		Accounts: []Account{
			{ID: uuid.NewString(), Name: "Cash", Type: "cash", Currency: "EUR", IsActive: true},
		},
		Budgets:  []Budget{},
		Tags:     []Tag{},
		Settings: Settings{Currency: "EUR"},
	}
}

// Normalize brings a decoded document up to the current schema: nil
// collections become empty ones and a legacy planned-transactions list is
// folded into the unified transaction list with status planned. It returns
// the number of migrated legacy entries.
func (d *Document) Normalize() int {
	if d.SchemaVersion == 0 {
		d.SchemaVersion = SchemaVersion
	}
	if d.Transactions == nil {
		d.Transactions = []Transaction{}
	}
	if d.Categories == nil {
		d.Categories = []Category{}
	}
	if d.Accounts == nil {
		d.Accounts = []Account{}
	}
	if d.Budgets == nil {
		d.Budgets = []Budget{}
	}
	if d.Tags == nil {
		d.Tags = []Tag{}
	}

	migrated := len(d.PlannedTransactions)
	for _, t := range d.PlannedTransactions {
		t.Status = Planned
		if t.PlannedAmount == nil {
			t.PlannedAmount = t.Amount
		}
		t.Amount = nil
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		d.Transactions = append(d.Transactions, t)
	}
	d.PlannedTransactions = nil
	return migrated
}

// Transaction returns a pointer into the document's transaction list, or nil.
func (d *Document) Transaction(id string) *Transaction {
	for i := range d.Transactions {
		if d.Transactions[i].ID == id {
			return &d.Transactions[i]
		}
	}
	return nil
}

// Category returns a pointer into the document's category list, or nil.
func (d *Document) Category(id string) *Category {
	for i := range d.Categories {
		if d.Categories[i].ID == id {
			return &d.Categories[i]
		}
	}
	return nil
}

// Account returns a pointer into the document's account list, or nil.
func (d *Document) Account(id string) *Account {
	for i := range d.Accounts {
		if d.Accounts[i].ID == id {
			return &d.Accounts[i]
		}
	}
	return nil
}

// Budget returns a pointer into the document's budget list, or nil.
func (d *Document) Budget(id string) *Budget {
	for i := range d.Budgets {
		if d.Budgets[i].ID == id {
			return &d.Budgets[i]
		}
	}
	return nil
}

// Tag returns a pointer into the document's tag list, or nil.
func (d *Document) Tag(id string) *Tag {
	for i := range d.Tags {
		if d.Tags[i].ID == id {
			return &d.Tags[i]
		}
	}
	return nil
}

// TagByName looks a tag up by name, case-insensitively.
func (d *Document) TagByName(name string) *Tag {
	for i := range d.Tags {
		if strings.EqualFold(d.Tags[i].Name, name) {
			return &d.Tags[i]
		}
	}
	return nil
}
