package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type represents the kind of a transaction inside an event.
type Type string

const (
	TypeCollection Type = "collection"
	TypeExpense    Type = "expense"
	TypeLoan       Type = "loan"
)

// Valid reports whether t is one of the known transaction types.
func (t Type) Valid() bool {
	switch t {
	case TypeCollection, TypeExpense, TypeLoan:
		return true
	}

	return false
}

// Transaction is a single committed money movement owned by an event.
type Transaction struct {
	ID          uuid.UUID
	Name        string
	Amount      decimal.Decimal
	Type        Type
	Date        time.Time
	Description string
	ImageURL    *string // receipt in the blob store, if any
	CreatedAt   time.Time
}

// Event groups transactions under a display name. Soft-deleted events are
// hidden from normal listings but stay addressable by id.
type Event struct {
	ID           uuid.UUID
	Name         string
	IsDeleted    bool
	Transactions []Transaction
	CreatedAt    time.Time
}

// Transaction returns the committed transaction with the given id, or nil.
func (e *Event) Transaction(id uuid.UUID) *Transaction {
	for i := range e.Transactions {
		if e.Transactions[i].ID == id {
			return &e.Transactions[i]
		}
	}

	return nil
}

// TransactionFields carries the caller-supplied fields of a transaction,
// without the store-generated id and timestamps.
type TransactionFields struct {
	Name        string
	Amount      decimal.Decimal
	Type        Type
	Date        time.Time
	Description string
	ImageURL    *string
}

// Validate checks the fields against the store's invariants.
func (f TransactionFields) Validate() error {
	if f.Name == "" {
		return ErrInvalidTransaction
	}

	if f.Amount.IsNegative() {
		return ErrInvalidTransaction
	}

	if !f.Type.Valid() {
		return ErrInvalidTransaction
	}

	if f.Date.IsZero() {
		return ErrInvalidTransaction
	}

	return nil
}
