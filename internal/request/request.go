package request

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/event"
)

// Kind discriminates the payload shape of a pending request.
type Kind string

const (
	KindCreateEvent       Kind = "create_event"
	KindDeleteEvent       Kind = "delete_event"
	KindAddTransaction    Kind = "add_transaction"
	KindUpdateTransaction Kind = "update_transaction"
	KindDeleteTransaction Kind = "delete_transaction"
)

// Valid reports whether k is one of the known request kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCreateEvent, KindDeleteEvent, KindAddTransaction, KindUpdateTransaction, KindDeleteTransaction:
		return true
	}

	return false
}

// Payload is the kind-specific body of a pending request. A payload fully
// determines the post-approval state of its target: approval writes whole
// records, never diffs.
type Payload interface {
	Kind() Kind
	// EventID is the committed event the payload targets,
	// or uuid.Nil for create_event.
	EventID() uuid.UUID
	Validate() error
}

// ProposedTransaction is a full transaction record as proposed by a
// limited-trust actor. ID is set only for update_transaction payloads,
// where it names the committed target.
type ProposedTransaction struct {
	ID          uuid.UUID       `json:"id,omitempty"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Type        event.Type      `json:"type"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	ImageURL    *string         `json:"image,omitempty"`
}

// Fields converts the proposal into committed-store transaction fields.
func (p ProposedTransaction) Fields() event.TransactionFields {
	return event.TransactionFields{
		Name:        p.Name,
		Amount:      p.Amount,
		Type:        p.Type,
		Date:        p.Date,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
}

type CreateEvent struct {
	Name string `json:"name"`
}

func (CreateEvent) Kind() Kind         { return KindCreateEvent }
func (CreateEvent) EventID() uuid.UUID { return uuid.Nil }

func (p CreateEvent) Validate() error {
	if p.Name == "" {
		return ErrInvalidPayload
	}

	return nil
}

// DeleteEvent carries the event name redundantly so the request renders
// even after the event itself changes or disappears.
type DeleteEvent struct {
	TargetID  uuid.UUID `json:"eventId"`
	EventName string    `json:"eventName"`
}

func (DeleteEvent) Kind() Kind           { return KindDeleteEvent }
func (p DeleteEvent) EventID() uuid.UUID { return p.TargetID }

func (p DeleteEvent) Validate() error {
	if p.TargetID == uuid.Nil {
		return ErrInvalidPayload
	}

	return nil
}

type AddTransaction struct {
	TargetID    uuid.UUID           `json:"eventId"`
	EventName   string              `json:"eventName"`
	Transaction ProposedTransaction `json:"transaction"`
}

func (AddTransaction) Kind() Kind           { return KindAddTransaction }
func (p AddTransaction) EventID() uuid.UUID { return p.TargetID }

func (p AddTransaction) Validate() error {
	if p.TargetID == uuid.Nil {
		return ErrInvalidPayload
	}

	if err := p.Transaction.Fields().Validate(); err != nil {
		return ErrInvalidPayload
	}

	return nil
}

type UpdateTransaction struct {
	TargetID    uuid.UUID           `json:"eventId"`
	EventName   string              `json:"eventName"`
	Transaction ProposedTransaction `json:"transaction"`
}

func (UpdateTransaction) Kind() Kind           { return KindUpdateTransaction }
func (p UpdateTransaction) EventID() uuid.UUID { return p.TargetID }

func (p UpdateTransaction) Validate() error {
	if p.TargetID == uuid.Nil || p.Transaction.ID == uuid.Nil {
		return ErrInvalidPayload
	}

	if err := p.Transaction.Fields().Validate(); err != nil {
		return ErrInvalidPayload
	}

	return nil
}

type DeleteTransaction struct {
	TargetID        uuid.UUID `json:"eventId"`
	EventName       string    `json:"eventName"`
	TransactionID   uuid.UUID `json:"transactionId"`
	TransactionName string    `json:"transactionName"`
}

func (DeleteTransaction) Kind() Kind           { return KindDeleteTransaction }
func (p DeleteTransaction) EventID() uuid.UUID { return p.TargetID }

func (p DeleteTransaction) Validate() error {
	if p.TargetID == uuid.Nil || p.TransactionID == uuid.Nil {
		return ErrInvalidPayload
	}

	return nil
}

// DecodePayload unmarshals a stored payload body into its kind's variant.
func DecodePayload(kind Kind, data []byte) (Payload, error) {
	switch kind {
	case KindCreateEvent:
		var p CreateEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
		}

		return p, nil
	case KindDeleteEvent:
		var p DeleteEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
		}

		return p, nil
	case KindAddTransaction:
		var p AddTransaction
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
		}

		return p, nil
	case KindUpdateTransaction:
		var p UpdateTransaction
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
		}

		return p, nil
	case KindDeleteTransaction:
		var p DeleteTransaction
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
		}

		return p, nil
	default:
		return nil, fmt.Errorf("unknown request kind %q: %w", kind, ErrInvalidPayload)
	}
}

// EncodePayload marshals a payload for storage.
func EncodePayload(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", p.Kind(), err)
	}

	return data, nil
}

// PendingRequest is a proposed change awaiting the operator's decision.
// Resolution is deletion: there is no stored approved/rejected state.
type PendingRequest struct {
	ID          uuid.UUID
	Kind        Kind
	Payload     Payload
	Description string
	Timestamp   time.Time
	RequestedBy string
	IsRead      bool
}
