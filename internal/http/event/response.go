package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/event"
	"github.com/tallyhq/tally/internal/overlay"
)

type eventResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
}

type transactionResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Type        event.Type      `json:"type"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Image       *string         `json:"image,omitempty"`
}

type displayTransactionResponse struct {
	transactionResponse

	PendingAction overlay.PendingAction `json:"pendingAction,omitempty"`
	PendingData   *transactionResponse  `json:"pendingData,omitempty"`
	RequestID     *uuid.UUID            `json:"requestId,omitempty"`
	Orphaned      bool                  `json:"orphaned,omitempty"`
}

type eventDetailResponse struct {
	eventResponse

	Transactions []displayTransactionResponse `json:"transactions"`
}

func toEvent(ev *event.Event) eventResponse {
	return eventResponse{
		ID:        ev.ID,
		Name:      ev.Name,
		IsDeleted: ev.IsDeleted,
		CreatedAt: ev.CreatedAt,
	}
}

func toEventList(events []*event.Event) []eventResponse {
	resp := make([]eventResponse, len(events))
	for i, ev := range events {
		resp[i] = toEvent(ev)
	}

	return resp
}

func toTransaction(tx event.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Name:        tx.Name,
		Amount:      tx.Amount,
		Type:        tx.Type,
		Date:        tx.Date,
		Description: tx.Description,
		Image:       tx.ImageURL,
	}
}

func toEventDetail(ev *event.Event, merged []overlay.DisplayTransaction) eventDetailResponse {
	resp := eventDetailResponse{
		eventResponse: toEvent(ev),
		Transactions:  make([]displayTransactionResponse, len(merged)),
	}

	for i, dt := range merged {
		row := displayTransactionResponse{
			transactionResponse: toTransaction(dt.Transaction),
			PendingAction:       dt.PendingAction,
			Orphaned:            dt.Orphaned,
		}

		if dt.PendingData != nil {
			data := toTransaction(*dt.PendingData)
			row.PendingData = &data
		}

		if dt.Request != nil {
			id := dt.Request.ID
			row.RequestID = &id
		}

		resp.Transactions[i] = row
	}

	return resp
}
