// Package approval resolves pending requests: an approval applies the
// request's effect to the committed store and then deletes the request; a
// rejection deletes only. The effect always runs before the deletion, so a
// crash between the two leaves the request pending and safely retryable:
// every effect writes a whole record, never a delta.
package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/internal/event"
	"github.com/tallyhq/tally/internal/request"
)

//go:generate mockgen -source=coordinator.go -destination=coordinator_mock.go -package=approval

// EventStore is the slice of the committed store an approval can touch.
// Satisfied by *event.Service.
type EventStore interface {
	Create(ctx context.Context, name string) (*event.Event, error)
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error
	AppendTransaction(ctx context.Context, eventID uuid.UUID, fields event.TransactionFields) (*event.Transaction, error)
	ReplaceTransaction(ctx context.Context, eventID, txID uuid.UUID, fields event.TransactionFields) error
	RemoveTransaction(ctx context.Context, eventID, txID uuid.UUID) error
}

// RequestQueue is the slice of the queue the coordinator needs.
// Satisfied by *request.Service.
type RequestQueue interface {
	Get(ctx context.Context, id uuid.UUID) (*request.PendingRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Coordinator struct {
	events EventStore
	queue  RequestQueue
}

func NewCoordinator(events EventStore, queue RequestQueue) *Coordinator {
	return &Coordinator{events: events, queue: queue}
}

// Approve applies the request's effect and removes it from the queue.
// Operator only. An already-resolved request is a no-op, which makes
// retrying an approval safe. A vanished target (event or transaction gone
// between proposal and approval) is absorbed and the request still
// cleared: its intent is moot. Any other store failure aborts before the
// queue deletion so the request stays pending.
func (c *Coordinator) Approve(ctx context.Context, ident actor.Identity, requestID uuid.UUID) error {
	if !ident.IsAdmin() {
		return actor.ErrPermissionDenied
	}

	req, err := c.queue.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, request.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("loading request: %w", err)
	}

	if err := c.apply(ctx, req); err != nil && !errors.Is(err, event.ErrNotFound) {
		return fmt.Errorf("applying request %s: %w", req.ID, err)
	}

	if err := c.queue.Delete(ctx, req.ID); err != nil && !errors.Is(err, request.ErrNotFound) {
		return fmt.Errorf("clearing request %s: %w", req.ID, err)
	}

	return nil
}

func (c *Coordinator) apply(ctx context.Context, req *request.PendingRequest) error {
	switch payload := req.Payload.(type) {
	case request.CreateEvent:
		_, err := c.events.Create(ctx, payload.Name)
		return err
	case request.DeleteEvent:
		return c.events.SetDeleted(ctx, payload.TargetID, true)
	case request.AddTransaction:
		_, err := c.events.AppendTransaction(ctx, payload.TargetID, payload.Transaction.Fields())
		return err
	case request.UpdateTransaction:
		return c.events.ReplaceTransaction(ctx, payload.TargetID, payload.Transaction.ID, payload.Transaction.Fields())
	case request.DeleteTransaction:
		return c.events.RemoveTransaction(ctx, payload.TargetID, payload.TransactionID)
	default:
		return fmt.Errorf("request %s: %w", req.ID, request.ErrInvalidPayload)
	}
}

// Reject removes the request without applying anything. The operator may
// reject any request; a proposer may reject (cancel) only their own. An
// already-resolved request is treated as success.
func (c *Coordinator) Reject(ctx context.Context, ident actor.Identity, requestID uuid.UUID) error {
	req, err := c.queue.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, request.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("loading request: %w", err)
	}

	if !ident.IsAdmin() && !(ident.CanPropose() && req.RequestedBy == ident.Username) {
		return actor.ErrPermissionDenied
	}

	if err := c.queue.Delete(ctx, req.ID); err != nil && !errors.Is(err, request.ErrNotFound) {
		return fmt.Errorf("clearing request %s: %w", req.ID, err)
	}

	return nil
}

// Cancel is the proposer-facing alias for rejecting one's own request.
func (c *Coordinator) Cancel(ctx context.Context, ident actor.Identity, requestID uuid.UUID) error {
	return c.Reject(ctx, ident, requestID)
}
