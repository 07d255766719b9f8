package request

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/actor"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=request
type Repository interface {
	CreateRequest(ctx context.Context, req *PendingRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*PendingRequest, error)
	// UpdateRequest persists the payload and description, bumps the
	// timestamp and resets the unread flag.
	UpdateRequest(ctx context.Context, req *PendingRequest) error
	DeleteRequest(ctx context.Context, id uuid.UUID) error
	ListRequests(ctx context.Context) ([]*PendingRequest, error)

	CountUnread(ctx context.Context) (int, error)
	MarkAllRead(ctx context.Context) error
}

// Service owns the request queue and the notification signal derived from
// it. Approval-time resolution lives in the approval package.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Submit validates and enqueues a new pending request. Viewers cannot
// propose. A failed validation never reaches the queue.
func (s *Service) Submit(ctx context.Context, ident actor.Identity, payload Payload, description string) (*PendingRequest, error) {
	if !ident.CanPropose() {
		return nil, actor.ErrPermissionDenied
	}

	if payload == nil || !payload.Kind().Valid() {
		return nil, ErrInvalidPayload
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	req := &PendingRequest{
		Kind:        payload.Kind(),
		Payload:     payload,
		Description: description,
		RequestedBy: ident.Username,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return req, nil
}

// Edit replaces a still-pending request's payload and description in
// place, so re-editing never duplicates the proposal. Only the original
// proposer may edit, and the kind is immutable. The timestamp is bumped
// and the unread flag reset, making the edit a fresh notification.
func (s *Service) Edit(ctx context.Context, ident actor.Identity, id uuid.UUID, payload Payload, description string) (*PendingRequest, error) {
	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RequestedBy != ident.Username {
		return nil, actor.ErrPermissionDenied
	}

	if payload == nil || payload.Kind() != req.Kind {
		return nil, ErrKindImmutable
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	req.Payload = payload
	req.Description = description

	if err := s.repo.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("updating request: %w", err)
	}

	return req, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*PendingRequest, error) {
	return s.repo.GetRequest(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*PendingRequest, error) {
	return s.repo.ListRequests(ctx)
}

// Delete removes a request from the queue without applying any effect.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRequest(ctx, id)
}

// UnreadCount is the notification badge value: requests not yet seen by
// the operator.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	return s.repo.CountUnread(ctx)
}

// MarkAllRead clears the unread flag on every queued request. The flag is
// shared, not per viewer, so only the operator may clear it.
func (s *Service) MarkAllRead(ctx context.Context, ident actor.Identity) error {
	if !ident.IsAdmin() {
		return actor.ErrPermissionDenied
	}

	return s.repo.MarkAllRead(ctx)
}
