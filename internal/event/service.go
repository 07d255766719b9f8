package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=event
type Repository interface {
	ListEvents(ctx context.Context, includeDeleted bool) ([]*Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	CreateEvent(ctx context.Context, ev *Event) error
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error
	PurgeEvent(ctx context.Context, id uuid.UUID) error

	AppendTransaction(ctx context.Context, eventID uuid.UUID, tx *Transaction) error
	ReplaceTransaction(ctx context.Context, eventID, txID uuid.UUID, fields TransactionFields) error
	RemoveTransaction(ctx context.Context, eventID, txID uuid.UUID) error
}

// ImageReleaser frees receipt images that transactions no longer reference.
type ImageReleaser interface {
	Delete(ctx context.Context, url string) (bool, error)
}

// Service is the committed store: the only path that mutates events and
// their transactions. Callers are expected to have checked permissions.
type Service struct {
	repo   Repository
	images ImageReleaser
}

func NewService(repo Repository, images ImageReleaser) *Service {
	return &Service{repo: repo, images: images}
}

func (s *Service) List(ctx context.Context, includeDeleted bool) ([]*Event, error) {
	return s.repo.ListEvents(ctx, includeDeleted)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetEvent(ctx, id)
}

func (s *Service) Create(ctx context.Context, name string) (*Event, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	ev := &Event{Name: name}
	if err := s.repo.CreateEvent(ctx, ev); err != nil {
		return nil, err
	}

	return ev, nil
}

// SetDeleted toggles the soft-delete flag. Restoring is SetDeleted(id, false).
func (s *Service) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	return s.repo.SetDeleted(ctx, id, deleted)
}

// Purge hard-deletes an event and releases every receipt image its
// transactions referenced. Image release is best-effort: a blob store
// failure is logged and the purge continues.
func (s *Service) Purge(ctx context.Context, id uuid.UUID) error {
	ev, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return err
	}

	for _, tx := range ev.Transactions {
		s.releaseImage(ctx, tx.ImageURL)
	}

	return s.repo.PurgeEvent(ctx, id)
}

func (s *Service) AppendTransaction(ctx context.Context, eventID uuid.UUID, fields TransactionFields) (*Transaction, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	tx := &Transaction{
		Name:        fields.Name,
		Amount:      fields.Amount,
		Type:        fields.Type,
		Date:        fields.Date,
		Description: fields.Description,
		ImageURL:    fields.ImageURL,
	}
	if err := s.repo.AppendTransaction(ctx, eventID, tx); err != nil {
		return nil, fmt.Errorf("appending transaction: %w", err)
	}

	return tx, nil
}

// ReplaceTransaction overwrites every field of the target transaction.
// Returns ErrNotFound when the target transaction is absent.
func (s *Service) ReplaceTransaction(ctx context.Context, eventID, txID uuid.UUID, fields TransactionFields) error {
	if err := fields.Validate(); err != nil {
		return err
	}

	return s.repo.ReplaceTransaction(ctx, eventID, txID, fields)
}

// RemoveTransaction deletes the target transaction and releases its receipt
// image, if any. An absent transaction id is a no-op.
func (s *Service) RemoveTransaction(ctx context.Context, eventID, txID uuid.UUID) error {
	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}

	tx := ev.Transaction(txID)
	if tx == nil {
		return nil
	}

	s.releaseImage(ctx, tx.ImageURL)

	return s.repo.RemoveTransaction(ctx, eventID, txID)
}

func (s *Service) releaseImage(ctx context.Context, url *string) {
	if url == nil || *url == "" || s.images == nil {
		return
	}

	if _, err := s.images.Delete(ctx, *url); err != nil {
		slog.Warn("failed to release receipt image", "url", *url, "error", err)
	}
}
