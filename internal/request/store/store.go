package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/request"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectRequestColumns = `
	r.id, r.kind, r.payload, r.description, r.created_at, r.requested_by, r.is_read
`

// scanRequest reads a request row and decodes its jsonb payload into the
// kind's variant struct.
// Expected column order: id, kind, payload, description, created_at, requested_by, is_read
func scanRequest(s scanner) (*request.PendingRequest, error) {
	var req request.PendingRequest

	var kindStr string

	var payload []byte

	if err := s.Scan(
		&req.ID, &kindStr, &payload, &req.Description,
		&req.Timestamp, &req.RequestedBy, &req.IsRead,
	); err != nil {
		return nil, err
	}

	req.Kind = request.Kind(kindStr)

	decoded, err := request.DecodePayload(req.Kind, payload)
	if err != nil {
		return nil, err
	}

	req.Payload = decoded

	return &req, nil
}

func (s *Store) CreateRequest(ctx context.Context, req *request.PendingRequest) error {
	payload, err := request.EncodePayload(req.Payload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO pending_requests (id, kind, payload, description, created_at, requested_by, is_read)
		VALUES ($1, $2, $3, $4, NOW(), $5, FALSE)
		RETURNING created_at
	`

	req.ID = uuid.New()
	req.IsRead = false

	if err := s.db.QueryRowContext(ctx, query,
		req.ID,
		req.Kind,
		payload,
		req.Description,
		req.RequestedBy,
	).Scan(&req.Timestamp); err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	return nil
}

func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (*request.PendingRequest, error) {
	query := `SELECT ` + selectRequestColumns + `
		FROM pending_requests r
		WHERE r.id = $1`

	req, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, request.ErrNotFound
		}

		return nil, fmt.Errorf("getting request: %w", err)
	}

	return req, nil
}

// UpdateRequest replaces the payload and description, bumps created_at and
// resets is_read, making the edit look like a fresh submission.
func (s *Store) UpdateRequest(ctx context.Context, req *request.PendingRequest) error {
	payload, err := request.EncodePayload(req.Payload)
	if err != nil {
		return err
	}

	query := `
		UPDATE pending_requests
		SET payload = $1, description = $2, created_at = NOW(), is_read = FALSE
		WHERE id = $3
		RETURNING created_at
	`

	if err := s.db.QueryRowContext(ctx, query, payload, req.Description, req.ID).Scan(&req.Timestamp); err != nil {
		if err == sql.ErrNoRows {
			return request.ErrNotFound
		}

		return fmt.Errorf("updating request: %w", err)
	}

	req.IsRead = false

	return nil
}

func (s *Store) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting request: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return request.ErrNotFound
	}

	return nil
}

func (s *Store) ListRequests(ctx context.Context) ([]*request.PendingRequest, error) {
	query := `SELECT ` + selectRequestColumns + `
		FROM pending_requests r
		ORDER BY r.created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var reqs []*request.PendingRequest

	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}

		reqs = append(reqs, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating request rows: %w", err)
	}

	return reqs, nil
}

func (s *Store) CountUnread(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_requests WHERE is_read = FALSE`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting unread requests: %w", err)
	}

	return count, nil
}

func (s *Store) MarkAllRead(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE pending_requests SET is_read = TRUE WHERE is_read = FALSE`); err != nil {
		return fmt.Errorf("marking requests read: %w", err)
	}

	return nil
}
