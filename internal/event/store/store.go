package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/event"
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

const selectTransactionColumns = `
	t.id, t.name, t.amount, t.type, t.date, t.description, t.image_url, t.created_at
`

// scanTransaction reads a transaction row from the scanner.
// Expected column order: id, name, amount, type, date, description, image_url, created_at
func scanTransaction(s scanner) (event.Transaction, error) {
	var tx event.Transaction

	var typeStr string

	var description, imageURL sql.NullString

	if err := s.Scan(
		&tx.ID, &tx.Name, &tx.Amount, &typeStr, &tx.Date,
		&description, &imageURL, &tx.CreatedAt,
	); err != nil {
		return event.Transaction{}, err
	}

	tx.Type = event.Type(typeStr)
	tx.Description = description.String

	if imageURL.Valid && imageURL.String != "" {
		url := imageURL.String
		tx.ImageURL = &url
	}

	return tx, nil
}

func (s *Store) ListEvents(ctx context.Context, includeDeleted bool) ([]*event.Event, error) {
	query := `
		SELECT e.id, e.name, e.is_deleted, e.created_at
		FROM events e
	`
	if !includeDeleted {
		query += " WHERE e.is_deleted = FALSE"
	}

	query += " ORDER BY e.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event

	byID := make(map[uuid.UUID]*event.Event)

	for rows.Next() {
		var ev event.Event
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.IsDeleted, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		events = append(events, &ev)
		byID[ev.ID] = &ev
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}

	if len(events) == 0 {
		return nil, nil
	}

	txQuery := `SELECT t.event_id, ` + selectTransactionColumns + `
		FROM event_transactions t
		ORDER BY t.created_at ASC`

	txRows, err := s.db.QueryContext(ctx, txQuery)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer txRows.Close()

	for txRows.Next() {
		var eventID uuid.UUID

		tx, err := scanEventTransaction(txRows, &eventID)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		if ev, ok := byID[eventID]; ok {
			ev.Transactions = append(ev.Transactions, tx)
		}
	}

	if err := txRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return events, nil
}

func scanEventTransaction(rows *sql.Rows, eventID *uuid.UUID) (event.Transaction, error) {
	var tx event.Transaction

	var typeStr string

	var description, imageURL sql.NullString

	if err := rows.Scan(
		eventID,
		&tx.ID, &tx.Name, &tx.Amount, &typeStr, &tx.Date,
		&description, &imageURL, &tx.CreatedAt,
	); err != nil {
		return event.Transaction{}, err
	}

	tx.Type = event.Type(typeStr)
	tx.Description = description.String

	if imageURL.Valid && imageURL.String != "" {
		url := imageURL.String
		tx.ImageURL = &url
	}

	return tx, nil
}

func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	query := `
		SELECT e.id, e.name, e.is_deleted, e.created_at
		FROM events e
		WHERE e.id = $1
	`

	var ev event.Event
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&ev.ID, &ev.Name, &ev.IsDeleted, &ev.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, event.ErrNotFound
		}

		return nil, fmt.Errorf("getting event: %w", err)
	}

	txQuery := `SELECT ` + selectTransactionColumns + `
		FROM event_transactions t
		WHERE t.event_id = $1
		ORDER BY t.created_at ASC`

	rows, err := s.db.QueryContext(ctx, txQuery, id)
	if err != nil {
		return nil, fmt.Errorf("listing event transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		ev.Transactions = append(ev.Transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return &ev, nil
}

func (s *Store) CreateEvent(ctx context.Context, ev *event.Event) error {
	query := `
		INSERT INTO events (id, name, is_deleted, created_at)
		VALUES ($1, $2, FALSE, NOW())
		RETURNING created_at
	`

	ev.ID = uuid.New()

	if err := s.db.QueryRowContext(ctx, query, ev.ID, ev.Name).Scan(&ev.CreatedAt); err != nil {
		return fmt.Errorf("creating event: %w", err)
	}

	return nil
}

func (s *Store) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	query := `
		UPDATE events
		SET is_deleted = $1
		WHERE id = $2
	`

	res, err := s.db.ExecContext(ctx, query, deleted, id)
	if err != nil {
		return fmt.Errorf("setting deleted flag: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.ErrNotFound
	}

	return nil
}

// PurgeEvent hard-deletes the event and its transactions. Image release is
// the service's responsibility; the store only removes rows.
func (s *Store) PurgeEvent(ctx context.Context, id uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning purge tx: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM event_transactions WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("purging transactions: %w", err)
	}

	res, err := dbTx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("purging event: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.ErrNotFound
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing purge: %w", err)
	}

	return nil
}

func (s *Store) AppendTransaction(ctx context.Context, eventID uuid.UUID, tx *event.Transaction) error {
	query := `
		INSERT INTO event_transactions (id, event_id, name, amount, type, date, description, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`

	tx.ID = uuid.New()

	err := s.db.QueryRowContext(ctx, query,
		tx.ID,
		eventID,
		tx.Name,
		tx.Amount,
		tx.Type,
		tx.Date,
		tx.Description,
		tx.ImageURL,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending transaction: %w", err)
	}

	return nil
}

func (s *Store) ReplaceTransaction(ctx context.Context, eventID, txID uuid.UUID, fields event.TransactionFields) error {
	query := `
		UPDATE event_transactions
		SET name = $1, amount = $2, type = $3, date = $4, description = $5, image_url = $6
		WHERE id = $7 AND event_id = $8
	`

	res, err := s.db.ExecContext(ctx, query,
		fields.Name,
		fields.Amount,
		fields.Type,
		fields.Date,
		fields.Description,
		fields.ImageURL,
		txID,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("replacing transaction: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.ErrNotFound
	}

	return nil
}

func (s *Store) RemoveTransaction(ctx context.Context, eventID, txID uuid.UUID) error {
	query := `
		DELETE FROM event_transactions
		WHERE id = $1 AND event_id = $2
	`

	if _, err := s.db.ExecContext(ctx, query, txID, eventID); err != nil {
		return fmt.Errorf("removing transaction: %w", err)
	}

	return nil
}
