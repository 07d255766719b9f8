package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/event"
	"github.com/tallyhq/tally/internal/overlay"
	"github.com/tallyhq/tally/internal/request"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=report
type EventSource interface {
	Get(ctx context.Context, id uuid.UUID) (*event.Event, error)
	List(ctx context.Context, includeDeleted bool) ([]*event.Event, error)
}

type RequestSource interface {
	List(ctx context.Context) ([]*request.PendingRequest, error)
}

// Summary holds per-type totals over committed transactions. Loans are
// tracked but excluded from the balance: balance = collections - expenses.
type Summary struct {
	Collections decimal.Decimal
	Expenses    decimal.Decimal
	Loans       decimal.Decimal
	Balance     decimal.Decimal
}

// Summarize totals committed transactions. Pending proposals never enter
// monetary totals.
func Summarize(txs []event.Transaction) Summary {
	s := Summary{
		Collections: decimal.Zero,
		Expenses:    decimal.Zero,
		Loans:       decimal.Zero,
	}

	for _, tx := range txs {
		switch tx.Type {
		case event.TypeCollection:
			s.Collections = s.Collections.Add(tx.Amount)
		case event.TypeExpense:
			s.Expenses = s.Expenses.Add(tx.Amount)
		case event.TypeLoan:
			s.Loans = s.Loans.Add(tx.Amount)
		}
	}

	s.Balance = s.Collections.Sub(s.Expenses)

	return s
}

// Service produces reports for the export consumer.
type Service struct {
	events   EventSource
	requests RequestSource
}

func NewService(events EventSource, requests RequestSource) *Service {
	return &Service{events: events, requests: requests}
}

func (s *Service) EventSummary(ctx context.Context, eventID uuid.UUID) (Summary, error) {
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}

	return Summarize(ev.Transactions), nil
}

// Overview totals every non-deleted event.
func (s *Service) Overview(ctx context.Context) (Summary, error) {
	events, err := s.events.List(ctx, false)
	if err != nil {
		return Summary{}, err
	}

	var all []event.Transaction
	for _, ev := range events {
		all = append(all, ev.Transactions...)
	}

	return Summarize(all), nil
}

// WriteCSV streams one event's transactions as CSV. With includePending,
// overlay rows for proposed additions are emitted too, marked "pending";
// they never affect the summary footer, which is committed-only.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, eventID uuid.UUID, includePending bool) error {
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"name", "amount", "type", "date", "description", "status"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	if err := s.writeRows(ctx, cw, ev, includePending); err != nil {
		return err
	}

	summary := Summarize(ev.Transactions)

	footer := [][]string{
		{"total collections", summary.Collections.String(), "", "", "", ""},
		{"total expenses", summary.Expenses.String(), "", "", "", ""},
		{"total loans", summary.Loans.String(), "", "", "", ""},
		{"balance", summary.Balance.String(), "", "", "", ""},
	}
	for _, row := range footer {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv footer: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func (s *Service) writeRows(ctx context.Context, cw *csv.Writer, ev *event.Event, includePending bool) error {
	if !includePending {
		for _, tx := range ev.Transactions {
			if err := cw.Write(txRow(tx, "committed")); err != nil {
				return fmt.Errorf("writing csv row: %w", err)
			}
		}

		return nil
	}

	reqs, err := s.requests.List(ctx)
	if err != nil {
		return err
	}

	for _, dt := range overlay.MergeForEvent(ev, reqs) {
		status := "committed"
		if dt.PendingAction == overlay.ActionAdd {
			status = "pending"
		}

		if err := cw.Write(txRow(dt.Transaction, status)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	return nil
}

func txRow(tx event.Transaction, status string) []string {
	return []string{
		tx.Name,
		tx.Amount.String(),
		string(tx.Type),
		tx.Date.Format(time.DateOnly),
		tx.Description,
		status,
	}
}
