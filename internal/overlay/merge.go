// Package overlay folds still-pending change requests into a committed
// event's transactions, producing the "current + proposed" view every role
// reads. Merging is a pure projection: it never touches the committed
// store or the request queue.
package overlay

import (
	"sort"

	"github.com/tallyhq/tally/internal/event"
	"github.com/tallyhq/tally/internal/request"
)

// PendingAction marks how a pending request affects a displayed row.
type PendingAction string

const (
	ActionAdd    PendingAction = "add"
	ActionUpdate PendingAction = "update"
	ActionDelete PendingAction = "delete"
)

// DisplayTransaction is a committed transaction decorated with overlay
// state, or a synthetic row for a proposed addition. Synthetic rows use
// the originating request's id as a stable display id.
type DisplayTransaction struct {
	event.Transaction

	// PendingAction is empty for rows no request touches.
	PendingAction PendingAction
	// PendingData is the proposed full record for updates, enabling a
	// field-by-field old vs new rendering. The embedded committed fields
	// stay untouched.
	PendingData *event.Transaction
	// Request is the back-reference to the pending request, when any.
	Request *request.PendingRequest
	// Orphaned marks update/delete proposals whose committed target has
	// vanished; they render from the payload's denormalized names.
	Orphaned bool
}

// MergeForEvent projects the requests targeting ev onto its committed
// transactions. Requests are applied in timestamp order, so when several
// pending requests address the same transaction the latest one wins the
// displayed overlay. Orphaned update/delete proposals are appended after
// the committed rows as floating entries.
func MergeForEvent(ev *event.Event, reqs []*request.PendingRequest) []DisplayTransaction {
	merged := make([]DisplayTransaction, 0, len(ev.Transactions))
	for _, tx := range ev.Transactions {
		merged = append(merged, DisplayTransaction{Transaction: tx})
	}

	for _, req := range sortedForEvent(ev, reqs) {
		switch payload := req.Payload.(type) {
		case request.AddTransaction:
			merged = append(merged, synthesizeAdd(req, payload))
		case request.UpdateTransaction:
			merged = applyUpdate(merged, req, payload)
		case request.DeleteTransaction:
			merged = applyDelete(merged, req, payload)
		}
	}

	return merged
}

// sortedForEvent filters reqs to those targeting ev and orders them by
// submission time, oldest first. The sort is stable so equal timestamps
// keep queue order.
func sortedForEvent(ev *event.Event, reqs []*request.PendingRequest) []*request.PendingRequest {
	var matched []*request.PendingRequest

	for _, req := range reqs {
		if req.Payload != nil && req.Payload.EventID() == ev.ID {
			matched = append(matched, req)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	return matched
}

func synthesizeAdd(req *request.PendingRequest, payload request.AddTransaction) DisplayTransaction {
	return DisplayTransaction{
		Transaction: event.Transaction{
			ID:          req.ID,
			Name:        payload.Transaction.Name,
			Amount:      payload.Transaction.Amount,
			Type:        payload.Transaction.Type,
			Date:        payload.Transaction.Date,
			Description: payload.Transaction.Description,
			ImageURL:    payload.Transaction.ImageURL,
			CreatedAt:   req.Timestamp,
		},
		PendingAction: ActionAdd,
		Request:       req,
	}
}

func applyUpdate(merged []DisplayTransaction, req *request.PendingRequest, payload request.UpdateTransaction) []DisplayTransaction {
	proposed := &event.Transaction{
		ID:          payload.Transaction.ID,
		Name:        payload.Transaction.Name,
		Amount:      payload.Transaction.Amount,
		Type:        payload.Transaction.Type,
		Date:        payload.Transaction.Date,
		Description: payload.Transaction.Description,
		ImageURL:    payload.Transaction.ImageURL,
	}

	for i := range merged {
		if merged[i].ID == payload.Transaction.ID {
			merged[i].PendingAction = ActionUpdate
			merged[i].PendingData = proposed
			merged[i].Request = req

			return merged
		}
	}

	// Target vanished since the proposal: float the change on the
	// payload's own record so it still renders.
	return append(merged, DisplayTransaction{
		Transaction:   *proposed,
		PendingAction: ActionUpdate,
		PendingData:   proposed,
		Request:       req,
		Orphaned:      true,
	})
}

func applyDelete(merged []DisplayTransaction, req *request.PendingRequest, payload request.DeleteTransaction) []DisplayTransaction {
	for i := range merged {
		if merged[i].ID == payload.TransactionID {
			merged[i].PendingAction = ActionDelete
			merged[i].PendingData = nil
			merged[i].Request = req

			return merged
		}
	}

	return append(merged, DisplayTransaction{
		Transaction: event.Transaction{
			ID:   payload.TransactionID,
			Name: payload.TransactionName,
		},
		PendingAction: ActionDelete,
		Request:       req,
		Orphaned:      true,
	})
}

// SortForDisplay orders rows for presentation: date descending, ties
// broken by most recently added first. This is a display concern layered
// on top of the merge, not a store invariant.
func SortForDisplay(txs []DisplayTransaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}

		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
