package approval_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/internal/approval"
	"github.com/tallyhq/tally/internal/event"
	"github.com/tallyhq/tally/internal/request"
)

var (
	admin    = actor.Identity{Username: "treasurer", Role: actor.RoleAdmin}
	proposer = actor.Identity{Username: "helper", Role: actor.RoleProposer}
	viewer   = actor.Identity{Username: "guest", Role: actor.RoleViewer}
)

func pending(payload request.Payload, by string) *request.PendingRequest {
	return &request.PendingRequest{
		ID:          uuid.New(),
		Kind:        payload.Kind(),
		Payload:     payload,
		Timestamp:   time.Now(),
		RequestedBy: by,
	}
}

func TestApprove_AddTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	events := approval.NewMockEventStore(ctrl)
	queue := approval.NewMockRequestQueue(ctrl)
	coord := approval.NewCoordinator(events, queue)

	eventID := uuid.New()
	payload := request.AddTransaction{
		TargetID:  eventID,
		EventName: "Spring Fair",
		Transaction: request.ProposedTransaction{
			Name:   "Tickets",
			Amount: decimal.NewFromInt(500),
			Type:   event.TypeCollection,
			Date:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	req := pending(payload, proposer.Username)

	queue.EXPECT().Get(gomock.Any(), req.ID).Return(req, nil)
	// The effect must land before the request leaves the queue.
	applied := events.EXPECT().
		AppendTransaction(gomock.Any(), eventID, payload.Transaction.Fields()).
		Return(&event.Transaction{ID: uuid.New()}, nil)
	queue.EXPECT().Delete(gomock.Any(), req.ID).Return(nil).After(applied)

	require.NoError(t, coord.Approve(context.Background(), admin, req.ID))
}

func TestApprove_DispatchTable(t *testing.T) {
	eventID := uuid.New()
	txID := uuid.New()

	proposed := request.ProposedTransaction{
		ID:     txID,
		Name:   "Venue",
		Amount: decimal.NewFromInt(300),
		Type:   event.TypeExpense,
		Date:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name      string
		payload   request.Payload
		setupMock func(m *approval.MockEventStore)
	}{
		{
			name:    "create_event",
			payload: request.CreateEvent{Name: "Autumn Gala"},
			setupMock: func(m *approval.MockEventStore) {
				m.EXPECT().Create(gomock.Any(), "Autumn Gala").Return(&event.Event{ID: uuid.New()}, nil)
			},
		},
		{
			name:    "delete_event",
			payload: request.DeleteEvent{TargetID: eventID, EventName: "Autumn Gala"},
			setupMock: func(m *approval.MockEventStore) {
				m.EXPECT().SetDeleted(gomock.Any(), eventID, true).Return(nil)
			},
		},
		{
			name:    "update_transaction",
			payload: request.UpdateTransaction{TargetID: eventID, Transaction: proposed},
			setupMock: func(m *approval.MockEventStore) {
				m.EXPECT().ReplaceTransaction(gomock.Any(), eventID, txID, proposed.Fields()).Return(nil)
			},
		},
		{
			name:    "delete_transaction",
			payload: request.DeleteTransaction{TargetID: eventID, TransactionID: txID},
			setupMock: func(m *approval.MockEventStore) {
				m.EXPECT().RemoveTransaction(gomock.Any(), eventID, txID).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			events := approval.NewMockEventStore(ctrl)
			queue := approval.NewMockRequestQueue(ctrl)
			coord := approval.NewCoordinator(events, queue)

			req := pending(tt.payload, proposer.Username)

			queue.EXPECT().Get(gomock.Any(), req.ID).Return(req, nil)
			tt.setupMock(events)
			queue.EXPECT().Delete(gomock.Any(), req.ID).Return(nil)

			require.NoError(t, coord.Approve(context.Background(), admin, req.ID))
		})
	}
}

func TestApprove_RequiresAdmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	coord := approval.NewCoordinator(approval.NewMockEventStore(ctrl), approval.NewMockRequestQueue(ctrl))

	err := coord.Approve(context.Background(), proposer, uuid.New())
	assert.ErrorIs(t, err, actor.ErrPermissionDenied)

	err = coord.Approve(context.Background(), viewer, uuid.New())
	assert.ErrorIs(t, err, actor.ErrPermissionDenied)
}

func TestApprove_AlreadyResolvedIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	events := approval.NewMockEventStore(ctrl)
	queue := approval.NewMockRequestQueue(ctrl)
	coord := approval.NewCoordinator(events, queue)

	id := uuid.New()
	queue.EXPECT().Get(gomock.Any(), id).Return(nil, request.ErrNotFound)

	// Retrying an approval after the first one succeeded must not touch
	// the committed store again.
	require.NoError(t, coord.Approve(context.Background(), admin, id))
}

func TestApprove_VanishedTargetStillClearsRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	events := approval.NewMockEventStore(ctrl)
	queue := approval.NewMockRequestQueue(ctrl)
	coord := approval.NewCoordinator(events, queue)

	eventID := uuid.New()
	req := pending(request.DeleteEvent{TargetID: eventID}, proposer.Username)

	queue.EXPECT().Get(gomock.Any(), req.ID).Return(req, nil)
	events.EXPECT().SetDeleted(gomock.Any(), eventID, true).Return(event.ErrNotFound)
	queue.EXPECT().Delete(gomock.Any(), req.ID).Return(nil)

	require.NoError(t, coord.Approve(context.Background(), admin, req.ID))
}

func TestApprove_StoreFailureLeavesRequestPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	events := approval.NewMockEventStore(ctrl)
	queue := approval.NewMockRequestQueue(ctrl)
	coord := approval.NewCoordinator(events, queue)

	eventID := uuid.New()
	req := pending(request.DeleteEvent{TargetID: eventID}, proposer.Username)

	queue.EXPECT().Get(gomock.Any(), req.ID).Return(req, nil)
	events.EXPECT().SetDeleted(gomock.Any(), eventID, true).Return(errors.New("connection refused"))
	// No Delete expectation: the request must stay queued for retry.

	err := coord.Approve(context.Background(), admin, req.ID)
	assert.Error(t, err)
}

func TestReject_LeavesStoreUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	events := approval.NewMockEventStore(ctrl)
	queue := approval.NewMockRequestQueue(ctrl)
	coord := approval.NewCoordinator(events, queue)

	req := pending(request.CreateEvent{Name: "Autumn Gala"}, proposer.Username)

	queue.EXPECT().Get(gomock.Any(), req.ID).Return(req, nil)
	queue.EXPECT().Delete(gomock.Any(), req.ID).Return(nil)
	// No event store expectations: rejection applies nothing.

	require.NoError(t, coord.Reject(context.Background(), admin, req.ID))
}

func TestReject_OwnerMayCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	events := approval.NewMockEventStore(ctrl)
	queue := approval.NewMockRequestQueue(ctrl)
	coord := approval.NewCoordinator(events, queue)

	req := pending(request.CreateEvent{Name: "Autumn Gala"}, proposer.Username)

	queue.EXPECT().Get(gomock.Any(), req.ID).Return(req, nil)
	queue.EXPECT().Delete(gomock.Any(), req.ID).Return(nil)

	require.NoError(t, coord.Cancel(context.Background(), proposer, req.ID))
}

func TestReject_StrangerMayNotCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	events := approval.NewMockEventStore(ctrl)
	queue := approval.NewMockRequestQueue(ctrl)
	coord := approval.NewCoordinator(events, queue)

	req := pending(request.CreateEvent{Name: "Autumn Gala"}, "someone-else")

	queue.EXPECT().Get(gomock.Any(), req.ID).Return(req, nil)

	err := coord.Cancel(context.Background(), proposer, req.ID)
	assert.ErrorIs(t, err, actor.ErrPermissionDenied)
}

func TestReject_AlreadyResolvedIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	events := approval.NewMockEventStore(ctrl)
	queue := approval.NewMockRequestQueue(ctrl)
	coord := approval.NewCoordinator(events, queue)

	id := uuid.New()
	queue.EXPECT().Get(gomock.Any(), id).Return(nil, request.ErrNotFound)

	require.NoError(t, coord.Cancel(context.Background(), proposer, id))
}
