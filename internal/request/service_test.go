package request_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/internal/event"
	"github.com/tallyhq/tally/internal/request"
)

var (
	admin    = actor.Identity{Username: "treasurer", Role: actor.RoleAdmin}
	proposer = actor.Identity{Username: "helper", Role: actor.RoleProposer}
	viewer   = actor.Identity{Username: "guest", Role: actor.RoleViewer}
)

func addPayload() request.AddTransaction {
	return request.AddTransaction{
		TargetID:  uuid.New(),
		EventName: "Spring Fair",
		Transaction: request.ProposedTransaction{
			Name:   "Tickets",
			Amount: decimal.NewFromInt(500),
			Type:   event.TypeCollection,
			Date:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestService_Submit(t *testing.T) {
	type testCase struct {
		name      string
		ident     actor.Identity
		payload   request.Payload
		setupMock func(m *request.MockRepository)
		wantErr   error
	}

	invalid := addPayload()
	invalid.Transaction.Amount = decimal.NewFromInt(-5)

	tests := []testCase{
		{
			name:    "ProposerSuccess",
			ident:   proposer,
			payload: addPayload(),
			setupMock: func(m *request.MockRepository) {
				m.EXPECT().
					CreateRequest(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req *request.PendingRequest) error {
						req.ID = uuid.New()
						req.Timestamp = time.Now()
						return nil
					})
			},
		},
		{
			name:    "AdminMayAlsoSubmit",
			ident:   admin,
			payload: request.CreateEvent{Name: "Autumn Gala"},
			setupMock: func(m *request.MockRepository) {
				m.EXPECT().
					CreateRequest(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req *request.PendingRequest) error {
						req.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:    "ViewerDenied",
			ident:   viewer,
			payload: addPayload(),
			wantErr: actor.ErrPermissionDenied,
		},
		{
			name:    "InvalidPayloadNeverQueued",
			ident:   proposer,
			payload: invalid,
			wantErr: request.ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := request.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := request.NewService(repo)
			got, err := svc.Submit(context.Background(), tt.ident, tt.payload, "please review")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			assert.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.payload.Kind(), got.Kind)
			assert.Equal(t, tt.ident.Username, got.RequestedBy)
		})
	}
}

func TestService_Edit_ReplacesInPlace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := request.NewMockRepository(ctrl)
	svc := request.NewService(repo)

	original := addPayload()
	existing := &request.PendingRequest{
		ID:          uuid.New(),
		Kind:        request.KindAddTransaction,
		Payload:     original,
		Description: "first try",
		Timestamp:   time.Now().Add(-time.Hour),
		RequestedBy: proposer.Username,
		IsRead:      true,
	}

	edited := original
	edited.Transaction.Amount = decimal.NewFromInt(750)

	repo.EXPECT().GetRequest(gomock.Any(), existing.ID).Return(existing, nil)
	repo.EXPECT().
		UpdateRequest(gomock.Any(), existing).
		DoAndReturn(func(_ context.Context, req *request.PendingRequest) error {
			req.Timestamp = time.Now()
			req.IsRead = false
			return nil
		})

	got, err := svc.Edit(context.Background(), proposer, existing.ID, edited, "corrected amount")
	require.NoError(t, err)

	// Same identity, new payload: editing never duplicates the proposal.
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, edited, got.Payload)
	assert.Equal(t, "corrected amount", got.Description)
	assert.False(t, got.IsRead)
}

func TestService_Edit_OnlyOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := request.NewMockRepository(ctrl)
	svc := request.NewService(repo)

	existing := &request.PendingRequest{
		ID:          uuid.New(),
		Kind:        request.KindAddTransaction,
		Payload:     addPayload(),
		RequestedBy: "someone-else",
	}

	repo.EXPECT().GetRequest(gomock.Any(), existing.ID).Return(existing, nil)

	_, err := svc.Edit(context.Background(), proposer, existing.ID, addPayload(), "")
	assert.ErrorIs(t, err, actor.ErrPermissionDenied)
}

func TestService_Edit_KindImmutable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := request.NewMockRepository(ctrl)
	svc := request.NewService(repo)

	existing := &request.PendingRequest{
		ID:          uuid.New(),
		Kind:        request.KindAddTransaction,
		Payload:     addPayload(),
		RequestedBy: proposer.Username,
	}

	repo.EXPECT().GetRequest(gomock.Any(), existing.ID).Return(existing, nil)

	_, err := svc.Edit(context.Background(), proposer, existing.ID, request.CreateEvent{Name: "x"}, "")
	assert.ErrorIs(t, err, request.ErrKindImmutable)
}

func TestService_UnreadCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := request.NewMockRepository(ctrl)
	svc := request.NewService(repo)

	repo.EXPECT().CountUnread(gomock.Any()).Return(3, nil)

	count, err := svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestService_MarkAllRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := request.NewMockRepository(ctrl)
	svc := request.NewService(repo)

	repo.EXPECT().MarkAllRead(gomock.Any()).Return(nil)

	require.NoError(t, svc.MarkAllRead(context.Background(), admin))

	// Only the operator may clear the shared flag.
	assert.ErrorIs(t, svc.MarkAllRead(context.Background(), proposer), actor.ErrPermissionDenied)
	assert.ErrorIs(t, svc.MarkAllRead(context.Background(), viewer), actor.ErrPermissionDenied)
}
