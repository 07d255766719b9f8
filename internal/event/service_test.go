package event_test

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

	"github.com/tallyhq/tally/internal/event"
)

func validFields() event.TransactionFields {
	return event.TransactionFields{
		Name:   "Tickets",
		Amount: decimal.NewFromInt(500),
		Type:   event.TypeCollection,
		Date:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		eventName string
		setupMock func(m *event.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:      "Success",
			eventName: "Spring Fair",
			setupMock: func(m *event.MockRepository) {
				m.EXPECT().
					CreateEvent(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, ev *event.Event) error {
						ev.ID = uuid.New()
						ev.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name:      "EmptyName",
			eventName: "",
			wantErr:   event.ErrInvalidName,
		},
		{
			name:      "RepoError",
			eventName: "Spring Fair",
			setupMock: func(m *event.MockRepository) {
				m.EXPECT().
					CreateEvent(gomock.Any(), gomock.Any()).
					Return(errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := event.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := event.NewService(repo, event.NewMockImageReleaser(ctrl))
			got, err := svc.Create(context.Background(), tt.eventName)

			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			assert.NoError(t, err)
			require.NotNil(t, got)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, tt.eventName, got.Name)
		})
	}
}

func TestService_AppendTransaction(t *testing.T) {
	type testCase struct {
		name      string
		fields    event.TransactionFields
		setupMock func(m *event.MockRepository)
		wantErr   error
	}

	badAmount := validFields()
	badAmount.Amount = decimal.NewFromInt(-1)

	badType := validFields()
	badType.Type = "transfer"

	noDate := validFields()
	noDate.Date = time.Time{}

	tests := []testCase{
		{
			name:   "Success",
			fields: validFields(),
			setupMock: func(m *event.MockRepository) {
				m.EXPECT().
					AppendTransaction(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ uuid.UUID, tx *event.Transaction) error {
						tx.ID = uuid.New()
						tx.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{name: "NegativeAmount", fields: badAmount, wantErr: event.ErrInvalidTransaction},
		{name: "UnknownType", fields: badType, wantErr: event.ErrInvalidTransaction},
		{name: "MissingDate", fields: noDate, wantErr: event.ErrInvalidTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := event.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := event.NewService(repo, event.NewMockImageReleaser(ctrl))
			got, err := svc.AppendTransaction(context.Background(), uuid.New(), tt.fields)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			assert.NoError(t, err)
			require.NotNil(t, got)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, tt.fields.Name, got.Name)
		})
	}
}

func TestService_RemoveTransaction_ReleasesImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := event.NewMockRepository(ctrl)
	images := event.NewMockImageReleaser(ctrl)
	svc := event.NewService(repo, images)

	url := "/api/v1/receipts/" + uuid.NewString()
	eventID := uuid.New()
	txID := uuid.New()

	ev := &event.Event{
		ID: eventID,
		Transactions: []event.Transaction{
			{ID: txID, Name: "Tickets", ImageURL: &url},
		},
	}

	repo.EXPECT().GetEvent(gomock.Any(), eventID).Return(ev, nil)
	images.EXPECT().Delete(gomock.Any(), url).Return(true, nil)
	repo.EXPECT().RemoveTransaction(gomock.Any(), eventID, txID).Return(nil)

	require.NoError(t, svc.RemoveTransaction(context.Background(), eventID, txID))
}

func TestService_RemoveTransaction_AbsentIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := event.NewMockRepository(ctrl)
	svc := event.NewService(repo, event.NewMockImageReleaser(ctrl))

	eventID := uuid.New()
	repo.EXPECT().GetEvent(gomock.Any(), eventID).Return(&event.Event{ID: eventID}, nil)
	// No RemoveTransaction call: nothing to remove.

	require.NoError(t, svc.RemoveTransaction(context.Background(), eventID, uuid.New()))
}

func TestService_Purge_ReleasesAllImages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := event.NewMockRepository(ctrl)
	images := event.NewMockImageReleaser(ctrl)
	svc := event.NewService(repo, images)

	url1 := "/api/v1/receipts/" + uuid.NewString()
	url2 := "/api/v1/receipts/" + uuid.NewString()
	eventID := uuid.New()

	ev := &event.Event{
		ID: eventID,
		Transactions: []event.Transaction{
			{ID: uuid.New(), ImageURL: &url1},
			{ID: uuid.New()}, // no receipt
			{ID: uuid.New(), ImageURL: &url2},
		},
	}

	repo.EXPECT().GetEvent(gomock.Any(), eventID).Return(ev, nil)
	images.EXPECT().Delete(gomock.Any(), url1).Return(true, nil)
	images.EXPECT().Delete(gomock.Any(), url2).Return(true, nil)
	repo.EXPECT().PurgeEvent(gomock.Any(), eventID).Return(nil)

	require.NoError(t, svc.Purge(context.Background(), eventID))
}

func TestService_Purge_ImageFailureDoesNotBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := event.NewMockRepository(ctrl)
	images := event.NewMockImageReleaser(ctrl)
	svc := event.NewService(repo, images)

	url := "/api/v1/receipts/" + uuid.NewString()
	eventID := uuid.New()

	repo.EXPECT().GetEvent(gomock.Any(), eventID).Return(&event.Event{
		ID:           eventID,
		Transactions: []event.Transaction{{ID: uuid.New(), ImageURL: &url}},
	}, nil)
	images.EXPECT().Delete(gomock.Any(), url).Return(false, errors.New("blob store down"))
	repo.EXPECT().PurgeEvent(gomock.Any(), eventID).Return(nil)

	require.NoError(t, svc.Purge(context.Background(), eventID))
}

func TestService_ReplaceTransaction_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := event.NewMockRepository(ctrl)
	svc := event.NewService(repo, event.NewMockImageReleaser(ctrl))

	eventID := uuid.New()
	txID := uuid.New()

	repo.EXPECT().
		ReplaceTransaction(gomock.Any(), eventID, txID, validFields()).
		Return(event.ErrNotFound)

	err := svc.ReplaceTransaction(context.Background(), eventID, txID, validFields())
	assert.ErrorIs(t, err, event.ErrNotFound)
}
