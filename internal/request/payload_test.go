package request_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/request"
)

func TestPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload request.Payload
		wantErr bool
	}{
		{name: "CreateEventOK", payload: request.CreateEvent{Name: "Spring Fair"}},
		{name: "CreateEventEmptyName", payload: request.CreateEvent{}, wantErr: true},
		{name: "DeleteEventOK", payload: request.DeleteEvent{TargetID: uuid.New()}},
		{name: "DeleteEventNoTarget", payload: request.DeleteEvent{}, wantErr: true},
		{name: "AddTransactionOK", payload: addPayload()},
		{name: "AddTransactionNoEvent", payload: request.AddTransaction{Transaction: addPayload().Transaction}, wantErr: true},
		{
			name: "UpdateTransactionNeedsTargetID",
			payload: request.UpdateTransaction{
				TargetID:    uuid.New(),
				Transaction: addPayload().Transaction, // id deliberately unset
			},
			wantErr: true,
		},
		{name: "DeleteTransactionOK", payload: request.DeleteTransaction{TargetID: uuid.New(), TransactionID: uuid.New()}},
		{name: "DeleteTransactionNoTx", payload: request.DeleteTransaction{TargetID: uuid.New()}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, request.ErrInvalidPayload)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestDecodePayload(t *testing.T) {
	original := addPayload()

	data, err := request.EncodePayload(original)
	require.NoError(t, err)

	decoded, err := request.DecodePayload(request.KindAddTransaction, data)
	require.NoError(t, err)

	got, ok := decoded.(request.AddTransaction)
	require.True(t, ok)
	assert.Equal(t, original.TargetID, got.TargetID)
	assert.Equal(t, original.Transaction.Name, got.Transaction.Name)
	assert.True(t, original.Transaction.Amount.Equal(got.Transaction.Amount))
}

func TestDecodePayload_UnknownKind(t *testing.T) {
	_, err := request.DecodePayload("rename_event", []byte(`{}`))
	assert.ErrorIs(t, err, request.ErrInvalidPayload)
}
