package request

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/request"
)

type requestResponse struct {
	ID          uuid.UUID       `json:"id"`
	Type        request.Kind    `json:"type"`
	Data        json.RawMessage `json:"data"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
	RequestedBy string          `json:"requestedBy"`
	IsRead      bool            `json:"isRead"`
}

func toResponse(req *request.PendingRequest) requestResponse {
	data, err := request.EncodePayload(req.Payload)
	if err != nil {
		slog.Error("failed to encode request payload", "request_id", req.ID, "error", err)
	}

	return requestResponse{
		ID:          req.ID,
		Type:        req.Kind,
		Data:        data,
		Description: req.Description,
		Timestamp:   req.Timestamp,
		RequestedBy: req.RequestedBy,
		IsRead:      req.IsRead,
	}
}

func toResponseList(reqs []*request.PendingRequest) []requestResponse {
	resp := make([]requestResponse, len(reqs))
	for i, req := range reqs {
		resp[i] = toResponse(req)
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
