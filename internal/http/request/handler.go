package request

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/internal/approval"
	"github.com/tallyhq/tally/internal/request"
)

type Handler struct {
	requests    *request.Service
	coordinator *approval.Coordinator
}

func NewHandler(requests *request.Service, coordinator *approval.Coordinator) *Handler {
	return &Handler{requests: requests, coordinator: coordinator}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.submit)
	r.Patch("/{id}", h.edit)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/cancel", h.cancel)
}

func (h *Handler) NotificationRoutes(r chi.Router) {
	r.Get("/unread-count", h.unreadCount)
	r.Post("/mark-all-read", h.markAllRead)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, request.ErrNotFound):
		http.Error(w, "request not found", http.StatusNotFound)
	case errors.Is(err, actor.ErrPermissionDenied):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, request.ErrInvalidPayload), errors.Is(err, request.ErrKindImmutable):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.requests.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(reqs))
}

type submitRequest struct {
	Type        request.Kind    `json:"type"`
	Data        json.RawMessage `json:"data"`
	Description string          `json:"description"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	ident, ok := actor.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := request.DecodePayload(req.Type, req.Data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pending, err := h.requests.Submit(r.Context(), ident, payload, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(pending))
}

type editRequest struct {
	Data        json.RawMessage `json:"data"`
	Description string          `json:"description"`
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	ident, ok := actor.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The payload must decode as the pending request's own kind; an edit
	// cannot change what the request is.
	existing, err := h.requests.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	payload, err := request.DecodePayload(existing.Kind, req.Data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pending, err := h.requests.Edit(r.Context(), ident, id, payload, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(pending))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.coordinator.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.coordinator.Reject)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.coordinator.Cancel)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ident actor.Identity, id uuid.UUID) error) {
	ident, ok := actor.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := fn(r.Context(), ident, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.requests.UnreadCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	ident, ok := actor.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.requests.MarkAllRead(r.Context(), ident); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
