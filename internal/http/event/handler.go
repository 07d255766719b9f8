package event

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/internal/event"
	"github.com/tallyhq/tally/internal/overlay"
	"github.com/tallyhq/tally/internal/request"
)

type Handler struct {
	events   *event.Service
	requests *request.Service
}

func NewHandler(events *event.Service, requests *request.Service) *Handler {
	return &Handler{events: events, requests: requests}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.softDelete)
	r.Post("/{id}/restore", h.restore)
	r.Delete("/{id}/purge", h.purge)

	r.Post("/{id}/transactions", h.addTransaction)
	r.Patch("/{id}/transactions/{txID}", h.replaceTransaction)
	r.Delete("/{id}/transactions/{txID}", h.removeTransaction)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, event.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, actor.ErrPermissionDenied):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, event.ErrInvalidName), errors.Is(err, event.ErrInvalidTransaction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ident, ok := actor.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Soft-deleted events are an operator concern (restore/purge); other
	// roles always get the filtered listing.
	includeDeleted := ident.IsAdmin() && r.URL.Query().Get("include_deleted") == "true"

	events, err := h.events.List(r.Context(), includeDeleted)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventList(events))
}

type createEventRequest struct {
	Name string `json:"name"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ident, ok := actor.FromContext(r.Context())
	if !ok || !ident.IsAdmin() {
		writeError(w, actor.ErrPermissionDenied)
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ev, err := h.events.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEvent(ev))
}

// get returns the event with every matching pending request folded in, so
// all roles see the same current-plus-proposed view.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	ev, err := h.events.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	reqs, err := h.requests.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	merged := overlay.MergeForEvent(ev, reqs)
	overlay.SortForDisplay(merged)

	writeJSON(w, http.StatusOK, toEventDetail(ev, merged))
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	h.setDeleted(w, r, true)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	h.setDeleted(w, r, false)
}

func (h *Handler) setDeleted(w http.ResponseWriter, r *http.Request, deleted bool) {
	ident, ok := actor.FromContext(r.Context())
	if !ok || !ident.IsAdmin() {
		writeError(w, actor.ErrPermissionDenied)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.events.SetDeleted(r.Context(), id, deleted); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) purge(w http.ResponseWriter, r *http.Request) {
	ident, ok := actor.FromContext(r.Context())
	if !ok || !ident.IsAdmin() {
		writeError(w, actor.ErrPermissionDenied)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.events.Purge(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type transactionRequest struct {
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Type        event.Type      `json:"type"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Image       *string         `json:"image,omitempty"`
}

func (req transactionRequest) fields() event.TransactionFields {
	return event.TransactionFields{
		Name:        req.Name,
		Amount:      req.Amount,
		Type:        req.Type,
		Date:        req.Date,
		Description: req.Description,
		ImageURL:    req.Image,
	}
}

func (h *Handler) addTransaction(w http.ResponseWriter, r *http.Request) {
	ident, ok := actor.FromContext(r.Context())
	if !ok || !ident.IsAdmin() {
		writeError(w, actor.ErrPermissionDenied)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.events.AppendTransaction(r.Context(), id, req.fields())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransaction(*tx))
}

func (h *Handler) replaceTransaction(w http.ResponseWriter, r *http.Request) {
	ident, ok := actor.FromContext(r.Context())
	if !ok || !ident.IsAdmin() {
		writeError(w, actor.ErrPermissionDenied)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	txID, err := uuid.Parse(chi.URLParam(r, "txID"))
	if err != nil {
		http.Error(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.events.ReplaceTransaction(r.Context(), id, txID, req.fields()); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeTransaction(w http.ResponseWriter, r *http.Request) {
	ident, ok := actor.FromContext(r.Context())
	if !ok || !ident.IsAdmin() {
		writeError(w, actor.ErrPermissionDenied)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	txID, err := uuid.Parse(chi.URLParam(r, "txID"))
	if err != nil {
		http.Error(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	if err := h.events.RemoveTransaction(r.Context(), id, txID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
