package report

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/event"
	"github.com/tallyhq/tally/internal/report"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/overview", h.overview)
	r.Get("/events/{id}/summary", h.eventSummary)
	r.Get("/events/{id}/csv", h.eventCSV)
}

// Amounts are serialized as strings so consumers are not tempted into
// binary floating point.
type summaryResponse struct {
	Collections string `json:"collections"`
	Expenses    string `json:"expenses"`
	Loans       string `json:"loans"`
	Balance     string `json:"balance"`
}

func toSummary(s report.Summary) summaryResponse {
	return summaryResponse{
		Collections: s.Collections.String(),
		Expenses:    s.Expenses.String(),
		Loans:       s.Loans.String(),
		Balance:     s.Balance.String(),
	}
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Overview(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, toSummary(summary))
}

func (h *Handler) eventSummary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	summary, err := h.svc.EventSummary(r.Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, toSummary(summary))
}

func (h *Handler) eventCSV(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	includePending := r.URL.Query().Get("include_pending") == "true"

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="event.csv"`)

	if err := h.svc.WriteCSV(r.Context(), w, id, includePending); err != nil {
		if errors.Is(err, event.ErrNotFound) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}

		slog.Error("failed to write csv", "event_id", id, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
