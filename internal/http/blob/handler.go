package blob

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/internal/blob"
)

// maxReceiptSize caps uploads; receipts are phone photos, not archives.
const maxReceiptSize = 10 << 20

type Handler struct {
	store blob.Store
}

func NewHandler(store blob.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.upload)
	r.Get("/{id}", h.serve)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ident, ok := actor.FromContext(r.Context())
	if !ok || !ident.CanPropose() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReceiptSize))
	if err != nil {
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
		return
	}

	if len(data) == 0 {
		http.Error(w, "empty upload", http.StatusBadRequest)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := h.store.Put(r.Context(), data, contentType)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(map[string]string{"url": url}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	url := blob.URLPrefix + chi.URLParam(r, "id")

	data, contentType, err := h.store.Open(r.Context(), url)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			http.Error(w, "receipt not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", contentType)

	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write receipt", "error", err)
	}
}
