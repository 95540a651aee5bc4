package handlers

import (
	"net/http"
	"strings"

	"github.com/onteraction0919-cmyk/asksystem/internal/models"
	"github.com/onteraction0919-cmyk/asksystem/internal/questions"
)

// SpotlightHandler controls which question is on the display page.
type SpotlightHandler struct {
	store *questions.Store
}

// NewSpotlightHandler creates a SpotlightHandler backed by store.
func NewSpotlightHandler(store *questions.Store) *SpotlightHandler {
	return &SpotlightHandler{store: store}
}

// Get returns the spotlighted question, or {} when nothing is spotlighted.
func (h *SpotlightHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, ok := h.store.CurrentSpotlight()
	if !ok {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Set moves the spotlight to the question named by {"id": ...}.
func (h *SpotlightHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req models.SetSpotlightRequest
	if isForm(r) {
		req.ID = r.FormValue("id")
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	q, err := h.store.SetSpotlight(id)
	if err != nil {
		writeStoreError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SetSpotlightResponse{OK: true, Spotlight: q})
}

// Clear empties the spotlight.
func (h *SpotlightHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.store.ClearSpotlight()
	writeJSON(w, http.StatusOK, models.OKResponse{OK: true})
}
