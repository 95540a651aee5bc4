package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onteraction0919-cmyk/asksystem/internal/metrics"
	"github.com/onteraction0919-cmyk/asksystem/internal/models"
	"github.com/onteraction0919-cmyk/asksystem/internal/questions"
)

// QuestionHandler exposes the question list over JSON.
type QuestionHandler struct {
	store *questions.Store
}

// NewQuestionHandler creates a QuestionHandler backed by store.
func NewQuestionHandler(store *questions.Store) *QuestionHandler {
	return &QuestionHandler{store: store}
}

// Submit accepts a JSON body {"text": ...} or an HTML form field "text".
func (h *QuestionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitQuestionRequest
	if isForm(r) {
		req.Text = r.FormValue("text")
	} else if err := decodeJSON(w, r, &req); err != nil {
		metrics.SubmissionsRejected.WithLabelValues(questions.ReasonMalformed).Inc()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, err := h.store.Submit(req.Text)
	if err != nil {
		if errors.Is(err, questions.ErrValidation) {
			metrics.SubmissionsRejected.WithLabelValues(questions.Reason(err)).Inc()
		}
		writeStoreError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.SubmitQuestionResponse{OK: true, Question: q})
}

// List returns every question in submission order.
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

// Get returns a single question.
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Remove deletes one question. Removing the spotlighted question also
// clears the spotlight.
func (h *QuestionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.store.Remove(id) {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear removes every question and the spotlight.
func (h *QuestionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.store.ClearAll()
	writeJSON(w, http.StatusOK, models.OKResponse{OK: true})
}
