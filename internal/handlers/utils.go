package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/onteraction0919-cmyk/asksystem/internal/logging"
	"github.com/onteraction0919-cmyk/asksystem/internal/models"
	"github.com/onteraction0919-cmyk/asksystem/internal/questions"
	"github.com/onteraction0919-cmyk/asksystem/internal/sentry"
)

// writeJSON serializes data as JSON and writes it to the response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response without logging.
// For server errors with cause, use writeErrorWithCause.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: message})
}

// writeErrorWithCause writes an error response, logs the error with stack
// trace and reports it to Sentry.
func writeErrorWithCause(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	writeError(w, status, message)

	if err == nil {
		return
	}
	wrappedErr := logging.WrapError(err, message)
	logging.LogErrorWithStatus(ctx, status, "error response", wrappedErr)
	if status >= http.StatusInternalServerError {
		sentry.CaptureError(ctx, wrappedErr)
	}
}

// writeStoreError maps a store failure onto its HTTP status. Validation
// and not-found failures are the caller's fault and only logged at warn.
func writeStoreError(ctx context.Context, w http.ResponseWriter, err error) {
	var storeErr *questions.Error
	switch {
	case errors.Is(err, questions.ErrValidation) && errors.As(err, &storeErr):
		logging.LogRejected(ctx, http.StatusBadRequest, "request rejected", err)
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "validation failed", Message: storeErr.Message})
	case errors.Is(err, questions.ErrNotFound):
		logging.LogRejected(ctx, http.StatusNotFound, "request rejected", err)
		writeError(w, http.StatusNotFound, "question not found")
	default:
		writeErrorWithCause(ctx, w, http.StatusInternalServerError, "internal error", err)
	}
}

// decodeJSON reads a JSON body of at most maxBody bytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(dst)
}

// isForm reports whether the request body is an HTML form post.
func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}

const maxBody = 64 << 10
