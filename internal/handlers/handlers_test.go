package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/onteraction0919-cmyk/asksystem/internal/config"
	"github.com/onteraction0919-cmyk/asksystem/internal/models"
	"github.com/onteraction0919-cmyk/asksystem/internal/questions"
)

func newTestStore() *questions.Store {
	return questions.NewStore(questions.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// Helper to create a request with chi URL params
func createTestRequest(method, path string, body []byte, urlParams map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range urlParams {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestQuestionHandler_Submit(t *testing.T) {
	tests := []struct {
		name           string
		body           []byte
		expectedStatus int
		expectedText   string
	}{
		{"valid question", mustJSON(t, models.SubmitQuestionRequest{Text: "  What is your favorite color?  "}), http.StatusCreated, "What is your favorite color?"},
		{"empty text", mustJSON(t, models.SubmitQuestionRequest{Text: ""}), http.StatusBadRequest, ""},
		{"whitespace text", mustJSON(t, models.SubmitQuestionRequest{Text: "   "}), http.StatusBadRequest, ""},
		{"too long", mustJSON(t, models.SubmitQuestionRequest{Text: strings.Repeat("x", questions.DefaultMaxTextLength+1)}), http.StatusBadRequest, ""},
		{"invalid json", []byte("not json"), http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore()
			handler := NewQuestionHandler(store)

			rec := httptest.NewRecorder()
			handler.Submit(rec, createTestRequest(http.MethodPost, "/api/questions", tt.body, nil))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("Status = %d, want %d (body %s)", rec.Code, tt.expectedStatus, rec.Body.String())
			}
			if tt.expectedStatus != http.StatusCreated {
				if n := len(store.List()); n != 0 {
					t.Errorf("store has %d questions after rejected submit", n)
				}
				return
			}

			var resp models.SubmitQuestionResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if !resp.OK || resp.Question.Text != tt.expectedText || resp.Question.ID == "" {
				t.Errorf("unexpected response %+v", resp)
			}
		})
	}
}

func TestQuestionHandler_SubmitForm(t *testing.T) {
	store := newTestStore()
	handler := NewQuestionHandler(store)

	form := url.Values{"text": {"From a plain form"}}
	req := httptest.NewRequest(http.MethodPost, "/api/questions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	handler.Submit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if list := store.List(); len(list) != 1 || list[0].Text != "From a plain form" {
		t.Errorf("unexpected store contents %+v", list)
	}
}

func TestQuestionHandler_ListAndGet(t *testing.T) {
	store := newTestStore()
	a, _ := store.Submit("first")
	b, _ := store.Submit("second")
	handler := NewQuestionHandler(store)

	rec := httptest.NewRecorder()
	handler.List(rec, createTestRequest(http.MethodGet, "/api/questions", nil, nil))

	var list []questions.Question
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = httptest.NewRecorder()
	handler.Get(rec, createTestRequest(http.MethodGet, "/api/questions/"+b.ID, nil, map[string]string{"id": b.ID}))
	if rec.Code != http.StatusOK {
		t.Errorf("Get status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Get(rec, createTestRequest(http.MethodGet, "/api/questions/nope", nil, map[string]string{"id": "nope"}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Get unknown status = %d, want 404", rec.Code)
	}
}

func TestQuestionHandler_ListEmptyIsArray(t *testing.T) {
	handler := NewQuestionHandler(newTestStore())
	rec := httptest.NewRecorder()
	handler.List(rec, createTestRequest(http.MethodGet, "/api/questions", nil, nil))

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestQuestionHandler_Remove(t *testing.T) {
	store := newTestStore()
	q, _ := store.Submit("remove me")
	_, _ = store.SetSpotlight(q.ID)
	handler := NewQuestionHandler(store)

	rec := httptest.NewRecorder()
	handler.Remove(rec, createTestRequest(http.MethodDelete, "/api/questions/"+q.ID, nil, map[string]string{"id": q.ID}))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if _, ok := store.CurrentSpotlight(); ok {
		t.Error("spotlight should be cleared with its question")
	}

	rec = httptest.NewRecorder()
	handler.Remove(rec, createTestRequest(http.MethodDelete, "/api/questions/"+q.ID, nil, map[string]string{"id": q.ID}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second remove status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestQuestionHandler_Clear(t *testing.T) {
	store := newTestStore()
	q, _ := store.Submit("a")
	_, _ = store.Submit("b")
	_, _ = store.SetSpotlight(q.ID)

	rec := httptest.NewRecorder()
	NewQuestionHandler(store).Clear(rec, createTestRequest(http.MethodDelete, "/api/questions", nil, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if len(store.List()) != 0 {
		t.Error("expected empty store")
	}
	if _, ok := store.CurrentSpotlight(); ok {
		t.Error("expected empty spotlight")
	}
}

func TestSpotlightHandler(t *testing.T) {
	store := newTestStore()
	q, _ := store.Submit("What is your favorite color?")
	handler := NewSpotlightHandler(store)

	// Empty spotlight reads as {}
	rec := httptest.NewRecorder()
	handler.Get(rec, createTestRequest(http.MethodGet, "/api/spotlight", nil, nil))
	if got := strings.TrimSpace(rec.Body.String()); got != "{}" {
		t.Errorf("empty spotlight body = %s, want {}", got)
	}

	tests := []struct {
		name           string
		body           []byte
		expectedStatus int
	}{
		{"missing id", mustJSON(t, models.SetSpotlightRequest{}), http.StatusBadRequest},
		{"unknown id", mustJSON(t, models.SetSpotlightRequest{ID: "nonexistent"}), http.StatusNotFound},
		{"invalid json", []byte("{"), http.StatusBadRequest},
		{"existing id", mustJSON(t, models.SetSpotlightRequest{ID: q.ID}), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Set(rec, createTestRequest(http.MethodPost, "/api/spotlight", tt.body, nil))
			if rec.Code != tt.expectedStatus {
				t.Errorf("Status = %d, want %d", rec.Code, tt.expectedStatus)
			}
		})
	}

	rec = httptest.NewRecorder()
	handler.Get(rec, createTestRequest(http.MethodGet, "/api/spotlight", nil, nil))
	var got questions.Question
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != q.ID || got.Status != questions.StatusSelected {
		t.Errorf("spotlight = %+v, want %s selected", got, q.ID)
	}

	rec = httptest.NewRecorder()
	handler.Clear(rec, createTestRequest(http.MethodDelete, "/api/spotlight", nil, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Clear status = %d", rec.Code)
	}
	if _, ok := store.CurrentSpotlight(); ok {
		t.Error("expected spotlight cleared")
	}
}

func TestEnvelopeIngestURL(t *testing.T) {
	const dsn = "https://key@o1.ingest.sentry.io/42"

	tests := []struct {
		name     string
		envelope string
		want     string
		wantErr  error
	}{
		{"valid", `{"dsn":"` + dsn + `"}` + "\n{}\n", "https://o1.ingest.sentry.io/api/42/envelope/", nil},
		{"wrong dsn", `{"dsn":"https://other@x.io/1"}` + "\n", "", errDSNMismatch},
		{"empty", "", "", errNoEnvelopeHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := envelopeIngestURL([]byte(tt.envelope), dsn)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("envelopeIngestURL = (%q, %v), want %q", got, err, tt.want)
			}
		})
	}
}

func TestSentryTunnel_DisabledWithoutDSN(t *testing.T) {
	rec := httptest.NewRecorder()
	NewSentryTunnelHandler("", nil).Tunnel(rec, httptest.NewRequest(http.MethodPost, "/api/sentry-tunnel", strings.NewReader("{}")))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", rec.Code)
	}
}

func TestConfigHandler_PublicConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.MaxQuestionLength = 280
	cfg.SentryDSN = "https://backend@o1.ingest.sentry.io/1"
	cfg.SentryDSNFrontend = "https://browser@o1.ingest.sentry.io/2"
	cfg.SentryEnvironment = "staging"

	rec := httptest.NewRecorder()
	NewConfigHandler(cfg).PublicConfig(rec, createTestRequest(http.MethodGet, "/api/config", nil, nil))

	var resp models.PublicConfigResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MaxQuestionLength != 280 || resp.SentryDSN != cfg.SentryDSNFrontend || resp.SentryEnvironment != "staging" {
		t.Errorf("unexpected config %+v", resp)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSentryTunnel_ForwardsBrowserEnvelope(t *testing.T) {
	const dsn = "https://browser@o1.ingest.sentry.io/2"
	var forwarded *http.Request
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		forwarded = r
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("")), Header: http.Header{}}, nil
	})}
	handler := NewSentryTunnelHandler(dsn, client)

	rec := httptest.NewRecorder()
	envelope := `{"dsn":"` + dsn + `"}` + "\n" + `{"type":"event"}` + "\n{}\n"
	handler.Tunnel(rec, httptest.NewRequest(http.MethodPost, "/api/sentry-tunnel", strings.NewReader(envelope)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if forwarded == nil || forwarded.URL.String() != "https://o1.ingest.sentry.io/api/2/envelope/" {
		t.Fatalf("forwarded to %v", forwarded)
	}

	rec = httptest.NewRecorder()
	other := `{"dsn":"https://someone@else.io/9"}` + "\n"
	handler.Tunnel(rec, httptest.NewRequest(http.MethodPost, "/api/sentry-tunnel", strings.NewReader(other)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("foreign dsn status = %d, want 401", rec.Code)
	}
}
