package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxEnvelopeSize = 1 << 20

var (
	errNoEnvelopeHeader = errors.New("envelope has no header line")
	errDSNMismatch      = errors.New("envelope dsn does not match the configured frontend dsn")
)

// SentryTunnelHandler proxies Sentry envelopes from the browser pages
// through the backend, so ad blockers and CORS do not drop them.
type SentryTunnelHandler struct {
	frontendDSN string
	client      *http.Client
}

// NewSentryTunnelHandler creates a tunnel accepting envelopes for
// frontendDSN only. An empty DSN disables the tunnel.
func NewSentryTunnelHandler(frontendDSN string, client *http.Client) *SentryTunnelHandler {
	if client == nil {
		client = http.DefaultClient
	}
	return &SentryTunnelHandler{frontendDSN: frontendDSN, client: client}
}

// Tunnel validates the envelope's DSN and forwards it to Sentry's ingest API.
func (h *SentryTunnelHandler) Tunnel(w http.ResponseWriter, r *http.Request) {
	if h.frontendDSN == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEnvelopeSize))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	target, err := envelopeIngestURL(body, h.frontendDSN)
	switch {
	case errors.Is(err, errDSNMismatch):
		w.WriteHeader(http.StatusUnauthorized)
		return
	case err != nil:
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to create sentry tunnel request", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-sentry-envelope")

	resp, err := h.client.Do(req)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusBadGateway, "failed to forward sentry envelope", err)
		return
	}
	defer resp.Body.Close()

	w.WriteHeader(resp.StatusCode)
}

// envelopeIngestURL reads the envelope header line, checks its DSN against
// expectedDSN and returns the project's envelope endpoint.
// DSN format: https://<key>@<host>/<project_id>
func envelopeIngestURL(envelope []byte, expectedDSN string) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(envelope))
	scanner.Buffer(make([]byte, 0, 4096), maxEnvelopeSize)
	if !scanner.Scan() {
		return "", errNoEnvelopeHeader
	}

	var header struct {
		DSN string `json:"dsn"`
	}
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return "", err
	}
	if header.DSN != expectedDSN {
		return "", errDSNMismatch
	}

	dsnURL, err := url.Parse(header.DSN)
	if err != nil {
		return "", err
	}
	projectID := strings.TrimPrefix(dsnURL.Path, "/")
	return "https://" + dsnURL.Host + "/api/" + projectID + "/envelope/", nil
}
