package models

import "github.com/onteraction0919-cmyk/asksystem/internal/questions"

// Question submission
type SubmitQuestionRequest struct {
	Text string `json:"text"`
}

type SubmitQuestionResponse struct {
	OK       bool               `json:"ok"`
	Question questions.Question `json:"q"`
}

// Spotlight selection
type SetSpotlightRequest struct {
	ID string `json:"id"`
}

type SetSpotlightResponse struct {
	OK        bool               `json:"ok"`
	Spotlight questions.Question `json:"spotlight"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

// Public configuration for the browser pages
type PublicConfigResponse struct {
	MaxQuestionLength int    `json:"maxQuestionLength"`
	SentryDSN         string `json:"sentryDsn,omitempty"`
	SentryEnvironment string `json:"sentryEnvironment,omitempty"`
}

// Push frames sent over SSE data lines and WebSocket messages
type SnapshotFrame struct {
	Type questions.Kind `json:"type"`
	Seq  uint64         `json:"seq"`
	Data any            `json:"data"`
}

type CommandResultFrame struct {
	Type      string              `json:"type"`
	Operation questions.Operation `json:"operation,omitempty"`
	OK        bool                `json:"ok"`
	Data      any                 `json:"data,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// Error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewSnapshotFrame converts a store event into its wire frame.
func NewSnapshotFrame(ev questions.Event) SnapshotFrame {
	return SnapshotFrame{Type: ev.Kind, Seq: ev.Seq, Data: ev.Data()}
}
