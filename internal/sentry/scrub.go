// Package sentry wires optional error reporting and scrubs attendee data
// from events before they leave the process. Submitted question text and
// client addresses never reach the error tracker.
package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

const filtered = "[Filtered]"

// sensitiveHeaders are HTTP headers that identify the attendee.
var sensitiveHeaders = map[string]bool{
	"Authorization":    true,
	"Cookie":           true,
	"Set-Cookie":       true,
	"X-Real-Ip":        true,
	"X-Forwarded-For":  true,
	"Cf-Connecting-Ip": true,
}

// sensitiveKeys are tag or breadcrumb fields that may carry question text
// or client addresses.
var sensitiveKeys = map[string]bool{
	"text":     true,
	"question": true,
	"ip":       true,
	"payload":  true,
	"cookie":   true,
}

// Options configures Init.
type Options struct {
	DSN         string
	Environment string
	Release     string
}

// Init configures the global Sentry client. It is a no-op returning false
// when no DSN is configured.
func Init(opts Options) (bool, error) {
	if opts.DSN == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:                   opts.DSN,
		Environment:           opts.Environment,
		Release:               opts.Release,
		BeforeSend:            ScrubEvent,
		BeforeSendTransaction: ScrubTransaction,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Flush waits up to timeout for buffered events to be delivered.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// CaptureError reports err using the hub bound to ctx, falling back to the
// global hub. Safe to call when Sentry is not initialised.
func CaptureError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// ScrubEvent removes attendee data from a Sentry event before it is sent.
// It redacts identifying headers, strips request bodies and query strings,
// and scrubs tags and breadcrumb data.
func ScrubEvent(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		for header := range event.Request.Headers {
			if sensitiveHeaders[header] {
				event.Request.Headers[header] = filtered
			}
		}
		// Bodies carry question text
		event.Request.Data = ""
		event.Request.QueryString = ""
		event.Request.Cookies = ""
	}

	if event.User.IPAddress != "" {
		event.User.IPAddress = ""
	}

	for key := range event.Tags {
		if sensitiveKeys[key] {
			event.Tags[key] = filtered
		}
	}

	for i := range event.Breadcrumbs {
		for key := range event.Breadcrumbs[i].Data {
			if sensitiveKeys[key] {
				event.Breadcrumbs[i].Data[key] = filtered
			}
		}
	}

	return event
}

// ScrubTransaction applies the same scrubbing logic to transaction events.
func ScrubTransaction(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	return ScrubEvent(event, hint)
}
