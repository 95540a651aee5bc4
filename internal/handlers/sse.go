package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/onteraction0919-cmyk/asksystem/internal/broker"
	"github.com/onteraction0919-cmyk/asksystem/internal/logging"
	"github.com/onteraction0919-cmyk/asksystem/internal/metrics"
	"github.com/onteraction0919-cmyk/asksystem/internal/models"
	"github.com/onteraction0919-cmyk/asksystem/internal/questions"
)

// SSEHandler serves Server-Sent Events streams of store snapshots.
type SSEHandler struct {
	store     *questions.Store
	broker    *broker.Broker
	heartbeat time.Duration
}

// NewSSEHandler creates an SSEHandler backed by the given store and broker.
func NewSSEHandler(store *questions.Store, b *broker.Broker, heartbeat time.Duration) *SSEHandler {
	return &SSEHandler{store: store, broker: b, heartbeat: heartbeat}
}

// Stream opens an SSE connection. It sends a "connected" event and the
// current "questions" and "spotlight" snapshots, then one event per
// snapshot the broker delivers. A heartbeat comment keeps the connection
// alive through proxies.
func (h *SSEHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Subscribe before taking the snapshot so nothing falls in between.
	sub := h.broker.Subscribe()
	defer h.broker.Unsubscribe(sub)

	gauge := metrics.ConnectedViewers.WithLabelValues(metrics.TransportSSE)
	gauge.Inc()
	logging.LogViewer(r.Context(), metrics.TransportSSE, true, h.broker.Count())
	defer func() {
		gauge.Dec()
		logging.LogViewer(r.Context(), metrics.TransportSSE, false, h.broker.Count()-1)
	}()

	fmt.Fprintf(w, "event: connected\ndata: ok\n\n")
	qs, sp := h.store.Snapshot()
	lastSeq := qs.Seq
	if err := writeSSEEvent(w, qs); err != nil {
		return
	}
	if err := writeSSEEvent(w, sp); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.C:
			for _, ev := range sub.Pending() {
				if ev.Seq <= lastSeq {
					continue
				}
				if err := writeSSEEvent(w, ev); err != nil {
					slog.DebugContext(ctx, "sse write failed", slog.Any("error", err))
					return
				}
			}
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w io.Writer, ev questions.Event) error {
	data, err := json.Marshal(models.NewSnapshotFrame(ev))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Kind, data)
	return err
}
