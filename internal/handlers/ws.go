package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onteraction0919-cmyk/asksystem/internal/broker"
	"github.com/onteraction0919-cmyk/asksystem/internal/logging"
	"github.com/onteraction0919-cmyk/asksystem/internal/metrics"
	"github.com/onteraction0919-cmyk/asksystem/internal/models"
	"github.com/onteraction0919-cmyk/asksystem/internal/questions"
)

const (
	wsWriteDeadline = 5 * time.Second
	wsPongDeadline  = 60 * time.Second
	wsReadLimit     = 16 << 10
	wsResultBuffer  = 16
)

// WSHandler serves a bidirectional WebSocket: snapshots are pushed to the
// client, and each inbound text frame is a questions.Command whose result
// is sent back as a "result" frame.
type WSHandler struct {
	store    *questions.Store
	broker   *broker.Broker
	ping     time.Duration
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WSHandler. ping is the keepalive interval. An
// interval that would not fit inside the pong deadline is replaced with
// 9/10 of it, so idle viewers are pinged before their read deadline ends.
func NewWSHandler(store *questions.Store, b *broker.Broker, ping time.Duration) *WSHandler {
	if ping <= 0 || ping >= wsPongDeadline {
		ping = wsPongDeadline * 9 / 10
	}
	return &WSHandler{
		store:  store,
		broker: b,
		ping:   ping,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the connection and runs it until either side closes.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		slog.DebugContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	sub := h.broker.Subscribe()
	defer h.broker.Unsubscribe(sub)

	gauge := metrics.ConnectedViewers.WithLabelValues(metrics.TransportWebSocket)
	gauge.Inc()
	logging.LogViewer(r.Context(), metrics.TransportWebSocket, true, h.broker.Count())
	defer func() {
		gauge.Dec()
		logging.LogViewer(r.Context(), metrics.TransportWebSocket, false, h.broker.Count()-1)
	}()

	results := make(chan models.CommandResultFrame, wsResultBuffer)
	done := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		// Unblocks readLoop when the writer gives up first
		defer conn.Close()
		h.writeLoop(r.Context(), conn, sub, results, done)
	}()

	h.readLoop(conn, results, writerDone)
	close(done)
	<-writerDone
}

// readLoop decodes commands until the connection fails. It is the only
// reader of conn.
func (h *WSHandler) readLoop(conn *websocket.Conn, results chan<- models.CommandResultFrame, writerDone <-chan struct{}) {
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongDeadline))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("websocket read failed", slog.Any("error", err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongDeadline))
		if msgType != websocket.TextMessage {
			continue
		}

		select {
		case results <- h.execute(data):
		case <-writerDone:
			return
		}
	}
}

func (h *WSHandler) execute(data []byte) models.CommandResultFrame {
	var cmd questions.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		metrics.CommandsHandled.WithLabelValues("invalid", "error").Inc()
		return models.CommandResultFrame{Type: "result", Error: "invalid command"}
	}

	out, err := h.store.Execute(cmd)
	if err != nil {
		metrics.CommandsHandled.WithLabelValues(string(cmd.Operation), "error").Inc()
		if cmd.Operation == questions.OpSubmit && errors.Is(err, questions.ErrValidation) {
			metrics.SubmissionsRejected.WithLabelValues(questions.Reason(err)).Inc()
		}
		return models.CommandResultFrame{Type: "result", Operation: cmd.Operation, Error: commandErrorMessage(err)}
	}

	metrics.CommandsHandled.WithLabelValues(string(cmd.Operation), "ok").Inc()
	return models.CommandResultFrame{Type: "result", Operation: cmd.Operation, OK: true, Data: out}
}

func commandErrorMessage(err error) string {
	var storeErr *questions.Error
	if errors.As(err, &storeErr) {
		return storeErr.Message
	}
	return "internal error"
}

// writeLoop is the only writer of conn.
func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sub *broker.Subscription, results <-chan models.CommandResultFrame, done <-chan struct{}) {
	ticker := time.NewTicker(h.ping)
	defer ticker.Stop()

	qs, sp := h.store.Snapshot()
	lastSeq := qs.Seq
	for _, ev := range []questions.Event{qs, sp} {
		if err := writeFrame(conn, models.NewSnapshotFrame(ev)); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case res := <-results:
			if err := writeFrame(conn, res); err != nil {
				return
			}
		case <-sub.C:
			for _, ev := range sub.Pending() {
				if ev.Seq <= lastSeq {
					continue
				}
				if err := writeFrame(conn, models.NewSnapshotFrame(ev)); err != nil {
					return
				}
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	return conn.WriteJSON(v)
}
