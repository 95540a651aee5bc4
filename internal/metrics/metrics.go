// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/onteraction0919-cmyk/asksystem/internal/questions"
)

// Transports used as the "transport" label on viewer metrics.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// Store metrics
var (
	// QuestionsSubmitted counts accepted submissions.
	QuestionsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asksystem_questions_submitted_total",
			Help: "Total accepted question submissions",
		},
	)

	// SubmissionsRejected counts rejected submissions by validation reason.
	SubmissionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asksystem_submissions_rejected_total",
			Help: "Total rejected question submissions by reason",
		},
		[]string{"reason"},
	)

	// QuestionsRemoved counts removals, including those done by clear-all.
	QuestionsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asksystem_questions_removed_total",
			Help: "Total questions removed",
		},
	)

	// QuestionsStored tracks the current list size.
	QuestionsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asksystem_questions_stored",
			Help: "Number of questions currently stored",
		},
	)

	// SpotlightChanges counts spotlight transitions by operation.
	SpotlightChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asksystem_spotlight_changes_total",
			Help: "Spotlight transitions by causing operation",
		},
		[]string{"cause"},
	)

	// SnapshotsEmitted counts snapshots handed to the broadcaster by kind.
	SnapshotsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asksystem_snapshots_emitted_total",
			Help: "Snapshots emitted by the store by kind",
		},
		[]string{"kind"},
	)
)

// Viewer metrics
var (
	// ConnectedViewers tracks live viewer connections per transport.
	ConnectedViewers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asksystem_connected_viewers",
			Help: "Currently connected viewers by transport",
		},
		[]string{"transport"},
	)

	// CommandsHandled counts WebSocket commands by operation and outcome.
	CommandsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asksystem_commands_total",
			Help: "WebSocket commands handled by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// StoreRecorder turns store snapshots into metric updates. Subscribe it to
// the store alongside the broker.
type StoreRecorder struct {
	stored    int
	spotlight string
}

// NewStoreRecorder creates a recorder with an empty baseline.
func NewStoreRecorder() *StoreRecorder {
	return &StoreRecorder{}
}

// Notify implements questions.Notifier. Calls are serialized by the store.
func (r *StoreRecorder) Notify(ev questions.Event) {
	SnapshotsEmitted.WithLabelValues(string(ev.Kind)).Inc()

	switch ev.Kind {
	case questions.KindQuestions:
		n := len(ev.Questions)
		switch ev.Cause {
		case questions.OpSubmit:
			QuestionsSubmitted.Inc()
		case questions.OpRemove, questions.OpClearAll:
			if removed := r.stored - n; removed > 0 {
				QuestionsRemoved.Add(float64(removed))
			}
		}
		r.stored = n
		QuestionsStored.Set(float64(n))
	case questions.KindSpotlight:
		var id string
		if ev.Spotlight != nil {
			id = ev.Spotlight.ID
		}
		// Clearing an empty spotlight or re-selecting the current question is not a transition
		if id != r.spotlight {
			SpotlightChanges.WithLabelValues(string(ev.Cause)).Inc()
			r.spotlight = id
		}
	}
}
