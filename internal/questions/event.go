package questions

import "time"

// Kind identifies which part of the store state a snapshot carries.
type Kind string

const (
	KindQuestions Kind = "questions"
	KindSpotlight Kind = "spotlight"
)

// Event is an immutable snapshot emitted after a mutation. Questions is set
// for KindQuestions; Spotlight is set for KindSpotlight and is nil when the
// spotlight is empty.
type Event struct {
	Kind      Kind       `json:"type"`
	Seq       uint64     `json:"seq"`
	Cause     Operation  `json:"cause"`
	Questions []Question `json:"-"`
	Spotlight *Question  `json:"-"`
	At        time.Time  `json:"at"`
}

// Data returns the snapshot body as it is sent to viewers: the ordered
// list for a questions snapshot, and the spotlighted question or an empty
// object for a spotlight snapshot.
func (e Event) Data() any {
	if e.Kind == KindQuestions {
		if e.Questions == nil {
			return []Question{}
		}
		return e.Questions
	}
	if e.Spotlight == nil {
		return struct{}{}
	}
	return e.Spotlight
}

// Notifier receives snapshots. Notify is called with the store lock held,
// so implementations must not block and must not call back into the store.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

// MultiNotifier hands each event to every notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ev Event) {
	for _, n := range m {
		n.Notify(ev)
	}
}
