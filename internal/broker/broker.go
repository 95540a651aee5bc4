// Package broker provides the in-memory fan-out of store snapshots to live
// viewers. It is used by the SSE and WebSocket handlers.
package broker

import (
	"sort"
	"sync"

	"github.com/onteraction0919-cmyk/asksystem/internal/questions"
)

// Subscription is one viewer's mailbox. It keeps only the latest pending
// snapshot of each kind and signals on C, which is buffered to 1 so
// multiple rapid publishes coalesce into a single wake-up. Snapshots carry
// full state, so a viewer that skips intermediate ones still converges.
type Subscription struct {
	C <-chan struct{}

	signal  chan struct{}
	mu      sync.Mutex
	pending map[questions.Kind]questions.Event
}

func newSubscription() *Subscription {
	ch := make(chan struct{}, 1)
	return &Subscription{
		C:       ch,
		signal:  ch,
		pending: make(map[questions.Kind]questions.Event),
	}
}

// Pending drains the queued snapshots, oldest first.
func (s *Subscription) Pending() []questions.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	out := make([]questions.Event, 0, len(s.pending))
	for kind, ev := range s.pending {
		out = append(out, ev)
		delete(s.pending, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (s *Subscription) offer(ev questions.Event) {
	s.mu.Lock()
	s.pending[ev.Kind] = ev
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Broker is a pub/sub hub for store snapshots.
type Broker struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// New creates a ready-to-use Broker.
func New() *Broker {
	return &Broker{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new viewer.
func (b *Broker) Subscribe() *Subscription {
	sub := newSubscription()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes a viewer. Safe to call more than once.
func (b *Broker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub)
}

// Publish hands ev to every subscriber without blocking.
func (b *Broker) Publish(ev questions.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		sub.offer(ev)
	}
}

// Notify implements questions.Notifier.
func (b *Broker) Notify(ev questions.Event) {
	b.Publish(ev)
}

// Count returns the number of live subscribers.
func (b *Broker) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
