package questions

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Store is the single source of truth for submitted questions and the
// spotlight pointer. Each public method runs as one indivisible step under
// the store mutex, and every mutation emits its snapshots before the lock
// is released, so notifiers observe mutations in the order they applied.
type Store struct {
	mu        sync.Mutex
	items     []Question
	spotlight string
	seq       uint64

	notifiers []subscriber
	nextSubID int

	maxLen int
	clock  clockwork.Clock
	logger *slog.Logger
	newID  func() string
}

type subscriber struct {
	id int
	n  Notifier
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp CreatedAt.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithMaxTextLength sets the maximum question length in runes.
func WithMaxTextLength(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

// WithLogger sets the logger used for mutation logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithIDGenerator replaces the UUID generator. Used by tests.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		maxLen: DefaultMaxTextLength,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers n to receive every snapshot emitted from now on.
// The returned function removes the registration.
func (s *Store) Subscribe(n Notifier) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.notifiers = append(s.notifiers, subscriber{id: id, n: n})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.notifiers {
			if sub.id == id {
				s.notifiers = append(s.notifiers[:i:i], s.notifiers[i+1:]...)
				return
			}
		}
	}
}

// MaxTextLength reports the configured length cap.
func (s *Store) MaxTextLength() int {
	return s.maxLen
}

// Submit validates text and appends a new question to the end of the list.
func (s *Store) Submit(text string) (Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Question{}, validationError(ReasonEmpty, "question text is empty")
	}
	if utf8.RuneCountInString(text) > s.maxLen {
		return Question{}, validationError(ReasonTooLong, "question text exceeds maximum length")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q := Question{
		ID:        s.newID(),
		Text:      text,
		CreatedAt: s.clock.Now(),
		Status:    StatusNew,
	}
	s.items = append(s.items, q)
	s.logger.Info("question submitted", slog.String("question_id", q.ID), slog.Int("length", utf8.RuneCountInString(q.Text)))

	s.emitQuestions(OpSubmit)
	return q, nil
}

// List returns a copy of all questions in insertion order.
func (s *Store) List() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

// Get returns the question with the given id.
func (s *Store) Get(id string) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Question{}, notFoundError(id)
	}
	return s.items[i], nil
}

// Remove deletes the question with the given id and reports whether it
// existed. Removing the spotlighted question clears the spotlight in the
// same step.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)

	wasSpotlight := s.spotlight == id
	if wasSpotlight {
		s.spotlight = ""
	}
	s.logger.Info("question removed", slog.String("question_id", id), slog.Bool("was_spotlight", wasSpotlight))

	s.emitQuestions(OpRemove)
	if wasSpotlight {
		s.emitSpotlight(OpRemove)
	}
	return true
}

// ClearAll empties the list and the spotlight.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.items)
	s.items = nil
	s.spotlight = ""
	s.logger.Info("questions cleared", slog.Int("removed", n))

	s.emitQuestions(OpClearAll)
	s.emitSpotlight(OpClearAll)
}

// SetSpotlight points the spotlight at the question with the given id and
// returns it. An unknown id leaves the current spotlight untouched.
func (s *Store) SetSpotlight(id string) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Question{}, notFoundError(id)
	}

	changed := s.markSpotlightLeaving(id)
	if s.items[i].Status != StatusSelected {
		s.items[i].Status = StatusSelected
		changed = true
	}
	s.spotlight = id
	q := s.items[i]
	s.logger.Info("spotlight set", slog.String("question_id", id))

	s.emitSpotlight(OpSetSpotlight)
	if changed {
		s.emitQuestions(OpSetSpotlight)
	}
	return q, nil
}

// ClearSpotlight empties the spotlight unconditionally.
func (s *Store) ClearSpotlight() {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.markSpotlightLeaving("")
	s.spotlight = ""
	s.logger.Info("spotlight cleared")

	s.emitSpotlight(OpClearSpotlight)
	if changed {
		s.emitQuestions(OpClearSpotlight)
	}
}

// CurrentSpotlight returns the spotlighted question. The second result is
// false when the spotlight is empty.
func (s *Store) CurrentSpotlight() (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.resolveSpotlight()
	if q == nil {
		return Question{}, false
	}
	return *q, true
}

// Snapshot returns the current state as one event of each kind, stamped
// with the sequence number of the latest emitted event. Viewers use it to
// prime a fresh connection.
func (s *Store) Snapshot() (questions Event, spotlight Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	questions = Event{Kind: KindQuestions, Seq: s.seq, Cause: OpList, Questions: s.copyItems(), At: now}
	spotlight = Event{Kind: KindSpotlight, Seq: s.seq, Cause: OpCurrentSpotlight, Spotlight: s.resolveSpotlight(), At: now}
	return questions, spotlight
}

// markSpotlightLeaving demotes the current spotlight question to deferred
// unless it is next. Reports whether a status changed.
func (s *Store) markSpotlightLeaving(next string) bool {
	if s.spotlight == "" || s.spotlight == next {
		return false
	}
	i := s.indexOf(s.spotlight)
	if i < 0 {
		return false
	}
	s.items[i].Status = StatusDeferred
	return true
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// resolveSpotlight returns a copy of the spotlighted question. A pointer
// that no longer resolves reads as empty.
func (s *Store) resolveSpotlight() *Question {
	i := s.indexOf(s.spotlight)
	if i < 0 {
		return nil
	}
	q := s.items[i]
	return &q
}

func (s *Store) copyItems() []Question {
	out := make([]Question, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) emitQuestions(cause Operation) {
	s.emit(Event{Kind: KindQuestions, Cause: cause, Questions: s.copyItems()})
}

func (s *Store) emitSpotlight(cause Operation) {
	s.emit(Event{Kind: KindSpotlight, Cause: cause, Spotlight: s.resolveSpotlight()})
}

func (s *Store) emit(ev Event) {
	s.seq++
	ev.Seq = s.seq
	ev.At = s.clock.Now()
	for _, sub := range s.notifiers {
		sub.n.Notify(ev)
	}
}
