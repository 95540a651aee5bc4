// Package questions owns the question list and the spotlight pointer.
// Every mutation produces a snapshot that is handed to the registered
// notifiers for fan-out to connected viewers.
package questions

import "time"

// DefaultMaxTextLength is the longest question accepted, counted in runes.
const DefaultMaxTextLength = 2000

// Status tracks where a question is in the moderation flow.
type Status string

const (
	StatusNew      Status = "new"      // Submitted, never shown
	StatusSelected Status = "selected" // Currently in the spotlight
	StatusDeferred Status = "deferred" // Was in the spotlight, since replaced or cleared
)

// Question is a single submitted question. All fields except Status are
// fixed at creation.
type Question struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Status    Status    `json:"status"`
}
