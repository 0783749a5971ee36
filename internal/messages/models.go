package messages

import "time"

// PendingMessage is a voice message queued for a customer. It is read aloud
// when the customer calls in (and marked played), or by an automated
// notification call (and deleted once delivered).
type PendingMessage struct {
	ID         string     `json:"id" db:"id"`
	CustomerID string     `json:"customer_id" db:"customer_id"`
	Message    string     `json:"message" db:"message"`
	IsPlayed   bool       `json:"is_played" db:"is_played"`
	PlayedAt   *time.Time `json:"played_at,omitempty" db:"played_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Lookup is the result of a fail-open read. Found is false both when the
// row is missing and when storage could not be reached.
type Lookup struct {
	Message PendingMessage
	Found   bool
}
