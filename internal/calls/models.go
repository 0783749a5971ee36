package calls

import (
	"strings"
	"time"
)

// CallLog is one row per phone call the IVR touches, inbound or outbound.
//
// Rows are never deleted. Provider-specific identifiers live in CallSID only;
// everything else is provider-agnostic.
type CallLog struct {
	ID         string `json:"id" db:"id"`
	CustomerID string `json:"customer_id,omitempty" db:"customer_id"`

	PhoneNumber  string `json:"phone_number" db:"phone_number"`
	CustomerName string `json:"customer_name" db:"customer_name"`

	Direction Direction `json:"direction" db:"direction"`
	Status    Status    `json:"status" db:"status"`

	CallSID string `json:"call_sid,omitempty" db:"call_sid"`

	// DurationSeconds is the provider-reported duration.
	DurationSeconds int    `json:"duration_seconds" db:"duration_seconds"`
	AnsweredBy      string `json:"answered_by,omitempty" db:"answered_by"`
	Notes           string `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

func (d Direction) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

type Status string

const (
	StatusInitiated Status = "initiated"
	StatusRinging   Status = "ringing"
	StatusCompleted Status = "completed"
	StatusNoAnswer  Status = "no_answer"
	StatusBusy      Status = "busy"
	StatusFailed    Status = "failed"
	StatusMissed    Status = "missed"
)

// TerminalStatuses never transition again once written.
var TerminalStatuses = []Status{
	StatusCompleted,
	StatusNoAnswer,
	StatusBusy,
	StatusFailed,
	StatusMissed,
}

func (s Status) Terminal() bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// MapProviderStatus converts a provider CallStatus/DialCallStatus value to a
// CallLog status. Unknown values pass through trimmed and lower-cased.
func MapProviderStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "completed":
		return StatusCompleted
	case "no-answer", "no_answer":
		return StatusNoAnswer
	case "busy":
		return StatusBusy
	case "failed":
		return StatusFailed
	case "canceled", "cancelled", "":
		return StatusMissed
	default:
		return Status(s)
	}
}

// StatusUpdate carries a partial update. Nil pointers leave the column alone.
type StatusUpdate struct {
	Status          Status
	DurationSeconds *int
	AnsweredBy      *string
	Notes           *string
}

// CreateCallRequest is the input to Service.CreateCall.
type CreateCallRequest struct {
	Direction    Direction
	PhoneNumber  string
	CustomerName string
	CustomerID   string
}

// Filter narrows List. Zero values mean unbounded.
type Filter struct {
	From      time.Time
	To        time.Time
	Direction Direction
}
