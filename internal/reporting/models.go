package reporting

import (
	"time"

	"bookstore-ivr/internal/calls"
)

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call log counts.
// Direction is optional; empty means both.
type CallsSummaryRequest struct {
	Range     TimeRange       `json:"range"`
	Direction calls.Direction `json:"direction,omitempty"`
}

type CallsSummary struct {
	Range     TimeRange       `json:"range"`
	Direction calls.Direction `json:"direction,omitempty"`

	TotalCalls      int `json:"total_calls"`
	InboundCalls    int `json:"inbound_calls"`
	OutboundCalls   int `json:"outbound_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	NoAnswerCalls   int `json:"no_answer_calls"`
	BusyCalls       int `json:"busy_calls"`
	MissedCalls     int `json:"missed_calls"`
	InProgressCalls int `json:"in_progress_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	// ConnectionRate is completed / total.
	ConnectionRate float64 `json:"connection_rate"`
}
