package telephony

import (
	"context"
	"errors"
)

// Provider defines the provider-agnostic interface used by the IVR flows.
//
// Rules:
// - No provider REST calls outside telephony adapters.
// - Keep request/response types provider-agnostic.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)
}

// PlaceCallRequest asks the provider to originate an outbound call.
// Exactly one of Script (inline markup) or URL (markup fetched on answer)
// must be set.
type PlaceCallRequest struct {
	// To and From are E.164.
	To   string `json:"to"`
	From string `json:"from"`

	Script string `json:"script,omitempty"`
	URL    string `json:"url,omitempty"`

	// StatusCallback receives the terminal call outcome.
	StatusCallback string `json:"status_callback,omitempty"`

	// TimeoutSeconds is how long the provider lets the call ring.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// PlaceCallResult carries the provider's identifier for the created call.
type PlaceCallResult struct {
	CallSID string `json:"call_sid"`
	Status  string `json:"status"`
}

var ErrInvalidCallRequest = errors.New("telephony: invalid call request")

// ProviderError is returned when the provider rejects a request.
// Message is the provider's own description and is safe to surface to staff.
type ProviderError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return "telephony: provider rejected request"
	}
	return e.Message
}

func (r PlaceCallRequest) validate() error {
	if r.To == "" || r.From == "" {
		return ErrInvalidCallRequest
	}
	if (r.Script == "") == (r.URL == "") {
		return ErrInvalidCallRequest
	}
	return nil
}
