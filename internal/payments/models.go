package payments

import "time"

// Card is a tokenized card reference. Raw card numbers never reach this
// service; the gateway hands out tokens.
type Card struct {
	Token    string `json:"token"`
	Last4    string `json:"last4,omitempty"`
	ExpMonth int    `json:"exp_month,omitempty"`
	ExpYear  int    `json:"exp_year,omitempty"`
}

type ChargeRequest struct {
	AmountMinor    int64  `json:"amount_minor"`
	Currency       string `json:"currency"`
	Card           Card   `json:"card"`
	IdempotencyKey string `json:"idempotency_key"`
	CustomerID     string `json:"customer_id,omitempty"`
	CallLogID      string `json:"call_log_id,omitempty"`
}

type ChargeResult struct {
	Approved bool      `json:"approved"`
	Ref      string    `json:"ref"`
	At       time.Time `json:"at"`
}
