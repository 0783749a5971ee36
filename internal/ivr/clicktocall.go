package ivr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore-ivr/internal/audit"
	"bookstore-ivr/internal/calls"
	"bookstore-ivr/internal/telephony"
	"bookstore-ivr/pkg/logger"
)

const confirmGatherTimeout = 10

var (
	ErrPhoneRequired          = errors.New("phone_number is required")
	ErrForwardingNotSet       = errors.New("store forwarding number is not configured")
	ErrTelephonyNotConfigured = errors.New("telephony provider is not configured")
	ErrCallInFlight           = errors.New("a call to this number is already being placed")
)

// CallFailedError reports a provider rejection after the call log row was
// written (and marked failed).
type CallFailedError struct {
	CallLogID string
	Message   string
}

func (e *CallFailedError) Error() string { return e.Message }

// Actor identifies who asked for an outbound call.
type Actor = audit.Actor

type ClickToCallRequest struct {
	PhoneNumber  string `json:"phone_number"`
	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

type ClickToCallResult struct {
	CallSID   string `json:"callSid"`
	CallLogID string `json:"callLogId"`
}

// ClickToCall rings the store's cell phone first; once staff press 1 the
// customer is dialed.
func (h *Handler) ClickToCall(ctx context.Context, actor Actor, req ClickToCallRequest) (ClickToCallResult, error) {
	log := logger.From(ctx)

	phone := telephony.NormalizeE164(req.PhoneNumber)
	if phone == "" {
		return ClickToCallResult{}, ErrPhoneRequired
	}
	cell := telephony.NormalizeE164(h.Settings.Load(ctx).CellPhone)
	if cell == "" {
		return ClickToCallResult{}, ErrForwardingNotSet
	}
	if h.Provider == nil || h.FromNumber == "" {
		return ClickToCallResult{}, ErrTelephonyNotConfigured
	}

	release, err := h.acquire(ctx, clickToCallKey(phone))
	if err != nil {
		return ClickToCallResult{}, err
	}
	defer release()

	customerID := strings.TrimSpace(req.CustomerID)
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = h.lookupCustomer(ctx, customerID).Name
	}
	if name == "" {
		name = h.lookupCustomerByPhone(ctx, phone).Name
	}
	if name == "" {
		name = defaultCustomerName
	}

	row, err := h.Calls.CreateCall(ctx, calls.CreateCallRequest{
		Direction:    calls.DirectionOutbound,
		PhoneNumber:  phone,
		CustomerName: name,
		CustomerID:   customerID,
	})
	if err != nil {
		return ClickToCallResult{}, err
	}
	log = log.With("call_log_id", row.ID)

	confirm := h.Links.Confirm(CallContext{CustomerPhone: phone, CustomerName: name, CallLogID: row.ID})
	script, err := h.newResponse().
		Gather(telephony.Gather{
			NumDigits:      1,
			Action:         confirm,
			TimeoutSeconds: confirmGatherTimeout,
			Prompts:        []string{promptClickToCall(name)},
		}).
		Redirect(confirm).
		Render()
	if err != nil {
		_ = h.Calls.MarkFailed(ctx, row.ID, "script render failed")
		return ClickToCallResult{}, fmt.Errorf("render click-to-call script: %w", err)
	}

	placed, err := h.Provider.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:             cell,
		From:           h.FromNumber,
		Script:         script,
		StatusCallback: h.Links.CallStatus(CallContext{CallLogID: row.ID}),
		TimeoutSeconds: dialTimeout,
	})
	if err != nil {
		return ClickToCallResult{}, h.outboundFailed(ctx, "click_to_call", row.ID, err)
	}

	h.markRinging(ctx, row.ID, placed.CallSID)
	h.recordAudit(ctx, audit.EventTypeClickToCall, actor, row.ID, phone, "click-to-call placed")
	h.Metrics.ObserveOutbound("click_to_call", "placed")
	log.Info("click-to-call placed", "call_sid", placed.CallSID)

	return ClickToCallResult{CallSID: placed.CallSID, CallLogID: row.ID}, nil
}

// acquire takes the per-number slot. A limiter outage does not block calls.
func (h *Handler) acquire(ctx context.Context, key string) (func(), error) {
	noop := func() {}
	if h.Limiter == nil {
		return noop, nil
	}
	ok, err := h.Limiter.Acquire(ctx, key)
	if err != nil {
		logger.From(ctx).Warn("concurrency cap unavailable", "err", err)
		return noop, nil
	}
	if !ok {
		return noop, ErrCallInFlight
	}
	return func() {
		if err := h.Limiter.Release(context.WithoutCancel(ctx), key); err != nil {
			logger.From(ctx).Warn("concurrency cap release failed", "err", err)
		}
	}, nil
}

func (h *Handler) outboundFailed(ctx context.Context, kind, callLogID string, err error) error {
	msg := err.Error()
	var pe *telephony.ProviderError
	if errors.As(err, &pe) {
		msg = pe.Message
	}
	if ferr := h.Calls.MarkFailed(ctx, callLogID, msg); ferr != nil {
		logger.From(ctx).Error("mark call failed", "call_log_id", callLogID, "err", ferr)
	}
	logger.From(ctx).Warn("outbound call rejected", "kind", kind, "call_log_id", callLogID, "err", err)
	h.Metrics.ObserveOutbound(kind, "failed")
	return &CallFailedError{CallLogID: callLogID, Message: msg}
}

func (h *Handler) markRinging(ctx context.Context, callLogID, callSID string) {
	if callSID != "" {
		if err := h.Calls.AttachProviderID(ctx, callLogID, callSID); err != nil {
			logger.From(ctx).Warn("attach call sid failed", "call_log_id", callLogID, "err", err)
		}
	}
	h.updateCall(ctx, callLogID, calls.StatusUpdate{Status: calls.StatusRinging})
}

func (h *Handler) recordAudit(ctx context.Context, typ audit.EventType, actor Actor, callLogID, phone, message string) {
	if h.Audit == nil || actor.UserID == "" {
		return
	}
	if err := h.Audit.CallPlaced(ctx, typ, actor, callLogID, phone, message); err != nil {
		logger.From(ctx).Warn("audit append failed", "err", err)
	}
}
