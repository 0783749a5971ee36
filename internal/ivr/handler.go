package ivr

import (
	"context"
	"errors"

	"bookstore-ivr/internal/audit"
	"bookstore-ivr/internal/calls"
	"bookstore-ivr/internal/customers"
	"bookstore-ivr/internal/messages"
	"bookstore-ivr/internal/observability/metrics"
	"bookstore-ivr/internal/settings"
	"bookstore-ivr/internal/telephony"
	"bookstore-ivr/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler drives the voice webhooks and places outbound calls.
//
// Every webhook answers 200 with markup. Storage failures inside a live call
// are logged and the call degrades to the next step.
type Handler struct {
	Calls     *calls.Service
	Messages  *messages.Service
	Settings  *settings.Service
	Customers customers.Repository

	// Provider may be nil when telephony is not configured; outbound calls
	// then fail with ErrTelephonyNotConfigured.
	Provider telephony.Provider
	Limiter  Limiter
	Audit    *audit.Service
	Metrics  *metrics.IVRMetrics

	Links      Links
	Voice      telephony.Voice
	FromNumber string
	PaymentURL string
}

func (h *Handler) newResponse() *telephony.Response {
	return telephony.NewResponse(h.Voice)
}

// begin parses the callback and continuation state, and returns a context
// carrying the request logger tagged with the call.
func (h *Handler) begin(c *gin.Context, step string) (context.Context, telephony.Callback, CallContext) {
	log := logger.FromGin(c)
	cb, err := telephony.ParseCallback(c.Request)
	if err != nil {
		log.Warn("voice webhook parse failed", "step", step, "err", err)
	}
	cc := DecodeContext(c.Request.URL.Query())

	log = log.With("step", step)
	if cb.CallSid != "" {
		log = log.With("call_sid", cb.CallSid)
	}
	if cc.CallLogID != "" {
		log = log.With("call_log_id", cc.CallLogID)
	}
	return logger.With(c.Request.Context(), log), cb, cc
}

// lookupCustomerByPhone fails open.
func (h *Handler) lookupCustomerByPhone(ctx context.Context, phone string) customers.Customer {
	if h.Customers == nil || phone == "" {
		return customers.Customer{}
	}
	cust, err := h.Customers.FindByPhone(ctx, phone)
	if err != nil {
		if !errors.Is(err, customers.ErrNotFound) {
			logger.From(ctx).Warn("customer lookup failed", "err", err)
		}
		return customers.Customer{}
	}
	return cust
}

func (h *Handler) lookupCustomer(ctx context.Context, id string) customers.Customer {
	if h.Customers == nil || id == "" {
		return customers.Customer{}
	}
	cust, err := h.Customers.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, customers.ErrNotFound) {
			logger.From(ctx).Warn("customer lookup failed", "customer_id", id, "err", err)
		}
		return customers.Customer{}
	}
	return cust
}

// updateCall writes a status update, or only the detail fields when u has
// no status, and swallows the error after logging it.
func (h *Handler) updateCall(ctx context.Context, id string, u calls.StatusUpdate) {
	if id == "" {
		logger.From(ctx).Info("status update without call log id", "status", u.Status)
		return
	}
	write := h.Calls.UpdateStatus
	if u.Status == "" {
		write = h.Calls.Annotate
	}
	if err := write(ctx, id, u); err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			logger.From(ctx).Warn("call log not found for update", "call_log_id", id)
			return
		}
		logger.From(ctx).Error("call log update failed", "call_log_id", id, "err", err)
	}
}
