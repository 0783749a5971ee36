package ivr

import (
	"strings"

	"bookstore-ivr/internal/calls"
	"bookstore-ivr/internal/telephony"

	"github.com/gin-gonic/gin"
)

// CallStatus records the provider's terminal report for a call. It always
// answers 200 with an empty document.
func (h *Handler) CallStatus(c *gin.Context) {
	ctx, cb, cc := h.begin(c, "call_status")
	h.updateCall(ctx, cc.CallLogID, statusUpdateFrom(cb))
	h.Metrics.ObserveWebhook("call_status", string(calls.MapProviderStatus(cb.CallStatus)))
	telephony.WriteEmpty(c)
}

// CalleeStatus receives the staff leg's report on a forwarded inbound call.
// That leg completes even when the whisper was never accepted, so only
// answered-by is kept; status and duration come from DialResult.
func (h *Handler) CalleeStatus(c *gin.Context) {
	ctx, cb, cc := h.begin(c, "callee_status")
	u := calls.StatusUpdate{}
	if by := strings.TrimSpace(cb.AnsweredBy); by != "" {
		u.AnsweredBy = &by
	}
	h.updateCall(ctx, cc.CallLogID, u)
	h.Metrics.ObserveWebhook("callee_status", string(calls.MapProviderStatus(cb.CallStatus)))
	telephony.WriteEmpty(c)
}

func statusUpdateFrom(cb telephony.Callback) calls.StatusUpdate {
	u := calls.StatusUpdate{Status: calls.MapProviderStatus(cb.CallStatus)}
	if strings.TrimSpace(cb.CallDuration) != "" {
		d := cb.Duration()
		u.DurationSeconds = &d
	}
	if by := strings.TrimSpace(cb.AnsweredBy); by != "" {
		u.AnsweredBy = &by
	}
	return u
}
