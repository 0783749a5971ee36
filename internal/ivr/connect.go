package ivr

import (
	"strings"

	"bookstore-ivr/internal/calls"
	"bookstore-ivr/internal/telephony"
	"bookstore-ivr/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Connect bridges the caller to the store's forwarding number. The callee
// hears a whisper before the bridge completes.
func (h *Handler) Connect(c *gin.Context) {
	ctx, cb, cc := h.begin(c, "connect")
	log := logger.From(ctx)

	forward := cc.ForwardNumber
	if forward == "" {
		forward = h.Settings.Load(ctx).CellPhone
	}
	forward = telephony.NormalizeE164(forward)

	if forward == "" {
		log.Warn("no forwarding number configured")
		note := noteNoForwarding
		h.updateCall(ctx, cc.CallLogID, calls.StatusUpdate{Status: calls.StatusMissed, Notes: &note})
		h.Metrics.ObserveWebhook("connect", "unavailable")
		telephony.Write(c, h.newResponse().Say(promptUnavailable).Hangup())
		return
	}

	caller := cc.CallerNumber
	if caller == "" {
		caller = telephony.NormalizeE164(cb.From)
	}

	whisper := CallContext{CallLogID: cc.CallLogID, CustomerName: cc.CustomerName, CallerNumber: caller}
	resp := h.newResponse().Dial(telephony.Dial{
		Number:         forward,
		WhisperURL:     h.Links.Whisper(whisper),
		StatusCallback: h.Links.CalleeStatus(cc),
		TimeoutSeconds: dialTimeout,
		Action:         h.Links.DialResult(cc),
		CallerID:       caller,
	})

	log.Info("connecting caller", "forward_number", forward)
	h.Metrics.ObserveWebhook("connect", "dialing")
	telephony.Write(c, resp)
}

// DialResult closes out a forwarded call once the Dial verb finishes. It is
// the only writer of the inbound row's status: DialCallStatus reports whether
// the bridge happened, while the staff leg can complete without one.
func (h *Handler) DialResult(c *gin.Context) {
	ctx, cb, cc := h.begin(c, "dial_result")

	raw := strings.ToLower(strings.TrimSpace(cb.DialCallStatus))
	if cc.CallLogID != "" {
		d := cb.DialDuration()
		h.updateCall(ctx, cc.CallLogID, calls.StatusUpdate{
			Status:          calls.MapProviderStatus(dialStatusForLog(raw)),
			DurationSeconds: &d,
		})
	}

	resp := h.newResponse()
	if raw == "completed" || raw == "answered" {
		resp.Hangup()
	} else {
		resp.Say(promptNotAnswered).Hangup()
	}

	logger.From(ctx).Info("dial finished", "dial_status", raw)
	h.Metrics.ObserveWebhook("dial_result", raw)
	telephony.Write(c, resp)
}

// dialStatusForLog treats an answered bridge as a completed call.
func dialStatusForLog(raw string) string {
	if raw == "answered" {
		return "completed"
	}
	return raw
}
