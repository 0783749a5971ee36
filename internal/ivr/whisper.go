package ivr

import (
	"bookstore-ivr/internal/calls"
	"bookstore-ivr/internal/telephony"
	"bookstore-ivr/pkg/logger"

	"github.com/gin-gonic/gin"
)

const whisperGatherTimeout = 10

// Whisper runs on the staff leg of an inbound bridge. The staff member must
// press 1 to take the call; nothing is persisted here.
func (h *Handler) Whisper(c *gin.Context) {
	ctx, cb, cc := h.begin(c, "whisper")
	resp := h.newResponse()

	switch ParseChoice(cb.Digits) {
	case ChoiceNone:
		name := cc.CustomerName
		if name == "" {
			name = defaultAnnouncedName
		}
		resp.Gather(telephony.Gather{
			NumDigits:      1,
			Action:         h.Links.Whisper(cc),
			TimeoutSeconds: whisperGatherTimeout,
			Prompts:        []string{promptWhisper(name)},
		}).
			Say(promptNoResponse).
			Hangup()
		h.Metrics.ObserveWebhook("whisper", "announced")
	case ChoiceOne:
		resp.Say(promptConnecting)
		h.Metrics.ObserveWebhook("whisper", "accepted")
	default:
		resp.Say(promptNoResponse).Hangup()
		h.Metrics.ObserveWebhook("whisper", "declined")
	}

	logger.From(ctx).Debug("whisper step", "digits", cb.Digits)
	telephony.Write(c, resp)
}

// Confirm runs on the staff leg of a click-to-call. Pressing 1 dials the
// customer; anything else cancels and records the call as failed.
func (h *Handler) Confirm(c *gin.Context) {
	ctx, cb, cc := h.begin(c, "confirm")
	log := logger.From(ctx)

	name := cc.CustomerName
	if name == "" {
		name = defaultCustomerName
	}
	phone := telephony.NormalizeE164(cc.CustomerPhone)

	if ParseChoice(cb.Digits) == ChoiceOne && phone != "" {
		resp := h.newResponse().
			Say(promptConnectingTo(name)).
			Dial(telephony.Dial{
				Number:         phone,
				TimeoutSeconds: dialTimeout,
				Action:         h.Links.DialResult(cc),
				CallerID:       h.FromNumber,
			})
		log.Info("click-to-call confirmed")
		h.Metrics.ObserveWebhook("confirm", "accepted")
		telephony.Write(c, resp)
		return
	}

	note := noteDidNotConfirm
	h.updateCall(ctx, cc.CallLogID, calls.StatusUpdate{Status: calls.StatusFailed, Notes: &note})
	log.Info("click-to-call cancelled", "digits", cb.Digits)
	h.Metrics.ObserveWebhook("confirm", "cancelled")
	telephony.Write(c, h.newResponse().Say(promptCallCancelled).Hangup())
}
