package ivr

import (
	"bookstore-ivr/internal/telephony"
	"bookstore-ivr/pkg/logger"

	"github.com/gin-gonic/gin"
)

const playbackGatherTimeout = 5

// PendingMessage plays the caller's waiting message, then offers a
// representative.
//
// Steps: skip check (digit 2 goes straight to connect), fetch, play (the
// message is marked played before the markup is returned), offer continue.
func (h *Handler) PendingMessage(c *gin.Context) {
	ctx, cb, cc := h.begin(c, "pending_message")
	log := logger.From(ctx)
	connect := h.Links.Connect(cc)

	if ParseChoice(cb.Digits) == ChoiceTwo {
		h.Metrics.ObserveWebhook("pending_message", "skipped")
		telephony.Write(c, h.newResponse().Redirect(connect))
		return
	}

	lookup := h.Messages.Resolve(ctx, cc.PendingMessageID)
	if !lookup.Found {
		log.Info("pending message unavailable", "pending_message_id", cc.PendingMessageID)
		h.Metrics.ObserveWebhook("pending_message", "missing")
		telephony.Write(c, h.newResponse().Redirect(connect))
		return
	}

	if _, err := h.Messages.MarkPlayed(ctx, lookup.Message.ID); err != nil {
		log.Error("mark pending message played failed", "pending_message_id", lookup.Message.ID, "err", err)
	} else {
		h.Metrics.ObserveMessage("played")
	}

	resp := h.newResponse().
		Say(promptMessageLeadIn).
		Say(lookup.Message.Message).
		Pause(1).
		Gather(telephony.Gather{
			NumDigits:      1,
			Action:         connect,
			TimeoutSeconds: playbackGatherTimeout,
			Prompts:        []string{promptPressAnyKey},
		}).
		Redirect(connect)

	h.Metrics.ObserveWebhook("pending_message", "played")
	telephony.Write(c, resp)
}
