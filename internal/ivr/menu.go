package ivr

import (
	"bookstore-ivr/internal/calls"
	"bookstore-ivr/internal/telephony"
	"bookstore-ivr/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	menuGatherTimeout = 8
	dialTimeout       = 30
)

// Inbound answers a new inbound call: identifies the caller, opens a call
// log, and offers the main menu.
func (h *Handler) Inbound(c *gin.Context) {
	ctx, cb, _ := h.begin(c, "inbound")
	log := logger.From(ctx)

	caller := telephony.NormalizeE164(cb.From)
	cust := h.lookupCustomerByPhone(ctx, caller)
	pending := h.Messages.LatestUnplayed(ctx, cust.ID)
	st := h.Settings.Load(ctx)

	cc := CallContext{
		CustomerID:    cust.ID,
		CustomerName:  cust.Name,
		CallerNumber:  caller,
		ForwardNumber: telephony.NormalizeE164(st.CellPhone),
	}
	if pending.Found {
		cc.PendingMessageID = pending.Message.ID
	}

	row, err := h.Calls.CreateCall(ctx, calls.CreateCallRequest{
		Direction:    calls.DirectionInbound,
		PhoneNumber:  caller,
		CustomerName: cust.Name,
		CustomerID:   cust.ID,
	})
	if err != nil {
		log.Error("inbound call log create failed", "err", err)
	} else {
		cc.CallLogID = row.ID
		if cb.CallSid != "" {
			if err := h.Calls.AttachProviderID(ctx, row.ID, cb.CallSid); err != nil {
				log.Warn("attach call sid failed", "call_log_id", row.ID, "err", err)
			}
		}
	}

	prompts := []string{promptGreeting(st.StoreName)}
	if pending.Found {
		prompts = append(prompts, promptMessageWaiting)
	}
	prompts = append(prompts, promptRepresentative)
	if h.PaymentURL != "" {
		prompts = append(prompts, promptPayment)
	}

	resp := h.newResponse().
		Gather(telephony.Gather{
			NumDigits:      1,
			Action:         h.Links.Menu(cc),
			TimeoutSeconds: menuGatherTimeout,
			Prompts:        prompts,
		}).
		Redirect(h.Links.Connect(cc))

	log.Info("inbound call answered", "customer_found", cust.ID != "", "message_waiting", pending.Found)
	h.Metrics.ObserveWebhook("inbound", "ok")
	telephony.Write(c, resp)
}

// Menu routes the caller's main-menu selection.
func (h *Handler) Menu(c *gin.Context) {
	ctx, cb, cc := h.begin(c, "menu")
	choice := ParseChoice(cb.Digits)
	logger.From(ctx).Info("menu selection", "choice", choice.String())

	resp := h.newResponse()
	switch choice {
	case ChoiceOne:
		if cc.PendingMessageID != "" {
			resp.Redirect(h.Links.Playback(cc))
		} else {
			resp.Redirect(h.Links.Connect(cc))
		}
	case ChoiceTwo:
		resp.Redirect(h.Links.Connect(cc))
	case ChoiceThree:
		if h.PaymentURL != "" {
			resp.Redirect(withContext(h.PaymentURL, CallContext{CallLogID: cc.CallLogID, CustomerID: cc.CustomerID, CallerNumber: cc.CallerNumber}))
		} else {
			resp.Say(promptNoPayments).Redirect(h.Links.Connect(cc))
		}
	case ChoiceNone:
		resp.Redirect(h.Links.Connect(cc))
	default:
		resp.Say(promptInvalidOption).Redirect(h.Links.Connect(cc))
	}

	h.Metrics.ObserveWebhook("menu", choice.String())
	telephony.Write(c, resp)
}
