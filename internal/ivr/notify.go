package ivr

import (
	"context"
	"errors"
	"strings"

	"bookstore-ivr/internal/audit"
	"bookstore-ivr/internal/calls"
	"bookstore-ivr/internal/telephony"
	"bookstore-ivr/pkg/logger"

	"github.com/gin-gonic/gin"
)

// deliveredMinSeconds is the shortest completed call that counts as the
// customer having heard the message.
const deliveredMinSeconds = 5

var (
	ErrNotificationInvalid = errors.New("customer_id and message are required")
	ErrCustomerNotFound    = errors.New("customer not found")
)

type NotificationRequest struct {
	CustomerID  string `json:"customer_id"`
	Message     string `json:"message"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type NotificationResult struct {
	CallSID          string `json:"callSid"`
	CallLogID        string `json:"callLogId"`
	PendingMessageID string `json:"pendingMessageId"`
}

// PlaceNotification queues a message for the customer and calls them to read
// it. If the call is not delivered the message stays queued and is offered the
// next time the customer calls in.
func (h *Handler) PlaceNotification(ctx context.Context, actor Actor, req NotificationRequest) (NotificationResult, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" || strings.TrimSpace(req.Message) == "" {
		return NotificationResult{}, ErrNotificationInvalid
	}
	if h.Provider == nil || h.FromNumber == "" {
		return NotificationResult{}, ErrTelephonyNotConfigured
	}

	cust := h.lookupCustomer(ctx, customerID)
	phone := telephony.NormalizeE164(req.PhoneNumber)
	if phone == "" {
		if cust.ID == "" {
			return NotificationResult{}, ErrCustomerNotFound
		}
		phone = telephony.NormalizeE164(cust.Phone)
	}
	if phone == "" {
		return NotificationResult{}, ErrPhoneRequired
	}

	msg, err := h.Messages.Create(ctx, customerID, req.Message)
	if err != nil {
		return NotificationResult{}, err
	}
	h.Metrics.ObserveMessage("created")

	row, err := h.Calls.CreateCall(ctx, calls.CreateCallRequest{
		Direction:    calls.DirectionOutbound,
		PhoneNumber:  phone,
		CustomerName: cust.Name,
		CustomerID:   customerID,
	})
	if err != nil {
		return NotificationResult{}, err
	}

	cc := CallContext{CallLogID: row.ID, PendingMessageID: msg.ID, CustomerName: cust.Name}
	placed, err := h.Provider.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:             phone,
		From:           h.FromNumber,
		URL:            h.Links.Notification(cc),
		StatusCallback: h.Links.NotificationStatus(cc),
		TimeoutSeconds: dialTimeout,
	})
	if err != nil {
		return NotificationResult{}, h.outboundFailed(ctx, "notification", row.ID, err)
	}

	h.markRinging(ctx, row.ID, placed.CallSID)
	h.recordAudit(ctx, audit.EventTypeNotificationCall, actor, row.ID, phone, "notification call placed")
	h.Metrics.ObserveOutbound("notification", "placed")
	logger.From(ctx).Info("notification call placed", "call_log_id", row.ID, "pending_message_id", msg.ID, "call_sid", placed.CallSID)

	return NotificationResult{CallSID: placed.CallSID, CallLogID: row.ID, PendingMessageID: msg.ID}, nil
}

// Notification is the script an automated notification call runs on answer.
func (h *Handler) Notification(c *gin.Context) {
	ctx, _, cc := h.begin(c, "notification")
	st := h.Settings.Load(ctx)
	lookup := h.Messages.Resolve(ctx, cc.PendingMessageID)

	resp := h.newResponse()
	if !lookup.Found {
		resp.Say(promptNotificationFallback(st.StoreName)).Hangup()
		h.Metrics.ObserveWebhook("notification", "missing")
		telephony.Write(c, resp)
		return
	}

	text := lookup.Message.Message
	resp.Say(promptNotificationIntro(cc.CustomerName, st.StoreName)).
		Pause(1).
		Say(text).
		Pause(1).
		Say(promptMessageRepeat).
		Say(text).
		Say(promptThanksGoodbye).
		Hangup()

	h.Metrics.ObserveWebhook("notification", "read")
	telephony.Write(c, resp)
}

// NotificationStatus reconciles the pending message with the call outcome:
// a completed call longer than deliveredMinSeconds deletes the message,
// anything else keeps it queued.
func (h *Handler) NotificationStatus(c *gin.Context) {
	ctx, cb, cc := h.begin(c, "notification_status")
	log := logger.From(ctx)

	delivered := isDelivered(cb)
	if cc.PendingMessageID != "" {
		if delivered {
			if err := h.Messages.Delete(ctx, cc.PendingMessageID); err != nil {
				log.Error("delete delivered message failed", "pending_message_id", cc.PendingMessageID, "err", err)
			} else {
				h.Metrics.ObserveMessage("delivered")
			}
		} else {
			h.Metrics.ObserveMessage("retained")
		}
		log.Info("notification reconciled", "pending_message_id", cc.PendingMessageID, "delivered", delivered,
			"call_status", cb.CallStatus, "duration", cb.Duration())
	}

	if cc.CallLogID != "" {
		h.updateCall(ctx, cc.CallLogID, statusUpdateFrom(cb))
	}

	h.Metrics.ObserveWebhook("notification_status", string(calls.MapProviderStatus(cb.CallStatus)))
	telephony.WriteEmpty(c)
}

func isDelivered(cb telephony.Callback) bool {
	return strings.EqualFold(strings.TrimSpace(cb.CallStatus), "completed") && cb.Duration() > deliveredMinSeconds
}
