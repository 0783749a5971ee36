package ivr

import (
	"net/url"
	"strings"
)

// CallContext is the state a call carries from one webhook to the next.
// Handlers are stateless; this travels only in continuation URL queries.
type CallContext struct {
	CallLogID        string
	PendingMessageID string
	CustomerID       string
	CustomerName     string
	CustomerPhone    string
	CallerNumber     string
	ForwardNumber    string
}

const (
	keyCallLogID        = "call_log_id"
	keyPendingMessageID = "pending_message_id"
	keyCustomerID       = "customer_id"
	keyCustomerName     = "customer_name"
	keyCustomerPhone    = "customer_phone"
	keyCallerNumber     = "caller_number"
	keyForwardNumber    = "forward_number"
)

// Values encodes the non-empty fields.
func (cc CallContext) Values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set(keyCallLogID, cc.CallLogID)
	set(keyPendingMessageID, cc.PendingMessageID)
	set(keyCustomerID, cc.CustomerID)
	set(keyCustomerName, cc.CustomerName)
	set(keyCustomerPhone, cc.CustomerPhone)
	set(keyCallerNumber, cc.CallerNumber)
	set(keyForwardNumber, cc.ForwardNumber)
	return v
}

// DecodeContext reads a CallContext back from a continuation query.
func DecodeContext(q url.Values) CallContext {
	get := func(k string) string { return strings.TrimSpace(q.Get(k)) }
	return CallContext{
		CallLogID:        get(keyCallLogID),
		PendingMessageID: get(keyPendingMessageID),
		CustomerID:       get(keyCustomerID),
		CustomerName:     get(keyCustomerName),
		CustomerPhone:    get(keyCustomerPhone),
		CallerNumber:     get(keyCallerNumber),
		ForwardNumber:    get(keyForwardNumber),
	}
}

// forConnect drops the message id once playback is over.
func (cc CallContext) forConnect() CallContext {
	cc.PendingMessageID = ""
	return cc
}

// onlyCallLog keeps the call log id for status/result callbacks.
func (cc CallContext) onlyCallLog() CallContext {
	return CallContext{CallLogID: cc.CallLogID}
}

const (
	PathInbound            = "/webhooks/voice/inbound"
	PathMenu               = "/webhooks/voice/menu"
	PathPlayback           = "/webhooks/voice/pending-message"
	PathConnect            = "/webhooks/voice/connect"
	PathDialResult         = "/webhooks/voice/dial-result"
	PathWhisper            = "/webhooks/voice/whisper"
	PathConfirm            = "/webhooks/voice/click-to-call/confirm"
	PathCallStatus         = "/webhooks/voice/call-status"
	PathCalleeStatus       = "/webhooks/voice/callee-status"
	PathNotification       = "/webhooks/voice/notification"
	PathNotificationStatus = "/webhooks/voice/notification-status"
)

// Links builds absolute continuation URLs. Query assembly happens here;
// markup escaping happens at render time.
type Links struct {
	Base string
}

func NewLinks(base string) Links {
	return Links{Base: strings.TrimSuffix(base, "/")}
}

func (l Links) URL(path string, cc CallContext) string {
	u := l.Base + path
	if q := cc.Values().Encode(); q != "" {
		u += "?" + q
	}
	return u
}

func (l Links) Menu(cc CallContext) string       { return l.URL(PathMenu, cc) }
func (l Links) Playback(cc CallContext) string   { return l.URL(PathPlayback, cc) }
func (l Links) Connect(cc CallContext) string    { return l.URL(PathConnect, cc.forConnect()) }
func (l Links) DialResult(cc CallContext) string { return l.URL(PathDialResult, cc.onlyCallLog()) }
func (l Links) Whisper(cc CallContext) string    { return l.URL(PathWhisper, cc) }
func (l Links) Confirm(cc CallContext) string    { return l.URL(PathConfirm, cc) }
func (l Links) CallStatus(cc CallContext) string { return l.URL(PathCallStatus, cc.onlyCallLog()) }

func (l Links) CalleeStatus(cc CallContext) string {
	return l.URL(PathCalleeStatus, cc.onlyCallLog())
}

func (l Links) Notification(cc CallContext) string {
	return l.URL(PathNotification, cc)
}

func (l Links) NotificationStatus(cc CallContext) string {
	return l.URL(PathNotificationStatus, CallContext{CallLogID: cc.CallLogID, PendingMessageID: cc.PendingMessageID})
}

// withContext appends cc to an external URL, keeping its own query.
func withContext(raw string, cc CallContext) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for k, vs := range cc.Values() {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String()
}
