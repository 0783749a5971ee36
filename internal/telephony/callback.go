package telephony

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// Callback captures the subset of voice webhook fields the IVR reads.
// Providers post application/x-www-form-urlencoded by default; some status
// callbacks arrive as JSON, so both are accepted.
//
// Keep it minimal and provider-adapter-only.
type Callback struct {
	CallSid          string `json:"CallSid"`
	From             string `json:"From"`
	To               string `json:"To"`
	Direction        string `json:"Direction"`
	CallStatus       string `json:"CallStatus"`
	CallDuration     string `json:"CallDuration"`
	AnsweredBy       string `json:"AnsweredBy"`
	Digits           string `json:"Digits"`
	DialCallStatus   string `json:"DialCallStatus"`
	DialCallDuration string `json:"DialCallDuration"`
}

// ParseCallback reads a provider webhook body. An empty or unparseable body
// yields a zero Callback and an error; handlers decide whether that matters.
func ParseCallback(r *http.Request) (Callback, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var raw map[string]any
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			return Callback{}, err
		}
		if len(body) == 0 {
			return Callback{}, nil
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return Callback{}, err
		}
		return Callback{
			CallSid:          jsonString(raw, "CallSid"),
			From:             jsonString(raw, "From"),
			To:               jsonString(raw, "To"),
			Direction:        jsonString(raw, "Direction"),
			CallStatus:       jsonString(raw, "CallStatus"),
			CallDuration:     jsonString(raw, "CallDuration"),
			AnsweredBy:       jsonString(raw, "AnsweredBy"),
			Digits:           jsonString(raw, "Digits"),
			DialCallStatus:   jsonString(raw, "DialCallStatus"),
			DialCallDuration: jsonString(raw, "DialCallDuration"),
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return Callback{}, err
	}
	return Callback{
		CallSid:          r.PostFormValue("CallSid"),
		From:             strings.TrimSpace(r.PostFormValue("From")),
		To:               strings.TrimSpace(r.PostFormValue("To")),
		Direction:        r.PostFormValue("Direction"),
		CallStatus:       r.PostFormValue("CallStatus"),
		CallDuration:     r.PostFormValue("CallDuration"),
		AnsweredBy:       r.PostFormValue("AnsweredBy"),
		Digits:           strings.TrimSpace(r.PostFormValue("Digits")),
		DialCallStatus:   r.PostFormValue("DialCallStatus"),
		DialCallDuration: r.PostFormValue("DialCallDuration"),
	}, nil
}

// Duration returns CallDuration in seconds, 0 when absent or malformed.
func (c Callback) Duration() int { return atoiOrZero(c.CallDuration) }

// DialDuration returns DialCallDuration in seconds, 0 when absent or malformed.
func (c Callback) DialDuration() int { return atoiOrZero(c.DialCallDuration) }

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// jsonString tolerates numeric fields (CallDuration: 12) as well as strings.
func jsonString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
