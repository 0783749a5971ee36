package telephony

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Response is a call-control markup document (LaML / TwiML dialect).
// It intentionally avoids any provider SDK dependency.
//
// Every attribute and text node is escaped by encoding/xml at Render time,
// so callers pass raw text and raw URLs. Query-string assembly for URLs is the
// caller's job (see url.Values); the `&` -> `&amp;` step only happens here.
type Response struct {
	voice Voice
	verbs []any
}

// Voice selects the text-to-speech voice for Say verbs.
type Voice struct {
	Name     string
	Language string
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

type twimlGather struct {
	XMLName   xml.Name   `xml:"Gather"`
	NumDigits int        `xml:"numDigits,attr"`
	Action    string     `xml:"action,attr,omitempty"`
	Method    string     `xml:"method,attr,omitempty"`
	Timeout   int        `xml:"timeout,attr"`
	Says      []twimlSay `xml:"Say"`
}

type twimlDial struct {
	XMLName  xml.Name     `xml:"Dial"`
	Timeout  int          `xml:"timeout,attr,omitempty"`
	CallerID string       `xml:"callerId,attr,omitempty"`
	Action   string       `xml:"action,attr,omitempty"`
	Method   string       `xml:"method,attr,omitempty"`
	Number   *twimlNumber `xml:"Number,omitempty"`
}

type twimlNumber struct {
	URL                 string `xml:"url,attr,omitempty"`
	StatusCallback      string `xml:"statusCallback,attr,omitempty"`
	StatusCallbackEvent string `xml:"statusCallbackEvent,attr,omitempty"`
	Value               string `xml:",chardata"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Gather collects DTMF digits and posts them to Action.
type Gather struct {
	NumDigits      int
	Action         string
	TimeoutSeconds int
	Prompts        []string
}

// Dial bridges the live call to Number. When WhisperURL is set the callee
// leg runs that markup before the two parties are connected.
type Dial struct {
	Number         string
	WhisperURL     string
	StatusCallback string
	TimeoutSeconds int
	Action         string
	CallerID       string
}

func NewResponse(v Voice) *Response {
	return &Response{voice: v}
}

func (r *Response) Say(text string) *Response {
	r.verbs = append(r.verbs, r.say(text))
	return r
}

func (r *Response) Pause(seconds int) *Response {
	r.verbs = append(r.verbs, twimlPause{Length: seconds})
	return r
}

func (r *Response) Gather(g Gather) *Response {
	out := twimlGather{
		NumDigits: g.NumDigits,
		Action:    g.Action,
		Method:    methodFor(g.Action),
		Timeout:   g.TimeoutSeconds,
	}
	for _, p := range g.Prompts {
		out.Says = append(out.Says, r.say(p))
	}
	r.verbs = append(r.verbs, out)
	return r
}

func (r *Response) Dial(d Dial) *Response {
	n := &twimlNumber{
		URL:            d.WhisperURL,
		StatusCallback: d.StatusCallback,
		Value:          d.Number,
	}
	if d.StatusCallback != "" {
		n.StatusCallbackEvent = "completed"
	}
	r.verbs = append(r.verbs, twimlDial{
		Timeout:  d.TimeoutSeconds,
		CallerID: d.CallerID,
		Action:   d.Action,
		Method:   methodFor(d.Action),
		Number:   n,
	})
	return r
}

func (r *Response) Redirect(url string) *Response {
	r.verbs = append(r.verbs, twimlRedirect{Method: "POST", URL: url})
	return r
}

func (r *Response) Hangup() *Response {
	r.verbs = append(r.verbs, twimlHangup{})
	return r
}

// Render encodes the document with an XML header.
func (r *Response) Render() (string, error) {
	doc := twimlResponse{Verbs: r.verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// EmptyResponse is the document returned to pure status callbacks.
func EmptyResponse() string {
	return xml.Header + "<Response></Response>"
}

// Escape applies the escaping encoding/xml performs in Render for every text
// node and attribute. It is exported so the escaping guarantee can be checked
// directly: no raw & < > " ' in the output, and an XML parser recovers the
// input.
func Escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func (r *Response) say(text string) twimlSay {
	return twimlSay{Voice: r.voice.Name, Language: r.voice.Language, Text: text}
}

func methodFor(action string) string {
	if action == "" {
		return ""
	}
	return "POST"
}
