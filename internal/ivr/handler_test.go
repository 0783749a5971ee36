package ivr

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"bookstore-ivr/internal/audit"
	"bookstore-ivr/internal/calls"
	"bookstore-ivr/internal/customers"
	"bookstore-ivr/internal/messages"
	"bookstore-ivr/internal/settings"
	"bookstore-ivr/internal/telephony"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	testBase      = "https://ivr.example.com"
	testStoreCell = "+15550001111"
	testFrom      = "+15559990000"
)

type fakeProvider struct {
	mu     sync.Mutex
	reqs   []telephony.PlaceCallRequest
	result telephony.PlaceCallResult
	err    error
}

func (p *fakeProvider) Name() string                          { return "fake" }
func (p *fakeProvider) HealthCheck(ctx context.Context) error { return nil }

func (p *fakeProvider) PlaceCall(ctx context.Context, req telephony.PlaceCallRequest) (telephony.PlaceCallResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
	if p.err != nil {
		return telephony.PlaceCallResult{}, p.err
	}
	return p.result, nil
}

func (p *fakeProvider) Requests() []telephony.PlaceCallRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]telephony.PlaceCallRequest(nil), p.reqs...)
}

type fixture struct {
	h         *Handler
	router    *gin.Engine
	calls     *calls.MemoryRepo
	messages  *messages.MemoryRepo
	audit     *audit.MemoryRepo
	provider  *fakeProvider
	customers *customers.MemoryRepo
}

func newFixture(t *testing.T, st settings.Settings, cs ...customers.Customer) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		calls:     calls.NewMemoryRepo(),
		messages:  messages.NewMemoryRepo(),
		audit:     audit.NewMemoryRepo(),
		provider:  &fakeProvider{result: telephony.PlaceCallResult{CallSID: "CA-out", Status: "queued"}},
		customers: customers.NewMemoryRepo(cs...),
	}
	f.h = &Handler{
		Calls:      calls.NewService(f.calls),
		Messages:   messages.NewService(f.messages),
		Settings:   settings.NewService(settings.StaticRepo{Settings: st}),
		Customers:  f.customers,
		Provider:   f.provider,
		Audit:      audit.NewService(f.audit),
		Links:      NewLinks(testBase),
		Voice:      telephony.Voice{Name: "woman", Language: "en-US"},
		FromNumber: testFrom,
	}
	f.router = gin.New()
	f.h.RegisterWebhooks(f.router)
	return f
}

// post sends a form-encoded webhook to target, which may be an absolute
// continuation URL.
func (f *fixture) post(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return w
}

func (f *fixture) onlyCall(t *testing.T) calls.CallLog {
	t.Helper()
	all := f.calls.All()
	require.Len(t, all, 1)
	return all[0]
}

type doc struct {
	Says      []string   `xml:"Say"`
	Redirects []string   `xml:"Redirect"`
	Pauses    []struct{} `xml:"Pause"`
	Hangup    *struct{}  `xml:"Hangup"`
	Gathers   []struct {
		Action    string   `xml:"action,attr"`
		NumDigits int      `xml:"numDigits,attr"`
		Timeout   int      `xml:"timeout,attr"`
		Says      []string `xml:"Say"`
	} `xml:"Gather"`
	Dials []struct {
		CallerID string `xml:"callerId,attr"`
		Action   string `xml:"action,attr"`
		Timeout  int    `xml:"timeout,attr"`
		Number   struct {
			URL            string `xml:"url,attr"`
			StatusCallback string `xml:"statusCallback,attr"`
			Value          string `xml:",chardata"`
		} `xml:"Number"`
	} `xml:"Dial"`
}

func parseDoc(t *testing.T, body string) doc {
	t.Helper()
	var d doc
	require.NoError(t, xml.Unmarshal([]byte(body), &d), body)
	return d
}
