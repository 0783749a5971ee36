package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SignalWireProvider places calls through the SignalWire LaML (Twilio-compatible)
// REST API.
type SignalWireProvider struct {
	projectID string
	apiToken  string
	baseURL   string

	httpClient *http.Client
}

// SignalWireConfig holds provider credentials.
type SignalWireConfig struct {
	// SpaceURL is the account space host, e.g. "example.signalwire.com".
	SpaceURL  string
	ProjectID string
	APIToken  string

	HTTPClient *http.Client
}

func NewSignalWireProvider(cfg SignalWireConfig) (*SignalWireProvider, error) {
	if cfg.SpaceURL == "" || cfg.ProjectID == "" || cfg.APIToken == "" {
		return nil, errors.New("telephony: signalwire space, project and token are required")
	}
	space := strings.TrimSuffix(cfg.SpaceURL, "/")
	if !strings.HasPrefix(space, "http://") && !strings.HasPrefix(space, "https://") {
		space = "https://" + space
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &SignalWireProvider{
		projectID:  cfg.ProjectID,
		apiToken:   cfg.APIToken,
		baseURL:    space + "/api/laml/2010-04-01",
		httpClient: hc,
	}, nil
}

func (p *SignalWireProvider) Name() string { return "signalwire" }

func (p *SignalWireProvider) HealthCheck(ctx context.Context) error {
	reqURL := fmt.Sprintf("%s/Accounts/%s.json", p.baseURL, p.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.projectID, p.apiToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telephony: health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telephony: health check status %d", resp.StatusCode)
	}
	return nil
}

type signalWireCall struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type signalWireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (p *SignalWireProvider) PlaceCall(ctx context.Context, in PlaceCallRequest) (PlaceCallResult, error) {
	if err := in.validate(); err != nil {
		return PlaceCallResult{}, err
	}

	form := url.Values{}
	form.Set("To", in.To)
	form.Set("From", in.From)
	if in.Script != "" {
		form.Set("Twiml", in.Script)
	} else {
		form.Set("Url", in.URL)
		form.Set("Method", "POST")
	}
	if in.StatusCallback != "" {
		form.Set("StatusCallback", in.StatusCallback)
		form.Set("StatusCallbackMethod", "POST")
	}
	timeout := in.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	form.Set("Timeout", strconv.Itoa(timeout))

	reqURL := fmt.Sprintf("%s/Accounts/%s/Calls.json", p.baseURL, p.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return PlaceCallResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(p.projectID, p.apiToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: place call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var apiErr signalWireError
		_ = json.Unmarshal(body, &apiErr)
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("provider returned status %d", resp.StatusCode)
		}
		return PlaceCallResult{}, &ProviderError{StatusCode: resp.StatusCode, Code: apiErr.Code, Message: msg}
	}

	var call signalWireCall
	if err := json.Unmarshal(body, &call); err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: decode response: %w", err)
	}
	if call.SID == "" {
		return PlaceCallResult{}, &ProviderError{StatusCode: resp.StatusCode, Message: "provider response missing call sid"}
	}
	return PlaceCallResult{CallSID: call.SID, Status: call.Status}, nil
}
