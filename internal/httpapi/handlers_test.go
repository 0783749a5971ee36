package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookstore-ivr/internal/audit"
	"bookstore-ivr/internal/auth"
	"bookstore-ivr/internal/calls"
	"bookstore-ivr/internal/config"
	"bookstore-ivr/internal/customers"
	"bookstore-ivr/internal/ivr"
	"bookstore-ivr/internal/messages"
	"bookstore-ivr/internal/payments"
	"bookstore-ivr/internal/reporting"
	"bookstore-ivr/internal/settings"
	"bookstore-ivr/internal/telephony"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	err error
}

func (p stubProvider) Name() string                          { return "stub" }
func (p stubProvider) HealthCheck(ctx context.Context) error { return nil }
func (p stubProvider) PlaceCall(ctx context.Context, req telephony.PlaceCallRequest) (telephony.PlaceCallResult, error) {
	if p.err != nil {
		return telephony.PlaceCallResult{}, p.err
	}
	return telephony.PlaceCallResult{CallSID: "CA123", Status: "queued"}, nil
}

type memSettings struct {
	st settings.Settings
}

func (r *memSettings) Get(ctx context.Context) (settings.Settings, error) { return r.st, nil }

func (r *memSettings) Save(ctx context.Context, st settings.Settings) error {
	r.st = st
	return nil
}

type env struct {
	router *gin.Engine
	auth   *auth.Manager
	calls  *calls.MemoryRepo
	audit  *audit.MemoryRepo
	ivr    *ivr.Handler
}

func newEnv(t *testing.T, st settings.Settings) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	am, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour})
	require.NoError(t, err)

	e := &env{auth: am, calls: calls.NewMemoryRepo(), audit: audit.NewMemoryRepo()}
	callSvc := calls.NewService(e.calls)
	settingsSvc := settings.NewService(&memSettings{st: st})
	e.ivr = &ivr.Handler{
		Calls:      callSvc,
		Messages:   messages.NewService(messages.NewMemoryRepo()),
		Settings:   settingsSvc,
		Customers:  customers.NewMemoryRepo(customers.Customer{ID: "c1", Name: "Ann", Phone: "5551234567"}),
		Provider:   stubProvider{},
		Audit:      audit.NewService(e.audit),
		Links:      ivr.NewLinks("https://ivr.example.com"),
		FromNumber: "+15559990000",
	}
	h := Handlers{
		Auth:     am,
		IVR:      e.ivr,
		Calls:    callSvc,
		Reports:  reporting.NewService(callSvc),
		Payments: payments.NewService(payments.NewSandboxCharger()),
		Settings: settingsSvc,
		Audit:    audit.NewService(e.audit),
	}

	r := gin.New()
	r.POST("/v1/auth/login", h.Login)
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(am))
	v1.GET("/me", h.Me)
	v1.POST("/calls/click-to-call", append(RequireStaff(), h.ClickToCall)...)
	v1.POST("/notifications/calls", append(RequireStaffOrIntegration(), h.PlaceNotification)...)
	v1.GET("/calls/summary", append(RequireManager(), h.CallsSummary)...)
	v1.GET("/calls/:call_log_id", append(RequireStaff(), h.GetCall)...)
	v1.POST("/payments/charge", append(RequireStaffOrIntegration(), h.Charge)...)
	v1.GET("/settings", append(RequireStaff(), h.GetSettings)...)
	v1.PUT("/settings", append(RequireManager(), h.UpdateSettings)...)
	e.router = r
	return e
}

func (e *env) do(t *testing.T, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		pair, err := e.auth.IssuePair(time.Now(), "u1", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var store = settings.Settings{StoreName: "Page Turners", CellPhone: "+15550001111"}

func TestClickToCall_Success(t *testing.T) {
	e := newEnv(t, store)

	w := e.do(t, http.MethodPost, "/v1/calls/click-to-call", "clerk", gin.H{"phone_number": "555-123-4567"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "CA123", out["callSid"])
	assert.NotEmpty(t, out["callLogId"])

	rows := e.calls.All()
	require.Len(t, rows, 1)
	assert.Equal(t, calls.StatusRinging, rows[0].Status)

	events := e.audit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].ActorUserID)
	assert.Equal(t, "clerk", events[0].ActorRole)
}

func TestClickToCall_Errors(t *testing.T) {
	e := newEnv(t, store)
	w := e.do(t, http.MethodPost, "/v1/calls/click-to-call", "clerk", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "phone_number")
	assert.Empty(t, e.calls.All())

	e = newEnv(t, settings.Settings{})
	w = e.do(t, http.MethodPost, "/v1/calls/click-to-call", "manager", gin.H{"phone_number": "5551234567"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, e.calls.All())

	e = newEnv(t, store)
	e.ivr.Provider = stubProvider{err: &telephony.ProviderError{StatusCode: 400, Message: "invalid To number"}}
	w = e.do(t, http.MethodPost, "/v1/calls/click-to-call", "clerk", gin.H{"phone_number": "5551234567"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid To number", decode(t, w)["error"])
	rows := e.calls.All()
	require.Len(t, rows, 1)
	assert.Equal(t, calls.StatusFailed, rows[0].Status)

	w = e.do(t, http.MethodPost, "/v1/calls/click-to-call", "clerk", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutes_RequireAuthAndRole(t *testing.T) {
	e := newEnv(t, store)

	w := e.do(t, http.MethodPost, "/v1/calls/click-to-call", "", gin.H{"phone_number": "5551234567"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/v1/calls/click-to-call", "integration", gin.H{"phone_number": "5551234567"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/v1/calls/summary", "clerk", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/v1/calls/summary", "admin", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/v1/me", "clerk", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", decode(t, w)["user_id"])
}

func TestPlaceNotification(t *testing.T) {
	e := newEnv(t, store)

	w := e.do(t, http.MethodPost, "/v1/notifications/calls", "integration", gin.H{"customer_id": "c1", "message": "Your book is in."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.NotEmpty(t, out["pendingMessageId"])

	w = e.do(t, http.MethodPost, "/v1/notifications/calls", "clerk", gin.H{"customer_id": "nobody", "message": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, "/v1/notifications/calls", "clerk", gin.H{"customer_id": "c1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCallAndSummary(t *testing.T) {
	e := newEnv(t, store)
	w := e.do(t, http.MethodPost, "/v1/calls/click-to-call", "manager", gin.H{"phone_number": "5551234567"})
	require.Equal(t, http.StatusOK, w.Code)
	id := decode(t, w)["callLogId"].(string)

	w = e.do(t, http.MethodGet, "/v1/calls/"+id, "clerk", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "outbound", decode(t, w)["direction"])

	w = e.do(t, http.MethodGet, "/v1/calls/missing", "clerk", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/v1/calls/summary?direction=outbound", "manager", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total_calls"])

	w = e.do(t, http.MethodGet, "/v1/calls/summary?from=yesterday", "manager", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCharge(t *testing.T) {
	e := newEnv(t, store)
	req := gin.H{
		"amount_minor":    1999,
		"currency":        "USD",
		"card":            gin.H{"token": "tok_visa"},
		"idempotency_key": "k1",
	}

	w := e.do(t, http.MethodPost, "/v1/payments/charge", "clerk", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["approved"])

	req["amount_minor"] = 0
	w = e.do(t, http.MethodPost, "/v1/payments/charge", "clerk", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	e := newEnv(t, store)

	w := e.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"user_id": "u9", "role": "clerk"})
	require.Equal(t, http.StatusOK, w.Code)
	tok, _ := decode(t, w)["access_token"].(string)
	claims, err := e.auth.Verify(tok, auth.TokenTypeAccess, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "u9", claims.UserID)

	w = e.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"user_id": "u9"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettings(t *testing.T) {
	e := newEnv(t, settings.Settings{})

	w := e.do(t, http.MethodGet, "/v1/settings", "clerk", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, settings.DefaultStoreName, decode(t, w)["store_name"])

	w = e.do(t, http.MethodPut, "/v1/settings", "clerk", gin.H{"store_name": "Page Turners", "cell_phone": "5550001111"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPut, "/v1/settings", "manager", gin.H{"store_name": "Page Turners", "cell_phone": "5550001111"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "+15550001111", decode(t, w)["cell_phone"])
	events := e.audit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventTypeSettingsUpdated, events[0].Type)
	assert.Equal(t, "manager", events[0].ActorRole)

	w = e.do(t, http.MethodPut, "/v1/settings", "manager", gin.H{"store_name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// forwarding is now configured, so click-to-call goes through
	w = e.do(t, http.MethodPost, "/v1/calls/click-to-call", "clerk", gin.H{"phone_number": "5551234567"})
	assert.Equal(t, http.StatusOK, w.Code)
}
