package telephony

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestValidSignature(t *testing.T) {
	params := url.Values{"CallSid": {"CA1"}, "Digits": {"1"}}
	full := "https://ivr.example.com/webhooks/voice/menu?call_log_id=1"
	sig := computeSignature(signaturePayload(full, params), "secret")

	tests := []struct {
		name  string
		token string
		url   string
		sig   string
		want  bool
	}{
		{"valid", "secret", full, sig, true},
		{"wrong token", "other", full, sig, false},
		{"tampered url", "secret", full + "&x=1", sig, false},
		{"empty signature", "secret", full, "", false},
		{"empty token", "", full, sig, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidSignature(tt.token, tt.url, params, tt.sig); got != tt.want {
				t.Errorf("ValidSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireSignature_PassesBodyThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/voice/menu", RequireSignature("secret", "https://ivr.example.com/"), func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(b))
	})

	form := "CallSid=CA1&Digits=1"
	params, _ := url.ParseQuery(form)
	sig := computeSignature(signaturePayload("https://ivr.example.com/webhooks/voice/menu", params), "secret")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice/menu", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-SignalWire-Signature", sig)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != form {
		t.Fatalf("expected body to be readable downstream, got %q", w.Body.String())
	}
}

func TestRequireSignature_RejectsMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", RequireSignature("secret", "https://ivr.example.com"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
