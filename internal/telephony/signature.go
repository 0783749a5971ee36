package telephony

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"bookstore-ivr/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SignatureHeaders are checked in order; SignalWire sends both.
var SignatureHeaders = []string{"X-SignalWire-Signature", "X-Twilio-Signature"}

// RequireSignature rejects webhook requests whose signature does not match
// HMAC-SHA1(token, publicURL + sorted form params). publicBaseURL is the
// externally visible scheme+host the provider was configured with.
func RequireSignature(token, publicBaseURL string) gin.HandlerFunc {
	base := strings.TrimSuffix(publicBaseURL, "/")
	return func(c *gin.Context) {
		sig := ""
		for _, h := range SignatureHeaders {
			if v := c.GetHeader(h); v != "" {
				sig = v
				break
			}
		}
		if sig == "" {
			logger.FromGin(c).Warn("webhook signature missing", "path", c.Request.URL.Path)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		params := url.Values{}
		ct, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if ct == "application/x-www-form-urlencoded" {
			params, _ = url.ParseQuery(string(body))
		}

		if !ValidSignature(token, base+c.Request.URL.RequestURI(), params, sig) {
			logger.FromGin(c).Warn("webhook signature mismatch", "path", c.Request.URL.Path)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// ValidSignature reports whether signature matches the payload.
func ValidSignature(token, fullURL string, params url.Values, signature string) bool {
	if token == "" || signature == "" {
		return false
	}
	expected := computeSignature(signaturePayload(fullURL, params), token)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func signaturePayload(fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		for _, v := range params[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}
	return b.String()
}

func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
