package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"bookstore-ivr/internal/audit"
	"bookstore-ivr/internal/auth"
	"bookstore-ivr/internal/calls"
	"bookstore-ivr/internal/ivr"
	"bookstore-ivr/internal/payments"
	"bookstore-ivr/internal/rbac"
	"bookstore-ivr/internal/reporting"
	"bookstore-ivr/internal/settings"
	"bookstore-ivr/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth     *auth.Manager
	IVR      *ivr.Handler
	Calls    *calls.Service
	Reports  *reporting.Service
	Payments *payments.Service
	Settings *settings.Service
	Audit    *audit.Service
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair without checking credentials. It is only
// mounted in the local environment; the POS issues tokens everywhere else.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

func (h Handlers) Me(c *gin.Context) {
	id, _ := auth.IdentityFrom(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "role": id.Role})
}

// --- Calls ---

func (h Handlers) ClickToCall(c *gin.Context) {
	if h.IVR == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ivr not configured"})
		return
	}
	var req ivr.ClickToCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.IVR.ClickToCall(c.Request.Context(), actor(c), req)
	if err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "callSid": res.CallSID, "callLogId": res.CallLogID})
}

func (h Handlers) PlaceNotification(c *gin.Context) {
	if h.IVR == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ivr not configured"})
		return
	}
	var req ivr.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.IVR.PlaceNotification(c.Request.Context(), actor(c), req)
	if err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"callSid":          res.CallSID,
		"callLogId":        res.CallLogID,
		"pendingMessageId": res.PendingMessageID,
	})
}

func (h Handlers) GetCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	row, err := h.Calls.Get(c.Request.Context(), c.Param("call_log_id"))
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call log not found"})
			return
		}
		logger.FromGin(c).Error("call log lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call log lookup failed"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// CallsSummary reads from/to as RFC 3339; the default window is the last 24h.
func (h Handlers) CallsSummary(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)
	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
	}

	out, err := h.Reports.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		Range:     reporting.TimeRange{From: from, To: to},
		Direction: calls.Direction(strings.ToLower(c.Query("direction"))),
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range or direction"})
			return
		}
		logger.FromGin(c).Error("calls summary failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Settings ---

// GetSettings returns the settings the IVR is currently using, defaults
// included.
func (h Handlers) GetSettings(c *gin.Context) {
	if h.Settings == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "settings not configured"})
		return
	}
	c.JSON(http.StatusOK, h.Settings.Load(c.Request.Context()))
}

func (h Handlers) UpdateSettings(c *gin.Context) {
	if h.Settings == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "settings not configured"})
		return
	}
	var req settings.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	st, err := h.Settings.Update(c.Request.Context(), req)
	switch {
	case err == nil:
		if h.Audit != nil {
			if aerr := h.Audit.SettingsChanged(c.Request.Context(), actor(c), st.StoreName, st.CellPhone); aerr != nil {
				logger.FromGin(c).Warn("audit append failed", "err", aerr)
			}
		}
		c.JSON(http.StatusOK, st)
	case errors.Is(err, settings.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.FromGin(c).Error("settings update failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "settings update failed"})
	}
}

// --- Payments ---

func (h Handlers) Charge(c *gin.Context) {
	if h.Payments == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "payments not configured"})
		return
	}
	var req payments.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := h.Payments.Charge(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, payments.ErrInvalidArgument), errors.Is(err, payments.ErrCardExpired):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, payments.ErrNotConfigured):
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "payments not configured"})
	default:
		logger.FromGin(c).Error("charge failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "payment gateway error"})
	}
}

// writeCallError maps outbound call errors onto HTTP statuses.
func writeCallError(c *gin.Context, err error) {
	var failed *ivr.CallFailedError
	switch {
	case errors.As(err, &failed):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": failed.Message, "callLogId": failed.CallLogID})
	case errors.Is(err, ivr.ErrPhoneRequired),
		errors.Is(err, ivr.ErrForwardingNotSet),
		errors.Is(err, ivr.ErrNotificationInvalid),
		errors.Is(err, calls.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ivr.ErrCustomerNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ivr.ErrCallInFlight):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ivr.ErrTelephonyNotConfigured):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.FromGin(c).Error("outbound call failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call could not be placed"})
	}
}

func actor(c *gin.Context) ivr.Actor {
	id, _ := auth.IdentityFrom(c.Request.Context())
	return ivr.Actor{UserID: id.UserID, Role: id.Role, IP: c.ClientIP()}
}

// Convenience middleware bundles.

func RequireStaff() []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireUser(), rbac.RequireAnyRole(rbac.Staff()...)}
}

func RequireManager() []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireUser(), rbac.RequireAnyRole(rbac.RoleManager)}
}

// RequireStaffOrIntegration also admits the POS service account.
func RequireStaffOrIntegration() []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireUser(), rbac.RequireAnyRole(append(rbac.Staff(), rbac.RoleIntegration)...)}
}
