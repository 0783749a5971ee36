package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"bookstore-ivr/internal/httpapi"
	"bookstore-ivr/internal/ivr"
	"bookstore-ivr/internal/telephony"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type readiness struct {
	db       *sql.DB
	rdb      *redis.Client
	provider telephony.Provider
}

func (rd readiness) check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	out := map[string]string{"postgres": "ok", "redis": "ok", "telephony": "disabled"}
	if err := rd.db.PingContext(ctx); err != nil {
		out["postgres"] = err.Error()
	}
	if err := rd.rdb.Ping(ctx).Err(); err != nil {
		out["redis"] = err.Error()
	}
	if rd.provider != nil {
		out["telephony"] = "ok"
		if err := rd.provider.HealthCheck(ctx); err != nil {
			out["telephony"] = err.Error()
		}
	}
	return out
}

// registerPublicRoutes wires health and metrics endpoints.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerPublicRoutes(r *gin.Engine, rd readiness) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		deps := rd.check(c.Request.Context())
		status := http.StatusOK
		if deps["postgres"] != "ok" || deps["redis"] != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, deps)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerWebhookRoutes mounts the provider voice webhooks. They are public;
// mw carries signature validation when enabled.
func registerWebhookRoutes(r *gin.Engine, h *ivr.Handler, mw ...gin.HandlerFunc) {
	g := r.Group("/")
	g.Use(mw...)
	h.RegisterWebhooks(g)
}

// registerDevAuthRoutes exposes credential-less token issuance for local runs.
func registerDevAuthRoutes(r *gin.Engine, h httpapi.Handlers) {
	r.POST("/v1/auth/login", h.Login)
}

func registerProtectedRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", h.Me)

		calls := v1.Group("/calls")
		{
			calls.POST("/click-to-call", append(httpapi.RequireStaff(), h.ClickToCall)...)
			calls.GET("/summary", append(httpapi.RequireManager(), h.CallsSummary)...)
			calls.GET("/:call_log_id", append(httpapi.RequireStaff(), h.GetCall)...)
		}

		// The POS back end queues notification calls with its service account.
		v1.POST("/notifications/calls", append(httpapi.RequireStaffOrIntegration(), h.PlaceNotification)...)

		v1.POST("/payments/charge", append(httpapi.RequireStaffOrIntegration(), h.Charge)...)

		v1.GET("/settings", append(httpapi.RequireStaff(), h.GetSettings)...)
		v1.PUT("/settings", append(httpapi.RequireManager(), h.UpdateSettings)...)
	}
}
