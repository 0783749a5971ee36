package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore-ivr/internal/audit"
	"bookstore-ivr/internal/auth"
	"bookstore-ivr/internal/calls"
	"bookstore-ivr/internal/config"
	"bookstore-ivr/internal/customers"
	"bookstore-ivr/internal/httpapi"
	"bookstore-ivr/internal/ivr"
	"bookstore-ivr/internal/messages"
	"bookstore-ivr/internal/observability/metrics"
	"bookstore-ivr/internal/payments"
	"bookstore-ivr/internal/reporting"
	"bookstore-ivr/internal/settings"
	"bookstore-ivr/internal/telephony"
	"bookstore-ivr/pkg/logger"
	"bookstore-ivr/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: cfg.DB.MaxOpenConns})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	var provider telephony.Provider
	if cfg.TelephonyEnabled() {
		provider, err = telephony.NewSignalWireProvider(telephony.SignalWireConfig{
			SpaceURL:  cfg.Telephony.SpaceURL,
			ProjectID: cfg.Telephony.ProjectID,
			APIToken:  cfg.Telephony.APIToken,
		})
		if err != nil {
			log.Error("telephony init failed", "err", err)
			os.Exit(1)
		}
	} else {
		log.Warn("telephony provider not configured; outbound calls disabled")
	}

	callSvc := calls.NewService(calls.NewPostgresRepo(db))
	settingsSvc := settings.NewService(settings.NewCachedRepo(settings.NewPostgresRepo(db), rdb, cfg.IVR.SettingsCacheTTL))
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	var charger payments.Charger
	if cfg.App.Env == "local" {
		charger = payments.NewSandboxCharger()
	}

	ivrHandler := &ivr.Handler{
		Calls:      callSvc,
		Messages:   messages.NewService(messages.NewPostgresRepo(db)),
		Settings:   settingsSvc,
		Customers:  customers.NewPostgresRepo(db),
		Provider:   provider,
		Limiter:    ivr.RedisLimiter{RDB: rdb, TTL: cfg.IVR.ClickToCallHoldTTL},
		Audit:      auditSvc,
		Metrics:    metrics.NewIVRMetrics(prometheus.DefaultRegisterer),
		Links:      ivr.NewLinks(cfg.App.PublicBaseURL),
		Voice:      telephony.Voice{Name: cfg.Telephony.Voice, Language: cfg.Telephony.Language},
		FromNumber: telephony.NormalizeE164(cfg.Telephony.FromNumber),
		PaymentURL: cfg.IVR.PaymentURL,
	}

	api := httpapi.Handlers{
		Auth:     authManager,
		IVR:      ivrHandler,
		Calls:    callSvc,
		Reports:  reporting.NewService(callSvc),
		Payments: payments.NewService(charger),
		Settings: settingsSvc,
		Audit:    auditSvc,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(ivrHandler.Metrics.Middleware())

	var webhookMW []gin.HandlerFunc
	if cfg.Telephony.ValidateSignatures {
		webhookMW = append(webhookMW, telephony.RequireSignature(cfg.Telephony.APIToken, cfg.App.PublicBaseURL))
	}

	registerPublicRoutes(r, readiness{db: db, rdb: rdb, provider: provider})
	registerWebhookRoutes(r, ivrHandler, webhookMW...)
	if cfg.App.Env == "local" {
		registerDevAuthRoutes(r, api)
	}
	registerProtectedRoutes(r, api, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "public_base_url", cfg.App.PublicBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
