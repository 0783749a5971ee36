package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// IVRMetrics exposes counters/histograms for webhook and outbound call flows.
// A nil *IVRMetrics is valid and records nothing.
type IVRMetrics struct {
	webhookTotal  *prometheus.CounterVec
	outboundTotal *prometheus.CounterVec
	messagesTotal *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

func NewIVRMetrics(reg prometheus.Registerer) *IVRMetrics {
	m := &IVRMetrics{
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "ivr",
			Name:      "webhook_total",
			Help:      "Voice webhooks handled, by step and outcome",
		}, []string{"step", "outcome"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "ivr",
			Name:      "outbound_calls_total",
			Help:      "Outbound calls requested from the provider",
		}, []string{"kind", "status"}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "ivr",
			Name:      "pending_messages_total",
			Help:      "Pending message lifecycle transitions",
		}, []string{"event"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookstore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhookTotal, m.outboundTotal, m.messagesTotal, m.httpDuration)
	return m
}

func (m *IVRMetrics) ObserveWebhook(step, outcome string) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(step, outcome).Inc()
}

func (m *IVRMetrics) ObserveOutbound(kind, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(kind, status).Inc()
}

// ObserveMessage records played, delivered, retained or created.
func (m *IVRMetrics) ObserveMessage(event string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(event).Inc()
}

// Middleware records request latency by route template.
func (m *IVRMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
