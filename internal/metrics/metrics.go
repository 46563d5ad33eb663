package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ListingsCreated *prometheus.CounterVec
	MessagesSent    prometheus.Counter
	FavoriteChanges *prometheus.CounterVec
	Verifications   *prometheus.CounterVec
	AIFailures      *prometheus.CounterVec
}

// New builds the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lostfound_http_requests_total",
				Help: "HTTP requests by route and status class",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lostfound_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ListingsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lostfound_listings_created_total",
				Help: "Listings created by kind",
			},
			[]string{"kind"},
		),
		MessagesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lostfound_messages_sent_total",
				Help: "Messages successfully sent",
			},
		),
		FavoriteChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lostfound_favorite_changes_total",
				Help: "Favorite toggles that changed state, by action",
			},
			[]string{"action"},
		),
		Verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lostfound_verifications_total",
				Help: "Ownership answers checked, by outcome",
			},
			[]string{"result"},
		),
		AIFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lostfound_ai_failures_total",
				Help: "Failed calls to the AI provider, by operation",
			},
			[]string{"op"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.RequestDuration,
		m.ListingsCreated,
		m.MessagesSent,
		m.FavoriteChanges,
		m.Verifications,
		m.AIFailures,
	)
	return m
}

// Handler serves the exposition format for this registry.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
