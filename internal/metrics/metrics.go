// Package metrics exposes Prometheus collectors fed by eventbus events.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	eventbus "github.com/saihaj/graphql-mesh/internal/eventbus"
	events "github.com/saihaj/graphql-mesh/internal/events"
)

const namespace = "mesh"

// Metrics holds the collectors for served requests, GraphQL operations,
// upstream fetches and open subscriptions.
type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	Operations         *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	Fetches            *prometheus.CounterVec
	FetchDuration      *prometheus.HistogramVec
	Subscriptions      *prometheus.GaugeVec
	SubscriptionEvents *prometheus.CounterVec
}

// New creates unregistered collectors.
func New() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "graphql",
				Name:      "operations_total",
				Help:      "Total number of GraphQL operations executed",
			},
			[]string{"type", "result"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "graphql",
				Name:      "operation_duration_seconds",
				Help:      "GraphQL operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of upstream HTTP requests",
			},
			[]string{"method", "status"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Upstream HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		Subscriptions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pubsub",
				Name:      "subscriptions",
				Help:      "Number of open topic subscriptions",
			},
			[]string{"topic"},
		),
		SubscriptionEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pubsub",
				Name:      "events_total",
				Help:      "Total number of payloads delivered from topics",
			},
			[]string{"topic"},
		),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.HTTPRequests, m.HTTPDuration,
		m.Operations, m.OperationDuration,
		m.Fetches, m.FetchDuration,
		m.Subscriptions, m.SubscriptionEvents,
	}
}

// Attach subscribes the collectors to the global eventbus and returns a
// function removing the subscriptions.
func (m *Metrics) Attach() (detach func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) {
			method := ""
			if e.Request != nil {
				method = e.Request.Method
			}
			m.HTTPRequests.WithLabelValues(method, strconv.Itoa(e.Status)).Inc()
			m.HTTPDuration.WithLabelValues(method).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.GraphQLFinish) {
			result := "ok"
			if len(e.Errors) > 0 {
				result = "error"
			}
			m.Operations.WithLabelValues(e.OperationType, result).Inc()
			m.OperationDuration.WithLabelValues(e.OperationType).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.FetchFinish) {
			status := strconv.Itoa(e.Status)
			if e.Err != nil && e.Status == 0 {
				status = "error"
			}
			m.Fetches.WithLabelValues(e.Method, status).Inc()
			m.FetchDuration.WithLabelValues(e.Method).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.SubscriptionStart) {
			m.Subscriptions.WithLabelValues(e.Topic).Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, e events.SubscriptionEvent) {
			m.SubscriptionEvents.WithLabelValues(e.Topic).Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, e events.SubscriptionEnd) {
			m.Subscriptions.WithLabelValues(e.Topic).Dec()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
