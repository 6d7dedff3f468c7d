// Package observability provides the Prometheus metrics collector and the
// OpenTelemetry tracing helpers shared by the service and HTTP layers.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the engine. Each collector owns
// its own registry so tests can build as many as they need.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Graph metrics
	GraphNodes prometheus.Gauge
	GraphEdges prometheus.Gauge

	// Engagement metrics
	Interactions *prometheus.CounterVec

	// Agent metrics
	ContentGenerated *prometheus.CounterVec
	AdaptationCycles prometheus.Counter
	FeedbackReceived prometheus.Counter

	// Operation latency across the facade
	OperationDuration *prometheus.HistogramVec
}

// NewCollector creates a metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	graphNodes := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Current number of nodes in the graph",
		},
	)

	graphEdges := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Current number of edges in the graph",
		},
	)

	interactions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Total number of recorded user interactions",
		},
		[]string{"type"},
	)

	contentGenerated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_generated_total",
			Help:      "Total number of content drafts generated",
		},
		[]string{"agent"},
	)

	adaptationCycles := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adaptation_cycles_total",
			Help:      "Total number of completed adaptation cycles",
		},
	)

	feedbackReceived := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_received_total",
			Help:      "Total number of feedback submissions routed to agents",
		},
	)

	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Facade operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		graphNodes,
		graphEdges,
		interactions,
		contentGenerated,
		adaptationCycles,
		feedbackReceived,
		operationDuration,
	)

	return &Collector{
		registry:          registry,
		HTTPRequests:      httpRequests,
		HTTPDuration:      httpDuration,
		GraphNodes:        graphNodes,
		GraphEdges:        graphEdges,
		Interactions:      interactions,
		ContentGenerated:  contentGenerated,
		AdaptationCycles:  adaptationCycles,
		FeedbackReceived:  feedbackReceived,
		OperationDuration: operationDuration,
	}
}

// Registry returns the Prometheus registry backing this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// SetGraphSize updates the node and edge gauges
func (c *Collector) SetGraphSize(nodes, edges int) {
	c.GraphNodes.Set(float64(nodes))
	c.GraphEdges.Set(float64(edges))
}
