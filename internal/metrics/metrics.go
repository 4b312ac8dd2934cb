// Package metrics provides Prometheus metrics for docchat.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline and the HTTP API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion metrics
	IngestTotal    *prometheus.CounterVec
	IngestDuration prometheus.Histogram
	ChunksUpserted prometheus.Counter

	// Retrieval metrics
	RetrievalTotal *prometheus.CounterVec

	// Chat metrics
	ChatStreamsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.IngestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docchat_ingest_total",
			Help: "Total number of document ingestions by outcome",
		},
		[]string{"status"},
	)

	m.IngestDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docchat_ingest_duration_seconds",
			Help:    "Duration of document ingestion in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	m.ChunksUpserted = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docchat_chunks_upserted_total",
			Help: "Total number of chunks written to the vector index",
		},
	)

	m.RetrievalTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docchat_retrieval_total",
			Help: "Total number of context retrievals by result",
		},
		[]string{"result"},
	)

	m.ChatStreamsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docchat_chat_streams_total",
			Help: "Total number of answer streams by outcome",
		},
		[]string{"status"},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docchat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docchat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordIngest records an ingestion with its outcome.
func (m *Metrics) RecordIngest(status string, chunks int, duration time.Duration) {
	if m == nil {
		return
	}
	m.IngestTotal.WithLabelValues(status).Inc()
	m.IngestDuration.Observe(duration.Seconds())
	if chunks > 0 {
		m.ChunksUpserted.Add(float64(chunks))
	}
}

// RecordRetrieval records whether a retrieval produced context.
func (m *Metrics) RecordRetrieval(hit bool) {
	if m == nil {
		return
	}
	result := "empty"
	if hit {
		result = "hit"
	}
	m.RetrievalTotal.WithLabelValues(result).Inc()
}

// RecordChatStream records the outcome of an answer stream.
func (m *Metrics) RecordChatStream(status string) {
	if m == nil {
		return
	}
	m.ChatStreamsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request with its status code.
func (m *Metrics) RecordHTTPRequest(route, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
