package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the pipeline.
type Metrics struct {
	MessagesProcessed prometheus.Counter
	ChunksProduced    prometheus.Counter
	ChunkerFallbacks  prometheus.Counter
	Classifications   *prometheus.CounterVec
	ClassifyLatency   *prometheus.HistogramVec
	ProcessLatency    prometheus.Histogram
	ChatTurns         *prometheus.CounterVec
	ActiveStreams     prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics registers instruments on reg. A nil reg uses a private registry,
// so several instances can coexist in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		private := prometheus.NewRegistry()
		reg, gatherer = private, private
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	factory := promauto.With(reg)

	return &Metrics{
		MessagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Messages run through the speech preprocessing pipeline.",
		}),
		ChunksProduced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_produced_total",
			Help:      "Text chunks emitted by the chunker.",
		}),
		ChunkerFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunker_fallbacks_total",
			Help:      "Messages returned unchunked because no tokenizer was available.",
		}),
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Emotion classifications by backend and outcome.",
		}, []string{"backend", "outcome"}),
		ClassifyLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_latency_ms",
			Help:      "Emotion classification latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"backend"}),
		ProcessLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_latency_ms",
			Help:      "End-to-end message processing latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		ChatTurns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by profile and outcome.",
		}, []string{"profile", "outcome"}),
		ActiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Open SSE and WebSocket connections.",
		}),
		gatherer: gatherer,
	}
}

// ObserveClassification counts one classify call and records its latency.
func (m *Metrics) ObserveClassification(backend string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.Classifications.WithLabelValues(backend, outcome).Inc()
	m.ClassifyLatency.WithLabelValues(backend).Observe(float64(d.Milliseconds()))
}

// ObserveProcess records one processed message and its chunk count.
func (m *Metrics) ObserveProcess(chunks int, fallback bool, d time.Duration) {
	if m == nil {
		return
	}
	m.MessagesProcessed.Inc()
	m.ChunksProduced.Add(float64(chunks))
	if fallback {
		m.ChunkerFallbacks.Inc()
	}
	m.ProcessLatency.Observe(float64(d.Milliseconds()))
}

// ObserveChatTurn counts a chat turn by profile and outcome.
func (m *Metrics) ObserveChatTurn(profile string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ChatTurns.WithLabelValues(profile, outcome).Inc()
}

// StreamOpened increments the open stream gauge and returns its release func.
func (m *Metrics) StreamOpened() func() {
	if m == nil {
		return func() {}
	}
	m.ActiveStreams.Inc()
	return m.ActiveStreams.Dec
}

// Handler serves the registry the instruments were registered on.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return MetricsHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
