package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agri"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Outbound API calls.
	UpstreamRequests *prometheus.CounterVec   // labels: service, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: service

	// Degradation.
	FallbackTotal *prometheus.CounterVec // labels: service
	ItemsDropped  *prometheus.CounterVec // labels: service

	WeatherCache *prometheus.CounterVec // labels: method={current,forecast}, result={hit,miss}
	ChatMessages *prometheus.CounterVec // labels: language, intent

	// Price publisher.
	EventsPublished      *prometheus.CounterVec // labels: event_type
	PublishErrors        prometheus.Counter
	PublisherRunning     prometheus.Gauge
	QuotesPerCycle       prometheus.Histogram
	PublishCycleDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := buildMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return buildMetrics()
}

func buildMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outbound API requests by service and outcome.",
		}, []string{"service", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Outbound API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		FallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_total",
			Help:      "Responses served from fallback data instead of a live source.",
		}, []string{"service"}),
		ItemsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_dropped_total",
			Help:      "Individual live items skipped after a per-item failure.",
		}, []string{"service"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by method and result.",
		}, []string{"method", "result"}),
		ChatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages answered by language and intent.",
		}, []string{"language", "intent"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events written to Kafka by type.",
		}, []string{"event_type"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed publish cycles.",
		}),
		PublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publisher_running",
			Help:      "1 when the price publisher is active, 0 when shut down.",
		}),
		QuotesPerCycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quotes_per_cycle",
			Help:      "Number of quotes extracted per publish cycle.",
			Buckets:   []float64{1, 5, 10, 20, 30, 50, 75, 100},
		}),
		PublishCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_cycle_duration_seconds",
			Help:      "Duration of a complete extract and load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.FallbackTotal,
		m.ItemsDropped,
		m.WeatherCache,
		m.ChatMessages,
		m.EventsPublished,
		m.PublishErrors,
		m.PublisherRunning,
		m.QuotesPerCycle,
		m.PublishCycleDuration,
	}
}
