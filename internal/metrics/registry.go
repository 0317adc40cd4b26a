// Package metrics declares the broker's fixed instrument set and exposes it
// through a typed recorder facade and a pull-based Prometheus endpoint.
//
// All instruments live in the "broker" namespace and are described exactly
// once per registry. Reason-keyed companion series (drop reason, failure
// reason, error kind, user id) intentionally trade bounded cardinality for
// diagnostic detail: label values are created lazily on first use and are
// never removed for the process lifetime.
package metrics

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "broker"

// Bucket boundaries, fixed at description time. Per-message operations need
// sub-10ms resolution up to one second; recipient counts span 1 to 100k.
var (
	fanoutLatencyBuckets     = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0}
	recipientCountBuckets    = []float64{1, 10, 100, 1000, 10000, 100000}
	edgeLatencyBuckets       = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}
	processingLatencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0}
)

// Metrics owns every broker instrument. Construct it once per registry with
// New; instrument updates are safe under unbounded concurrent access.
type Metrics struct {
	registry *prometheus.Registry

	// Incoming messages.
	messagesReceived prometheus.Counter
	messagesInvalid  prometheus.Counter
	messagesDropped  prometheus.Counter
	droppedReason    *prometheus.CounterVec

	// Outgoing messages.
	messagesSent   prometheus.Counter
	messagesFailed prometheus.Counter
	failedReason   *prometheus.CounterVec
	messagesQueued prometheus.Counter

	// Fanout.
	fanoutOperations prometheus.Counter
	fanoutLatency    prometheus.Histogram
	fanoutRecipients prometheus.Histogram

	// Routing.
	routingCacheHits   prometheus.Counter
	routingCacheMisses prometheus.Counter
	shardOperations    *prometheus.CounterVec

	// NATS transport.
	natsPublished  prometheus.Counter
	natsConsumed   prometheus.Counter
	natsErrors     prometheus.Counter
	natsErrorTypes *prometheus.CounterVec

	// System gauges.
	activeConnections prometheus.Gauge
	activeTopics      prometheus.Gauge

	// Latency histograms.
	ingressLatency    prometheus.Histogram
	egressLatency     prometheus.Histogram
	processingLatency prometheus.Histogram

	// Rate limiting.
	rateLimitHits      prometheus.Counter
	rateLimitHitsUser  *prometheus.CounterVec
	backpressureEvents prometheus.Counter
}

// New describes and registers the full broker instrument set against reg.
// Registration errors (duplicate descriptions) are returned, never panicked,
// so a metrics failure cannot take the broker down.
func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: reg,

		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}),
		messagesInvalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_invalid_total",
			Help:      "Total number of invalid messages rejected",
		}),
		messagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Total number of messages dropped due to backpressure",
		}),
		droppedReason: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_reason",
			Help:      "Dropped messages broken down by reason",
		}, []string{"reason"}),

		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of messages sent to recipients",
		}),
		messagesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_failed_total",
			Help:      "Total number of messages that failed to send",
		}),
		failedReason: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_failed_reason",
			Help:      "Failed messages broken down by reason",
		}, []string{"reason"}),
		messagesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_queued_total",
			Help:      "Total number of messages queued for offline users",
		}),

		fanoutOperations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_operations_total",
			Help:      "Total number of fanout operations",
		}),
		fanoutLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fanout_latency_seconds",
			Help:      "Fanout operation latency in seconds",
			Buckets:   fanoutLatencyBuckets,
		}),
		fanoutRecipients: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fanout_recipients_per_message",
			Help:      "Number of recipients per fanout operation",
			Buckets:   recipientCountBuckets,
		}),

		routingCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_cache_hits",
			Help:      "Routing cache hits",
		}),
		routingCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_cache_misses",
			Help:      "Routing cache misses",
		}),
		shardOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_shard_operations",
			Help:      "Routing operations per shard",
		}, []string{"shard_id"}),

		natsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nats_published_total",
			Help:      "Total messages published to NATS",
		}),
		natsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nats_consumed_total",
			Help:      "Total messages consumed from NATS",
		}),
		natsErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nats_errors_total",
			Help:      "Total NATS communication errors",
		}),
		natsErrorTypes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nats_error_types",
			Help:      "NATS errors broken down by kind",
		}, []string{"error"}),

		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of active connections to gateways",
		}),
		activeTopics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_topics",
			Help:      "Number of active routing topics",
		}),

		ingressLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingress_latency_seconds",
			Help:      "Ingress processing latency",
			Buckets:   edgeLatencyBuckets,
		}),
		egressLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "egress_latency_seconds",
			Help:      "Egress processing latency",
			Buckets:   edgeLatencyBuckets,
		}),
		processingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_latency_seconds",
			Help:      "End-to-end message processing latency",
			Buckets:   processingLatencyBuckets,
		}),

		rateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total rate limit hits",
		}),
		rateLimitHitsUser: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_user",
			Help:      "Rate limit hits broken down by user",
		}, []string{"user_id"}),
		backpressureEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backpressure_events_total",
			Help:      "Total backpressure events",
		}),
	}

	for _, c := range m.collectorList() {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register broker instruments: %w", err)
		}
	}

	// Runtime collectors back the memory/cpu series at scrape time. They may
	// already be present when a test reuses a registry.
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, fmt.Errorf("failed to register runtime collectors: %w", err)
			}
		}
	}

	return m, nil
}

func (m *Metrics) collectorList() []prometheus.Collector {
	return []prometheus.Collector{
		m.messagesReceived, m.messagesInvalid, m.messagesDropped, m.droppedReason,
		m.messagesSent, m.messagesFailed, m.failedReason, m.messagesQueued,
		m.fanoutOperations, m.fanoutLatency, m.fanoutRecipients,
		m.routingCacheHits, m.routingCacheMisses, m.shardOperations,
		m.natsPublished, m.natsConsumed, m.natsErrors, m.natsErrorTypes,
		m.activeConnections, m.activeTopics,
		m.ingressLatency, m.egressLatency, m.processingLatency,
		m.rateLimitHits, m.rateLimitHitsUser, m.backpressureEvents,
	}
}

// Registry returns the registry the instruments are registered against,
// for the exporter and for test scrapes.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

var (
	initOnce       sync.Once
	initErr        error
	defaultMetrics atomic.Pointer[Metrics]
	notReadyWarn   sync.Once
)

// Initialize builds the process-wide instrument set exactly once. Concurrent
// and repeated calls all observe the same fully built value; instruments are
// never re-described.
func Initialize() (*Metrics, error) {
	initOnce.Do(func() {
		m, err := New(prometheus.NewRegistry())
		if err != nil {
			initErr = err
			return
		}
		defaultMetrics.Store(m)
	})
	if initErr != nil {
		return nil, initErr
	}
	return defaultMetrics.Load(), nil
}

// Default returns the process-wide recorder. Before Initialize has completed
// it returns the noop recorder and logs a single warning; metric events are
// silently discarded rather than failing the caller.
func Default() Recorder {
	if m := defaultMetrics.Load(); m != nil {
		return m
	}
	notReadyWarn.Do(func() {
		slog.Warn("metrics not initialized; recorded events will be discarded until metrics.Initialize runs")
	})
	return Noop{}
}
