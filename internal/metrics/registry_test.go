package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func gatherFamily(t *testing.T, m *Metrics, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestNewDescribesEveryInstrumentOnce(t *testing.T) {
	m := newTestMetrics(t)

	// Touch one instrument of each kind so lazily-created series exist.
	m.RecordMessageReceived()
	m.SetActiveConnections(3)
	m.StartProcessingTimer().Record()

	wantNames := []string{
		"broker_messages_received_total",
		"broker_messages_invalid_total",
		"broker_messages_dropped_total",
		"broker_messages_sent_total",
		"broker_messages_failed_total",
		"broker_messages_queued_total",
		"broker_fanout_operations_total",
		"broker_fanout_latency_seconds",
		"broker_fanout_recipients_per_message",
		"broker_routing_cache_hits",
		"broker_routing_cache_misses",
		"broker_nats_published_total",
		"broker_nats_consumed_total",
		"broker_nats_errors_total",
		"broker_active_connections",
		"broker_active_topics",
		"broker_ingress_latency_seconds",
		"broker_egress_latency_seconds",
		"broker_processing_latency_seconds",
		"broker_rate_limit_hits_total",
		"broker_backpressure_events_total",
	}

	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	got := map[string]bool{}
	for _, mf := range mfs {
		got[mf.GetName()] = true
	}
	for _, name := range wantNames {
		assert.True(t, got[name], "instrument %s not described", name)
	}
}

func TestHistogramBucketsMatchDescription(t *testing.T) {
	m := newTestMetrics(t)
	m.StartProcessingTimer().Record()

	mf := gatherFamily(t, m, "broker_processing_latency_seconds")
	require.NotNil(t, mf)
	require.Equal(t, dto.MetricType_HISTOGRAM, mf.GetType())

	hist := mf.GetMetric()[0].GetHistogram()
	var bounds []float64
	for _, b := range hist.GetBucket() {
		bounds = append(bounds, b.GetUpperBound())
	}
	assert.Equal(t, processingLatencyBuckets, bounds)
}

func TestHelpTextIsStable(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordMessageReceived()

	mf := gatherFamily(t, m, "broker_messages_received_total")
	require.NotNil(t, mf)
	assert.Equal(t, "Total number of messages received", mf.GetHelp())
}

func TestNewOnSameRegistryReturnsErrorNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	// Re-describing the same names against the same registry must surface as
	// an error the caller can ignore, never a panic.
	_, err = New(reg)
	require.Error(t, err)
}

func TestInitializeIsIdempotent(t *testing.T) {
	first, err := Initialize()
	require.NoError(t, err)
	second, err := Initialize()
	require.NoError(t, err)
	assert.Same(t, first, second)

	// After initialization the process-wide recorder is the real one.
	assert.Same(t, first, Default())
}

func TestConcurrentIncrementsLoseNoUpdates(t *testing.T) {
	m := newTestMetrics(t)

	const workers = 50
	const perWorker = 200

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.RecordMessageReceived()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(workers*perWorker), testutil.ToFloat64(m.messagesReceived))
}
