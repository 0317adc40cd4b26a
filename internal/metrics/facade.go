package metrics

import (
	"time"
)

// Metrics implements Recorder. Events with a dimensional breakdown bump the
// low-cardinality primary counter plus a reason-keyed companion series so
// dashboards stay cheap while diagnostics keep detail.

func (m *Metrics) RecordMessageReceived() {
	m.messagesReceived.Inc()
}

func (m *Metrics) RecordMessageInvalid() {
	m.messagesInvalid.Inc()
}

func (m *Metrics) RecordMessageDropped(reason string) {
	m.messagesDropped.Inc()
	m.droppedReason.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordMessageSent(recipientCount int) {
	m.messagesSent.Add(float64(recipientCount))
}

func (m *Metrics) RecordMessageFailed(reason string) {
	m.messagesFailed.Inc()
	m.failedReason.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordMessageQueued() {
	m.messagesQueued.Inc()
}

func (m *Metrics) RecordFanoutOperation(recipientCount int, latency time.Duration) {
	m.fanoutOperations.Inc()
	m.fanoutLatency.Observe(latency.Seconds())
	m.fanoutRecipients.Observe(float64(recipientCount))
}

func (m *Metrics) RecordRoutingCacheHit() {
	m.routingCacheHits.Inc()
}

func (m *Metrics) RecordRoutingCacheMiss() {
	m.routingCacheMisses.Inc()
}

func (m *Metrics) RecordShardOperation(shardID string) {
	m.shardOperations.WithLabelValues(shardID).Inc()
}

func (m *Metrics) RecordNatsPublished(count int) {
	m.natsPublished.Add(float64(count))
}

func (m *Metrics) RecordNatsConsumed(count int) {
	m.natsConsumed.Add(float64(count))
}

func (m *Metrics) RecordNatsError(kind string) {
	m.natsErrors.Inc()
	m.natsErrorTypes.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetActiveConnections(count int) {
	m.activeConnections.Set(float64(count))
}

func (m *Metrics) SetActiveTopics(count int) {
	m.activeTopics.Set(float64(count))
}

func (m *Metrics) RecordRateLimitHit(userID string) {
	m.rateLimitHits.Inc()
	m.rateLimitHitsUser.WithLabelValues(userID).Inc()
}

func (m *Metrics) RecordBackpressureEvent() {
	m.backpressureEvents.Inc()
}

func (m *Metrics) RecordIngressLatency(d time.Duration) {
	m.ingressLatency.Observe(d.Seconds())
}

func (m *Metrics) RecordEgressLatency(d time.Duration) {
	m.egressLatency.Observe(d.Seconds())
}

// StartProcessingTimer begins a scoped measurement that records into the
// processing-latency histogram when its Record method is called.
func (m *Metrics) StartProcessingTimer() *ProcessingTimer {
	return newTimer(m.processingLatency)
}
