package metrics

import "time"

// Recorder is the typed facade over the broker instruments: one method per
// observable broker event. Callers never see instrument names, kinds or label
// sets. Every method is O(1), non-blocking and infallible; implementations
// must be safe for unbounded concurrent use.
type Recorder interface {
	// Ingress.
	RecordMessageReceived()
	RecordMessageInvalid()
	RecordMessageDropped(reason string)

	// Egress.
	RecordMessageSent(recipientCount int)
	RecordMessageFailed(reason string)
	RecordMessageQueued()

	// Fanout.
	RecordFanoutOperation(recipientCount int, latency time.Duration)

	// Routing.
	RecordRoutingCacheHit()
	RecordRoutingCacheMiss()
	RecordShardOperation(shardID string)

	// NATS transport.
	RecordNatsPublished(count int)
	RecordNatsConsumed(count int)
	RecordNatsError(kind string)

	// System state.
	SetActiveConnections(count int)
	SetActiveTopics(count int)

	// Rate limiting and flow control.
	RecordRateLimitHit(userID string)
	RecordBackpressureEvent()

	// Latency.
	RecordIngressLatency(d time.Duration)
	RecordEgressLatency(d time.Duration)
	StartProcessingTimer() *ProcessingTimer
}

// Noop discards every event. It is what Default returns before Initialize has
// run, keeping metric calls valid (if silent) during startup.
type Noop struct{}

func (Noop) RecordMessageReceived()                   {}
func (Noop) RecordMessageInvalid()                    {}
func (Noop) RecordMessageDropped(string)              {}
func (Noop) RecordMessageSent(int)                    {}
func (Noop) RecordMessageFailed(string)               {}
func (Noop) RecordMessageQueued()                     {}
func (Noop) RecordFanoutOperation(int, time.Duration) {}
func (Noop) RecordRoutingCacheHit()                   {}
func (Noop) RecordRoutingCacheMiss()                  {}
func (Noop) RecordShardOperation(string)              {}
func (Noop) RecordNatsPublished(int)                  {}
func (Noop) RecordNatsConsumed(int)                   {}
func (Noop) RecordNatsError(string)                   {}
func (Noop) SetActiveConnections(int)                 {}
func (Noop) SetActiveTopics(int)                      {}
func (Noop) RecordRateLimitHit(string)                {}
func (Noop) RecordBackpressureEvent()                 {}
func (Noop) RecordIngressLatency(time.Duration)       {}
func (Noop) RecordEgressLatency(time.Duration)        {}
func (Noop) StartProcessingTimer() *ProcessingTimer   { return newTimer(nil) }
