package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProcessingTimer is a single in-flight latency measurement. It captures its
// start instant on creation and emits exactly one histogram observation when
// Record is called; a timer discarded without Record emits nothing. Callers
// should defer-style guarantee Record on every exit path they want measured.
type ProcessingTimer struct {
	start    time.Time
	observer prometheus.Observer
	consumed atomic.Bool
}

func newTimer(observer prometheus.Observer) *ProcessingTimer {
	return &ProcessingTimer{start: time.Now(), observer: observer}
}

// Record observes the elapsed wall-clock duration and consumes the timer.
// A second Record, or Record on a nil timer, is a no-op.
func (t *ProcessingTimer) Record() {
	if t == nil || !t.consumed.CompareAndSwap(false, true) {
		return
	}
	if t.observer == nil {
		return
	}
	t.observer.Observe(time.Since(t.start).Seconds())
}
