package sessiongate

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricRestoreSuccess counts boots that restored a prior session.
	MetricRestoreSuccess MetricID = iota
	// MetricRestoreEmpty counts boots with no durable record.
	MetricRestoreEmpty
	// MetricRestoreCorrupt counts purged malformed records.
	MetricRestoreCorrupt
	// MetricRestoreUnavailable counts boots where storage was unreachable.
	MetricRestoreUnavailable
	// MetricLoginSuccess counts installed sessions.
	MetricLoginSuccess
	// MetricLoginCanceled counts logins abandoned by context cancellation.
	MetricLoginCanceled
	// MetricPersistFailure counts logins whose durable write failed.
	MetricPersistFailure
	// MetricLogout counts logout calls that cleared an active session.
	MetricLogout
	// MetricVerifyIssued counts issued verification challenges.
	MetricVerifyIssued
	// MetricVerifySuccess counts confirmed challenges.
	MetricVerifySuccess
	// MetricVerifyFailure counts rejected confirmation attempts.
	MetricVerifyFailure
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters for the store's observable transitions.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics set; disabled metrics make every operation a
// no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
