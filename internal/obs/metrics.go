// Package obs collects lightweight pipeline counters and latency
// stats. Everything is atomic so feed goroutines can write without
// coordination.
package obs

import (
	"sync/atomic"
	"time"

	"main/internal/model/enum"
)

const maxUpdateKind = 8

// Metrics aggregates per-process pipeline counters.
type Metrics struct {
	updateCounts [maxUpdateKind]uint64

	decodeDrops  uint64
	sequenceGaps uint64
	crossedBooks uint64
	resyncs      uint64
	reconnects   uint64
	queueDrops   uint64

	signalsEmitted uint64
	relayDelivered uint64
	relaySkipped   uint64

	feedLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	UpdateCounts   map[enum.UpdateKind]uint64
	DecodeDrops    uint64
	SequenceGaps   uint64
	CrossedBooks   uint64
	Resyncs        uint64
	Reconnects     uint64
	QueueDrops     uint64
	SignalsEmitted uint64
	RelayDelivered uint64
	RelaySkipped   uint64
	FeedLatency    LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveUpdate counts an inbound update and tracks feed latency when
// both timestamps are present.
func (m *Metrics) ObserveUpdate(kind enum.UpdateKind, eventTimeMs, recvTsNano int64) {
	if m == nil {
		return
	}
	idx := int(kind)
	if idx >= 0 && idx < len(m.updateCounts) {
		atomic.AddUint64(&m.updateCounts[idx], 1)
	}
	if eventTimeMs > 0 && recvTsNano > 0 {
		delta := recvTsNano - eventTimeMs*int64(time.Millisecond)
		if delta >= 0 {
			m.feedLatency.Observe(time.Duration(delta))
		}
	}
}

func (m *Metrics) IncDecodeDrop() {
	if m != nil {
		atomic.AddUint64(&m.decodeDrops, 1)
	}
}

func (m *Metrics) IncSequenceGap() {
	if m != nil {
		atomic.AddUint64(&m.sequenceGaps, 1)
	}
}

func (m *Metrics) IncCrossedBook() {
	if m != nil {
		atomic.AddUint64(&m.crossedBooks, 1)
	}
}

func (m *Metrics) IncResync() {
	if m != nil {
		atomic.AddUint64(&m.resyncs, 1)
	}
}

func (m *Metrics) IncReconnect() {
	if m != nil {
		atomic.AddUint64(&m.reconnects, 1)
	}
}

func (m *Metrics) IncQueueDrop() {
	if m != nil {
		atomic.AddUint64(&m.queueDrops, 1)
	}
}

func (m *Metrics) IncSignalEmitted() {
	if m != nil {
		atomic.AddUint64(&m.signalsEmitted, 1)
	}
}

func (m *Metrics) IncRelayDelivered() {
	if m != nil {
		atomic.AddUint64(&m.relayDelivered, 1)
	}
}

func (m *Metrics) IncRelaySkipped() {
	if m != nil {
		atomic.AddUint64(&m.relaySkipped, 1)
	}
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	counts := make(map[enum.UpdateKind]uint64, len(m.updateCounts))
	for i := range m.updateCounts {
		v := atomic.LoadUint64(&m.updateCounts[i])
		if v > 0 {
			counts[enum.UpdateKind(i)] = v
		}
	}
	return Snapshot{
		UpdateCounts:   counts,
		DecodeDrops:    atomic.LoadUint64(&m.decodeDrops),
		SequenceGaps:   atomic.LoadUint64(&m.sequenceGaps),
		CrossedBooks:   atomic.LoadUint64(&m.crossedBooks),
		Resyncs:        atomic.LoadUint64(&m.resyncs),
		Reconnects:     atomic.LoadUint64(&m.reconnects),
		QueueDrops:     atomic.LoadUint64(&m.queueDrops),
		SignalsEmitted: atomic.LoadUint64(&m.signalsEmitted),
		RelayDelivered: atomic.LoadUint64(&m.relayDelivered),
		RelaySkipped:   atomic.LoadUint64(&m.relaySkipped),
		FeedLatency:    m.feedLatency.Snapshot(),
	}
}

// Observe records one latency sample.
func (s *LatencyStats) Observe(d time.Duration) {
	if s == nil || d < 0 {
		return
	}
	v := uint64(d)
	atomic.AddUint64(&s.count, 1)
	atomic.AddUint64(&s.sum, v)
	for {
		cur := atomic.LoadUint64(&s.min)
		if cur != 0 && cur <= v {
			break
		}
		if atomic.CompareAndSwapUint64(&s.min, cur, v) {
			break
		}
	}
	for {
		cur := atomic.LoadUint64(&s.max)
		if cur >= v {
			break
		}
		if atomic.CompareAndSwapUint64(&s.max, cur, v) {
			break
		}
	}
}

// Snapshot copies the latency aggregates.
func (s *LatencyStats) Snapshot() LatencySnapshot {
	if s == nil {
		return LatencySnapshot{}
	}
	count := atomic.LoadUint64(&s.count)
	snap := LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&s.min)),
		Max:   time.Duration(atomic.LoadUint64(&s.max)),
	}
	if count > 0 {
		snap.Avg = time.Duration(atomic.LoadUint64(&s.sum) / count)
	}
	return snap
}
