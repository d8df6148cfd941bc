package obs

import (
	"sync"
	"testing"
	"time"

	"main/internal/model/enum"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.ObserveUpdate(enum.UpdateTrade, 0, 0)
	m.ObserveUpdate(enum.UpdateTrade, 0, 0)
	m.ObserveUpdate(enum.UpdateSnapshot, 0, 0)
	m.IncSequenceGap()
	m.IncResync()
	m.IncSignalEmitted()

	snap := m.Snapshot()
	if snap.UpdateCounts[enum.UpdateTrade] != 2 {
		t.Fatalf("trade count: got %d want 2", snap.UpdateCounts[enum.UpdateTrade])
	}
	if snap.UpdateCounts[enum.UpdateSnapshot] != 1 {
		t.Fatalf("snapshot count: got %d want 1", snap.UpdateCounts[enum.UpdateSnapshot])
	}
	if snap.SequenceGaps != 1 || snap.Resyncs != 1 || snap.SignalsEmitted != 1 {
		t.Fatalf("counter mismatch: %+v", snap)
	}
}

func TestMetricsFeedLatency(t *testing.T) {
	m := NewMetrics()

	eventMs := int64(1_700_000_000_000)
	// received 5ms after the venue event time
	m.ObserveUpdate(enum.UpdateTrade, eventMs, eventMs*int64(time.Millisecond)+int64(5*time.Millisecond))

	snap := m.Snapshot()
	if snap.FeedLatency.Count != 1 {
		t.Fatalf("latency samples: got %d want 1", snap.FeedLatency.Count)
	}
	if snap.FeedLatency.Min != 5*time.Millisecond || snap.FeedLatency.Max != 5*time.Millisecond {
		t.Fatalf("latency bounds: min=%v max=%v", snap.FeedLatency.Min, snap.FeedLatency.Max)
	}

	// a missing timestamp never produces a sample
	m.ObserveUpdate(enum.UpdateTrade, 0, time.Now().UnixNano())
	if got := m.Snapshot().FeedLatency.Count; got != 1 {
		t.Fatalf("latency samples: got %d want 1", got)
	}
}

func TestLatencyStatsMinMaxAvg(t *testing.T) {
	var s LatencyStats
	s.Observe(10 * time.Millisecond)
	s.Observe(30 * time.Millisecond)
	s.Observe(20 * time.Millisecond)

	snap := s.Snapshot()
	if snap.Count != 3 {
		t.Fatalf("count: got %d want 3", snap.Count)
	}
	if snap.Min != 10*time.Millisecond || snap.Max != 30*time.Millisecond {
		t.Fatalf("bounds: min=%v max=%v", snap.Min, snap.Max)
	}
	if snap.Avg != 20*time.Millisecond {
		t.Fatalf("avg: got %v want 20ms", snap.Avg)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveUpdate(enum.UpdateTrade, 1, 1)
	m.IncSequenceGap()
	m.IncRelayDelivered()
	if snap := m.Snapshot(); snap.SequenceGaps != 0 {
		t.Fatalf("nil metrics snapshot: %+v", snap)
	}
}

func TestMetricsConcurrentWriters(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				m.IncSignalEmitted()
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().SignalsEmitted; got != 8000 {
		t.Fatalf("signals emitted: got %d want 8000", got)
	}
}
