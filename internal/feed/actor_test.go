package feed

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"main/internal/bus"
	"main/internal/feature"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/relay"
	"main/internal/signal"
	"main/pkg/exception"
)

type scriptedSource struct {
	opens            atomic.Int64
	snapshotRequests atomic.Int64
	openErr          error
	script           []bus.Event
}

func (s *scriptedSource) Open(ctx context.Context, sink *bus.Queue) error {
	s.opens.Add(1)
	if s.openErr != nil {
		return s.openErr
	}
	for _, ev := range s.script {
		if err := sink.TryPublish(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *scriptedSource) RequestSnapshot(context.Context) error {
	s.snapshotRequests.Add(1)
	return nil
}

type capturingSubscriber struct {
	payloads [][]byte
}

func (c *capturingSubscriber) Send(payload []byte) error {
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *capturingSubscriber) OutboundBacklogBytes() int64 { return 0 }

func testOptions() Options {
	return Options{
		Symbol:   "BTCUSDT",
		Platform: enum.PlatformBinance,
		Features: feature.DefaultConfig(),
		Signal:   signal.DefaultConfig(),
	}
}

func snapshotUpdate(updateID int64, bidQty, askQty float64) model.Update {
	return model.Update{
		Kind:        enum.UpdateSnapshot,
		Bids:        []model.PriceLevel{{Price: 100.0, Quantity: bidQty}},
		Asks:        []model.PriceLevel{{Price: 100.1, Quantity: askQty}},
		UpdateID:    updateID,
		EventTimeMs: 1700000000000,
	}
}

func TestActorEmitsOnBookPressure(t *testing.T) {
	metrics := obs.NewMetrics()
	rl := relay.New(1024, metrics)
	sub := &capturingSubscriber{}
	rl.Subscribe(sub)

	a := NewActor(testOptions(), &scriptedSource{}, rl, metrics)

	a.handleUpdate(context.Background(), snapshotUpdate(10, 8, 2))

	require.Len(t, sub.payloads, 1)
	var payload map[string]any
	require.NoError(t, sonic.Unmarshal(sub.payloads[0], &payload))
	require.Equal(t, "NEUTRAL", payload["signal"])
	require.Greater(t, payload["score"].(float64), 0.2)

	snap := metrics.Snapshot()
	require.EqualValues(t, 1, snap.SignalsEmitted)
	require.EqualValues(t, 1, snap.UpdateCounts[enum.UpdateSnapshot])
}

func TestActorResyncsOnSequenceGap(t *testing.T) {
	metrics := obs.NewMetrics()
	rl := relay.New(1024, metrics)
	src := &scriptedSource{}
	a := NewActor(testOptions(), src, rl, metrics)
	ctx := context.Background()

	a.handleUpdate(ctx, snapshotUpdate(10, 8, 2))
	a.handleUpdate(ctx, model.Update{
		Kind:     enum.UpdateDelta,
		Side:     enum.SideBid,
		Price:    99.9,
		Quantity: 1,
		UpdateID: 13, // gap: expected 10 or 11
	})

	require.EqualValues(t, 1, src.snapshotRequests.Load())
	require.False(t, a.replica.Synced())
	require.Equal(t, signal.StateNeutral, a.machine.Current())

	snap := metrics.Snapshot()
	require.EqualValues(t, 1, snap.SequenceGaps)
	require.EqualValues(t, 1, snap.Resyncs)

	// deltas while waiting for the snapshot are dropped quietly
	a.handleUpdate(ctx, model.Update{Kind: enum.UpdateDelta, Side: enum.SideBid, Price: 99.9, Quantity: 1, UpdateID: 14})
	require.EqualValues(t, 1, src.snapshotRequests.Load())

	// the fresh snapshot restores the pipeline
	a.handleUpdate(ctx, snapshotUpdate(20, 8, 2))
	require.True(t, a.replica.Synced())
}

func TestActorResyncsOnCrossedDelta(t *testing.T) {
	metrics := obs.NewMetrics()
	src := &scriptedSource{}
	a := NewActor(testOptions(), src, relay.New(1024, metrics), metrics)
	ctx := context.Background()

	a.handleUpdate(ctx, snapshotUpdate(10, 8, 2))
	a.handleUpdate(ctx, model.Update{
		Kind:     enum.UpdateDelta,
		Side:     enum.SideBid,
		Price:    100.2,
		Quantity: 1,
		UpdateID: 11,
	})

	require.EqualValues(t, 1, src.snapshotRequests.Load())
	require.EqualValues(t, 1, metrics.Snapshot().CrossedBooks)
}

func TestActorIgnoresTradesWhileUnsynced(t *testing.T) {
	metrics := obs.NewMetrics()
	rl := relay.New(1024, metrics)
	sub := &capturingSubscriber{}
	rl.Subscribe(sub)
	a := NewActor(testOptions(), &scriptedSource{}, rl, metrics)

	a.handleUpdate(context.Background(), model.Update{
		Kind:           enum.UpdateTrade,
		Quantity:       5,
		IsAggressorBuy: true,
		EventTimeMs:    1700000000000,
	})

	require.Empty(t, sub.payloads, "trades against an unsynced book must not emit")
}

func TestActorReconnectsAfterOpenFailure(t *testing.T) {
	metrics := obs.NewMetrics()
	src := &scriptedSource{openErr: exception.ErrInvalidFeedRequest}
	opt := testOptions()
	opt.ReconnectDelay = 5 * time.Millisecond
	a := NewActor(opt, src, relay.New(1024, metrics), metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := a.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.GreaterOrEqual(t, src.opens.Load(), int64(2))
	require.GreaterOrEqual(t, metrics.Snapshot().Reconnects, uint64(2))
}

func TestActorReconnectsAfterClose(t *testing.T) {
	metrics := obs.NewMetrics()
	src := &scriptedSource{script: []bus.Event{
		{Kind: bus.EventOpen},
		{Kind: bus.EventMessage, Update: snapshotUpdate(10, 8, 2)},
		{Kind: bus.EventClose},
	}}
	opt := testOptions()
	opt.ReconnectDelay = 5 * time.Millisecond
	a := NewActor(opt, src, relay.New(1024, metrics), metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = a.Run(ctx)

	require.GreaterOrEqual(t, src.opens.Load(), int64(2))
}

func TestActorForcesReconnectOnIdleFeed(t *testing.T) {
	metrics := obs.NewMetrics()
	src := &scriptedSource{script: []bus.Event{{Kind: bus.EventOpen}}}
	opt := testOptions()
	opt.ReconnectDelay = 5 * time.Millisecond
	opt.IdleTimeout = 20 * time.Millisecond
	a := NewActor(opt, src, relay.New(1024, metrics), metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_ = a.Run(ctx)

	require.GreaterOrEqual(t, src.opens.Load(), int64(2))
}
