package mdg

import (
	"context"
	"testing"
	"time"

	"main/internal/bus"
	"main/internal/model/enum"
)

func TestGeneratorProducesTicksAndTrades(t *testing.T) {
	g := NewGenerator(Config{
		Symbol:     "SYNUSDT",
		BasePrice:  100,
		Spread:     0.1,
		Interval:   time.Millisecond,
		Seed:       1,
		TradeEvery: 2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := bus.NewQueue(256)
	if err := g.Open(ctx, sink); err != nil {
		t.Fatalf("open: %v", err)
	}

	var opens, ticks, trades int
	deadline := time.After(2 * time.Second)
	for ticks < 10 || trades < 2 {
		select {
		case <-deadline:
			t.Fatalf("timed out: opens=%d ticks=%d trades=%d", opens, ticks, trades)
		case ev, ok := <-sink.Events():
			if !ok {
				t.Fatal("queue closed early")
			}
			switch ev.Kind {
			case bus.EventOpen:
				opens++
			case bus.EventMessage:
				switch ev.Update.Kind {
				case enum.UpdateTopOfBook:
					ticks++
					if ev.Update.BidPrice >= ev.Update.AskPrice {
						t.Fatalf("crossed synthetic tick: %+v", ev.Update)
					}
					if ev.Update.Platform != enum.PlatformSynthetic || ev.Update.Symbol != "SYNUSDT" {
						t.Fatalf("tick identity mismatch: %+v", ev.Update)
					}
				case enum.UpdateTrade:
					trades++
					if ev.Update.Quantity < 0 {
						t.Fatalf("negative trade quantity: %+v", ev.Update)
					}
				}
			}
		}
	}
	if opens != 1 {
		t.Fatalf("opens: got %d want 1", opens)
	}
}

func TestGeneratorClosesQueueOnCancel(t *testing.T) {
	g := NewGenerator(Config{Symbol: "SYNUSDT", Interval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	sink := bus.NewQueue(16)
	if err := g.Open(ctx, sink); err != nil {
		t.Fatalf("open: %v", err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("queue never closed after cancel")
		case _, ok := <-sink.Events():
			if !ok {
				return
			}
		}
	}
}
