// Package mdg generates synthetic market data for demo runs and actor
// tests, exercising the same pipeline as a live venue feed.
package mdg

import (
	"context"
	"math/rand"
	"time"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/model/enum"
)

// Config shapes the synthetic walk.
type Config struct {
	Symbol    string
	BasePrice float64
	Spread    float64
	BaseQty   float64
	Interval  time.Duration
	Seed      int64
	// TradeEvery emits one trade per N top-of-book ticks.
	TradeEvery int
}

func (c *Config) withDefaults() {
	if c.BasePrice <= 0 {
		c.BasePrice = 100
	}
	if c.Spread <= 0 {
		c.Spread = 0.1
	}
	if c.BaseQty <= 0 {
		c.BaseQty = 5
	}
	if c.Interval <= 0 {
		c.Interval = 50 * time.Millisecond
	}
	if c.TradeEvery <= 0 {
		c.TradeEvery = 3
	}
}

// Generator is a feed.Source producing a random-walk top-of-book plus
// aggressor trades.
type Generator struct {
	cfg Config
}

// NewGenerator builds a generator for one synthetic symbol.
func NewGenerator(cfg Config) *Generator {
	cfg.withDefaults()
	return &Generator{cfg: cfg}
}

// Open starts the tick pump. The queue observes an EventOpen, then a
// stream of top-of-book and trade messages until ctx is canceled.
func (g *Generator) Open(ctx context.Context, sink *bus.Queue) error {
	go g.pump(ctx, sink)
	return nil
}

// RequestSnapshot is a no-op: the synthetic book re-syncs on the next
// tick like any top-of-book-only feed.
func (g *Generator) RequestSnapshot(context.Context) error {
	return nil
}

func (g *Generator) pump(ctx context.Context, sink *bus.Queue) {
	defer sink.Close()

	rng := rand.New(rand.NewSource(g.cfg.Seed))
	mid := g.cfg.BasePrice
	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	_ = sink.TryPublish(bus.Event{Kind: bus.EventOpen})

	n := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		mid += (rng.Float64() - 0.5) * g.cfg.Spread
		bidQty := g.cfg.BaseQty * (0.5 + rng.Float64())
		askQty := g.cfg.BaseQty * (0.5 + rng.Float64())
		now := time.Now()

		tick := model.Update{
			Kind:        enum.UpdateTopOfBook,
			Platform:    enum.PlatformSynthetic,
			Symbol:      g.cfg.Symbol,
			BidPrice:    mid - g.cfg.Spread/2,
			BidQty:      bidQty,
			AskPrice:    mid + g.cfg.Spread/2,
			AskQty:      askQty,
			EventTimeMs: now.UnixMilli(),
			RecvTsNano:  now.UnixNano(),
		}
		if sink.TryPublish(bus.Event{Kind: bus.EventMessage, Update: tick}) != nil {
			continue
		}

		n++
		if n%g.cfg.TradeEvery != 0 {
			continue
		}
		trade := model.Update{
			Kind:           enum.UpdateTrade,
			Platform:       enum.PlatformSynthetic,
			Symbol:         g.cfg.Symbol,
			Price:          mid,
			Quantity:       g.cfg.BaseQty * rng.Float64(),
			IsAggressorBuy: rng.Float64() > 0.5,
			EventTimeMs:    now.UnixMilli(),
			RecvTsNano:     now.UnixNano(),
		}
		_ = sink.TryPublish(bus.Event{Kind: bus.EventMessage, Update: trade})
	}
}
