package feed

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/bus"
	"main/internal/feature"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/relay"
	"main/internal/signal"
	"main/pkg/exception"
)

// Options configures one feed actor.
type Options struct {
	Symbol   string
	Platform enum.Platform

	DepthLimit     int
	QueueCapacity  int
	ReconnectDelay time.Duration
	IdleTimeout    time.Duration

	Features feature.Config
	Signal   signal.Config
}

func (o *Options) withDefaults() {
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = 1024
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = 3 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 30 * time.Second
	}
}

// Actor drives one venue stream: it applies every inbound update to its
// replica in arrival order, recomputes features, evaluates the signal
// state machine and publishes emissions to the relay.
type Actor struct {
	opt     Options
	src     Source
	relay   *relay.Relay
	metrics *obs.Metrics

	replica *book.Replica
	engine  *feature.Engine
	machine *signal.Machine
}

// NewActor wires an actor; nothing runs until Run.
func NewActor(opt Options, src Source, rl *relay.Relay, metrics *obs.Metrics) *Actor {
	opt.withDefaults()
	return &Actor{
		opt:     opt,
		src:     src,
		relay:   rl,
		metrics: metrics,
		replica: book.NewReplica(opt.DepthLimit),
		engine:  feature.NewEngine(opt.Features),
		machine: signal.NewMachine(opt.Signal),
	}
}

// Run connects and processes events until ctx is canceled. Every
// disconnect resets the per-feed state wholesale: a gap in the stream
// invalidates the accumulated deltas and windows.
func (a *Actor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		queue := bus.NewQueue(a.opt.QueueCapacity)
		connCtx, cancel := context.WithCancel(ctx)

		if err := a.src.Open(connCtx, queue); err != nil {
			cancel()
			logs.Errorf("feed %s/%s: open failed, err: %+v", a.opt.Platform, a.opt.Symbol, err)
			a.metrics.IncReconnect()
			if !a.sleep(ctx, a.opt.ReconnectDelay) {
				return ctx.Err()
			}
			continue
		}

		a.resetAll()
		a.consume(connCtx, queue)
		cancel()

		if err := ctx.Err(); err != nil {
			return err
		}
		logs.Infof("feed %s/%s: disconnected, reconnecting in %s", a.opt.Platform, a.opt.Symbol, a.opt.ReconnectDelay)
		a.metrics.IncReconnect()
		if !a.sleep(ctx, a.opt.ReconnectDelay) {
			return ctx.Err()
		}
	}
}

// consume is the actor's message loop for one connection. It returns on
// close, error, liveness expiry or cancellation.
func (a *Actor) consume(ctx context.Context, queue *bus.Queue) {
	idle := time.NewTimer(a.opt.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-idle.C:
			logs.Infof("feed %s/%s: no message within %s, forcing reconnect", a.opt.Platform, a.opt.Symbol, a.opt.IdleTimeout)
			return
		case ev, ok := <-queue.Events():
			if !ok {
				return
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(a.opt.IdleTimeout)

			switch ev.Kind {
			case bus.EventOpen:
				logs.Infof("feed %s/%s: connected", a.opt.Platform, a.opt.Symbol)
			case bus.EventMessage:
				a.handleUpdate(ctx, ev.Update)
			case bus.EventClose:
				return
			case bus.EventError:
				logs.Errorf("feed %s/%s: stream error, err: %+v", a.opt.Platform, a.opt.Symbol, ev.Err)
				return
			}
		}
	}
}

// handleUpdate applies one normalized update. Book errors are resync
// triggers, never crashes.
func (a *Actor) handleUpdate(ctx context.Context, u model.Update) {
	a.metrics.ObserveUpdate(u.Kind, u.EventTimeMs, u.RecvTsNano)

	switch u.Kind {
	case enum.UpdateSnapshot:
		if err := a.replica.ApplySnapshot(u.Bids, u.Asks, u.UpdateID, u.EventTimeMs); err != nil {
			a.metrics.IncCrossedBook()
			a.requestResync(ctx)
			return
		}
		a.evaluateBook()

	case enum.UpdateDelta:
		switch err := a.replica.ApplyDelta(u.Side, u.Price, u.Quantity, u.UpdateID, u.EventTimeMs); err {
		case nil:
			a.evaluateBook()
		case exception.ErrSequenceGap:
			a.metrics.IncSequenceGap()
			a.requestResync(ctx)
		case exception.ErrCrossedBook:
			a.metrics.IncCrossedBook()
			a.requestResync(ctx)
		case exception.ErrNotSynced:
			// waiting for the snapshot we already requested
		}

	case enum.UpdateTopOfBook:
		if err := a.replica.ApplyTopOfBook(u.BidPrice, u.BidQty, u.AskPrice, u.AskQty, u.EventTimeMs); err != nil {
			a.metrics.IncCrossedBook()
			return
		}
		a.evaluateBook()

	case enum.UpdateTrade:
		snap := a.engine.OnTrade(model.TradeSample{
			TimeMs:         u.EventTimeMs,
			Quantity:       u.Quantity,
			IsAggressorBuy: u.IsAggressorBuy,
		})
		if a.replica.Synced() {
			a.evaluate(snap)
		}
	}
}

// evaluateBook recomputes book-derived features and evaluates. An
// unsynced replica is silently skipped.
func (a *Actor) evaluateBook() {
	snap, err := a.engine.OnBookUpdate(a.replica)
	if err != nil {
		return
	}
	a.evaluate(snap)
}

func (a *Actor) evaluate(snap feature.Snapshot) {
	state, score, emit := a.machine.Evaluate(snap)
	if !emit {
		return
	}

	payload := a.machine.BuildPayload(a.opt.Symbol, a.opt.Platform.String(), state, score, snap)
	data, err := payload.Encode()
	if err != nil {
		logs.Errorf("feed %s/%s: encode payload, err: %+v", a.opt.Platform, a.opt.Symbol, err)
		return
	}
	a.relay.Publish(data)
	a.metrics.IncSignalEmitted()
}

// requestResync asks the source for a fresh snapshot and drops the
// state a stale book poisons: the imbalance window, the liquidity
// anchor and the signal state. Trade windows survive because the trade
// stream keeps flowing through a book resync.
func (a *Actor) requestResync(ctx context.Context) {
	a.metrics.IncResync()
	a.engine.ResetBook()
	a.machine.Reset()
	if err := a.src.RequestSnapshot(ctx); err != nil {
		logs.Errorf("feed %s/%s: snapshot request failed, err: %+v", a.opt.Platform, a.opt.Symbol, err)
	}
}

func (a *Actor) resetAll() {
	a.replica.Reset()
	a.engine.Reset()
	a.machine.Reset()
}

// sleep waits out the reconnect delay, returning false when ctx ends
// first.
func (a *Actor) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
