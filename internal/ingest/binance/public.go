// Package binance adapts Binance public market streams into the
// normalized update shape the feed actor consumes. It is the only place
// that knows Binance wire formats or venue sequence-number semantics.
package binance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
)

const (
	_binanceBaseWsUrl        = "wss://stream.binance.com:9443/ws"
	_binanceFuturesBaseWsUrl = "wss://fstream.binance.com/ws"
)

// Mode selects which streams the adapter consumes.
type Mode uint8

const (
	// ModeTopOfBook follows bookTicker + trade; no sequence numbers, no
	// snapshots, arrival order is all there is.
	ModeTopOfBook Mode = iota + 1
	// ModeDepth follows diff-depth + trade, with the partial-depth
	// stream as the on-demand snapshot source.
	ModeDepth
)

// Public is a feed.Source over Binance public streams for one symbol.
type Public struct {
	symbol   string
	platform enum.Platform
	mode     Mode
	metrics  *obs.Metrics

	mu  sync.Mutex
	wss *ws.WebSocket

	// local contiguous delta sequence handed to the replica; venue
	// update-id ranges are collapsed onto it, and a venue gap is
	// preserved as a gap so the replica unsyncs itself
	seq          int64
	prevFinalID  int64
	snapshotID   int64
	wantSnapshot atomic.Bool
}

// NewPublic builds an adapter for one symbol.
func NewPublic(platform enum.Platform, symbol string, mode Mode, metrics *obs.Metrics) *Public {
	return &Public{
		symbol:   symbol,
		platform: platform,
		mode:     mode,
		metrics:  metrics,
	}
}

// Open dials the venue, subscribes the configured streams and pumps
// decoded events into sink until the connection drops.
func (p *Public) Open(ctx context.Context, sink *bus.Queue) error {
	wss := ws.New(ctx, p.baseURL())
	if err := wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	for i, stream := range p.streams() {
		if err := p.subscribe(ctx, wss, stream, int64(i+1)); err != nil {
			wss.Close()
			return errors.Wrap(err, "subscribe stream").With("stream", stream)
		}
	}

	p.mu.Lock()
	p.wss = wss
	p.seq = 0
	p.prevFinalID = 0
	p.snapshotID = 0
	p.mu.Unlock()
	p.wantSnapshot.Store(p.mode == ModeDepth)

	ch, cancel := wss.Subscribe()
	go p.pump(ctx, sink, ch, cancel)
	return nil
}

// RequestSnapshot arms the adapter to treat the next partial-depth
// message as a fresh snapshot. Top-of-book mode has nothing to request.
func (p *Public) RequestSnapshot(context.Context) error {
	if p.mode == ModeDepth {
		p.wantSnapshot.Store(true)
	}
	return nil
}

func (p *Public) baseURL() string {
	if p.platform == enum.PlatformBinanceFutures {
		return _binanceFuturesBaseWsUrl
	}
	return _binanceBaseWsUrl
}

func (p *Public) streams() []string {
	sym := strings.ToLower(p.symbol)
	switch p.mode {
	case ModeDepth:
		return []string{
			fmt.Sprintf("%s@depth@100ms", sym),
			fmt.Sprintf("%s@depth20@100ms", sym),
			fmt.Sprintf("%s@trade", sym),
		}
	default:
		return []string{
			fmt.Sprintf("%s@bookTicker", sym),
			fmt.Sprintf("%s@trade", sym),
		}
	}
}

func (p *Public) subscribe(ctx context.Context, wss *ws.WebSocket, stream string, reqID int64) error {
	appendIntoRegister := true
	if err := wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			payload := subscribeRequest{
				Method: "SUBSCRIBE",
				Params: []string{stream},
				ID:     reqID,
			}
			if err := client.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload").With("payload", payload)
			}
			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[subscribeResponse](m)
			if !ok || resp.ID != reqID {
				return false, nil
			}
			if resp.Result != nil {
				return false, errors.Errorf("subscribe rejected, err: %+v", resp.Result)
			}
			return true, nil
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(err, "send and wait")
	}
	return nil
}

func (p *Public) pump(ctx context.Context, sink *bus.Queue, ch <-chan ws.Message, cancel func()) {
	defer cancel()
	defer sink.Close()

	_ = sink.TryPublish(bus.Event{Kind: bus.EventOpen})

	for {
		select {
		case <-sys.Shutdown():
			return
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				_ = sink.TryPublish(bus.Event{Kind: bus.EventClose})
				return
			}
			p.dispatch(m, sink)
		}
	}
}

// dispatch sniffs the message variant once, then decodes and forwards
// it. A single malformed message is dropped; the stream continues.
func (p *Public) dispatch(m ws.Message, sink *bus.Queue) {
	env, ok := ws.ReadMessage[envelope](m)
	if !ok {
		p.drop("envelope")
		return
	}

	recv := time.Now().UnixNano()
	switch {
	case env.EventType == "trade":
		p.dispatchTrade(m, sink, recv)
	case env.EventType == "depthUpdate":
		p.dispatchDepthUpdate(m, sink, recv)
	case env.EventType == "" && env.LastUpdateID > 0:
		p.dispatchPartialDepth(m, sink, recv)
	default:
		p.dispatchBookTicker(m, sink, recv)
	}
}

func (p *Public) dispatchTrade(m ws.Message, sink *bus.Queue, recv int64) {
	t, ok := ws.ReadMessage[Trade](m)
	if !ok || t.Symbol == "" {
		p.drop("trade")
		return
	}
	price, errP := toFloat(t.Price)
	qty, errQ := toFloat(t.Quantity)
	if errP != nil || errQ != nil {
		p.drop("trade")
		return
	}
	eventTime := t.TradeTime
	if eventTime == 0 {
		eventTime = t.EventTime
	}
	p.publish(sink, model.Update{
		Kind:           enum.UpdateTrade,
		Platform:       p.platform,
		Symbol:         p.symbol,
		Price:          price,
		Quantity:       qty,
		IsAggressorBuy: !t.IsBuyerMaker,
		EventTimeMs:    eventTime,
		RecvTsNano:     recv,
	})
}

func (p *Public) dispatchBookTicker(m ws.Message, sink *bus.Queue, recv int64) {
	if p.mode != ModeTopOfBook {
		return
	}
	bt, ok := ws.ReadMessage[BookTicker](m)
	if !ok || bt.Symbol == "" {
		// subscribe acks and pings fall through here; not a decode drop
		return
	}
	bid, errB := toFloat(bt.BidPrice)
	bidQty, errBQ := toFloat(bt.BidQty)
	ask, errA := toFloat(bt.AskPrice)
	askQty, errAQ := toFloat(bt.AskQty)
	if errB != nil || errBQ != nil || errA != nil || errAQ != nil {
		p.drop("bookTicker")
		return
	}
	eventTime := bt.EventTime
	if eventTime == 0 {
		// spot bookTicker carries no event time
		eventTime = recv / int64(time.Millisecond)
	}
	p.publish(sink, model.Update{
		Kind:        enum.UpdateTopOfBook,
		Platform:    p.platform,
		Symbol:      p.symbol,
		BidPrice:    bid,
		BidQty:      bidQty,
		AskPrice:    ask,
		AskQty:      askQty,
		EventTimeMs: eventTime,
		RecvTsNano:  recv,
	})
}

func (p *Public) dispatchPartialDepth(m ws.Message, sink *bus.Queue, recv int64) {
	if p.mode != ModeDepth || !p.wantSnapshot.Load() {
		return
	}
	pd, ok := ws.ReadMessage[PartialDepth](m)
	if !ok {
		p.drop("partialDepth")
		return
	}
	bids, errB := toLevels(pd.Bids)
	asks, errA := toLevels(pd.Asks)
	if errB != nil || errA != nil {
		p.drop("partialDepth")
		return
	}

	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.snapshotID = pd.LastUpdateID
	p.prevFinalID = 0
	p.mu.Unlock()
	p.wantSnapshot.Store(false)

	if !p.publish(sink, model.Update{
		Kind:        enum.UpdateSnapshot,
		Platform:    p.platform,
		Symbol:      p.symbol,
		Bids:        bids,
		Asks:        asks,
		UpdateID:    seq,
		EventTimeMs: recv / int64(time.Millisecond),
		RecvTsNano:  recv,
	}) {
		// lost snapshot; retry on the next partial-depth message
		p.wantSnapshot.Store(true)
	}
}

func (p *Public) dispatchDepthUpdate(m ws.Message, sink *bus.Queue, recv int64) {
	du, ok := ws.ReadMessage[DepthUpdate](m)
	if !ok || du.Symbol == "" {
		p.drop("depthUpdate")
		return
	}

	p.mu.Lock()
	seq, emit := p.nextSeq(du.FirstUpdateID, du.FinalUpdateID)
	p.mu.Unlock()
	if !emit {
		return
	}
	p.publishDepthBatch(sink, du.Bids, du.Asks, seq, du.EventTime, recv)
}

// publishDepthBatch forwards every row of one venue batch under one
// local seq. A row the queue refuses leaves the batch half delivered;
// the sequence is advanced past it so the next batch arrives as a gap
// instead of extending a half-applied one.
func (p *Public) publishDepthBatch(sink *bus.Queue, bids, asks [][2]decimal.Decimal, seq, eventTime, recv int64) {
	for _, row := range bids {
		if !p.publishLevel(sink, enum.SideBid, row, seq, eventTime, recv) {
			p.skipPartialBatch()
			return
		}
	}
	for _, row := range asks {
		if !p.publishLevel(sink, enum.SideAsk, row, seq, eventTime, recv) {
			p.skipPartialBatch()
			return
		}
	}
}

func (p *Public) skipPartialBatch() {
	p.mu.Lock()
	p.seq += 2
	p.mu.Unlock()
}

// nextSeq collapses a venue [first,final] id range onto the local
// contiguous sequence. A venue gap advances the sequence by two so the
// replica observes a non-contiguous id and unsyncs.
func (p *Public) nextSeq(firstID, finalID int64) (int64, bool) {
	if p.snapshotID == 0 && p.prevFinalID == 0 {
		// nothing applied yet; deltas before the snapshot are useless
		return 0, false
	}
	if p.prevFinalID == 0 {
		// first event after the snapshot
		if finalID <= p.snapshotID {
			return 0, false
		}
		if firstID > p.snapshotID+1 {
			p.seq += 2
			p.prevFinalID = finalID
			return p.seq, true
		}
		p.seq++
		p.prevFinalID = finalID
		return p.seq, true
	}
	if firstID != p.prevFinalID+1 {
		p.seq += 2
	} else {
		p.seq++
	}
	p.prevFinalID = finalID
	return p.seq, true
}

func (p *Public) publishLevel(sink *bus.Queue, sd enum.Side, row [2]decimal.Decimal, seq, eventTime, recv int64) bool {
	price, errP := toFloat(row[0])
	qty, errQ := toFloat(row[1])
	if errP != nil || errQ != nil {
		p.drop("depthLevel")
		return true
	}
	return p.publish(sink, model.Update{
		Kind:        enum.UpdateDelta,
		Platform:    p.platform,
		Symbol:      p.symbol,
		Side:        sd,
		Price:       price,
		Quantity:    qty,
		UpdateID:    seq,
		EventTimeMs: eventTime,
		RecvTsNano:  recv,
	})
}

func (p *Public) publish(sink *bus.Queue, u model.Update) bool {
	if err := sink.TryPublish(bus.Event{Kind: bus.EventMessage, Update: u}); err != nil {
		p.metrics.IncQueueDrop()
		return false
	}
	return true
}

func (p *Public) drop(variant string) {
	p.metrics.IncDecodeDrop()
	logs.Infof("binance %s: dropped malformed %s message", p.symbol, variant)
}

func toLevels(rows [][2]decimal.Decimal) ([]model.PriceLevel, error) {
	levels := make([]model.PriceLevel, 0, len(rows))
	for _, row := range rows {
		price, err := toFloat(row[0])
		if err != nil {
			return nil, err
		}
		qty, err := toFloat(row[1])
		if err != nil {
			return nil, err
		}
		levels = append(levels, model.PriceLevel{Price: price, Quantity: qty})
	}
	return levels, nil
}
