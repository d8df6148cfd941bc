// Package book maintains a local replica of one venue's order book,
// fed by snapshot, delta or top-of-book updates from a single feed
// goroutine. A replica is never shared across goroutines.
package book

import (
	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// Replica is the authoritative local copy of a venue book. While synced,
// best bid is strictly below best ask; a crossed book is a resync
// trigger, not a valid state.
type Replica struct {
	bids *side
	asks *side

	depthLimit    int
	lastUpdateID  int64
	lastEventTime int64
	synced        bool
}

// NewReplica creates an empty, unsynced replica. depthLimit bounds the
// retained levels per side; zero keeps everything the venue sends.
func NewReplica(depthLimit int) *Replica {
	return &Replica{
		bids:       newSide(true),
		asks:       newSide(false),
		depthLimit: depthLimit,
	}
}

// ApplySnapshot replaces the whole book. A snapshot that arrives crossed
// resets the replica to unsynced instead of surfacing an invalid book.
func (r *Replica) ApplySnapshot(bids, asks []model.PriceLevel, updateID, eventTimeMs int64) error {
	r.bids.replace(bids, r.depthLimit)
	r.asks.replace(asks, r.depthLimit)
	r.lastUpdateID = updateID
	r.lastEventTime = eventTimeMs

	if r.crossed() {
		r.Reset()
		return exception.ErrCrossedBook
	}

	r.synced = true
	return nil
}

// ApplyDelta applies one incremental level change. The update id must be
// the replica's current id (another level of the same venue update) or
// its immediate successor; anything else unsyncs the replica without
// touching the book, and the caller must request a fresh snapshot.
func (r *Replica) ApplyDelta(sd enum.Side, price, quantity float64, updateID, eventTimeMs int64) error {
	if !r.synced {
		return exception.ErrNotSynced
	}
	if updateID != r.lastUpdateID && updateID != r.lastUpdateID+1 {
		r.synced = false
		return exception.ErrSequenceGap
	}
	if quantity > 0 && r.wouldCross(sd, price) {
		// the crossed level is discarded, not applied
		r.synced = false
		return exception.ErrCrossedBook
	}

	switch sd {
	case enum.SideBid:
		r.bids.upsert(price, quantity)
		r.bids.trim(r.depthLimit)
	case enum.SideAsk:
		r.asks.upsert(price, quantity)
		r.asks.trim(r.depthLimit)
	default:
		return exception.ErrInvalidArgument
	}

	r.lastUpdateID = updateID
	r.lastEventTime = eventTimeMs
	return nil
}

// ApplyTopOfBook overwrites both best levels for feeds that expose no
// sequence numbers. Staleness cannot be detected on such feeds; the
// replica trusts arrival order.
func (r *Replica) ApplyTopOfBook(bid, bidQty, ask, askQty float64, eventTimeMs int64) error {
	if bidQty > 0 && askQty > 0 && bid >= ask {
		// the crossed tick is discarded, not applied
		r.synced = false
		return exception.ErrCrossedBook
	}

	r.bids.reset()
	r.asks.reset()
	if bidQty > 0 {
		r.bids.upsert(bid, bidQty)
	}
	if askQty > 0 {
		r.asks.upsert(ask, askQty)
	}
	r.lastEventTime = eventTimeMs
	r.synced = true
	return nil
}

// BestBidAsk returns the top of both sides. It fails while unsynced or
// while either side is empty; an empty side never yields a zero price.
func (r *Replica) BestBidAsk() (model.PriceLevel, model.PriceLevel, error) {
	if !r.synced {
		return model.PriceLevel{}, model.PriceLevel{}, exception.ErrNotSynced
	}
	bid, okBid := r.bids.best()
	ask, okAsk := r.asks.best()
	if !okBid || !okAsk {
		return model.PriceLevel{}, model.PriceLevel{}, exception.ErrNotSynced
	}
	return bid, ask, nil
}

// Reset returns the replica to its post-connect state.
func (r *Replica) Reset() {
	r.bids.reset()
	r.asks.reset()
	r.lastUpdateID = 0
	r.lastEventTime = 0
	r.synced = false
}

func (r *Replica) Synced() bool { return r.synced }

func (r *Replica) LastUpdateID() int64 { return r.lastUpdateID }

func (r *Replica) LastEventTime() int64 { return r.lastEventTime }

func (r *Replica) BidDepth() int { return r.bids.len() }

func (r *Replica) AskDepth() int { return r.asks.len() }

// crossed reports bestBid >= bestAsk. A book with an empty side cannot
// be crossed.
func (r *Replica) crossed() bool {
	bid, okBid := r.bids.best()
	ask, okAsk := r.asks.best()
	return okBid && okAsk && bid.Price >= ask.Price
}

// wouldCross reports whether inserting a level at price on sd would
// cross the opposite side's current best.
func (r *Replica) wouldCross(sd enum.Side, price float64) bool {
	switch sd {
	case enum.SideBid:
		ask, ok := r.asks.best()
		return ok && price >= ask.Price
	case enum.SideAsk:
		bid, ok := r.bids.best()
		return ok && price <= bid.Price
	default:
		return false
	}
}
