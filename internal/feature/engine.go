package feature

import (
	"main/internal/book"
	"main/internal/model"
)

// Snapshot is the immutable feature vector handed to the signal state
// machine, produced once per triggering update. A feature whose window
// is starved is reported as zero and the corresponding Has* flag is
// false.
type Snapshot struct {
	Imbalance          float64
	DeltaImbalance     float64
	TradeFlowImbalance float64
	WmpDeviation       float64
	LiquidityDelta     float64
	SpreadNormalized   float64
	BaselineFreq       float64
	SourceEventTime    int64

	HasImbalance    float64 // 1 when book features are present
	HasTradeFlow    float64
	HasBaselineFreq float64
}

// Config sizes the engine's windows.
type Config struct {
	ImbalanceWindow    int     `json:"imbalanceWindow"`
	TradeFlowRetention int64   `json:"tradeFlowRetentionMs"`
	BaselineBuckets    int     `json:"baselineBuckets"`
	BaselineMinFill    int     `json:"baselineMinFill"`
	BaselineMultiplier float64 `json:"baselineMultiplier"`
	BaselineFloor      float64 `json:"baselineFloor"`
}

// DefaultConfig mirrors the daemon defaults.
func DefaultConfig() Config {
	return Config{
		ImbalanceWindow:    10,
		TradeFlowRetention: 2000,
		BaselineBuckets:    60,
		BaselineMinFill:    10,
		BaselineMultiplier: 3.0,
		BaselineFloor:      1.0,
	}
}

// Engine consumes book and trade updates for one feed and keeps the
// sliding windows behind the derived features. Owned by a single feed
// goroutine; no locking.
type Engine struct {
	cfg Config

	imbalances *Window
	flow       *TradeFlow
	baseline   *Baseline

	prevBidQty float64
	prevAskQty float64
	hasPrev    bool

	// last book-derived values, reused when a trade triggers the
	// snapshot between book updates
	bookImbalance  float64
	bookDeltaImb   float64
	bookWmpDev     float64
	bookLiqDelta   float64
	bookSpreadNorm float64
	bookValid      bool
}

// NewEngine builds an engine from the window configuration.
func NewEngine(cfg Config) *Engine {
	if cfg.ImbalanceWindow < 2 {
		cfg.ImbalanceWindow = 2
	}
	return &Engine{
		cfg:        cfg,
		imbalances: NewWindow(cfg.ImbalanceWindow),
		flow:       NewTradeFlow(cfg.TradeFlowRetention),
		baseline:   NewBaseline(cfg.BaselineBuckets, cfg.BaselineMinFill),
	}
}

// OnBookUpdate recomputes book-derived features against a synced
// replica. It refuses to compute against an unsynced book.
func (e *Engine) OnBookUpdate(replica *book.Replica) (Snapshot, error) {
	bid, ask, err := replica.BestBidAsk()
	if err != nil {
		return Snapshot{}, err
	}

	totalQty := bid.Quantity + ask.Quantity
	if totalQty > 0 {
		e.bookImbalance = bid.Quantity / totalQty
		e.imbalances.Push(e.bookImbalance)
		e.bookDeltaImb = 0
		if delta, ok := e.imbalances.Delta(); ok {
			e.bookDeltaImb = delta
		}

		wmp := (bid.Price*ask.Quantity + ask.Price*bid.Quantity) / totalQty
		mid := (bid.Price + ask.Price) / 2
		e.bookWmpDev = wmp - mid
		e.bookSpreadNorm = 0
		if mid > 0 {
			e.bookSpreadNorm = (ask.Price - bid.Price) / mid
		}
		e.bookValid = true
	}

	e.bookLiqDelta = 0
	if e.hasPrev {
		e.bookLiqDelta = (bid.Quantity - e.prevBidQty) - (ask.Quantity - e.prevAskQty)
	}
	e.prevBidQty = bid.Quantity
	e.prevAskQty = ask.Quantity
	e.hasPrev = true

	return e.buildSnapshot(replica.LastEventTime()), nil
}

// OnTrade records a trade sample and returns the refreshed feature
// vector. Book-derived features are carried from the windows; callers
// that need them fresh evaluate on the next book update.
func (e *Engine) OnTrade(s model.TradeSample) Snapshot {
	e.flow.Push(s)
	e.baseline.Observe(s.TimeMs)
	return e.buildSnapshot(s.TimeMs)
}

// buildSnapshot combines the cached book-derived values with the
// trade-side windows.
func (e *Engine) buildSnapshot(eventTimeMs int64) Snapshot {
	snap := Snapshot{SourceEventTime: eventTimeMs}

	if e.bookValid {
		snap.Imbalance = e.bookImbalance
		snap.DeltaImbalance = e.bookDeltaImb
		snap.WmpDeviation = e.bookWmpDev
		snap.LiquidityDelta = e.bookLiqDelta
		snap.SpreadNormalized = e.bookSpreadNorm
		snap.HasImbalance = 1
	}
	if tfi, ok := e.flow.ImbalanceAt(eventTimeMs); ok {
		snap.TradeFlowImbalance = tfi
		snap.HasTradeFlow = 1
	}
	if freq, ok := e.baseline.Normalized(e.baseline.CurrentRate(), e.cfg.BaselineMultiplier, e.cfg.BaselineFloor); ok {
		snap.BaselineFreq = freq
		snap.HasBaselineFreq = 1
	}
	return snap
}

// ResetBook drops the book-derived windows and the liquidity-delta
// anchor for a mid-session resync; the first observation afterwards is
// never treated as a delta from zero. Trade windows survive because the
// trade stream is unaffected by a book resync.
func (e *Engine) ResetBook() {
	e.imbalances.Reset()
	e.prevBidQty = 0
	e.prevAskQty = 0
	e.hasPrev = false
	e.bookImbalance = 0
	e.bookDeltaImb = 0
	e.bookWmpDev = 0
	e.bookLiqDelta = 0
	e.bookSpreadNorm = 0
	e.bookValid = false
}

// Reset drops everything, for a reconnect.
func (e *Engine) Reset() {
	e.ResetBook()
	e.flow.Reset()
	e.baseline.Reset()
}
