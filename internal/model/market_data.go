package model

import "main/internal/model/enum"

// PriceLevel is one resting level of a book side. A level with zero
// quantity is absent, never present-with-zero.
type PriceLevel struct {
	Price    float64
	Quantity float64
}

// Update is the normalized shape every feed adapter produces. Exactly one
// kind is set per update; unrelated fields are zero.
type Update struct {
	Kind     enum.UpdateKind
	Platform enum.Platform
	Symbol   string

	// snapshot
	Bids []PriceLevel
	Asks []PriceLevel

	// delta
	Side     enum.Side
	Price    float64
	Quantity float64
	UpdateID int64

	// top of book
	BidPrice float64
	BidQty   float64
	AskPrice float64
	AskQty   float64

	// trade
	IsAggressorBuy bool

	// venue-reported event time, milliseconds since epoch
	EventTimeMs int64
	// local receive time, nanoseconds, for latency accounting
	RecvTsNano int64
}

// TradeSample is the immutable per-trade record retained by the
// trade-flow window.
type TradeSample struct {
	TimeMs         int64
	Quantity       float64
	IsAggressorBuy bool
}
