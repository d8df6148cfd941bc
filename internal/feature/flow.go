package feature

import "main/internal/model"

// TradeFlow tracks aggressive buy/sell volume over a trailing time
// window. Pruning happens on every trade arrival, keyed by the trade's
// own timestamp, so the window stays causally consistent with trade
// time instead of wall-clock timers.
type TradeFlow struct {
	retentionMs int64
	samples     []model.TradeSample
	buyVolume   float64
	sellVolume  float64
}

// NewTradeFlow builds a window with the given retention in milliseconds.
func NewTradeFlow(retentionMs int64) *TradeFlow {
	if retentionMs <= 0 {
		retentionMs = 1000
	}
	return &TradeFlow{retentionMs: retentionMs}
}

// Push records a trade and evicts every sample older than the retention
// horizon relative to that trade.
func (f *TradeFlow) Push(s model.TradeSample) {
	f.samples = append(f.samples, s)
	if s.IsAggressorBuy {
		f.buyVolume += s.Quantity
	} else {
		f.sellVolume += s.Quantity
	}
	f.PruneBefore(s.TimeMs - f.retentionMs)
}

// PruneBefore evicts samples at or before the cutoff timestamp.
func (f *TradeFlow) PruneBefore(cutoffMs int64) {
	idx := 0
	for idx < len(f.samples) && f.samples[idx].TimeMs <= cutoffMs {
		old := f.samples[idx]
		if old.IsAggressorBuy {
			f.buyVolume -= old.Quantity
		} else {
			f.sellVolume -= old.Quantity
		}
		idx++
	}
	if idx > 0 {
		f.samples = f.samples[:copy(f.samples, f.samples[idx:])]
	}
}

// Imbalance is (buy-sell)/(buy+sell) over the retained samples. The
// second value is false when no volume is retained.
func (f *TradeFlow) Imbalance() (float64, bool) {
	total := f.buyVolume + f.sellVolume
	if total <= 0 {
		return 0, false
	}
	return (f.buyVolume - f.sellVolume) / total, true
}

// ImbalanceAt prunes against the caller's reference time first, so a
// query after a quiet stretch does not count expired samples.
func (f *TradeFlow) ImbalanceAt(nowMs int64) (float64, bool) {
	f.PruneBefore(nowMs - f.retentionMs)
	return f.Imbalance()
}

func (f *TradeFlow) Len() int { return len(f.samples) }

func (f *TradeFlow) Reset() {
	f.samples = f.samples[:0]
	f.buyVolume = 0
	f.sellVolume = 0
}
