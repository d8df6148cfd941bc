package feature

// Baseline counts trades in one-second buckets over a fixed ring,
// giving a market-speed reference for normalizing instantaneous trade
// frequency. Bucket advancement is driven by trade timestamps.
type Baseline struct {
	buckets    []int
	currentSec int64
	filled     int
	total      int
	minFill    int
}

// NewBaseline builds a ring of `buckets` one-second bins. minFill is how
// many distinct seconds must be observed before the baseline is usable.
func NewBaseline(buckets, minFill int) *Baseline {
	if buckets < 1 {
		buckets = 1
	}
	if minFill < 1 {
		minFill = 1
	}
	if minFill > buckets {
		minFill = buckets
	}
	return &Baseline{
		buckets: make([]int, buckets),
		minFill: minFill,
	}
}

// Observe records one trade at the given event time.
func (b *Baseline) Observe(tsMs int64) {
	sec := tsMs / 1000
	b.advance(sec)
	idx := int(sec % int64(len(b.buckets)))
	if idx < 0 {
		idx += len(b.buckets)
	}
	b.buckets[idx]++
	b.total++
}

// advance clears buckets between the last seen second and sec. A jump
// wider than the ring clears everything.
func (b *Baseline) advance(sec int64) {
	if b.filled == 0 {
		b.currentSec = sec
		b.filled = 1
		return
	}
	if sec <= b.currentSec {
		return
	}
	gap := sec - b.currentSec
	if gap >= int64(len(b.buckets)) {
		for i := range b.buckets {
			b.buckets[i] = 0
		}
		b.total = 0
		b.filled = len(b.buckets)
		b.currentSec = sec
		return
	}
	for s := b.currentSec + 1; s <= sec; s++ {
		idx := int(s % int64(len(b.buckets)))
		if idx < 0 {
			idx += len(b.buckets)
		}
		b.total -= b.buckets[idx]
		b.buckets[idx] = 0
	}
	b.filled += int(gap)
	if b.filled > len(b.buckets) {
		b.filled = len(b.buckets)
	}
	b.currentSec = sec
}

// Ready reports whether enough seconds elapsed for the baseline to mean
// anything.
func (b *Baseline) Ready() bool {
	return b.filled >= b.minFill
}

// Rate is the average trades-per-second across the observed span.
func (b *Baseline) Rate() float64 {
	if b.filled == 0 {
		return 0
	}
	return float64(b.total) / float64(b.filled)
}

// CurrentRate is the trade count of the in-progress second.
func (b *Baseline) CurrentRate() float64 {
	if b.filled == 0 {
		return 0
	}
	idx := int(b.currentSec % int64(len(b.buckets)))
	if idx < 0 {
		idx += len(b.buckets)
	}
	return float64(b.buckets[idx])
}

// Normalized bounds the observed trade frequency into [0,1] relative to
// the baseline: min(observed, cap)/cap where cap is
// max(baseline*multiplier, floor).
func (b *Baseline) Normalized(observed, multiplier, floor float64) (float64, bool) {
	if !b.Ready() {
		return 0, false
	}
	ceiling := b.Rate() * multiplier
	if ceiling < floor {
		ceiling = floor
	}
	if ceiling <= 0 {
		return 0, false
	}
	if observed > ceiling {
		observed = ceiling
	}
	if observed < 0 {
		observed = 0
	}
	return observed / ceiling, true
}

func (b *Baseline) Reset() {
	for i := range b.buckets {
		b.buckets[i] = 0
	}
	b.currentSec = 0
	b.filled = 0
	b.total = 0
}
