// Package feature derives microstructure features from book and trade
// updates. Everything here is pure computation over exclusively-owned
// state; no I/O, no locking.
package feature

import "math"

// Window is a fixed-capacity FIFO ring of samples with incrementally
// maintained aggregates. Aggregates are never recomputed from scratch
// on the hot path.
type Window struct {
	samples  []float64
	head     int
	size     int
	capacity int
	sum      float64
	sumSq    float64
}

// NewWindow allocates a window; capacity below one is clamped to one.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		samples:  make([]float64, capacity),
		capacity: capacity,
	}
}

// Push appends a sample, evicting the oldest one when full.
func (w *Window) Push(v float64) {
	if w.size == w.capacity {
		oldest := w.samples[w.head]
		w.sum -= oldest
		w.sumSq -= oldest * oldest
		w.samples[w.head] = v
		w.head = (w.head + 1) % w.capacity
	} else {
		w.samples[(w.head+w.size)%w.capacity] = v
		w.size++
	}
	w.sum += v
	w.sumSq += v * v
}

func (w *Window) Len() int { return w.size }

func (w *Window) Full() bool { return w.size == w.capacity }

func (w *Window) Sum() float64 { return w.sum }

func (w *Window) Mean() float64 {
	if w.size == 0 {
		return 0
	}
	return w.sum / float64(w.size)
}

// Delta is newest minus oldest. It needs at least two samples.
func (w *Window) Delta() (float64, bool) {
	if w.size < 2 {
		return 0, false
	}
	oldest := w.samples[w.head]
	newest := w.samples[(w.head+w.size-1)%w.capacity]
	return newest - oldest, true
}

// StdDev is the population standard deviation of the current samples.
func (w *Window) StdDev() float64 {
	if w.size < 2 {
		return 0
	}
	mean := w.Mean()
	variance := w.sumSq/float64(w.size) - mean*mean
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

func (w *Window) Reset() {
	w.head = 0
	w.size = 0
	w.sum = 0
	w.sumSq = 0
}
