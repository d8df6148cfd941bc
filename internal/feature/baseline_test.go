package feature

import (
	"math"
	"testing"
)

func TestBaselineReadiness(t *testing.T) {
	b := NewBaseline(60, 3)
	if b.Ready() {
		t.Fatal("fresh baseline should not be ready")
	}

	b.Observe(0)
	b.Observe(1000)
	if b.Ready() {
		t.Fatal("two observed seconds should not satisfy minFill=3")
	}
	b.Observe(2000)
	if !b.Ready() {
		t.Fatal("three observed seconds should be ready")
	}
}

func TestBaselineRates(t *testing.T) {
	b := NewBaseline(60, 3)
	b.Observe(0)
	b.Observe(1000)
	b.Observe(2000)
	b.Observe(2100)

	if math.Abs(b.Rate()-4.0/3.0) > 1e-12 {
		t.Fatalf("rate mismatch: got %v want %v", b.Rate(), 4.0/3.0)
	}
	if b.CurrentRate() != 2 {
		t.Fatalf("current rate: got %v want 2", b.CurrentRate())
	}

	v, ok := b.Normalized(b.CurrentRate(), 3, 1)
	if !ok {
		t.Fatal("normalized should be available once ready")
	}
	// ceiling = rate*3 = 4, observed 2
	if math.Abs(v-0.5) > 1e-12 {
		t.Fatalf("normalized mismatch: got %v want 0.5", v)
	}
}

func TestBaselineNotReadyReportsUnavailable(t *testing.T) {
	b := NewBaseline(60, 10)
	b.Observe(0)
	if _, ok := b.Normalized(1, 3, 1); ok {
		t.Fatal("normalized before minFill should be unavailable")
	}
}

func TestBaselineNormalizedBounds(t *testing.T) {
	b := NewBaseline(60, 1)
	b.Observe(0)

	// ceiling = max(rate*mult, floor) = max(1*2, 5) = 5
	v, ok := b.Normalized(100, 2, 5)
	if !ok || v != 1 {
		t.Fatalf("over-ceiling observation should clamp to 1, got %v ok=%v", v, ok)
	}
	v, ok = b.Normalized(-3, 2, 5)
	if !ok || v != 0 {
		t.Fatalf("negative observation should clamp to 0, got %v ok=%v", v, ok)
	}
}

func TestBaselineWideGapClearsRing(t *testing.T) {
	b := NewBaseline(60, 3)
	for i := int64(0); i < 5; i++ {
		b.Observe(i * 1000)
	}

	// jump beyond the ring span resets every bucket
	b.Observe(500_000)
	if math.Abs(b.Rate()-1.0/60.0) > 1e-12 {
		t.Fatalf("rate after wide gap: got %v want %v", b.Rate(), 1.0/60.0)
	}
	if b.CurrentRate() != 1 {
		t.Fatalf("current rate after wide gap: got %v want 1", b.CurrentRate())
	}
}
