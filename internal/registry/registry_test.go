package registry

import (
	"testing"

	"main/internal/feature"
	"main/internal/signal"
)

func TestResolveNamedPreset(t *testing.T) {
	scalp := Preset{Name: "scalp", Features: feature.DefaultConfig(), Signal: signal.DefaultConfig()}
	scalp.Features.ImbalanceWindow = 5
	scalp.Signal.ThreeState = true

	r := New(
		[]Symbol{{Name: "BTCUSDT", Venue: "binance", Preset: "scalp"}},
		[]Preset{scalp},
	)

	got := r.Resolve(r.Symbols()[0])
	if got.Name != "scalp" {
		t.Fatalf("preset name: got %q want scalp", got.Name)
	}
	if got.Features.ImbalanceWindow != 5 || !got.Signal.ThreeState {
		t.Fatalf("preset parameters lost: %+v", got)
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	r := New([]Symbol{
		{Name: "BTCUSDT", Venue: "binance"},
		{Name: "ETHUSDT", Venue: "binance", Preset: "missing"},
	}, nil)

	for _, sym := range r.Symbols() {
		got := r.Resolve(sym)
		if got.Name != "default" {
			t.Fatalf("%s preset: got %q want default", sym.Name, got.Name)
		}
		if got.Features != feature.DefaultConfig() {
			t.Fatalf("%s features should be the defaults", sym.Name)
		}
	}
}

func TestNewDropsUnnamedPresets(t *testing.T) {
	r := New(nil, []Preset{
		{Name: ""},
		{Name: "a"},
	})
	if r.PresetCount() != 1 {
		t.Fatalf("preset count: got %d want 1", r.PresetCount())
	}
}

func TestDecodePreset(t *testing.T) {
	row := presetRow{
		Name:     "tuned",
		Features: []byte(`{"imbalanceWindow": 20, "tradeFlowRetentionMs": 5000}`),
		Signal:   []byte(`{"thresholds": {"weakEnter": 0.4, "weakExit": 0.3, "strongEnter": 0.8, "strongExit": 0.7}}`),
	}

	p, err := decodePreset(row)
	if err != nil {
		t.Fatalf("decode preset: %v", err)
	}
	if p.Features.ImbalanceWindow != 20 || p.Features.TradeFlowRetention != 5000 {
		t.Fatalf("feature overrides lost: %+v", p.Features)
	}
	// unspecified fields keep the defaults
	if p.Features.BaselineBuckets != feature.DefaultConfig().BaselineBuckets {
		t.Fatalf("feature defaults lost: %+v", p.Features)
	}
	if p.Signal.Thresholds.WeakEnter != 0.4 || p.Signal.Thresholds.StrongExit != 0.7 {
		t.Fatalf("threshold overrides lost: %+v", p.Signal.Thresholds)
	}
	if p.Signal.Weights != signal.DefaultConfig().Weights {
		t.Fatalf("weight defaults lost: %+v", p.Signal.Weights)
	}
}

func TestDecodePresetEmptyBlobsKeepDefaults(t *testing.T) {
	p, err := decodePreset(presetRow{Name: "bare"})
	if err != nil {
		t.Fatalf("decode preset: %v", err)
	}
	if p.Features != feature.DefaultConfig() {
		t.Fatalf("features should default: %+v", p.Features)
	}
}

func TestDecodePresetRejectsMalformedBlob(t *testing.T) {
	if _, err := decodePreset(presetRow{Name: "bad", Features: []byte(`{`)}); err == nil {
		t.Fatal("malformed blob should be rejected")
	}
}
