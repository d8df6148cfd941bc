package enum

import "testing"

func TestPlatformRoundTrip(t *testing.T) {
	for _, p := range []Platform{PlatformBinance, PlatformBinanceFutures, PlatformSynthetic} {
		if !p.IsAvailable() {
			t.Fatalf("%v should be available", p)
		}
		parsed, ok := ParsePlatform(p.String())
		if !ok || parsed != p {
			t.Fatalf("round trip %v: got %v ok=%v", p, parsed, ok)
		}
	}

	if _, ok := ParsePlatform("kraken"); ok {
		t.Fatal("unknown venue name should not parse")
	}
	if _platform_beg.IsAvailable() || _platform_end.IsAvailable() {
		t.Fatal("sentinels should not be available")
	}
}

func TestUpdateKindNames(t *testing.T) {
	names := map[UpdateKind]string{
		UpdateSnapshot:  "snapshot",
		UpdateDelta:     "delta",
		UpdateTopOfBook: "top_of_book",
		UpdateTrade:     "trade",
	}
	for k, want := range names {
		if !k.IsAvailable() {
			t.Fatalf("%v should be available", k)
		}
		if k.String() != want {
			t.Fatalf("name mismatch: got %q want %q", k.String(), want)
		}
	}
	if _update_kind_beg.IsAvailable() {
		t.Fatal("sentinel should not be available")
	}
}

func TestSideNames(t *testing.T) {
	if SideBid.String() != "bid" || SideAsk.String() != "ask" {
		t.Fatal("side name mismatch")
	}
	if Side(9).IsAvailable() {
		t.Fatal("out-of-range side should not be available")
	}
}
