package binance

import (
	"math"
	"testing"

	"github.com/bytedance/sonic"
)

func TestDecodeDepthUpdate(t *testing.T) {
	payload := []byte(`{"e":"depthUpdate","E":1700000000123,"s":"BTCUSDT","U":157,"u":160,"b":[["100.10","1.5"],["99","0"]],"a":[["100.20","3"]]}`)

	var du DepthUpdate
	if err := sonic.Unmarshal(payload, &du); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if du.EventType != "depthUpdate" || du.Symbol != "BTCUSDT" {
		t.Fatalf("header mismatch: %+v", du)
	}
	if du.FirstUpdateID != 157 || du.FinalUpdateID != 160 {
		t.Fatalf("update ids mismatch: U=%d u=%d", du.FirstUpdateID, du.FinalUpdateID)
	}

	bids, err := toLevels(du.Bids)
	if err != nil {
		t.Fatalf("bid levels: %v", err)
	}
	if len(bids) != 2 {
		t.Fatalf("bid count: got %d want 2", len(bids))
	}
	if math.Abs(bids[0].Price-100.10) > 1e-12 || math.Abs(bids[0].Quantity-1.5) > 1e-12 {
		t.Fatalf("bid0 mismatch: %+v", bids[0])
	}
	// zero quantity travels through decode untouched; removal is the
	// replica's concern
	if bids[1].Quantity != 0 {
		t.Fatalf("bid1 quantity: got %v want 0", bids[1].Quantity)
	}

	asks, err := toLevels(du.Asks)
	if err != nil {
		t.Fatalf("ask levels: %v", err)
	}
	if len(asks) != 1 || asks[0].Price != 100.20 {
		t.Fatalf("asks mismatch: %+v", asks)
	}
}

func TestDecodeTrade(t *testing.T) {
	payload := []byte(`{"e":"trade","E":1700000000123,"s":"BTCUSDT","p":"30000.01","q":"0.25","T":1700000000120,"m":true}`)

	var tr Trade
	if err := sonic.Unmarshal(payload, &tr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	price, err := toFloat(tr.Price)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if math.Abs(price-30000.01) > 1e-9 {
		t.Fatalf("price mismatch: got %v", price)
	}
	qty, err := toFloat(tr.Quantity)
	if err != nil {
		t.Fatalf("quantity: %v", err)
	}
	if math.Abs(qty-0.25) > 1e-12 {
		t.Fatalf("quantity mismatch: got %v", qty)
	}
	if tr.TradeTime != 1700000000120 {
		t.Fatalf("trade time mismatch: got %d", tr.TradeTime)
	}
	if !tr.IsBuyerMaker {
		t.Fatal("buyer-maker flag lost")
	}
}

func TestDecodeBookTicker(t *testing.T) {
	payload := []byte(`{"u":400900217,"s":"BTCUSDT","b":"100.10","B":"8","a":"100.20","A":"2"}`)

	var bt BookTicker
	if err := sonic.Unmarshal(payload, &bt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if bt.Symbol != "BTCUSDT" {
		t.Fatalf("symbol mismatch: %q", bt.Symbol)
	}

	bid, _ := toFloat(bt.BidPrice)
	ask, _ := toFloat(bt.AskPrice)
	bidQty, _ := toFloat(bt.BidQty)
	askQty, _ := toFloat(bt.AskQty)
	if bid != 100.10 || ask != 100.20 || bidQty != 8 || askQty != 2 {
		t.Fatalf("levels mismatch: bid=%v/%v ask=%v/%v", bid, bidQty, ask, askQty)
	}
	// spot bookTicker carries no event time
	if bt.EventTime != 0 {
		t.Fatalf("event time should be absent, got %d", bt.EventTime)
	}
}

func TestDecodeEnvelopeVariants(t *testing.T) {
	testCases := []struct {
		desc      string
		payload   string
		eventType string
		snapshot  bool
	}{
		{"trade", `{"e":"trade","E":1,"s":"BTCUSDT"}`, "trade", false},
		{"depth update", `{"e":"depthUpdate","E":1,"s":"BTCUSDT"}`, "depthUpdate", false},
		{"partial depth", `{"lastUpdateId":160,"bids":[],"asks":[]}`, "", true},
		{"book ticker", `{"u":1,"s":"BTCUSDT","b":"1","B":"1","a":"2","A":"1"}`, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			var env envelope
			if err := sonic.Unmarshal([]byte(tc.payload), &env); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if env.EventType != tc.eventType {
				t.Fatalf("event type: got %q want %q", env.EventType, tc.eventType)
			}
			if got := env.EventType == "" && env.LastUpdateID > 0; got != tc.snapshot {
				t.Fatalf("snapshot sniff: got %v want %v", got, tc.snapshot)
			}
		})
	}
}

func TestToFloatRejectsMalformedValues(t *testing.T) {
	var tr Trade
	if err := sonic.Unmarshal([]byte(`{"e":"trade","p":"30000.01","q":"0.25"}`), &tr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := toFloat(tr.Price); err != nil {
		t.Fatalf("well-formed value rejected: %v", err)
	}

	// garbage from the wire must come back as an error, not a panic
	if err := sonic.Unmarshal([]byte(`{"e":"trade","p":"garbage","q":"0.25"}`), &tr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := toFloat(tr.Price); err == nil {
		t.Fatal("malformed value should be rejected")
	}
}
