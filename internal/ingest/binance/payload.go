package binance

import (
	"strconv"

	"github.com/yanun0323/decimal"
)

// wire payloads for the raw combined websocket endpoint; numeric fields
// arrive as JSON strings and are decoded as decimals before conversion.

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type subscribeResponse struct {
	ID     int64 `json:"id"`
	Result any   `json:"result"`
}

// envelope is the tagged-variant sniff decoded once per message.
type envelope struct {
	EventType    string `json:"e"`
	LastUpdateID int64  `json:"lastUpdateId"`
}

// BookTicker is the best bid/ask stream. Spot omits the event time.
type BookTicker struct {
	UpdateID  int64           `json:"u"`
	Symbol    string          `json:"s"`
	BidPrice  decimal.Decimal `json:"b"`
	BidQty    decimal.Decimal `json:"B"`
	AskPrice  decimal.Decimal `json:"a"`
	AskQty    decimal.Decimal `json:"A"`
	EventTime int64           `json:"E"`
}

// Trade is a single executed trade.
type Trade struct {
	EventType    string          `json:"e"`
	EventTime    int64           `json:"E"`
	Symbol       string          `json:"s"`
	Price        decimal.Decimal `json:"p"`
	Quantity     decimal.Decimal `json:"q"`
	TradeTime    int64           `json:"T"`
	IsBuyerMaker bool            `json:"m"`
}

// DepthUpdate is one 'Diff. Depth Stream' event.
type DepthUpdate struct {
	EventType     string               `json:"e"`
	EventTime     int64                `json:"E"`
	Symbol        string               `json:"s"`
	FirstUpdateID int64                `json:"U"`
	FinalUpdateID int64                `json:"u"`
	Bids          [][2]decimal.Decimal `json:"b"` // [0]price [1]quantity
	Asks          [][2]decimal.Decimal `json:"a"`
}

// PartialDepth is one 'Partial Book Depth Stream' message, used as the
// snapshot source.
type PartialDepth struct {
	LastUpdateID int64                `json:"lastUpdateId"`
	Bids         [][2]decimal.Decimal `json:"bids"`
	Asks         [][2]decimal.Decimal `json:"asks"`
}

// toFloat converts a wire decimal; malformed values surface as decode
// errors, not zeros. The wire value is unvalidated at decode time and
// Decimal's accessors panic on garbage, so it is read as its raw string.
func toFloat(d decimal.Decimal) (float64, error) {
	v, err := strconv.ParseFloat(string(d), 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}
