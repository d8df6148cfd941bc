package signal

import (
	"github.com/bytedance/sonic"

	"main/internal/feature"
)

// Payload is the flat record handed to the relay on every emission.
type Payload struct {
	Signal     string             `json:"signal"`
	Score      float64            `json:"score"`
	Components map[string]float64 `json:"components,omitempty"`
	Symbol     string             `json:"symbol,omitempty"`
	Platform   string             `json:"platform,omitempty"`
	EventTime  int64              `json:"event_time"`
}

// BuildPayload assembles the wire record for an emitted state/score
// pair.
func (m *Machine) BuildPayload(symbol, platform string, state State, score float64, snap feature.Snapshot) Payload {
	return Payload{
		Signal:   m.StateName(state),
		Score:    score,
		Symbol:   symbol,
		Platform: platform,
		Components: map[string]float64{
			"imbalance":            snap.Imbalance,
			"delta_imbalance":      snap.DeltaImbalance,
			"trade_flow_imbalance": snap.TradeFlowImbalance,
			"wmp_deviation":        snap.WmpDeviation,
			"liquidity_delta":      snap.LiquidityDelta,
			"spread_normalized":    snap.SpreadNormalized,
			"baseline_freq":        snap.BaselineFreq,
		},
		EventTime: snap.SourceEventTime,
	}
}

// Encode serializes the payload once per emission.
func (p Payload) Encode() ([]byte, error) {
	return sonic.Marshal(p)
}
