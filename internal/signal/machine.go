package signal

import (
	"math"

	"main/internal/feature"
)

// Weights blends the feature vector into one composite score. The
// imbalance ratio is centered so 0.5 (balanced) contributes nothing.
type Weights struct {
	Imbalance      float64 `json:"imbalance"`
	DeltaImbalance float64 `json:"deltaImbalance"`
	TradeFlow      float64 `json:"tradeFlow"`
	WmpDeviation   float64 `json:"wmpDeviation"`
	LiquidityDelta float64 `json:"liquidityDelta"`
	BaselineFreq   float64 `json:"baselineFreq"`
}

// Thresholds are the hysteresis bands. Each escalation threshold is
// strictly above the matching de-escalation threshold, so a score
// oscillating inside the gap cannot chatter between adjacent states.
// Values are for the buy side; the sell side mirrors with negated
// signs.
type Thresholds struct {
	WeakEnter   float64 `json:"weakEnter"`
	WeakExit    float64 `json:"weakExit"`
	StrongEnter float64 `json:"strongEnter"`
	StrongExit  float64 `json:"strongExit"`
}

// ChangeThresholds gate re-emission while the state holds. A strong
// state uses a wider gate to suppress noise; near neutral the gate is
// narrow so fresh pressure is reported quickly.
type ChangeThresholds struct {
	Neutral float64 `json:"neutral"`
	Weak    float64 `json:"weak"`
	Strong  float64 `json:"strong"`
}

// Config parameterizes one state machine instance.
type Config struct {
	Weights    Weights          `json:"weights"`
	Thresholds Thresholds       `json:"thresholds"`
	Change     ChangeThresholds `json:"change"`
	// ThreeState disables strong escalation and collapses labels to
	// NEUTRAL/BUY/SELL.
	ThreeState bool `json:"threeState"`
}

// DefaultConfig carries the preset the daemon falls back to.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Imbalance:      0.35,
			DeltaImbalance: 0.15,
			TradeFlow:      0.30,
			WmpDeviation:   0.05,
			LiquidityDelta: 0.05,
			BaselineFreq:   0.10,
		},
		Thresholds: Thresholds{
			WeakEnter:   0.25,
			WeakExit:    0.15,
			StrongEnter: 0.60,
			StrongExit:  0.45,
		},
		Change: ChangeThresholds{
			Neutral: 0.05,
			Weak:    0.10,
			Strong:  0.20,
		},
	}
}

// Machine is the hysteresis-gated signal state machine. It must only be
// evaluated from the single goroutine that owns it.
type Machine struct {
	cfg Config

	current          State
	lastEmittedScore float64
}

// NewMachine starts in NEUTRAL with a zero emitted score.
func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// Score folds a feature snapshot into the composite score. Unavailable
// features contribute zero rather than blocking evaluation.
func (m *Machine) Score(snap feature.Snapshot) float64 {
	w := m.cfg.Weights

	score := 0.0
	if snap.HasImbalance > 0 {
		score += w.Imbalance * (snap.Imbalance - 0.5) * 2
		score += w.DeltaImbalance * snap.DeltaImbalance
		score += w.WmpDeviation * clamp(snap.WmpDeviation, -1, 1)
		score += w.LiquidityDelta * clamp(snap.LiquidityDelta, -1, 1)
	}
	if snap.HasTradeFlow > 0 {
		score += w.TradeFlow * snap.TradeFlowImbalance
	}
	if snap.HasBaselineFreq > 0 {
		// Baseline frequency is directionless; it scales conviction in
		// the direction already accumulated.
		score += w.BaselineFreq * snap.BaselineFreq * sign(score)
	}
	return clamp(score, -1, 1)
}

// Evaluate advances the machine with a new snapshot. The last result
// reports whether the update qualifies for emission: a state change, or
// a materially changed score within the same state.
func (m *Machine) Evaluate(snap feature.Snapshot) (State, float64, bool) {
	score := m.Score(snap)
	next, emit := m.Step(score)
	return next, score, emit
}

// Step advances the machine with an already-composited score.
func (m *Machine) Step(score float64) (State, bool) {
	next := m.next(score)

	emit := next != m.current ||
		math.Abs(score-m.lastEmittedScore) > m.changeThreshold()

	m.current = next
	if emit {
		m.lastEmittedScore = score
	}
	return next, emit
}

// next applies the hysteresis ladder: at most one severity step per
// evaluation, except a score beyond the outermost escalate threshold
// jumps straight to the extreme state.
func (m *Machine) next(score float64) State {
	t := m.cfg.Thresholds

	if !m.cfg.ThreeState {
		if score >= t.StrongEnter {
			return StateStrongBuy
		}
		if score <= -t.StrongEnter {
			return StateStrongSell
		}
	}

	switch m.current {
	case StateNeutral:
		if score >= t.WeakEnter {
			return StateWeakBuy
		}
		if score <= -t.WeakEnter {
			return StateWeakSell
		}
	case StateWeakBuy:
		if score < t.WeakExit {
			return StateNeutral
		}
	case StateWeakSell:
		if score > -t.WeakExit {
			return StateNeutral
		}
	case StateStrongBuy:
		if score < t.StrongExit {
			return StateWeakBuy
		}
	case StateStrongSell:
		if score > -t.StrongExit {
			return StateWeakSell
		}
	}
	return m.current
}

func (m *Machine) changeThreshold() float64 {
	switch m.current.severity() {
	case 2:
		return m.cfg.Change.Strong
	case 1:
		return m.cfg.Change.Weak
	default:
		return m.cfg.Change.Neutral
	}
}

// StateName resolves the wire label under the configured naming mode.
func (m *Machine) StateName(s State) string {
	if m.cfg.ThreeState {
		return s.collapsedLabel()
	}
	return s.String()
}

func (m *Machine) Current() State { return m.current }

func (m *Machine) LastEmittedScore() float64 { return m.lastEmittedScore }

// Reset returns to the initial state after an upstream disconnect or
// resync.
func (m *Machine) Reset() {
	m.current = StateNeutral
	m.lastEmittedScore = 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
