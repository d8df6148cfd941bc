// Package signal maps feature vectors to a discrete directional state
// through a weighted composite score and asymmetric hysteresis bands.
package signal

// State is the emitted directional signal. Levels are ordered so that
// severity arithmetic stays a plain integer walk.
type State int8

const (
	StateStrongSell State = iota - 2
	StateWeakSell
	StateNeutral
	StateWeakBuy
	StateStrongBuy
)

func (s State) String() string {
	switch s {
	case StateStrongSell:
		return "STRONG_SELL"
	case StateWeakSell:
		return "WEAK_SELL"
	case StateNeutral:
		return "NEUTRAL"
	case StateWeakBuy:
		return "WEAK_BUY"
	case StateStrongBuy:
		return "STRONG_BUY"
	default:
		return "UNKNOWN"
	}
}

// collapsedLabel is the three-state naming used when strong escalation
// is disabled.
func (s State) collapsedLabel() string {
	switch {
	case s > StateNeutral:
		return "BUY"
	case s < StateNeutral:
		return "SELL"
	default:
		return "NEUTRAL"
	}
}

// abs severity: 0 neutral, 1 weak, 2 strong.
func (s State) severity() int {
	if s < 0 {
		return int(-s)
	}
	return int(s)
}
