package enum

// Side identifies the book side a level belongs to.
type Side uint8

const (
	_side_beg Side = iota
	SideBid
	SideAsk
	_side_end
)

func (s Side) IsAvailable() bool {
	return s > _side_beg && s < _side_end
}

func (s Side) String() string {
	switch s {
	case SideBid:
		return "bid"
	case SideAsk:
		return "ask"
	default:
		return "unknown"
	}
}
