package enum

// UpdateKind describes the meaning of a normalized feed update.
type UpdateKind uint8

const (
	_update_kind_beg UpdateKind = iota
	UpdateSnapshot
	UpdateDelta
	UpdateTopOfBook
	UpdateTrade
	_update_kind_end
)

func (k UpdateKind) IsAvailable() bool {
	return k > _update_kind_beg && k < _update_kind_end
}

func (k UpdateKind) String() string {
	switch k {
	case UpdateSnapshot:
		return "snapshot"
	case UpdateDelta:
		return "delta"
	case UpdateTopOfBook:
		return "top_of_book"
	case UpdateTrade:
		return "trade"
	default:
		return "unknown"
	}
}
