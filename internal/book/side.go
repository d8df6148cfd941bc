package book

import (
	"sort"

	"main/internal/model"
)

// side keeps price levels sorted best-first: descending for bids,
// ascending for asks. Keys are unique prices.
type side struct {
	levels []model.PriceLevel
	desc   bool
}

func newSide(desc bool) *side {
	return &side{desc: desc}
}

// search returns the insertion index for price and whether an exact
// level already exists there.
func (s *side) search(price float64) (int, bool) {
	idx := sort.Search(len(s.levels), func(i int) bool {
		if s.desc {
			return s.levels[i].Price <= price
		}
		return s.levels[i].Price >= price
	})
	if idx < len(s.levels) && s.levels[idx].Price == price {
		return idx, true
	}
	return idx, false
}

// upsert replaces the level at price, inserts a new one, or removes it
// when quantity is zero.
func (s *side) upsert(price, quantity float64) {
	idx, found := s.search(price)
	switch {
	case quantity <= 0:
		if found {
			s.levels = append(s.levels[:idx], s.levels[idx+1:]...)
		}
	case found:
		s.levels[idx].Quantity = quantity
	default:
		s.levels = append(s.levels, model.PriceLevel{})
		copy(s.levels[idx+1:], s.levels[idx:])
		s.levels[idx] = model.PriceLevel{Price: price, Quantity: quantity}
	}
}

// replace rebuilds the side from snapshot levels, dropping zero-quantity
// entries and trimming to limit when limit > 0.
func (s *side) replace(levels []model.PriceLevel, limit int) {
	s.levels = s.levels[:0]
	for _, lv := range levels {
		if lv.Quantity <= 0 {
			continue
		}
		s.levels = append(s.levels, lv)
	}
	sort.Slice(s.levels, func(i, j int) bool {
		if s.desc {
			return s.levels[i].Price > s.levels[j].Price
		}
		return s.levels[i].Price < s.levels[j].Price
	})
	s.trim(limit)
}

func (s *side) trim(limit int) {
	if limit > 0 && len(s.levels) > limit {
		s.levels = s.levels[:limit]
	}
}

// best returns the top level, false when the side is empty.
func (s *side) best() (model.PriceLevel, bool) {
	if len(s.levels) == 0 {
		return model.PriceLevel{}, false
	}
	return s.levels[0], true
}

func (s *side) len() int {
	return len(s.levels)
}

func (s *side) reset() {
	s.levels = s.levels[:0]
}
