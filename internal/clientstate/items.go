package clientstate

// ItemSet lists item ids that carry a count/subtype byte on the wire.
// It satisfies packets.ItemTraits.
type ItemSet map[uint16]struct{}

// NewItemSet builds an ItemSet from ids.
func NewItemSet(ids ...uint16) ItemSet {
	s := make(ItemSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s ItemSet) HasCount(id uint16) bool {
	_, ok := s[id]
	return ok
}
