package types

import (
	"maps"
	"slices"
)

type ItemList map[uint]struct{}

func (i ItemList) AddId(id uint) {
	i[id] = struct{}{}
}

func (i ItemList) Contains(id uint) bool {
	_, ok := i[id]
	return ok
}

func (i ItemList) Len() int {
	return len(i)
}

func (a ItemList) Intersect(b ItemList) {
	for id := range a {
		_, ok := b[id]
		if !ok {
			delete(a, id)
		}
	}
}

func (i ItemList) Merge(other ItemList) {
	maps.Copy(i, other)
}

func (i ItemList) Clone() ItemList {
	return maps.Clone(i)
}

func (i ItemList) SortedIds() []uint {
	return slices.Sorted(maps.Keys(i))
}

// MakeIntersectResult intersects every list read from r.
func MakeIntersectResult(r chan ItemList, len int) ItemList {
	if len == 0 {
		return ItemList{}
	}
	first := ItemList{}
	first.Merge(<-r)
	for i := 1; i < len; i++ {
		first.Intersect(<-r)
	}
	return first
}
