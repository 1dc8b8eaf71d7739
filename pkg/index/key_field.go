package index

import (
	"fmt"
	"log"
	"strings"

	"github.com/matst80/slask-instant/pkg/types"
)

// KeyField maps every value of one attribute to the ids of the records
// holding it.
type KeyField struct {
	Name string
	Keys map[string]types.ItemList
}

func NewKeyField(name string) *KeyField {
	return &KeyField{
		Name: name,
		Keys: map[string]types.ItemList{},
	}
}

func (f *KeyField) addKey(value string, id uint) {
	part := strings.TrimSpace(value)
	if part == "" {
		return
	}
	if k, ok := f.Keys[part]; ok {
		k.AddId(id)
	} else {
		f.Keys[part] = types.ItemList{id: struct{}{}}
	}
}

// AddValueLink indexes data for id. Lists add one key per element.
func (f *KeyField) AddValueLink(data any, id uint) bool {
	switch typed := data.(type) {
	case nil:
		return false
	case string:
		if typed == "" {
			return false
		}
		f.addKey(typed, id)
	case []string:
		for _, v := range typed {
			f.addKey(v, id)
		}
	case []any:
		for _, v := range typed {
			if v == nil {
				continue
			}
			f.addKey(fmt.Sprint(v), id)
		}
	case bool, int, int64, uint, float64:
		f.addKey(fmt.Sprint(typed), id)
	default:
		log.Printf("KeyField: AddValueLink: Unknown type %T, field: %s", typed, f.Name)
		return false
	}
	return true
}

func (f *KeyField) RemoveValueLink(id uint) {
	for value, ids := range f.Keys {
		delete(ids, id)
		if len(ids) == 0 {
			delete(f.Keys, value)
		}
	}
}

// Match returns the ids holding any of values for Or and all of them for
// And.
func (f *KeyField) Match(values []string, op types.FilterOperator) types.ItemList {
	ret := types.ItemList{}
	for idx, v := range values {
		ids, ok := f.Keys[v]
		if op == types.And {
			if !ok {
				return types.ItemList{}
			}
			if idx == 0 {
				ret.Merge(ids)
			} else {
				ret.Intersect(ids)
			}
			continue
		}
		if ok {
			ret.Merge(ids)
		}
	}
	return ret
}

// Counts returns, per value, how many of baseIds hold it. Values with no
// match are left out.
func (f *KeyField) Counts(baseIds types.ItemList) []types.FacetCount {
	ret := make([]types.FacetCount, 0, len(f.Keys))
	for key, sourceIds := range f.Keys {
		count := intersectionLen(sourceIds, baseIds)
		if count > 0 {
			ret = append(ret, types.FacetCount{Value: key, Count: count})
		}
	}
	sortCounts(ret)
	return ret
}

func (f *KeyField) UniqueCount() int {
	return len(f.Keys)
}

func intersectionLen(a, b types.ItemList) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	count := 0
	for id := range a {
		if b.Contains(id) {
			count++
		}
	}
	return count
}
