package bleveindex

import (
	"context"
	"testing"

	"github.com/matst80/slask-instant/pkg/index"
	"github.com/matst80/slask-instant/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createIndex(t *testing.T) *Index {
	t.Helper()
	i, err := New(index.Settings{
		Name:                 "products",
		FacetAttributes:      []string{"color", "category", "tags"},
		SearchableAttributes: []string{"name"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { i.Close() })
	require.NoError(t, i.UpsertItems(
		types.Hit{"objectID": "1", "name": "Red phone", "color": "red", "category": "phone", "tags": []any{"new", "sale"}},
		types.Hit{"objectID": "2", "name": "Blue phone", "color": "blue", "category": "phone", "tags": []any{"new"}},
		types.Hit{"objectID": "3", "name": "Red television", "color": "red", "category": "tv"},
		types.Hit{"objectID": "4", "name": "Green television stand", "color": "green", "category": "furniture"},
		types.Hit{"objectID": "5", "name": "Phonograph", "color": "blue", "category": "audio"},
	))
	return i
}

func search(t *testing.T, i *Index, req types.SearchRequest) *types.ResponsePayload {
	t.Helper()
	req.Sanitize()
	res, err := i.Search(context.Background(), &req)
	require.NoError(t, err)
	return res
}

func objectIds(hits []types.Hit) []string {
	ret := make([]string, len(hits))
	for idx, h := range hits {
		ret[idx] = h.ObjectID()
	}
	return ret
}

func TestMatchAllKeepsInsertionOrder(t *testing.T) {
	i := createIndex(t)
	assert.Equal(t, 5, i.Len())
	res := search(t, i, types.SearchRequest{Facets: []string{"color"}})
	assert.Equal(t, 5, res.NbHits)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, objectIds(res.Hits))
	assert.Equal(t, []types.FacetCount{
		{Value: "blue", Count: 2},
		{Value: "red", Count: 2},
		{Value: "green", Count: 1},
	}, res.Facets["color"])
}

func TestTextQuery(t *testing.T) {
	i := createIndex(t)
	res := search(t, i, types.SearchRequest{Query: "phon"})
	assert.ElementsMatch(t, []string{"1", "2", "5"}, objectIds(res.Hits))

	res = search(t, i, types.SearchRequest{Query: "red tele"})
	assert.Equal(t, []string{"3"}, objectIds(res.Hits))
}

func TestFiltersAndDisjunctiveCounts(t *testing.T) {
	i := createIndex(t)
	filters := types.NewFilterSnapshot(
		types.FilterGroup{Name: "color", Operator: types.Or, Values: []string{"red"}},
		types.FilterGroup{Name: "category", Operator: types.Or, Values: []string{"phone"}},
	)
	res := search(t, i, types.SearchRequest{Facets: []string{"color", "category", "tags"}, Filters: filters})
	assert.Equal(t, []string{"1"}, objectIds(res.Hits))
	assert.Equal(t, []types.FacetCount{{Value: "blue", Count: 1}, {Value: "red", Count: 1}}, res.Facets["color"])
	assert.Equal(t, []types.FacetCount{{Value: "phone", Count: 1}, {Value: "tv", Count: 1}}, res.Facets["category"])
	assert.Equal(t, []types.FacetCount{{Value: "new", Count: 1}, {Value: "sale", Count: 1}}, res.Facets["tags"])

	and := types.NewFilterSnapshot(types.FilterGroup{Name: "tags", Operator: types.And, Values: []string{"new", "sale"}})
	res = search(t, i, types.SearchRequest{Filters: and})
	assert.Equal(t, []string{"1"}, objectIds(res.Hits))
}

func TestPaginationAndDelete(t *testing.T) {
	i := createIndex(t)
	res := search(t, i, types.SearchRequest{HitsPerPage: 2, Page: 1})
	assert.Equal(t, []string{"3", "4"}, objectIds(res.Hits))
	assert.Equal(t, 3, res.NbPages)

	require.NoError(t, i.DeleteItems("3", "missing"))
	res = search(t, i, types.SearchRequest{})
	assert.Equal(t, 4, res.NbHits)
	assert.Equal(t, 4, i.Len())
}
