package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matst80/slask-instant/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchEncodesRequest(t *testing.T) {
	var got *types.SearchRequest
	var auth, requestId string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		auth = r.Header.Get("Authorization")
		requestId = r.Header.Get("X-Request-Id")
		var err error
		got, err = types.GetQueryFromRequest(r)
		assert.NoError(t, err)
		json.NewEncoder(w).Encode(types.ResponsePayload{
			Index:  got.Index,
			Query:  got.Query,
			NbHits: 1,
			Hits:   []types.Hit{{"objectID": "42", "name": "Red phone"}},
			Facets: map[string][]types.FacetCount{"color": {{Value: "red", Count: 1}}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret-key")
	req := &types.SearchRequest{
		Index:       "bestbuy",
		Query:       "phone",
		Page:        2,
		HitsPerPage: 10,
		Facets:      []string{"color"},
		Filters: types.NewFilterSnapshot(
			types.FilterGroup{Name: "color", Operator: types.Or, Values: []string{"red", "blue"}},
		),
	}
	res, err := client.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-key", auth)
	assert.NotEmpty(t, requestId)
	assert.Equal(t, req.CacheKey(), got.CacheKey())
	assert.Equal(t, "42", res.Hits[0].ObjectID())
	assert.Equal(t, []types.FacetCount{{Value: "red", Count: 1}}, res.FacetCounts("color"))
}

func TestServerErrorsAreSearchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"unknown index"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Search(context.Background(), &types.SearchRequest{Index: "nope", HitsPerPage: 20})
	require.Error(t, err)
	assert.True(t, types.IsNetworkFailure(err))
	assert.Contains(t, err.Error(), "unknown index")
}

func TestTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "").Search(context.Background(), &types.SearchRequest{Index: "bestbuy", HitsPerPage: 20})
	var se *types.SearchError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bestbuy", se.Index)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewClient(url, "").Search(ctx, &types.SearchRequest{Index: "bestbuy", HitsPerPage: 20})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndexes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["bestbuy","mobile_demo_facet_list"]`))
	}))
	defer srv.Close()
	names, err := NewClient(srv.URL, "").Indexes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bestbuy", "mobile_demo_facet_list"}, names)
}
