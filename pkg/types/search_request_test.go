package types

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryValues(t *testing.T) {
	query := url.Values{
		"index":  []string{"bestbuy"},
		"q":      []string{"test"},
		"page":   []string{"1"},
		"size":   []string{"10"},
		"facets": []string{"color", "category"},
		"flt":    []string{"color:or:red||blue", "category:and:tv", "broken", ":or:x"},
	}
	sr := &SearchRequest{}
	err := QueryFromValues(query, sr)
	require.NoError(t, err)
	assert.Equal(t, "bestbuy", sr.Index)
	assert.Equal(t, "test", sr.Query)
	assert.Equal(t, 1, sr.Page)
	assert.Equal(t, 10, sr.HitsPerPage)
	assert.Equal(t, []string{"color", "category"}, sr.Facets)
	assert.Equal(t, []string{"blue", "red"}, sr.Filters.Values("color"))
	op, ok := sr.Filters.Operator("category")
	assert.True(t, ok)
	assert.Equal(t, And, op)
	assert.Equal(t, []string{"category", "color"}, sr.Filters.Names())
}

func TestParseQueryValuesInvalidOperator(t *testing.T) {
	sr := &SearchRequest{}
	err := QueryFromValues(url.Values{"flt": []string{"color:xor:red"}}, sr)
	assert.ErrorIs(t, err, ErrInvalidGroupOperator)
}

func TestValuesAreReadBack(t *testing.T) {
	src := &SearchRequest{
		Index:       "mobile_demo_facet_list",
		Query:       "phone",
		Page:        2,
		HitsPerPage: 5,
		Facets:      []string{"color"},
		Filters: NewFilterSnapshot(
			FilterGroup{Name: "color", Operator: Or, Values: []string{"red", "blue"}},
			FilterGroup{Name: "empty", Operator: And},
		),
	}
	values, err := src.Values()
	require.NoError(t, err)
	assert.Equal(t, []string{"color:or:blue||red"}, values["flt"])

	dst := &SearchRequest{}
	require.NoError(t, QueryFromValues(values, dst))
	assert.Equal(t, src.CacheKey(), dst.CacheKey())
}

func TestFilterValuesWithSeparatorsAreReadBack(t *testing.T) {
	src := &SearchRequest{
		Index: "bestbuy",
		Filters: NewFilterSnapshot(
			FilterGroup{Name: "category", Operator: Or, Values: []string{"TV || Home", "Cell Phones", "50%"}},
		),
	}
	values, err := src.Values()
	require.NoError(t, err)

	dst := &SearchRequest{}
	require.NoError(t, QueryFromValues(values, dst))
	assert.Equal(t, []string{"50%", "Cell Phones", "TV || Home"}, dst.Filters.Values("category"))
}

func TestSanitize(t *testing.T) {
	sr := &SearchRequest{Query: " * ", Page: -3, Facets: []string{" color ", ""}}
	sr.Sanitize()
	assert.Equal(t, "", sr.Query)
	assert.Equal(t, 0, sr.Page)
	assert.Equal(t, 20, sr.HitsPerPage)
	assert.Equal(t, []string{"color"}, sr.Facets)

	sr = &SearchRequest{Page: 5000, HitsPerPage: 5000}
	sr.Sanitize()
	assert.Equal(t, 1000, sr.Page)
	assert.Equal(t, 1000, sr.HitsPerPage)
}
