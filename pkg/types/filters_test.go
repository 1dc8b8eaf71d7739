package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotExpression(t *testing.T) {
	s := NewFilterSnapshot(
		FilterGroup{Name: "color", Operator: Or, Values: []string{"red", "blue"}},
		FilterGroup{Name: "category", Operator: And, Values: []string{"tv"}},
		FilterGroup{Name: "brand", Operator: Or},
	)
	assert.Equal(t, `("category":"tv") AND ("color":"blue" OR "color":"red")`, s.String())
	assert.Equal(t, `("category":"tv")`, s.Without("color").String())
	assert.True(t, s.Has("color", "red"))
	assert.False(t, s.Without("color").Has("color", "red"))
	assert.False(t, s.IsEmpty())
	assert.True(t, NewFilterSnapshot().IsEmpty())
	assert.Equal(t, "", NewFilterSnapshot().String())
}

func TestSnapshotJSON(t *testing.T) {
	s := NewFilterSnapshot(FilterGroup{Name: "color", Operator: And, Values: []string{"red"}})
	data, err := json.Marshal(struct {
		Filters FilterSnapshot `json:"filters"`
	}{s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"filters":[{"name":"color","operator":"and","values":["red"]}]}`, string(data))

	var back struct {
		Filters FilterSnapshot `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.String(), back.Filters.String())
}

func TestParseOperatorAndMode(t *testing.T) {
	op, err := ParseFilterOperator(" AND ")
	require.NoError(t, err)
	assert.Equal(t, And, op)
	_, err = ParseFilterOperator("xor")
	assert.ErrorIs(t, err, ErrInvalidGroupOperator)

	mode, err := ParseSelectionMode("multiple")
	require.NoError(t, err)
	assert.Equal(t, MultipleSelection, mode)
	_, err = ParseSelectionMode("some")
	assert.Error(t, err)
}
