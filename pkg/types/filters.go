package types

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// FilterOperator decides how the values of one filter group are combined.
type FilterOperator uint8

const (
	Or FilterOperator = iota + 1
	And
)

func (o FilterOperator) Valid() bool {
	return o == Or || o == And
}

func (o FilterOperator) String() string {
	switch o {
	case Or:
		return "or"
	case And:
		return "and"
	}
	return fmt.Sprintf("operator(%d)", uint8(o))
}

func ParseFilterOperator(s string) (FilterOperator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "or":
		return Or, nil
	case "and":
		return And, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGroupOperator, s)
}

func (o FilterOperator) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGroupOperator, uint8(o))
	}
	return []byte(o.String()), nil
}

func (o *FilterOperator) UnmarshalText(text []byte) error {
	op, err := ParseFilterOperator(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

type SelectionMode uint8

const (
	SingleSelection SelectionMode = iota
	MultipleSelection
)

func (m SelectionMode) String() string {
	if m == SingleSelection {
		return "single"
	}
	return "multiple"
}

func ParseSelectionMode(s string) (SelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "":
		return SingleSelection, nil
	case "multiple", "multi":
		return MultipleSelection, nil
	}
	return SingleSelection, fmt.Errorf("unknown selection mode %q", s)
}

func (m *SelectionMode) UnmarshalText(text []byte) error {
	mode, err := ParseSelectionMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// FilterGroup is the set of active values for one attribute. The group name
// is the record attribute the values are matched against.
type FilterGroup struct {
	Name     string         `json:"name"`
	Operator FilterOperator `json:"operator"`
	Values   []string       `json:"values"`
}

type snapshotGroup struct {
	operator FilterOperator
	values   map[string]struct{}
}

// FilterSnapshot is a read-only copy of a filter state. It shares no memory
// with the state it was taken from.
type FilterSnapshot struct {
	groups map[string]snapshotGroup
}

func NewFilterSnapshot(groups ...FilterGroup) FilterSnapshot {
	s := FilterSnapshot{groups: make(map[string]snapshotGroup, len(groups))}
	for _, g := range groups {
		values := make(map[string]struct{}, len(g.Values))
		for _, v := range g.Values {
			values[v] = struct{}{}
		}
		s.groups[g.Name] = snapshotGroup{operator: g.Operator, values: values}
	}
	return s
}

func (s FilterSnapshot) Names() []string {
	return slices.Sorted(maps.Keys(s.groups))
}

func (s FilterSnapshot) Groups() []FilterGroup {
	ret := make([]FilterGroup, 0, len(s.groups))
	for _, name := range s.Names() {
		g := s.groups[name]
		ret = append(ret, FilterGroup{
			Name:     name,
			Operator: g.operator,
			Values:   slices.Sorted(maps.Keys(g.values)),
		})
	}
	return ret
}

func (s FilterSnapshot) Operator(name string) (FilterOperator, bool) {
	g, ok := s.groups[name]
	return g.operator, ok
}

func (s FilterSnapshot) Values(name string) []string {
	g, ok := s.groups[name]
	if !ok {
		return []string{}
	}
	return slices.Sorted(maps.Keys(g.values))
}

func (s FilterSnapshot) Has(name, value string) bool {
	g, ok := s.groups[name]
	if !ok {
		return false
	}
	_, ok = g.values[value]
	return ok
}

// IsEmpty reports whether no group holds any value.
func (s FilterSnapshot) IsEmpty() bool {
	for _, g := range s.groups {
		if len(g.values) > 0 {
			return false
		}
	}
	return true
}

// Without returns a copy lacking the named group, used when counting a facet
// so that its own selection does not narrow its sibling counts.
func (s FilterSnapshot) Without(name string) FilterSnapshot {
	ret := FilterSnapshot{groups: make(map[string]snapshotGroup, len(s.groups))}
	for n, g := range s.groups {
		if n != name {
			ret.groups[n] = g
		}
	}
	return ret
}

// String renders the canonical filter expression, for example
// ("category":"tv") AND ("color":"blue" OR "color":"red").
func (s FilterSnapshot) String() string {
	parts := make([]string, 0, len(s.groups))
	for _, g := range s.Groups() {
		if len(g.Values) == 0 {
			continue
		}
		terms := make([]string, len(g.Values))
		for i, v := range g.Values {
			terms[i] = strconv.Quote(g.Name) + ":" + strconv.Quote(v)
		}
		sep := " OR "
		if g.Operator == And {
			sep = " AND "
		}
		parts = append(parts, "("+strings.Join(terms, sep)+")")
	}
	return strings.Join(parts, " AND ")
}

func (s FilterSnapshot) MarshalJSON() ([]byte, error) {
	return jsonMarshal(s.Groups())
}

func (s *FilterSnapshot) UnmarshalJSON(data []byte) error {
	var groups []FilterGroup
	if err := jsonUnmarshal(data, &groups); err != nil {
		return err
	}
	*s = NewFilterSnapshot(groups...)
	return nil
}
