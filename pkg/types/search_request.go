package types

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
)

type SearchRequest struct {
	Index       string         `json:"index" schema:"index"`
	Query       string         `json:"query" schema:"q"`
	Page        int            `json:"page" schema:"page"`
	HitsPerPage int            `json:"hitsPerPage" schema:"size,default:20"`
	Facets      []string       `json:"facets" schema:"facets"`
	Filters     FilterSnapshot `json:"filters" schema:"-"`
}

const filterParam = "flt"

var decoder = schema.NewDecoder()
var encoder = schema.NewEncoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func clamp[T int | float64](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func (s *SearchRequest) Sanitize() {
	if s.HitsPerPage == 0 {
		s.HitsPerPage = 20
	}
	s.Page = clamp(s.Page, 0, 1000)
	s.HitsPerPage = clamp(s.HitsPerPage, 1, 1000)
	s.Query = strings.TrimSpace(s.Query)
	if s.Query == "*" {
		s.Query = ""
	}
	facets := s.Facets[:0]
	for _, f := range s.Facets {
		if f = strings.TrimSpace(f); f != "" {
			facets = append(facets, f)
		}
	}
	s.Facets = facets
}

func GetQueryFromRequest(r *http.Request) (*SearchRequest, error) {
	sr := &SearchRequest{Facets: []string{}, Filters: NewFilterSnapshot()}
	var err error
	if r.Method == http.MethodGet {
		err = QueryFromValues(r.URL.Query(), sr)
	} else {
		err = json.NewDecoder(r.Body).Decode(sr)
	}
	sr.Sanitize()
	return sr, err
}

// QueryFromValues decodes a request from url values. Filters are passed as
// repeated flt params on the form attribute:operator:value||value where each
// value is query escaped.
func QueryFromValues(query url.Values, result *SearchRequest) error {
	if err := decoder.Decode(result, query); err != nil {
		return err
	}
	groups := map[string]FilterGroup{}
	for _, v := range query[filterParam] {
		parts := strings.SplitN(v, ":", 3)
		if len(parts) != 3 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}
		op, err := ParseFilterOperator(parts[1])
		if err != nil {
			return err
		}
		g, ok := groups[name]
		if !ok {
			g = FilterGroup{Name: name, Operator: op}
		}
		for _, value := range strings.Split(parts[2], "||") {
			if unescaped, err := url.QueryUnescape(value); err == nil {
				value = unescaped
			}
			if value = strings.TrimSpace(value); value != "" {
				g.Values = append(g.Values, value)
			}
		}
		groups[name] = g
	}
	list := make([]FilterGroup, 0, len(groups))
	for _, g := range groups {
		list = append(list, g)
	}
	result.Filters = NewFilterSnapshot(list...)
	return nil
}

// Values encodes the request in the format read by QueryFromValues.
func (s *SearchRequest) Values() (url.Values, error) {
	values := url.Values{}
	if err := encoder.Encode(s, values); err != nil {
		return nil, err
	}
	for _, g := range s.Filters.Groups() {
		if len(g.Values) == 0 {
			continue
		}
		escaped := make([]string, len(g.Values))
		for i, v := range g.Values {
			escaped[i] = url.QueryEscape(v)
		}
		values.Add(filterParam, fmt.Sprintf("%s:%s:%s", g.Name, g.Operator, strings.Join(escaped, "||")))
	}
	return values, nil
}

// CacheKey identifies the request for response caching.
func (s *SearchRequest) CacheKey() string {
	return fmt.Sprintf("%s|%s|%d|%d|%s|%s", s.Index, s.Query, s.Page, s.HitsPerPage, strings.Join(s.Facets, ","), s.Filters.String())
}
