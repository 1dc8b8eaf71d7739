package types

import (
	"fmt"
	"time"
)

type Hit map[string]any

func (h Hit) ObjectID() string {
	switch id := h["objectID"].(type) {
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// String returns the named attribute as a string, or "" when missing.
func (h Hit) String(attribute string) string {
	v, ok := h[attribute]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type FacetValue struct {
	Value      string `json:"value"`
	Count      int    `json:"count"`
	IsSelected bool   `json:"isSelected"`
}

type ResponsePayload struct {
	Index            string                  `json:"index"`
	Query            string                  `json:"query"`
	Hits             []Hit                   `json:"hits"`
	NbHits           int                     `json:"nbHits"`
	Page             int                     `json:"page"`
	NbPages          int                     `json:"nbPages"`
	HitsPerPage      int                     `json:"hitsPerPage"`
	ProcessingTimeMS int64                   `json:"processingTimeMS"`
	Facets           map[string][]FacetCount `json:"facets"`
}

func (p *ResponsePayload) FacetCounts(attribute string) []FacetCount {
	if p == nil || p.Facets == nil {
		return []FacetCount{}
	}
	counts, ok := p.Facets[attribute]
	if !ok {
		return []FacetCount{}
	}
	return counts
}

func PageCount(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

type Stats struct {
	TotalHits      int
	Page           int
	Pages          int
	HitsPerPage    int
	ProcessingTime time.Duration
	Query          string
}

func StatsFromPayload(p *ResponsePayload) Stats {
	return Stats{
		TotalHits:      p.NbHits,
		Page:           p.Page,
		Pages:          p.NbPages,
		HitsPerPage:    p.HitsPerPage,
		ProcessingTime: time.Duration(p.ProcessingTimeMS) * time.Millisecond,
		Query:          p.Query,
	}
}
