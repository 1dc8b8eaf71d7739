package types

import "time"

const (
	EventSearchApplied    uint16 = 1
	EventSearchSuperseded uint16 = 2
	EventSearchFailed     uint16 = 3
	EventFiltersChanged   uint16 = 4
	EventFiltersCleared   uint16 = 5
)

type SearchEvent struct {
	SessionId string    `json:"session_id"`
	Event     uint16    `json:"event"`
	Index     string    `json:"index"`
	Query     string    `json:"query,omitempty"`
	Filters   string    `json:"filters,omitempty"`
	Page      int       `json:"page"`
	NbHits    int       `json:"nb_hits"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}

type Tracker interface {
	TrackSearch(event SearchEvent)
	Close() error
}
