package tracking

import (
	"log"

	"github.com/matst80/slask-instant/pkg/types"
)

// NopTracking drops every event.
type NopTracking struct{}

func (NopTracking) TrackSearch(types.SearchEvent) {}

func (NopTracking) Close() error { return nil }

// LogTracking writes events to a logger, useful when running demos.
type LogTracking struct {
	Logger *log.Logger
}

func (l LogTracking) TrackSearch(e types.SearchEvent) {
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("tracking: session=%s event=%d index=%s query=%q filters=%s hits=%d %s", e.SessionId, e.Event, e.Index, e.Query, e.Filters, e.NbHits, e.Error)
}

func (LogTracking) Close() error { return nil }
