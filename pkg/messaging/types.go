package messaging

import "github.com/matst80/slask-instant/pkg/types"

type ChangeTopic string

const (
	IndexChanged ChangeTopic = "index_changed"
	SearchEvents ChangeTopic = "search_events"
)

// IndexChange is published when records of an index are added, replaced or
// removed.
type IndexChange struct {
	Index    string      `json:"index"`
	Upserted []types.Hit `json:"upserted,omitempty"`
	Deleted  []string    `json:"deleted,omitempty"`
}

// Publisher sends data on a topic.
type Publisher interface {
	Publish(topic ChangeTopic, data any) error
}
