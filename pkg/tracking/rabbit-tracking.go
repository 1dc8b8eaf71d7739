package tracking

import (
	"log"
	"time"

	"github.com/matst80/slask-instant/pkg/common"
	"github.com/matst80/slask-instant/pkg/messaging"
	"github.com/matst80/slask-instant/pkg/types"
)

type RabbitTrackingConfig struct {
	Country   string
	Context   string
	BatchSize int
	Interval  time.Duration
}

// SearchEventBatch is the message published on the search events topic.
type SearchEventBatch struct {
	Country string              `json:"country,omitempty"`
	Context string              `json:"context,omitempty"`
	Events  []types.SearchEvent `json:"events"`
}

// RabbitTracking queues events and publishes them in batches.
type RabbitTracking struct {
	config    RabbitTrackingConfig
	publisher messaging.Publisher
	queue     *common.QueueHandler[types.SearchEvent]
	closer    func() error
}

func NewRabbitTracking(publisher messaging.Publisher, config RabbitTrackingConfig) *RabbitTracking {
	rt := &RabbitTracking{
		config:    config,
		publisher: publisher,
	}
	rt.queue = common.NewQueueHandler(rt.send, config.BatchSize, config.Interval)
	return rt
}

// ConnectRabbitTracking dials url and declares the search events topic.
func ConnectRabbitTracking(url, prefix string, config RabbitTrackingConfig) (*RabbitTracking, error) {
	publisher, err := messaging.Connect(url, prefix, messaging.SearchEvents)
	if err != nil {
		return nil, err
	}
	rt := NewRabbitTracking(publisher, config)
	rt.closer = publisher.Close
	return rt, nil
}

func (rt *RabbitTracking) send(events []types.SearchEvent) {
	err := rt.publisher.Publish(messaging.SearchEvents, SearchEventBatch{
		Country: rt.config.Country,
		Context: rt.config.Context,
		Events:  events,
	})
	if err != nil {
		log.Printf("Error sending %d search events: %v", len(events), err)
	}
}

func (rt *RabbitTracking) TrackSearch(event types.SearchEvent) {
	rt.queue.Add(event)
}

// Close flushes queued events before closing the connection.
func (rt *RabbitTracking) Close() error {
	rt.queue.Close()
	if rt.closer != nil {
		return rt.closer()
	}
	return nil
}
