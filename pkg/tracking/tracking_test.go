package tracking

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matst80/slask-instant/pkg/messaging"
	"github.com/matst80/slask-instant/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPublisher struct {
	mu      sync.Mutex
	topics  []messaging.ChangeTopic
	batches []SearchEventBatch
	err     error
}

func (m *memoryPublisher) Publish(topic messaging.ChangeTopic, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = append(m.topics, topic)
	m.batches = append(m.batches, data.(SearchEventBatch))
	return m.err
}

func TestRabbitTrackingBatches(t *testing.T) {
	pub := &memoryPublisher{}
	rt := NewRabbitTracking(pub, RabbitTrackingConfig{Country: "se", BatchSize: 2, Interval: time.Hour})
	for i := range 5 {
		rt.TrackSearch(types.SearchEvent{Event: types.EventSearchApplied, Page: i})
	}
	require.NoError(t, rt.Close())

	pages := []int{}
	for idx, b := range pub.batches {
		assert.Equal(t, messaging.SearchEvents, pub.topics[idx])
		assert.Equal(t, "se", b.Country)
		assert.LessOrEqual(t, len(b.Events), 2)
		for _, e := range b.Events {
			pages = append(pages, e.Page)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, pages)
}

func TestPublishErrorsAreLogged(t *testing.T) {
	pub := &memoryPublisher{err: errors.New("closed")}
	rt := NewRabbitTracking(pub, RabbitTrackingConfig{})
	rt.TrackSearch(types.SearchEvent{Event: types.EventSearchFailed})
	assert.NoError(t, rt.Close())
	assert.Len(t, pub.batches, 1)
}

func TestNopTracking(t *testing.T) {
	var tracker types.Tracker = NopTracking{}
	tracker.TrackSearch(types.SearchEvent{})
	assert.NoError(t, tracker.Close())
	tracker = LogTracking{}
	tracker.TrackSearch(types.SearchEvent{Query: "tv"})
}
