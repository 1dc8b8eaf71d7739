package searcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matst80/slask-instant/pkg/filterstate"
	"github.com/matst80/slask-instant/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	req     *types.SearchRequest
	release chan error
}

// gatedService answers each request only when the test releases it. It
// ignores cancellation so stale responses really arrive late.
type gatedService struct {
	mu    sync.Mutex
	calls []*call
	added chan struct{}
}

func newGatedService() *gatedService {
	return &gatedService{added: make(chan struct{}, 100)}
}

func (g *gatedService) Search(ctx context.Context, req *types.SearchRequest) (*types.ResponsePayload, error) {
	c := &call{req: req, release: make(chan error, 1)}
	g.mu.Lock()
	g.calls = append(g.calls, c)
	g.mu.Unlock()
	g.added <- struct{}{}
	if err := <-c.release; err != nil {
		return nil, err
	}
	return &types.ResponsePayload{Index: req.Index, Query: req.Query, Page: req.Page, NbHits: len(req.Query)}, nil
}

func (g *gatedService) waitCalls(t *testing.T, n int) []*call {
	t.Helper()
	for {
		g.mu.Lock()
		l := len(g.calls)
		g.mu.Unlock()
		if l >= n {
			break
		}
		select {
		case <-g.added:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected %d calls, got %d", n, l)
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*call{}, g.calls...)
}

type instantService struct {
	mu   sync.Mutex
	reqs []*types.SearchRequest
	err  error
}

func (s *instantService) Search(ctx context.Context, req *types.SearchRequest) (*types.ResponsePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return &types.ResponsePayload{Index: req.Index, Query: req.Query, NbHits: 3}, nil
}

func (s *instantService) requests() []*types.SearchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.SearchRequest{}, s.reqs...)
}

type recordingTracker struct {
	mu     sync.Mutex
	events []types.SearchEvent
}

func (r *recordingTracker) TrackSearch(e types.SearchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingTracker) Close() error { return nil }

func (r *recordingTracker) count(event uint16) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

func TestOnlyLatestResponseIsApplied(t *testing.T) {
	svc := newGatedService()
	s := New(svc, "bestbuy", Options{})
	applied := []string{}
	s.OnResults(types.ResultObserverFunc(func(p *types.ResponsePayload) {
		applied = append(applied, p.Query)
	}))

	s.SetQuery("first")
	svc.waitCalls(t, 1)
	s.SetQuery("second")
	calls := svc.waitCalls(t, 2)

	calls[1].release <- nil
	calls[0].release <- nil
	s.Wait()

	assert.Equal(t, []string{"second"}, applied)
	assert.Equal(t, "second", s.LastResponse().Query)
}

func TestStaleResponseArrivingFirstIsDiscarded(t *testing.T) {
	svc := newGatedService()
	tracker := &recordingTracker{}
	s := New(svc, "bestbuy", Options{Tracker: tracker})
	applied := []string{}
	s.OnResults(types.ResultObserverFunc(func(p *types.ResponsePayload) {
		applied = append(applied, p.Query)
	}))

	s.SetQuery("a")
	svc.waitCalls(t, 1)
	s.SetQuery("ab")
	calls := svc.waitCalls(t, 2)

	calls[0].release <- nil
	calls[1].release <- nil
	s.Wait()

	assert.Equal(t, []string{"ab"}, applied)
	assert.Equal(t, 1, tracker.count(types.EventSearchSuperseded))
	assert.Equal(t, 1, tracker.count(types.EventSearchApplied))
}

func TestFailureKeepsLastResponse(t *testing.T) {
	svc := &instantService{}
	s := New(svc, "bestbuy", Options{})
	var failures []error
	s.OnError(types.ErrorObserverFunc(func(err error) { failures = append(failures, err) }))

	s.SetQuery("tv")
	s.Wait()
	require.NotNil(t, s.LastResponse())

	svc.mu.Lock()
	svc.err = errors.New("connection reset")
	svc.mu.Unlock()
	s.SetQuery("radio")
	s.Wait()

	require.Len(t, failures, 1)
	assert.True(t, types.IsNetworkFailure(failures[0]))
	assert.Equal(t, "tv", s.LastResponse().Query)
}

func TestFilterChangesTriggerSearch(t *testing.T) {
	svc := &instantService{}
	fs := filterstate.New()
	s := New(svc, "mobile_demo_facet_list", Options{HitsPerPage: 5})
	s.ConnectFilterState(fs)
	s.ConnectFilterState(fs)
	s.AddFacet("color")
	s.AddFacet("color")

	s.SetPage(3)
	fs.Add("color", "red")
	s.Wait()

	reqs := svc.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 0, reqs[0].Page)
	assert.Equal(t, 5, reqs[0].HitsPerPage)
	assert.Equal(t, []string{"color"}, reqs[0].Facets)
	assert.Equal(t, []string{"red"}, reqs[0].Filters.Values("color"))
}

func TestDebounceCoalescesKeystrokes(t *testing.T) {
	svc := &instantService{}
	s := New(svc, "bestbuy", Options{Debounce: 30 * time.Millisecond})
	for _, q := range []string{"i", "ip", "iph", "ipho"} {
		s.SetQuery(q)
	}
	assert.Eventually(t, func() bool { return len(svc.requests()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	reqs := svc.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "ipho", reqs[0].Query)
	s.Close()
}

type fakeClear struct {
	fn func()
}

func (f *fakeClear) OnClear(fn func()) { f.fn = fn }

func TestClearFilters(t *testing.T) {
	svc := &instantService{}
	fs := filterstate.New()
	s := New(svc, "bestbuy", Options{})
	s.ConnectFilterState(fs)
	renders := 0
	s.OnResults(types.ResultObserverFunc(func(*types.ResponsePayload) { renders++ }))

	btn := &fakeClear{}
	s.ConnectClearController(btn)
	require.NotNil(t, btn.fn)
	assert.Equal(t, 1, s.ClearControllers())

	fs.Add("color", "red")
	fs.Add("category", "tv")
	s.Wait()
	before := len(svc.requests())

	btn.fn()
	s.Wait()

	assert.True(t, fs.Snapshot().IsEmpty())
	reqs := svc.requests()
	assert.Equal(t, before+1, len(reqs))
	assert.True(t, reqs[len(reqs)-1].Filters.IsEmpty())
	assert.GreaterOrEqual(t, renders, 3)
}

func TestClosedSearcherIgnoresSearches(t *testing.T) {
	svc := &instantService{}
	s := New(svc, "bestbuy", Options{})
	s.Close()
	s.SetQuery("tv")
	s.Search()
	s.Wait()
	assert.Empty(t, svc.requests())
	assert.NotEmpty(t, s.SessionID())
}
