package searcher

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/slask-instant/pkg/filterstate"
	"github.com/matst80/slask-instant/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	noSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskinstant_searches_total",
		Help: "The total number of issued searches",
	})
	noSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskinstant_searches_superseded_total",
		Help: "Responses discarded because a newer search was issued",
	})
	noFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskinstant_search_failures_total",
		Help: "Searches that failed in the search service",
	})
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slaskinstant_search_duration_seconds",
		Help:    "Round trip time of applied searches",
		Buckets: prometheus.DefBuckets,
	})
)

type Options struct {
	// Debounce delays searches triggered by SetQuery. Zero searches on every
	// call.
	Debounce    time.Duration
	HitsPerPage int
	Tracker     types.Tracker
	Logger      *log.Logger
}

// Searcher is the query session of one screen: it owns the query text, the
// target index and the latest response, and fans responses out to the
// connected interactors.
type Searcher struct {
	service   types.SearchService
	index     string
	sessionId string
	opts      Options
	logger    *log.Logger

	mu          sync.Mutex
	query       string
	page        int
	facets      []string
	filterState *filterstate.FilterState
	filterSub   *filterstate.Subscription
	seq         uint64
	cancel      context.CancelFunc
	debounce    *time.Timer
	last        *types.ResponsePayload
	closed      bool

	// dispatchMu serializes the staleness check and the fan-out so that
	// responses are applied in issuance order.
	dispatchMu     sync.Mutex
	resultObserver []types.ResultObserver
	errorObserver  []types.ErrorObserver
	clearActions   []types.ClearController

	running sync.WaitGroup
}

func New(service types.SearchService, index string, opts Options) *Searcher {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.HitsPerPage <= 0 {
		opts.HitsPerPage = 20
	}
	return &Searcher{
		service:   service,
		index:     index,
		sessionId: uuid.New().String(),
		opts:      opts,
		logger:    logger,
		facets:    []string{},
	}
}

func (s *Searcher) Index() string {
	return s.index
}

func (s *Searcher) SessionID() string {
	return s.sessionId
}

func (s *Searcher) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Searcher) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Searcher) LastResponse() *types.ResponsePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Searcher) FilterState() *filterstate.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterState
}

// AddFacet asks the service for counts of attribute on every search.
func (s *Searcher) AddFacet(attribute string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.facets, attribute) {
		s.facets = append(s.facets, attribute)
	}
}

func (s *Searcher) OnResults(observer types.ResultObserver) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.resultObserver = append(s.resultObserver, observer)
}

func (s *Searcher) OnError(observer types.ErrorObserver) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.errorObserver = append(s.errorObserver, observer)
}

// ConnectFilterState makes every filter change reset the page and run a new
// search. Connecting the same state twice is a no-op; connecting another
// state replaces the previous one.
func (s *Searcher) ConnectFilterState(fs *filterstate.FilterState) {
	s.mu.Lock()
	if s.filterState == fs {
		s.mu.Unlock()
		return
	}
	prev := s.filterSub
	s.filterState = fs
	s.mu.Unlock()
	prev.Cancel()

	sub := fs.Subscribe(types.FilterStateObserverFunc(func(snapshot types.FilterSnapshot) {
		s.track(types.SearchEvent{Event: types.EventFiltersChanged, Filters: snapshot.String()})
		s.SetPage(0)
		s.Search()
	}))
	s.mu.Lock()
	s.filterSub = sub
	s.mu.Unlock()
}

// SetQuery updates the query text and schedules a search according to the
// debounce option.
func (s *Searcher) SetQuery(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.query = text
	s.page = 0
	if s.opts.Debounce <= 0 {
		s.mu.Unlock()
		s.Search()
		return
	}
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.opts.Debounce, s.Search)
	s.mu.Unlock()
}

func (s *Searcher) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = max(page, 0)
}

func (s *Searcher) buildRequestLocked() *types.SearchRequest {
	filters := types.NewFilterSnapshot()
	if s.filterState != nil {
		filters = s.filterState.Snapshot()
	}
	req := &types.SearchRequest{
		Index:       s.index,
		Query:       s.query,
		Page:        s.page,
		HitsPerPage: s.opts.HitsPerPage,
		Facets:      slices.Clone(s.facets),
		Filters:     filters,
	}
	req.Sanitize()
	return req
}

// Search issues a new request. A request still in flight is cancelled and
// its response, should it arrive, is never applied.
func (s *Searcher) Search() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.seq++
	seq := s.seq
	req := s.buildRequestLocked()
	s.running.Add(1)
	s.mu.Unlock()

	noSearches.Inc()
	go func() {
		defer s.running.Done()
		defer cancel()
		start := time.Now()
		payload, err := s.service.Search(ctx, req)
		s.apply(seq, req, payload, err, time.Since(start))
	}()
}

func (s *Searcher) isLatest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.seq && !s.closed
}

func (s *Searcher) apply(seq uint64, req *types.SearchRequest, payload *types.ResponsePayload, err error, took time.Duration) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if !s.isLatest(seq) || errors.Is(err, context.Canceled) {
		noSuperseded.Inc()
		s.track(types.SearchEvent{Event: types.EventSearchSuperseded, Query: req.Query, Page: req.Page, Filters: req.Filters.String()})
		return
	}
	if err == nil && payload == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		noFailures.Inc()
		if !types.IsNetworkFailure(err) {
			err = &types.SearchError{Index: req.Index, Query: req.Query, Err: err}
		}
		s.logger.Printf("search failed: %v", err)
		s.track(types.SearchEvent{Event: types.EventSearchFailed, Query: req.Query, Page: req.Page, Filters: req.Filters.String(), Error: err.Error()})
		for _, o := range s.errorObserver {
			o.SearchFailed(err)
		}
		return
	}
	searchDuration.Observe(took.Seconds())

	s.mu.Lock()
	s.last = payload
	s.mu.Unlock()

	s.track(types.SearchEvent{Event: types.EventSearchApplied, Query: req.Query, Page: req.Page, Filters: req.Filters.String(), NbHits: payload.NbHits})
	for _, o := range s.resultObserver {
		o.ResultReceived(payload)
	}
}

// ReloadWidgets re-renders every result observer with the latest response.
func (s *Searcher) ReloadWidgets() {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	last := s.LastResponse()
	if last == nil {
		return
	}
	for _, o := range s.resultObserver {
		o.ResultReceived(last)
	}
}

// ConnectClearController registers a control that clears every filter of the
// session when triggered.
func (s *Searcher) ConnectClearController(ctrl types.ClearController) {
	s.dispatchMu.Lock()
	s.clearActions = append(s.clearActions, ctrl)
	s.dispatchMu.Unlock()
	ctrl.OnClear(s.ClearFilters)
	s.ReloadWidgets()
}

func (s *Searcher) ClearControllers() int {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	return len(s.clearActions)
}

// ClearFilters empties every filter group and searches again.
func (s *Searcher) ClearFilters() {
	fs := s.FilterState()
	s.track(types.SearchEvent{Event: types.EventFiltersCleared})
	if fs == nil || fs.Snapshot().IsEmpty() {
		s.SetPage(0)
		s.Search()
	} else {
		// the filter subscription issues the search
		fs.ClearAll()
	}
	s.ReloadWidgets()
}

func (s *Searcher) track(event types.SearchEvent) {
	if s.opts.Tracker == nil {
		return
	}
	event.SessionId = s.sessionId
	event.Index = s.index
	event.Time = time.Now()
	s.opts.Tracker.TrackSearch(event)
}

// Wait blocks until no search is running.
func (s *Searcher) Wait() {
	s.running.Wait()
}

// Close cancels pending work; later calls to Search are ignored.
func (s *Searcher) Close() {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	if s.debounce != nil {
		s.debounce.Stop()
	}
	sub := s.filterSub
	s.filterSub = nil
	s.mu.Unlock()
	sub.Cancel()
	s.running.Wait()
}
