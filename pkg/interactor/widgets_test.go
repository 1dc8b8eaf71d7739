package interactor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matst80/slask-instant/pkg/filterstate"
	"github.com/matst80/slask-instant/pkg/searcher"
	"github.com/matst80/slask-instant/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type textRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *textRecorder) RenderText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func (r *textRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

type hitsRecorder struct {
	last []types.Hit
}

func (h *hitsRecorder) RenderHits(hits []types.Hit) { h.last = hits }

// pagedService serves numbered hits, three per page, out of seven.
type pagedService struct{}

func (pagedService) Search(_ context.Context, req *types.SearchRequest) (*types.ResponsePayload, error) {
	const total = 7
	hits := []types.Hit{}
	for i := req.Page * req.HitsPerPage; i < min(total, (req.Page+1)*req.HitsPerPage); i++ {
		hits = append(hits, types.Hit{"objectID": i})
	}
	return &types.ResponsePayload{
		Index:            req.Index,
		Query:            req.Query,
		Hits:             hits,
		NbHits:           total,
		Page:             req.Page,
		HitsPerPage:      req.HitsPerPage,
		NbPages:          types.PageCount(total, req.HitsPerPage),
		ProcessingTimeMS: 4,
	}, nil
}

func TestHitsInfiniteScroll(t *testing.T) {
	s := searcher.New(pagedService{}, "bestbuy", searcher.Options{HitsPerPage: 3})
	hits := NewHitsInteractor()
	hits.ConnectSearcher(s)
	ctrl := &hitsRecorder{}
	hits.ConnectController(ctrl)

	s.Search()
	s.Wait()
	assert.Len(t, ctrl.last, 3)

	require.True(t, hits.LoadNextPage())
	s.Wait()
	require.True(t, hits.LoadNextPage())
	s.Wait()
	assert.Len(t, ctrl.last, 7)
	assert.Equal(t, "6", ctrl.last[6].ObjectID())
	assert.False(t, hits.LoadNextPage())

	s.SetQuery("new")
	s.Wait()
	assert.Len(t, hits.Hits(), 3)
}

func TestStatsInteractor(t *testing.T) {
	s := searcher.New(pagedService{}, "bestbuy", searcher.Options{HitsPerPage: 3})
	stats := NewStatsInteractor(nil)
	stats.ConnectSearcher(s)
	title := &textRecorder{}
	stats.ConnectController(title)
	_, ok := stats.Stats()
	assert.False(t, ok)

	s.Search()
	s.Wait()
	assert.Equal(t, "7 hits in 4ms", title.last())
	st, ok := stats.Stats()
	require.True(t, ok)
	assert.Equal(t, 3, st.Pages)

	late := &textRecorder{}
	stats.ConnectController(late)
	assert.Equal(t, "7 hits in 4ms", late.last())
}

type inputRecorder struct {
	text    string
	changed func(string)
	submit  func(string)
}

func (i *inputRecorder) SetQuery(text string)          { i.text = text }
func (i *inputRecorder) OnTextChanged(fn func(string)) { i.changed = fn }
func (i *inputRecorder) OnSubmit(fn func(string))      { i.submit = fn }

func TestQueryInputTriggers(t *testing.T) {
	s := searcher.New(pagedService{}, "bestbuy", searcher.Options{})
	asYouType := NewQueryInputInteractor(SearchAsYouType)
	asYouType.ConnectSearcher(s)
	box := &inputRecorder{}
	asYouType.ConnectController(box)
	box.changed("tv")
	s.Wait()
	assert.Equal(t, "tv", s.Query())

	onSubmit := NewQueryInputInteractor(SearchOnSubmit)
	onSubmit.ConnectSearcher(s)
	other := &inputRecorder{}
	onSubmit.ConnectController(other)
	assert.Equal(t, "tv", other.text)
	other.changed("radio")
	assert.Equal(t, "tv", s.Query())
	other.submit("radio")
	s.Wait()
	assert.Equal(t, "radio", s.Query())
	assert.Eventually(t, func() bool { return s.LastResponse() != nil && s.LastResponse().Query == "radio" }, time.Second, time.Millisecond)
}

func TestSearchStateText(t *testing.T) {
	s := searcher.New(pagedService{}, "bestbuy", searcher.Options{})
	fs := filterstate.New()
	s.ConnectFilterState(fs)
	state := NewSearchStateInteractor()
	state.ConnectSearcher(s)
	state.ConnectFilterState(fs)
	panel := &textRecorder{}
	state.ConnectController(panel)
	assert.Equal(t, "query: \"\"\nfilters: none\nhits: 0", panel.last())

	fs.Add("color", "red")
	s.Wait()
	assert.Equal(t, "query: \"\"\nfilters: (\"color\":\"red\")\nhits: 7", state.Text())
}

type gatedText struct {
	textRecorder
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedText) RenderText(text string) {
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	g.textRecorder.RenderText(text)
}

func TestSearchStateRendersNewestText(t *testing.T) {
	s := searcher.New(pagedService{}, "bestbuy", searcher.Options{})
	defer s.Close()
	fs := filterstate.New()
	state := NewSearchStateInteractor()
	state.ConnectSearcher(s)
	state.ConnectFilterState(fs)
	panel := &gatedText{entered: make(chan struct{}), release: make(chan struct{})}
	state.ConnectController(panel)
	panel.armed.Store(true)

	done := make(chan struct{})
	go func() {
		defer close(done)
		fs.Add("color", "red")
	}()
	<-panel.entered
	s.Search()
	close(panel.release)
	<-done
	s.Wait()

	assert.Contains(t, state.Text(), "hits: 7")
	assert.Equal(t, state.Text(), panel.last())
}
