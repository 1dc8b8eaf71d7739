package interactor

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matst80/slask-instant/pkg/filterstate"
	"github.com/matst80/slask-instant/pkg/searcher"
	"github.com/matst80/slask-instant/pkg/types"
)

// SearchStateInteractor renders the current query, filters and hit count as
// a short text block.
type SearchStateInteractor struct {
	// renderMu spans the update and the rendering so the newest text is
	// rendered last.
	renderMu    sync.Mutex
	mu          sync.Mutex
	query       string
	filters     string
	hits        int
	controllers []types.TextController
}

func NewSearchStateInteractor() *SearchStateInteractor {
	return &SearchStateInteractor{}
}

func (s *SearchStateInteractor) ConnectSearcher(srch *searcher.Searcher) {
	srch.OnResults(types.ResultObserverFunc(func(p *types.ResponsePayload) {
		s.update(func() {
			s.query = p.Query
			s.hits = p.NbHits
		})
	}))
}

func (s *SearchStateInteractor) ConnectFilterState(fs *filterstate.FilterState) {
	s.mu.Lock()
	s.filters = fs.Snapshot().String()
	s.mu.Unlock()
	fs.Subscribe(types.FilterStateObserverFunc(func(snapshot types.FilterSnapshot) {
		s.update(func() {
			s.filters = snapshot.String()
		})
	}))
}

func (s *SearchStateInteractor) ConnectController(ctrl types.TextController) {
	s.update(func() {
		s.controllers = append(s.controllers, ctrl)
	})
}

// update applies fn under the state lock and renders the result before any
// later update can render.
func (s *SearchStateInteractor) update(fn func()) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.render()
}

func (s *SearchStateInteractor) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textLocked()
}

func (s *SearchStateInteractor) textLocked() string {
	filters := s.filters
	if filters == "" {
		filters = "none"
	}
	return fmt.Sprintf("query: %q\nfilters: %s\nhits: %d", s.query, filters, s.hits)
}

func (s *SearchStateInteractor) render() {
	s.mu.Lock()
	text := s.textLocked()
	controllers := slices.Clone(s.controllers)
	s.mu.Unlock()
	for _, c := range controllers {
		c.RenderText(text)
	}
}
