package interactor

import (
	"slices"
	"sync"

	"github.com/matst80/slask-instant/pkg/searcher"
	"github.com/matst80/slask-instant/pkg/types"
)

// HitsInteractor accumulates hits across pages for infinite scrolling.
// A response for page 0 starts over.
type HitsInteractor struct {
	mu          sync.Mutex
	searcher    *searcher.Searcher
	hits        []types.Hit
	page        int
	pages       int
	controllers []types.HitsController
}

func NewHitsInteractor() *HitsInteractor {
	return &HitsInteractor{hits: []types.Hit{}}
}

func (h *HitsInteractor) ConnectSearcher(s *searcher.Searcher) {
	h.mu.Lock()
	h.searcher = s
	h.mu.Unlock()
	s.OnResults(types.ResultObserverFunc(h.ResultReceived))
}

func (h *HitsInteractor) ConnectController(ctrl types.HitsController) {
	h.mu.Lock()
	h.controllers = append(h.controllers, ctrl)
	hits := slices.Clone(h.hits)
	h.mu.Unlock()
	ctrl.RenderHits(hits)
}

func (h *HitsInteractor) ResultReceived(p *types.ResponsePayload) {
	h.mu.Lock()
	switch {
	case p.Page == 0:
		h.hits = slices.Clone(p.Hits)
	case p.Page == h.page+1:
		h.hits = append(h.hits, p.Hits...)
	case p.Page == h.page:
		// same page delivered again, e.g. after reloading widgets
	default:
		h.hits = slices.Clone(p.Hits)
	}
	h.page = p.Page
	h.pages = p.NbPages
	hits := slices.Clone(h.hits)
	controllers := slices.Clone(h.controllers)
	h.mu.Unlock()
	for _, c := range controllers {
		c.RenderHits(hits)
	}
}

func (h *HitsInteractor) Hits() []types.Hit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.hits)
}

// LoadNextPage requests the page after the last received one. It returns
// false when every page has been loaded.
func (h *HitsInteractor) LoadNextPage() bool {
	h.mu.Lock()
	s := h.searcher
	next := h.page + 1
	more := next < h.pages
	h.mu.Unlock()
	if s == nil || !more {
		return false
	}
	s.SetPage(next)
	s.Search()
	return true
}
