package interactor

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matst80/slask-instant/pkg/searcher"
	"github.com/matst80/slask-instant/pkg/types"
)

type StatsPresenter func(stats types.Stats) string

func DefaultStatsPresenter(stats types.Stats) string {
	return fmt.Sprintf("%d hits in %dms", stats.TotalHits, stats.ProcessingTime.Milliseconds())
}

type StatsInteractor struct {
	mu          sync.Mutex
	presenter   StatsPresenter
	stats       *types.Stats
	controllers []types.TextController
}

func NewStatsInteractor(presenter StatsPresenter) *StatsInteractor {
	if presenter == nil {
		presenter = DefaultStatsPresenter
	}
	return &StatsInteractor{presenter: presenter}
}

func (s *StatsInteractor) ConnectSearcher(srch *searcher.Searcher) {
	srch.OnResults(types.ResultObserverFunc(s.ResultReceived))
}

func (s *StatsInteractor) ConnectController(ctrl types.TextController) {
	s.mu.Lock()
	s.controllers = append(s.controllers, ctrl)
	stats := s.stats
	s.mu.Unlock()
	if stats != nil {
		ctrl.RenderText(s.presenter(*stats))
	}
}

func (s *StatsInteractor) ResultReceived(p *types.ResponsePayload) {
	stats := types.StatsFromPayload(p)
	s.mu.Lock()
	s.stats = &stats
	controllers := slices.Clone(s.controllers)
	s.mu.Unlock()
	text := s.presenter(stats)
	for _, c := range controllers {
		c.RenderText(text)
	}
}

func (s *StatsInteractor) Stats() (types.Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats == nil {
		return types.Stats{}, false
	}
	return *s.stats, true
}
