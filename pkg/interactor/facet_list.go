package interactor

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matst80/slask-instant/pkg/filterstate"
	"github.com/matst80/slask-instant/pkg/searcher"
	"github.com/matst80/slask-instant/pkg/types"
)

type FacetComparator func(a, b types.FacetValue) int

// ByCountDesc orders by count, then value. Selected values first when
// selectedFirst is set.
func ByCountDesc(selectedFirst bool) FacetComparator {
	return func(a, b types.FacetValue) int {
		if selectedFirst && a.IsSelected != b.IsSelected {
			if a.IsSelected {
				return -1
			}
			return 1
		}
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if a.Value < b.Value {
			return -1
		}
		if a.Value > b.Value {
			return 1
		}
		return 0
	}
}

type FacetListOption func(*FacetListInteractor)

func WithComparator(cmp FacetComparator) FacetListOption {
	return func(f *FacetListInteractor) { f.comparator = cmp }
}

// WithPersistentSelection keeps selected values that are missing from a
// response in the list, with a zero count.
func WithPersistentSelection() FacetListOption {
	return func(f *FacetListInteractor) { f.persistent = true }
}

func WithLimit(limit int) FacetListOption {
	return func(f *FacetListInteractor) { f.limit = limit }
}

// FacetListInteractor holds the values of one facet attribute and publishes
// selections to a filter group.
type FacetListInteractor struct {
	mode       types.SelectionMode
	comparator FacetComparator
	persistent bool
	limit      int

	// renderMu orders refreshes so the last rendering is always built from
	// the newest counts and filters.
	renderMu sync.Mutex

	mu          sync.Mutex
	attribute   string
	group       string
	filterState *filterstate.FilterState
	filterSub   *filterstate.Subscription
	counts      []types.FacetCount
	items       []types.FacetValue
	controllers []types.FacetListController
}

func NewFacetListInteractor(mode types.SelectionMode, opts ...FacetListOption) *FacetListInteractor {
	f := &FacetListInteractor{
		mode:   mode,
		counts: []types.FacetCount{},
		items:  []types.FacetValue{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FacetListInteractor) SelectionMode() types.SelectionMode {
	return f.mode
}

func (f *FacetListInteractor) Group() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.group
}

// ConnectFilterState binds the interactor to one filter group. Connecting a
// group that another interactor owns takes it over and returns
// ErrDuplicateGroupRegistration.
func (f *FacetListInteractor) ConnectFilterState(fs *filterstate.FilterState, group string, op types.FilterOperator) error {
	if err := fs.SetGroup(group, op); err != nil {
		return err
	}
	claimErr := fs.Claim(group, f)

	f.mu.Lock()
	prev := f.filterSub
	f.filterState = fs
	f.group = group
	f.mu.Unlock()
	prev.Cancel()

	sub := fs.Subscribe(types.FilterStateObserverFunc(func(types.FilterSnapshot) {
		f.refresh()
	}))
	f.mu.Lock()
	f.filterSub = sub
	f.mu.Unlock()
	f.refresh()
	return claimErr
}

// ConnectSearcher requests counts for attribute and follows every response.
func (f *FacetListInteractor) ConnectSearcher(s *searcher.Searcher, attribute string) {
	f.mu.Lock()
	f.attribute = attribute
	f.mu.Unlock()
	s.AddFacet(attribute)
	s.OnResults(types.ResultObserverFunc(func(p *types.ResponsePayload) {
		f.OnResponsePayload(p.FacetCounts(attribute))
	}))
	if last := s.LastResponse(); last != nil {
		f.OnResponsePayload(last.FacetCounts(attribute))
	}
}

func (f *FacetListInteractor) ConnectController(ctrl types.FacetListController) {
	f.renderMu.Lock()
	defer f.renderMu.Unlock()
	f.mu.Lock()
	f.controllers = append(f.controllers, ctrl)
	items := slices.Clone(f.items)
	f.mu.Unlock()
	ctrl.OnSelect(func(value string) {
		// stale taps are an expected race with new responses
		_ = f.Select(value)
	})
	ctrl.Render(items)
}

// OnResponsePayload replaces the held values with counts from a response.
func (f *FacetListInteractor) OnResponsePayload(counts []types.FacetCount) {
	f.renderMu.Lock()
	defer f.renderMu.Unlock()
	f.mu.Lock()
	f.counts = slices.Clone(counts)
	f.mu.Unlock()
	f.render()
}

func (f *FacetListInteractor) refresh() {
	f.renderMu.Lock()
	defer f.renderMu.Unlock()
	f.render()
}

// render rebuilds the items from the held counts and the current filters.
// Callers hold renderMu.
func (f *FacetListInteractor) render() {
	f.mu.Lock()
	fs := f.filterState
	f.mu.Unlock()
	snapshot := types.NewFilterSnapshot()
	if fs != nil {
		snapshot = fs.Snapshot()
	}

	f.mu.Lock()
	items := make([]types.FacetValue, 0, len(f.counts))
	seen := make(map[string]struct{}, len(f.counts))
	for _, c := range f.counts {
		seen[c.Value] = struct{}{}
		items = append(items, types.FacetValue{
			Value:      c.Value,
			Count:      c.Count,
			IsSelected: snapshot.Has(f.group, c.Value),
		})
	}
	if f.persistent && f.group != "" {
		for _, v := range snapshot.Values(f.group) {
			if _, ok := seen[v]; !ok {
				items = append(items, types.FacetValue{Value: v, IsSelected: true})
			}
		}
	}
	if f.comparator != nil {
		slices.SortStableFunc(items, f.comparator)
	}
	if f.limit > 0 && len(items) > f.limit {
		items = items[:f.limit]
	}
	f.items = items
	controllers := slices.Clone(f.controllers)
	f.mu.Unlock()

	for _, c := range controllers {
		c.Render(slices.Clone(items))
	}
}

func (f *FacetListInteractor) Items() []types.FacetValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

// Select toggles value in the connected filter group. Values not present in
// the last known list are rejected with ErrStaleSelection.
func (f *FacetListInteractor) Select(value string) error {
	f.mu.Lock()
	fs, group := f.filterState, f.group
	known := slices.ContainsFunc(f.items, func(v types.FacetValue) bool { return v.Value == value })
	f.mu.Unlock()

	if !known {
		return fmt.Errorf("%w: %q", types.ErrStaleSelection, value)
	}
	if fs == nil {
		return fmt.Errorf("facet list %q has no filter state", group)
	}
	fs.Batch(func(tx *filterstate.Tx) {
		if f.mode == types.MultipleSelection {
			tx.Toggle(group, value)
			return
		}
		wasSelected := tx.Has(group, value)
		tx.Clear(group)
		if !wasSelected {
			tx.Add(group, value)
		}
	})
	return nil
}

func (f *FacetListInteractor) Disconnect() {
	f.mu.Lock()
	sub := f.filterSub
	f.filterSub = nil
	f.controllers = nil
	f.mu.Unlock()
	sub.Cancel()
}
