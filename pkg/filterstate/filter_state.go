package filterstate

import (
	"fmt"
	"log"
	"sync"

	"github.com/matst80/slask-instant/pkg/types"
)

type group struct {
	operator types.FilterOperator
	values   map[string]struct{}
}

// FilterState holds the active filters of one search session.
//
// Writes are serialized: a mutating call holds the write lock until every
// subscriber has been notified, so observers see changes in the order they
// were made. Observers must not mutate the state from inside a notification.
type FilterState struct {
	writeMu   sync.Mutex
	mu        sync.RWMutex
	groups    map[string]*group
	owners    map[string]any
	observers []*Subscription
	logger    *log.Logger
}

type Subscription struct {
	state    *FilterState
	observer types.FilterStateObserver
}

// Cancel detaches the observer. It is safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil || s.state == nil {
		return
	}
	s.state.unsubscribe(s)
}

func New() *FilterState {
	return &FilterState{
		groups: make(map[string]*group),
		owners: make(map[string]any),
		logger: log.Default(),
	}
}

func (f *FilterState) SetLogger(logger *log.Logger) {
	if logger != nil {
		f.logger = logger
	}
}

func (f *FilterState) Subscribe(observer types.FilterStateObserver) *Subscription {
	sub := &Subscription{state: f, observer: observer}
	f.mu.Lock()
	f.observers = append(f.observers, sub)
	f.mu.Unlock()
	return sub
}

func (f *FilterState) unsubscribe(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.observers {
		if s == sub {
			f.observers = append(f.observers[:i:i], f.observers[i+1:]...)
			return
		}
	}
}

// Claim registers owner as the mutator of a group. A second claim on the same
// group takes over and reports ErrDuplicateGroupRegistration.
func (f *FilterState) Claim(name string, owner any) error {
	if name == "" {
		return types.ErrEmptyGroupName
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.owners[name]
	f.owners[name] = owner
	if ok && prev != owner {
		f.logger.Printf("filter group %q re-registered, last registration wins", name)
		return fmt.Errorf("%w: %q", types.ErrDuplicateGroupRegistration, name)
	}
	return nil
}

func (f *FilterState) Owner(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	owner, ok := f.owners[name]
	return owner, ok
}

// SetGroup creates an empty group or replaces the operator of an existing one.
func (f *FilterState) SetGroup(name string, op types.FilterOperator) error {
	if name == "" {
		return types.ErrEmptyGroupName
	}
	if !op.Valid() {
		return fmt.Errorf("%w: group %q", types.ErrInvalidGroupOperator, name)
	}
	f.Batch(func(tx *Tx) {
		tx.setGroup(name, op)
	})
	return nil
}

func (f *FilterState) Add(name, value string) {
	f.Batch(func(tx *Tx) { tx.Add(name, value) })
}

func (f *FilterState) Remove(name, value string) {
	f.Batch(func(tx *Tx) { tx.Remove(name, value) })
}

func (f *FilterState) Toggle(name, value string) {
	f.Batch(func(tx *Tx) { tx.Toggle(name, value) })
}

func (f *FilterState) Clear(name string) {
	f.Batch(func(tx *Tx) { tx.Clear(name) })
}

func (f *FilterState) ClearAll() {
	f.Batch(func(tx *Tx) { tx.ClearAll() })
}

// Batch applies several mutations and notifies observers once, if anything
// changed.
func (f *FilterState) Batch(fn func(tx *Tx)) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.mu.Lock()
	tx := &Tx{state: f}
	fn(tx)
	tx.state = nil
	var observers []*Subscription
	var snapshot types.FilterSnapshot
	if tx.changed {
		observers = append(observers, f.observers...)
		snapshot = f.snapshotLocked()
	}
	f.mu.Unlock()

	for _, sub := range observers {
		sub.observer.FilterStateChanged(snapshot)
	}
}

func (f *FilterState) Snapshot() types.FilterSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshotLocked()
}

func (f *FilterState) snapshotLocked() types.FilterSnapshot {
	groups := make([]types.FilterGroup, 0, len(f.groups))
	for name, g := range f.groups {
		values := make([]string, 0, len(g.values))
		for v := range g.values {
			values = append(values, v)
		}
		groups = append(groups, types.FilterGroup{Name: name, Operator: g.operator, Values: values})
	}
	return types.NewFilterSnapshot(groups...)
}

func (f *FilterState) Operator(name string) (types.FilterOperator, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	g, ok := f.groups[name]
	if !ok {
		return 0, false
	}
	return g.operator, true
}

// Selected returns the sorted values of group name.
func (f *FilterState) Selected(name string) []string {
	return f.Snapshot().Values(name)
}

func (f *FilterState) IsSelected(name, value string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	g, ok := f.groups[name]
	if !ok {
		return false
	}
	_, ok = g.values[value]
	return ok
}

// Tx is the mutation handle passed to Batch. It is only valid inside the
// callback.
type Tx struct {
	state   *FilterState
	changed bool
}

func (tx *Tx) group(name string) *group {
	g, ok := tx.state.groups[name]
	if !ok {
		g = &group{operator: types.Or, values: make(map[string]struct{})}
		tx.state.groups[name] = g
	}
	return g
}

func (tx *Tx) setGroup(name string, op types.FilterOperator) {
	g, ok := tx.state.groups[name]
	if !ok {
		tx.state.groups[name] = &group{operator: op, values: make(map[string]struct{})}
		tx.changed = true
		return
	}
	if g.operator != op {
		g.operator = op
		tx.changed = true
	}
}

func (tx *Tx) Add(name, value string) {
	if name == "" {
		return
	}
	g := tx.group(name)
	if _, ok := g.values[value]; ok {
		return
	}
	g.values[value] = struct{}{}
	tx.changed = true
}

func (tx *Tx) Remove(name, value string) {
	g, ok := tx.state.groups[name]
	if !ok {
		return
	}
	if _, ok := g.values[value]; !ok {
		return
	}
	delete(g.values, value)
	tx.changed = true
}

func (tx *Tx) Toggle(name, value string) {
	if tx.Has(name, value) {
		tx.Remove(name, value)
	} else {
		tx.Add(name, value)
	}
}

func (tx *Tx) Has(name, value string) bool {
	g, ok := tx.state.groups[name]
	if !ok {
		return false
	}
	_, ok = g.values[value]
	return ok
}

func (tx *Tx) Clear(name string) {
	g, ok := tx.state.groups[name]
	if !ok || len(g.values) == 0 {
		return
	}
	clear(g.values)
	tx.changed = true
}

func (tx *Tx) ClearAll() {
	for name := range tx.state.groups {
		tx.Clear(name)
	}
}
