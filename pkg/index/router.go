package index

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/matst80/slask-instant/pkg/types"
)

// Router dispatches searches to the service registered for the requested
// index name.
type Router struct {
	mu       sync.RWMutex
	services map[string]types.SearchService
}

func NewRouter() *Router {
	return &Router{services: map[string]types.SearchService{}}
}

func (r *Router) Register(name string, service types.SearchService) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[name] = service
}

func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.services))
}

func (r *Router) Get(name string) (types.SearchService, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.services[name]
	return s, ok
}

func (r *Router) Search(ctx context.Context, req *types.SearchRequest) (*types.ResponsePayload, error) {
	service, ok := r.Get(req.Index)
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownIndex, req.Index)
	}
	return service.Search(ctx, req)
}

// Writable is a search service that accepts record changes.
type Writable interface {
	types.SearchService
	UpsertItems(hits ...types.Hit) error
	DeleteItems(objectIds ...string) error
}
