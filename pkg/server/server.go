package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/matst80/slask-instant/pkg/auth"
	"github.com/matst80/slask-instant/pkg/cache"
	"github.com/matst80/slask-instant/pkg/common"
	"github.com/matst80/slask-instant/pkg/index"
	"github.com/matst80/slask-instant/pkg/messaging"
	"github.com/matst80/slask-instant/pkg/tracking"
	"github.com/matst80/slask-instant/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	noRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskinstant_http_searches_total",
		Help: "Search requests handled by the server",
	}, []string{"index", "status"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slaskinstant_http_search_duration_seconds",
		Help:    "Time spent answering search requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"index"})
	noChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskinstant_index_changes_total",
		Help: "Applied record changes",
	}, []string{"index", "kind"})
)

var ErrReadOnlyIndex = errors.New("index is read only")

// Index is one searchable index served by the server.
type Index struct {
	Name    string
	Service types.SearchService
	// Writer receives record changes, nil for read only indexes.
	Writer index.Writable
	// Cache is purged when the index changes.
	Cache *cache.Cache
}

type WebServer struct {
	Router    *index.Router
	Keys      *auth.Keys
	Tracking  types.Tracker
	Profiling bool

	mu      sync.RWMutex
	indexes map[string]Index
}

func NewWebServer() *WebServer {
	return &WebServer{
		Router:   index.NewRouter(),
		Tracking: tracking.NopTracking{},
		indexes:  map[string]Index{},
	}
}

func (ws *WebServer) Register(idx Index) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.indexes[idx.Name] = idx
	ws.Router.Register(idx.Name, idx.Service)
}

func (ws *WebServer) getIndex(name string) (Index, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	idx, ok := ws.indexes[name]
	return idx, ok
}

// ApplyChange writes upserted and deleted records to the named index and
// purges its cache.
func (ws *WebServer) ApplyChange(change messaging.IndexChange) error {
	idx, ok := ws.getIndex(change.Index)
	if !ok {
		return fmt.Errorf("%w: %q", types.ErrUnknownIndex, change.Index)
	}
	if idx.Writer == nil {
		return fmt.Errorf("%w: %s", ErrReadOnlyIndex, change.Index)
	}
	if len(change.Upserted) > 0 {
		if err := idx.Writer.UpsertItems(change.Upserted...); err != nil {
			return fmt.Errorf("upsert into %s: %w", change.Index, err)
		}
		noChanges.WithLabelValues(change.Index, "upsert").Add(float64(len(change.Upserted)))
	}
	if len(change.Deleted) > 0 {
		if err := idx.Writer.DeleteItems(change.Deleted...); err != nil {
			return fmt.Errorf("delete from %s: %w", change.Index, err)
		}
		noChanges.WithLabelValues(change.Index, "delete").Add(float64(len(change.Deleted)))
	}
	if idx.Cache != nil {
		idx.Cache.Purge()
	}
	log.Printf("Applied change to %s: %d upserted, %d deleted", change.Index, len(change.Upserted), len(change.Deleted))
	return nil
}

func (ws *WebServer) Handler() *http.ServeMux {
	srv := http.NewServeMux()

	srv.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	srv.Handle("/metrics", promhttp.Handler())
	srv.HandleFunc("/search", common.JsonHandler(ws.Search))
	srv.HandleFunc("/indexes", common.JsonHandler(ws.Indexes))
	// writes are only accepted with signed keys
	if ws.Keys != nil {
		srv.HandleFunc("/changes", common.JsonHandler(ws.Changes))
	}

	if ws.Profiling {
		srv.HandleFunc("/debug/pprof/", pprof.Index)
		srv.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		srv.HandleFunc("/debug/pprof/profile", pprof.Profile)
		srv.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		srv.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return srv
}
