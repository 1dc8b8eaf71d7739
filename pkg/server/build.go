package server

import (
	"fmt"
	"log"

	"github.com/matst80/slask-instant/pkg/bleveindex"
	"github.com/matst80/slask-instant/pkg/cache"
	"github.com/matst80/slask-instant/pkg/config"
	"github.com/matst80/slask-instant/pkg/dataset"
	"github.com/matst80/slask-instant/pkg/index"
	"github.com/matst80/slask-instant/pkg/remote"
	"github.com/matst80/slask-instant/pkg/types"
)

func loadRecords(cfg config.IndexConfig) ([]types.Hit, error) {
	switch {
	case cfg.File != "":
		return dataset.LoadFile(cfg.File)
	case cfg.Dataset != "":
		return dataset.Load(cfg.Dataset)
	}
	return []types.Hit{}, nil
}

// BuildIndex creates the index described by cfg and fills it with its
// records. The search service is wrapped in a cache when cacheOpts is set.
func BuildIndex(cfg config.IndexConfig, cacheOpts *cache.Options) (Index, error) {
	idx := Index{Name: cfg.Name}
	switch cfg.Backend {
	case config.BackendRemote:
		idx.Service = remote.NewClient(cfg.Url, cfg.ApiKey)
	case config.BackendBleve:
		b, err := bleveindex.New(cfg.Settings)
		if err != nil {
			return idx, err
		}
		idx.Service, idx.Writer = b, b
	default:
		m := index.NewIndex(cfg.Settings)
		idx.Service, idx.Writer = m, m
	}

	if idx.Writer != nil {
		records, err := loadRecords(cfg)
		if err != nil {
			return idx, fmt.Errorf("records for %s: %w", cfg.Name, err)
		}
		if err = idx.Writer.UpsertItems(records...); err != nil {
			return idx, fmt.Errorf("index %s: %w", cfg.Name, err)
		}
		log.Printf("Index %s (%s) ready with %d records", cfg.Name, cfg.Backend, len(records))
	}

	if cacheOpts != nil {
		opts := *cacheOpts
		if opts.Prefix == "" {
			opts.Prefix = "slask-instant:"
		}
		opts.Prefix = fmt.Sprintf("%s%s:", opts.Prefix, cfg.Name)
		c, err := cache.New(idx.Service, opts)
		if err != nil {
			return idx, err
		}
		idx.Service, idx.Cache = c, c
	}
	return idx, nil
}
