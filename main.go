package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/matst80/slask-instant/pkg/auth"
	"github.com/matst80/slask-instant/pkg/cache"
	"github.com/matst80/slask-instant/pkg/common"
	"github.com/matst80/slask-instant/pkg/config"
	"github.com/matst80/slask-instant/pkg/messaging"
	"github.com/matst80/slask-instant/pkg/server"
	"github.com/matst80/slask-instant/pkg/tracking"
	amqp "github.com/rabbitmq/amqp091-go"
)

var configFile = flag.String("config", "slask-instant.yaml", "config file, defaults apply when missing")
var enableProfiling = flag.Bool("profiling", false, "enable profiling endpoints")

func cacheOptions(cfg *config.Config) *cache.Options {
	if cfg.Cache.Size <= 0 {
		return nil
	}
	opts := &cache.Options{Size: cfg.Cache.Size, TTL: cfg.Cache.TTL}
	if cfg.Redis.Url != "" {
		opts.Store = cache.NewRedisStore(cfg.Redis.Url, cfg.Redis.Password, cfg.Redis.DB)
		log.Printf("Using redis %s as shared cache", cfg.Redis.Url)
	}
	return opts
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	srv := server.NewWebServer()
	srv.Profiling = cfg.Profiling || *enableProfiling
	if cfg.AuthSecret != "" {
		srv.Keys = auth.NewKeys(cfg.AuthSecret)
	} else {
		log.Println("No auth secret, search is open and /changes is disabled")
	}

	cacheOpts := cacheOptions(cfg)
	for _, indexConfig := range cfg.Indexes {
		idx, err := server.BuildIndex(indexConfig, cacheOpts)
		if err != nil {
			log.Fatalf("Failed to build index %s: %v", indexConfig.Name, err)
		}
		srv.Register(idx)
	}

	var conn *amqp.Connection
	if cfg.Rabbit.Url != "" {
		if cfg.Tracking.Enabled {
			tracker, err := tracking.ConnectRabbitTracking(cfg.Rabbit.Url, cfg.Rabbit.Prefix, tracking.RabbitTrackingConfig{
				Country:   cfg.Tracking.Country,
				Context:   cfg.Tracking.Context,
				BatchSize: cfg.Tracking.BatchSize,
				Interval:  cfg.Tracking.Interval,
			})
			if err != nil {
				log.Printf("Failed to connect tracking: %v", err)
			} else {
				srv.Tracking = tracker
			}
		}

		conn, err = messaging.Dial(cfg.Rabbit.Url)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		if err = messaging.ListenToChanges(conn, cfg.Rabbit.Prefix, srv.ApplyChange); err != nil {
			log.Fatalf("Failed to listen for index changes: %v", err)
		}
		log.Printf("Listening for index changes with prefix %s", cfg.Rabbit.Prefix)
	} else {
		log.Println("No RabbitMQ url, index changes only through /changes")
	}

	timeouts := common.LoadTimeoutConfig(common.DefaultTimeoutConfig())
	httpServer := common.NewServerWithTimeouts(&http.Server{
		Addr:    cfg.ListenAddress,
		Handler: srv.Handler(),
	}, timeouts)

	common.RunServerWithShutdown(httpServer, "search server", timeouts,
		func(ctx context.Context) error {
			return srv.Tracking.Close()
		},
		func(ctx context.Context) error {
			if conn == nil {
				return nil
			}
			return conn.Close()
		},
	)
}
