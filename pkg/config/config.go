package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/matst80/slask-instant/pkg/dataset"
	"github.com/matst80/slask-instant/pkg/index"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendBleve  = "bleve"
	BackendRemote = "remote"
)

var ErrInvalidConfig = errors.New("invalid config")

type IndexConfig struct {
	index.Settings `yaml:",inline"`
	Backend        string `yaml:"backend"`
	// Dataset names an embedded dataset, File a json or json.gz record file.
	Dataset string `yaml:"dataset"`
	File    string `yaml:"file"`
	Url     string `yaml:"url"`
	ApiKey  string `yaml:"api_key"`
}

type RedisConfig struct {
	Url      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RabbitConfig struct {
	Url    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

type TrackingConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Country   string        `yaml:"country"`
	Context   string        `yaml:"context"`
	BatchSize int           `yaml:"batch_size"`
	Interval  time.Duration `yaml:"interval"`
}

type Config struct {
	ListenAddress string         `yaml:"listen"`
	Profiling     bool           `yaml:"profiling"`
	AuthSecret    string         `yaml:"auth_secret"`
	Redis         RedisConfig    `yaml:"redis"`
	Rabbit        RabbitConfig   `yaml:"rabbit"`
	Cache         CacheConfig    `yaml:"cache"`
	Tracking      TrackingConfig `yaml:"tracking"`
	Indexes       []IndexConfig  `yaml:"indexes"`
}

// Default serves every embedded dataset from memory.
func Default() *Config {
	cfg := &Config{
		ListenAddress: ":8080",
		Rabbit:        RabbitConfig{Prefix: "slask"},
		Cache:         CacheConfig{Size: 1024, TTL: time.Minute},
		Tracking:      TrackingConfig{BatchSize: 100, Interval: time.Second},
	}
	for _, name := range dataset.Names() {
		settings, _ := dataset.Settings(name)
		cfg.Indexes = append(cfg.Indexes, IndexConfig{
			Settings: settings,
			Backend:  BackendMemory,
			Dataset:  name,
		})
	}
	return cfg
}

// Load reads path over the defaults and applies the environment. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if cfg, err = Parse(data); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	cfg.applyEnvironment()
	return cfg, cfg.Validate()
}

// Parse decodes yaml over the defaults. Indexes listed in data replace the
// default ones.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	defaultIndexes := cfg.Indexes
	cfg.Indexes = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Indexes == nil {
		cfg.Indexes = defaultIndexes
	}
	for i := range cfg.Indexes {
		cfg.Indexes[i].fill()
	}
	return cfg, nil
}

// fill takes missing settings from the embedded dataset.
func (c *IndexConfig) fill() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Name == "" {
		c.Name = c.Dataset
	}
	settings, ok := dataset.Settings(c.Dataset)
	if !ok {
		return
	}
	if len(c.FacetAttributes) == 0 {
		c.FacetAttributes = settings.FacetAttributes
	}
	if len(c.SearchableAttributes) == 0 {
		c.SearchableAttributes = settings.SearchableAttributes
	}
}

func (c *Config) applyEnvironment() {
	if v := os.Getenv("LISTEN_ADDRESS"); v != "" {
		c.ListenAddress = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		c.AuthSecret = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.Url = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if v := os.Getenv("RABBIT_URL"); v != "" {
		c.Rabbit.Url = v
	} else if v := os.Getenv("RABBIT_HOST"); v != "" {
		c.Rabbit.Url = v
	}
	if v := os.Getenv("TRACKING_COUNTRY"); v != "" {
		c.Tracking.Country = v
	}
}

func (c *Config) Validate() error {
	seen := map[string]struct{}{}
	for i, idx := range c.Indexes {
		if idx.Name == "" {
			return fmt.Errorf("%w: index %d has no name", ErrInvalidConfig, i)
		}
		if _, ok := seen[idx.Name]; ok {
			return fmt.Errorf("%w: index %q defined twice", ErrInvalidConfig, idx.Name)
		}
		seen[idx.Name] = struct{}{}
		switch idx.Backend {
		case BackendMemory, BackendBleve:
			if idx.Dataset != "" {
				if _, ok := dataset.Settings(idx.Dataset); !ok {
					return fmt.Errorf("%w: index %q uses unknown dataset %q", ErrInvalidConfig, idx.Name, idx.Dataset)
				}
			}
		case BackendRemote:
			if idx.Url == "" {
				return fmt.Errorf("%w: remote index %q has no url", ErrInvalidConfig, idx.Name)
			}
		default:
			return fmt.Errorf("%w: index %q has unknown backend %q", ErrInvalidConfig, idx.Name, idx.Backend)
		}
	}
	return nil
}

func (c *Config) Index(name string) (IndexConfig, bool) {
	for _, idx := range c.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexConfig{}, false
}
