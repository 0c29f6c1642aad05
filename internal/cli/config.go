package cli

import (
	"context"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/pageloom/pageloom/pkg/cache"
	"github.com/pageloom/pageloom/pkg/errors"
	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/inject"
	"github.com/pageloom/pageloom/pkg/page"
	"github.com/pageloom/pageloom/pkg/registry"
)

// defaultConfigFile is looked up in the working directory when --config is
// not given.
const defaultConfigFile = "pageloom.toml"

// duration makes time.Duration TOML-decodable from strings like "30s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Config is the decoded pageloom.toml.
type Config struct {
	Cache CacheConfig  `toml:"cache"`
	Fetch FetchConfig  `toml:"fetch"`
	Rules []RuleConfig `toml:"rule"`
}

// CacheConfig selects and parameterizes the persistent cache backend.
type CacheConfig struct {
	// Backend is one of "file", "memory", "redis", "mongo", "none".
	Backend string `toml:"backend"`

	// Path is the file backend's directory. Defaults to the XDG cache dir.
	Path string `toml:"path"`

	// TTL expires entries in backends that support it. Zero keeps forever.
	TTL duration `toml:"ttl"`

	// CacheErrors stores provider failures too.
	CacheErrors bool `toml:"cache_errors"`

	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

type RedisConfig struct {
	Addr   string `toml:"addr"`
	Prefix string `toml:"prefix"`
}

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// FetchConfig bounds the transport.
type FetchConfig struct {
	Concurrency int      `toml:"concurrency"`
	Attempts    int      `toml:"attempts"`
	Timeout     duration `toml:"timeout"`
}

// RuleConfig declares one substitution rule by registered type names.
type RuleConfig struct {
	Use       string   `toml:"use"`
	InsteadOf string   `toml:"instead_of"`
	Produces  string   `toml:"produces"`
	Include   []string `toml:"include"`
	Exclude   []string `toml:"exclude"`
}

// loadConfig reads the config file. A missing default file yields the zero
// config; a missing explicit --config path is an error.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	cfg := &Config{}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
		}
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing %s", path)
	}
	return cfg, nil
}

// newCacheBackend builds the configured cache. The caller owns Close.
func newCacheBackend(cfg CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "", "file":
		dir := cfg.Path
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir, time.Duration(cfg.TTL))
	case "memory":
		return cache.NewMemoryCache(), nil
	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "redis backend needs cache.redis.addr")
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		return cache.NewRedisCache(client, cfg.Redis.Prefix, time.Duration(cfg.TTL)), nil
	case "mongo":
		if cfg.Mongo.URI == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo backend needs cache.mongo.uri")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return cache.NewMongoCache(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
	case "none":
		return cache.NewNullCache(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Backend)
	}
}

// buildRules turns name-based rule declarations into typed registry rules,
// appending them after the built-in defaults so user rules win ties.
func buildRules(cfg *Config, catalog *page.Catalog) (*registry.Registry, error) {
	reg, err := registry.New(builtinRules()...)
	if err != nil {
		return nil, err
	}
	for _, rc := range cfg.Rules {
		rule := registry.Rule{Include: rc.Include, Exclude: rc.Exclude}
		if rule.Use, err = catalog.TypeByName(rc.Use); err != nil {
			return nil, err
		}
		if rc.InsteadOf != "" {
			if rule.InsteadOf, err = catalog.TypeByName(rc.InsteadOf); err != nil {
				return nil, err
			}
		}
		if rc.Produces != "" {
			if rule.Produces, err = catalog.ItemByName(rc.Produces); err != nil {
				return nil, err
			}
		}
		if err := reg.Add(rule); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// engine bundles everything a command needs to process requests.
type engine struct {
	injector *inject.Injector
	catalog  *page.Catalog
	store    cache.Cache
}

func (e *engine) close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

// newEngine assembles the injector from the config: built-in catalog and
// rules, configured cache backend, bounded transport.
func newEngine(cfg *Config, logger *log.Logger, noCache bool) (*engine, error) {
	catalog, err := builtinCatalog()
	if err != nil {
		return nil, err
	}
	rules, err := buildRules(cfg, catalog)
	if err != nil {
		return nil, err
	}

	var store cache.Cache
	if noCache {
		store = cache.NewNullCache()
	} else if store, err = newCacheBackend(cfg.Cache); err != nil {
		return nil, err
	}

	client := fetch.NewClient(fetch.Options{
		Concurrency: cfg.Fetch.Concurrency,
		Attempts:    cfg.Fetch.Attempts,
		Timeout:     time.Duration(cfg.Fetch.Timeout),
	})

	logger.Debug("engine assembled",
		"cache", cfg.Cache.Backend,
		"rules", len(cfg.Rules),
		"pages", len(catalog.Names()))

	return &engine{
		injector: inject.New(inject.Options{
			Catalog:     catalog,
			Rules:       rules,
			Cache:       store,
			CacheErrors: cfg.Cache.CacheErrors,
			Client:      client,
		}),
		catalog: catalog,
		store:   store,
	}, nil
}
