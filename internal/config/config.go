// Package config provides configuration management for the feed crawler.
// It handles loading, validation, and access to crawler settings such as
// the feed list, concurrency, round timing, and the dedup cache TTL.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values
const (
	// DefaultUserAgent identifies the crawler to feed servers.
	DefaultUserAgent = "feedcrawl/1.0"
	// DefaultMaxRedirects is the maximum number of 301 redirects followed per fetch.
	DefaultMaxRedirects = 5
	// DefaultMaxItemsPerPage caps the elements examined on a single feed page.
	DefaultMaxItemsPerPage = 1000
	// DefaultRoundInterval is the sleep between crawl rounds.
	DefaultRoundInterval = 60 * time.Second
	// DefaultRoundTimeout bounds how long one round waits for its slowest feed.
	DefaultRoundTimeout = 90 * time.Second
	// DefaultCacheTTL is how long an item fingerprint stays in the dedup cache.
	// Must exceed the round interval or items can be delivered twice.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultPoolSize is the number of concurrent feed crawls per round.
	DefaultPoolSize = 5
	// DefaultRequestTimeout is the per-request HTTP timeout.
	DefaultRequestTimeout = 30 * time.Second
)

// Config represents the crawler configuration.
type Config struct {
	// Links is the initial list of feed URLs to crawl.
	Links []string `yaml:"links"`
	// UserAgent is the user agent to use for requests
	UserAgent string `yaml:"user_agent"`
	// MaxRedirects is the maximum number of redirects to follow per fetch
	MaxRedirects int `yaml:"max_redirects"`
	// MaxItemsPerPage caps the elements examined on one feed page
	MaxItemsPerPage int `yaml:"max_items_per_page"`
	// RoundInterval is the sleep between rounds over the feed list
	RoundInterval time.Duration `yaml:"round_interval"`
	// RoundTimeout bounds each round's wait for outstanding feeds
	RoundTimeout time.Duration `yaml:"round_timeout"`
	// CacheTTL is the dedup cache entry lifetime
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// PoolSize is the worker pool size (concurrent feed crawls)
	PoolSize int `yaml:"pool_size"`
	// RequestTimeout is the timeout for each HTTP request
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// AllowRSS permits plain RSS/Atom feeds in addition to the microblog dialect
	AllowRSS bool `yaml:"allow_rss"`
	// DeepTraverse follows each feed's full pagination chain every round
	DeepTraverse bool `yaml:"deep_traverse"`
	// DeepTraverseCron optionally schedules deep traversal rounds (cron expression)
	DeepTraverseCron string `yaml:"deep_traverse_cron"`
	// StartTime is the initial crawl baseline; zero means "now"
	StartTime time.Time `yaml:"start_time"`
	// Debug enables debug logging
	Debug bool `yaml:"debug"`
}

// New returns a Config populated with documented defaults.
func New() *Config {
	return &Config{
		UserAgent:       DefaultUserAgent,
		MaxRedirects:    DefaultMaxRedirects,
		MaxItemsPerPage: DefaultMaxItemsPerPage,
		RoundInterval:   DefaultRoundInterval,
		RoundTimeout:    DefaultRoundTimeout,
		CacheTTL:        DefaultCacheTTL,
		PoolSize:        DefaultPoolSize,
		RequestTimeout:  DefaultRequestTimeout,
	}
}

// Load builds a Config from viper, applying defaults for unset keys.
// Viper must already have its config file and environment bindings set up.
func Load(v *viper.Viper) (*Config, error) {
	cfg := New()

	cfg.Links = v.GetStringSlice("crawler.links")
	if s := v.GetString("crawler.user_agent"); s != "" {
		cfg.UserAgent = s
	}
	if v.IsSet("crawler.max_redirects") {
		cfg.MaxRedirects = v.GetInt("crawler.max_redirects")
	}
	if v.IsSet("crawler.max_items_per_page") {
		cfg.MaxItemsPerPage = v.GetInt("crawler.max_items_per_page")
	}
	if v.IsSet("crawler.round_interval") {
		cfg.RoundInterval = v.GetDuration("crawler.round_interval")
	}
	if v.IsSet("crawler.round_timeout") {
		cfg.RoundTimeout = v.GetDuration("crawler.round_timeout")
	}
	if v.IsSet("crawler.cache_ttl") {
		cfg.CacheTTL = v.GetDuration("crawler.cache_ttl")
	}
	if v.IsSet("crawler.pool_size") {
		cfg.PoolSize = v.GetInt("crawler.pool_size")
	}
	if v.IsSet("crawler.request_timeout") {
		cfg.RequestTimeout = v.GetDuration("crawler.request_timeout")
	}
	cfg.AllowRSS = v.GetBool("crawler.allow_rss")
	cfg.DeepTraverse = v.GetBool("crawler.deep_traverse")
	cfg.DeepTraverseCron = v.GetString("crawler.deep_traverse_cron")
	cfg.Debug = v.GetBool("app.debug")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
// The round-interval/cache-TTL relationship is deliberately not enforced
// here; see CacheTTLCoversInterval.
func (c *Config) Validate() error {
	if c.PoolSize < 1 {
		return errors.New("pool_size must be at least 1")
	}
	if c.RoundInterval <= 0 {
		return errors.New("round_interval must be positive")
	}
	if c.RoundTimeout <= 0 {
		return errors.New("round_timeout must be positive")
	}
	if c.MaxRedirects < 0 {
		return errors.New("max_redirects cannot be negative")
	}
	if c.MaxItemsPerPage < 1 {
		return errors.New("max_items_per_page must be at least 1")
	}
	if c.CacheTTL <= 0 {
		return errors.New("cache_ttl must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.UserAgent == "" {
		return errors.New("user_agent cannot be empty")
	}
	return nil
}

// CacheTTLCoversInterval reports whether the dedup cache TTL exceeds the
// round interval. When false, items can be re-delivered across rounds.
// Callers should warn rather than fail: the relationship is an operational
// invariant, not a hard constraint.
func (c *Config) CacheTTLCoversInterval() bool {
	return c.CacheTTL > c.RoundInterval
}
