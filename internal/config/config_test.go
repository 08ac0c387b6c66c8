package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/feedcrawl/internal/config"
)

func TestNewDefaults(t *testing.T) {
	cfg := config.New()

	assert.Equal(t, config.DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, config.DefaultMaxRedirects, cfg.MaxRedirects)
	assert.Equal(t, config.DefaultMaxItemsPerPage, cfg.MaxItemsPerPage)
	assert.Equal(t, config.DefaultRoundInterval, cfg.RoundInterval)
	assert.Equal(t, config.DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, config.DefaultPoolSize, cfg.PoolSize)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("crawler.links", []string{"http://example.com/feed"})
	v.Set("crawler.user_agent", "test-agent/0.1")
	v.Set("crawler.max_redirects", 2)
	v.Set("crawler.round_interval", "5s")
	v.Set("crawler.cache_ttl", "30s")
	v.Set("crawler.pool_size", 3)
	v.Set("crawler.allow_rss", true)
	v.Set("crawler.deep_traverse", true)

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, []string{"http://example.com/feed"}, cfg.Links)
	assert.Equal(t, "test-agent/0.1", cfg.UserAgent)
	assert.Equal(t, 2, cfg.MaxRedirects)
	assert.Equal(t, 5*time.Second, cfg.RoundInterval)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.PoolSize)
	assert.True(t, cfg.AllowRSS)
	assert.True(t, cfg.DeepTraverse)
}

func TestLoadUnsetKeysKeepDefaults(t *testing.T) {
	v := viper.New()
	v.Set("crawler.pool_size", 1)

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.PoolSize)
	assert.Equal(t, config.DefaultRoundInterval, cfg.RoundInterval)
	assert.Equal(t, config.DefaultRequestTimeout, cfg.RequestTimeout)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero pool size", func(c *config.Config) { c.PoolSize = 0 }},
		{"negative redirects", func(c *config.Config) { c.MaxRedirects = -1 }},
		{"zero round interval", func(c *config.Config) { c.RoundInterval = 0 }},
		{"zero round timeout", func(c *config.Config) { c.RoundTimeout = 0 }},
		{"zero item cap", func(c *config.Config) { c.MaxItemsPerPage = 0 }},
		{"zero cache ttl", func(c *config.Config) { c.CacheTTL = 0 }},
		{"empty user agent", func(c *config.Config) { c.UserAgent = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCacheTTLCoversInterval(t *testing.T) {
	cfg := config.New()
	cfg.RoundInterval = 10 * time.Second
	cfg.CacheTTL = time.Minute
	assert.True(t, cfg.CacheTTLCoversInterval())

	// A TTL at or below the interval allows duplicate delivery.
	cfg.CacheTTL = 10 * time.Second
	assert.False(t, cfg.CacheTTLCoversInterval())
}
