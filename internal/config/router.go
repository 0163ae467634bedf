package config

import (
	"errors"
	"time"

	"github.com/hxuan190/clmm-route-engine/internal/common"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

type RouterConfig struct {
	RegistryURL     string
	ReloadInterval  time.Duration
	RegistryTimeout time.Duration
	RegistryRetries int

	MaxCandidates int
	QuoteTimeout  time.Duration
	// QuoteCacheTTL of zero disables the route quote cache.
	QuoteCacheTTL time.Duration
	SnapshotTTL   time.Duration
}

func (c *RouterConfig) Key() string {
	return ROUTER_CONFIG_KEY
}

func (c *RouterConfig) Load() error {
	c.RegistryURL = common.GetEnvOrDefault("REGISTRY_URL", "")
	c.ReloadInterval = common.GetEnvOrDefaultDuration("REGISTRY_RELOAD_INTERVAL", common.DefaultReloadInterval)
	c.RegistryTimeout = common.GetEnvOrDefaultDuration("REGISTRY_TIMEOUT", 15*time.Second)
	c.RegistryRetries = common.GetEnvOrDefaultInt("REGISTRY_MAX_RETRIES", 3)
	c.MaxCandidates = common.GetEnvOrDefaultInt("ROUTER_MAX_CANDIDATES", router.MaxCandidates)
	c.QuoteTimeout = common.GetEnvOrDefaultDuration("QUOTE_TIMEOUT", common.DefaultQuoteTimeout)
	c.QuoteCacheTTL = common.GetEnvOrDefaultDuration("QUOTE_CACHE_TTL", common.DefaultQuoteCacheTTL)
	c.SnapshotTTL = common.GetEnvOrDefaultDuration("POOL_SNAPSHOT_TTL", common.DefaultSnapshotTTL)
	return c.Validate()
}

func (c *RouterConfig) Validate() error {
	if c.RegistryURL == "" {
		return errors.New("invalid router config: REGISTRY_URL is required")
	}
	if c.ReloadInterval <= 0 || c.QuoteTimeout <= 0 {
		return errors.New("invalid router config: intervals must be positive")
	}
	if c.MaxCandidates <= 0 || c.MaxCandidates > router.MaxCandidates {
		return errors.New("invalid router config: ROUTER_MAX_CANDIDATES out of range")
	}
	if c.RegistryRetries < 0 || c.QuoteCacheTTL < 0 || c.SnapshotTTL < 0 {
		return errors.New("invalid router config: negative value")
	}
	return nil
}
