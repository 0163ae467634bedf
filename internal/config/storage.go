package config

import (
	"github.com/hxuan190/clmm-route-engine/internal/adapters/persistence"
	"github.com/hxuan190/clmm-route-engine/internal/common"
)

type StorageConfig struct {
	// DBPath is the BoltDB file holding the last good registry snapshot.
	DBPath string

	// PersistenceEnabled controls the warm-start snapshot.
	PersistenceEnabled bool

	// PostgresDSN enables the quote journal and pool mirror when set.
	PostgresDSN string
}

func (c *StorageConfig) Key() string {
	return STORAGE_CONFIG_KEY
}

func (c *StorageConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("CLMM_DB_PATH", persistence.DefaultDBPath)
	c.PersistenceEnabled = common.GetEnvOrDefaultBool("CLMM_PERSISTENCE_ENABLED", true)
	c.PostgresDSN = common.GetEnvOrDefault("PG_DSN", "")
	return c.Validate()
}

func (c *StorageConfig) Validate() error {
	return nil
}
