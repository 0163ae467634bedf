package config

import (
	"fmt"

	"github.com/hxuan190/clmm-route-engine/internal/common"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

// ProtocolConfig holds the on-chain ids of the CLMM deployment.
type ProtocolConfig struct {
	ClmmPackage      string
	IntegratePackage string
	GlobalConfigID   string
	ClockObjectID    string
}

func (c *ProtocolConfig) Key() string {
	return PROTOCOL_CONFIG_KEY
}

func (c *ProtocolConfig) Load() error {
	c.ClmmPackage = common.GetEnvOrDefault("CLMM_PACKAGE_ID", "")
	c.IntegratePackage = common.GetEnvOrDefault("CLMM_INTEGRATE_PACKAGE_ID", "")
	c.GlobalConfigID = common.GetEnvOrDefault("CLMM_GLOBAL_CONFIG_ID", "")
	c.ClockObjectID = common.GetEnvOrDefault("SUI_CLOCK_OBJECT_ID", common.ClockObjectID)
	return c.Validate()
}

func (c *ProtocolConfig) Validate() error {
	for name, id := range map[string]string{
		"CLMM_PACKAGE_ID":           c.ClmmPackage,
		"CLMM_INTEGRATE_PACKAGE_ID": c.IntegratePackage,
		"CLMM_GLOBAL_CONFIG_ID":     c.GlobalConfigID,
		"SUI_CLOCK_OBJECT_ID":       c.ClockObjectID,
	} {
		if !domain.IsValidAddress(id) {
			return fmt.Errorf("invalid protocol config: %s=%q", name, id)
		}
	}
	return nil
}
