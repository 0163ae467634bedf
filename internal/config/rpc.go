package config

import (
	"errors"
	"time"

	"github.com/hxuan190/clmm-route-engine/internal/common"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

type RPCConfig struct {
	RPCUrl string
	// SimulateSender is the address dev-inspect runs as. It needs no funds.
	SimulateSender string
	DialTimeout    time.Duration
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = common.GetEnvOrDefault("SUI_RPC_URL", "")
	r.SimulateSender = common.GetEnvOrDefault("SUI_SIMULATE_SENDER", "0x0")
	r.DialTimeout = common.GetEnvOrDefaultDuration("SUI_DIAL_TIMEOUT", 10*time.Second)
	return r.Validate()
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config: SUI_RPC_URL is required")
	}
	if !domain.IsValidAddress(r.SimulateSender) {
		return errors.New("invalid rpc config: SUI_SIMULATE_SENDER is not an address")
	}
	return nil
}
