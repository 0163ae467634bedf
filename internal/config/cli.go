package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CLIConfig is what the operator CLI needs. Only commands that talk to the
// chain or the registry require the network fields.
type CLIConfig struct {
	RPCURL           string
	Sender           string
	ClmmPackage      string
	IntegratePackage string
	GlobalConfigID   string
	RegistryURL      string
	PostgresDSN      string
	Timeout          time.Duration
	LogLevel         string
	Output           string
}

// LoadCLI merges config file, CLMM_* environment variables and flags.
// Flags win over env, env wins over the file.
func LoadCLI(cfgFile string, flags *pflag.FlagSet) (CLIConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("CLMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("sender", "0x0")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("log-level", "warn")
	v.SetDefault("output", "text")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return CLIConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return CLIConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("clmmctl")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return CLIConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := CLIConfig{
		RPCURL:           v.GetString("rpc"),
		Sender:           v.GetString("sender"),
		ClmmPackage:      v.GetString("clmm-package"),
		IntegratePackage: v.GetString("integrate-package"),
		GlobalConfigID:   v.GetString("global-config"),
		RegistryURL:      v.GetString("registry"),
		PostgresDSN:      v.GetString("pg-dsn"),
		Timeout:          v.GetDuration("timeout"),
		LogLevel:         v.GetString("log-level"),
		Output:           v.GetString("output"),
	}
	if cfg.Output != "text" && cfg.Output != "json" {
		return CLIConfig{}, fmt.Errorf("invalid output %q: want text or json", cfg.Output)
	}
	return cfg, nil
}

// RequireChain checks the fields needed for dev-inspect calls.
func (c CLIConfig) RequireChain() error {
	if c.RPCURL == "" {
		return errors.New("--rpc (or CLMM_RPC) is required")
	}
	if c.IntegratePackage == "" {
		return errors.New("--integrate-package (or CLMM_INTEGRATE_PACKAGE) is required")
	}
	return nil
}
