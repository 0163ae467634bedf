// Command clmmctl is the operator CLI: offline CLMM math plus route, pool and
// position queries against a node.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hxuan190/clmm-route-engine/internal/common"
	"github.com/hxuan190/clmm-route-engine/internal/config"
)

var cfg config.CLIConfig

func main() {
	root := &cobra.Command{
		Use:           "clmmctl",
		Short:         "Sui CLMM math and routing toolkit",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			loaded, err := config.LoadCLI(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			cfg = loaded
			common.InitLogger(cfg.LogLevel, config.DevEnv)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path (default ./clmmctl.yaml when present)")
	pf.String("rpc", "", "Sui JSON-RPC URL")
	pf.String("sender", "0x0", "address dev-inspect runs as")
	pf.String("clmm-package", "", "CLMM package id")
	pf.String("integrate-package", "", "integrate package id holding the fetcher and router scripts")
	pf.String("global-config", "", "CLMM global config object id")
	pf.String("registry", "", "pool registry URL")
	pf.String("pg-dsn", "", "Postgres DSN of the quote journal")
	pf.Duration("timeout", 10*time.Second, "timeout of network commands")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringP("output", "o", "text", "output format (text, json)")

	root.AddCommand(
		newTickCmd(),
		newPriceCmd(),
		newLiquidityCmd(),
		newRemoveCmd(),
		newRouteCmd(),
		newPoolCmd(),
		newPoolQuoteCmd(),
		newPositionsCmd(),
		newVolumeCmd(),
		newBinCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
