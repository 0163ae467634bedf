package main

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hxuan190/clmm-route-engine/internal/dlmm/binmath"
)

type binOutput struct {
	BinID   int32  `json:"binId"`
	BinStep uint16 `json:"binStep"`
	Price   string `json:"price"`
}

func newBinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bin <binId|price>",
		Short: "Convert between a DLMM bin id and its price",
		Long:  "With --price the argument is read as a price and mapped to its bin, otherwise as a bin id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, _ := cmd.Flags().GetUint16("bin-step")
			byPrice, _ := cmd.Flags().GetBool("price")
			roundUp, _ := cmd.Flags().GetBool("round-up")

			var binID int32
			if byPrice {
				price, err := decimal.NewFromString(args[0])
				if err != nil {
					return fmt.Errorf("invalid price %q: %w", args[0], err)
				}
				if binID, err = binmath.PriceToBinID(price, step, roundUp); err != nil {
					return err
				}
			} else {
				id, err := strconv.ParseInt(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid bin id %q: %w", args[0], err)
				}
				binID = int32(id)
			}

			price, err := binmath.BinIDToPrice(binID, step)
			if err != nil {
				return err
			}
			out := binOutput{BinID: binID, BinStep: step, Price: price.String()}
			return emit(out,
				field{"bin_id", out.BinID},
				field{"bin_step", out.BinStep},
				field{"price", out.Price},
			)
		},
	}
	cmd.Flags().Uint16("bin-step", 0, "bin step in basis points")
	cmd.Flags().Bool("price", false, "read the argument as a price")
	cmd.Flags().Bool("round-up", false, "take the bin above when the price falls between bins")
	_ = cmd.MarkFlagRequired("bin-step")
	return cmd
}
