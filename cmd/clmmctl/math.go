package main

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/liquidity"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
)

func parseBig(name, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return nil, fmt.Errorf("invalid %s %q: want a positive integer", name, s)
	}
	return v, nil
}

// currentSqrtPrice reads --sqrt-price, or converts --tick.
func currentSqrtPrice(cmd *cobra.Command) (*big.Int, error) {
	if s, _ := cmd.Flags().GetString("sqrt-price"); s != "" {
		return parseBig("sqrt-price", s)
	}
	if cmd.Flags().Changed("tick") {
		tick, _ := cmd.Flags().GetInt32("tick")
		return tickmath.TickIndexToSqrtPriceX64(tick)
	}
	return nil, errors.New("--sqrt-price or --tick is required")
}

func slippageFlag(cmd *cobra.Command) (decimal.Decimal, error) {
	s, _ := cmd.Flags().GetString("slippage")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid slippage %q: %w", s, err)
	}
	return d, nil
}

type tickOutput struct {
	Tick          int32  `json:"tick"`
	SqrtPrice     string `json:"sqrtPrice"`
	Price         string `json:"price"`
	Initializable *int32 `json:"initializable,omitempty"`
	MinUsable     *int32 `json:"minUsable,omitempty"`
	MaxUsable     *int32 `json:"maxUsable,omitempty"`
}

func tickInfo(tick int32, sqrtPrice *big.Int, decA, decB, spacing int32) (tickOutput, []field, error) {
	out := tickOutput{
		Tick:      tick,
		SqrtPrice: sqrtPrice.String(),
		Price:     tickmath.SqrtPriceX64ToPrice(sqrtPrice, decA, decB).String(),
	}
	fields := []field{{"tick", out.Tick}, {"sqrt_price", out.SqrtPrice}, {"price", out.Price}}
	if spacing > 0 {
		init, err := tickmath.GetInitializableTickIndex(tick, spacing)
		if err != nil {
			return tickOutput{}, nil, err
		}
		minUsable, maxUsable := tickmath.MinUsableTick(spacing), tickmath.MaxUsableTick(spacing)
		out.Initializable, out.MinUsable, out.MaxUsable = &init, &minUsable, &maxUsable
		fields = append(fields,
			field{"initializable", init},
			field{"min_usable", minUsable},
			field{"max_usable", maxUsable},
		)
	}
	return out, fields, nil
}

func addDecimalsFlags(cmd *cobra.Command) {
	cmd.Flags().Int32("decimals-a", 0, "decimals of coin A")
	cmd.Flags().Int32("decimals-b", 0, "decimals of coin B")
	cmd.Flags().Int32("spacing", 0, "tick spacing; adds initializable and usable ticks")
}

func decimalsFlags(cmd *cobra.Command) (decA, decB, spacing int32) {
	decA, _ = cmd.Flags().GetInt32("decimals-a")
	decB, _ = cmd.Flags().GetInt32("decimals-b")
	spacing, _ = cmd.Flags().GetInt32("spacing")
	return
}

func newTickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tick [index]",
		Short: "Convert a tick index to its sqrt price and price, or back with --sqrt-price",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decA, decB, spacing := decimalsFlags(cmd)
			sqrtFlag, _ := cmd.Flags().GetString("sqrt-price")

			var (
				tick      int32
				sqrtPrice *big.Int
				err       error
			)
			switch {
			case len(args) == 1 && sqrtFlag == "":
				v, perr := strconv.ParseInt(args[0], 10, 32)
				if perr != nil {
					return fmt.Errorf("invalid tick %q", args[0])
				}
				tick = int32(v)
				sqrtPrice, err = tickmath.TickIndexToSqrtPriceX64(tick)
			case len(args) == 0 && sqrtFlag != "":
				if sqrtPrice, err = parseBig("sqrt-price", sqrtFlag); err != nil {
					return err
				}
				tick, err = tickmath.SqrtPriceX64ToTickIndex(sqrtPrice)
			default:
				return errors.New("give a tick index or --sqrt-price, not both")
			}
			if err != nil {
				return err
			}

			out, fields, err := tickInfo(tick, sqrtPrice, decA, decB, spacing)
			if err != nil {
				return err
			}
			return emit(out, fields...)
		},
	}
	cmd.Flags().String("sqrt-price", "", "Q64.64 sqrt price to convert instead of a tick")
	addDecimalsFlags(cmd)
	return cmd
}

func newPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price <price>",
		Short: "Convert a price of coin A in coin B to the tick and sqrt price below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", args[0], err)
			}
			decA, decB, spacing := decimalsFlags(cmd)
			sqrtPrice, err := tickmath.PriceToSqrtPriceX64(price, decA, decB)
			if err != nil {
				return err
			}
			tick, err := tickmath.SqrtPriceX64ToTickIndex(sqrtPrice)
			if err != nil {
				return err
			}
			out, fields, err := tickInfo(tick, sqrtPrice, decA, decB, spacing)
			if err != nil {
				return err
			}
			return emit(out, fields...)
		},
	}
	addDecimalsFlags(cmd)
	return cmd
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().Int32("lower", 0, "lower tick of the position")
	cmd.Flags().Int32("upper", 0, "upper tick of the position")
	cmd.Flags().String("sqrt-price", "", "current Q64.64 sqrt price of the pool")
	cmd.Flags().Int32("tick", 0, "current tick of the pool, when --sqrt-price is not given")
	cmd.Flags().String("slippage", "0", "slippage fraction, e.g. 0.01")
	_ = cmd.MarkFlagRequired("lower")
	_ = cmd.MarkFlagRequired("upper")
}

func newLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liquidity",
		Short: "Quote the liquidity and coin amounts of a deposit fixed on one coin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lower, _ := cmd.Flags().GetInt32("lower")
			upper, _ := cmd.Flags().GetInt32("upper")
			fixA, _ := cmd.Flags().GetBool("fix-a")
			roundUp, _ := cmd.Flags().GetBool("round-up")
			amountStr, _ := cmd.Flags().GetString("amount")

			amount, err := parseBig("amount", amountStr)
			if err != nil {
				return err
			}
			cur, err := currentSqrtPrice(cmd)
			if err != nil {
				return err
			}
			slippage, err := slippageFlag(cmd)
			if err != nil {
				return err
			}

			res, err := liquidity.EstimateLiquidityAndCoinAmount(lower, upper, amount, fixA, roundUp, slippage, cur)
			if err != nil {
				return err
			}
			return emit(res,
				field{"liquidity", res.Liquidity},
				field{"amount_a", res.AmountA},
				field{"amount_b", res.AmountB},
				field{"limit_a", res.TokenMaxA},
				field{"limit_b", res.TokenMaxB},
				field{"fix_amount_a", res.FixAmountA},
			)
		},
	}
	addRangeFlags(cmd)
	cmd.Flags().String("amount", "", "amount of the fixed coin in base units")
	cmd.Flags().Bool("fix-a", true, "fix coin A (false fixes coin B)")
	cmd.Flags().Bool("round-up", true, "quote maximum limits (false quotes minimums)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Quote the coins paid out for removing liquidity from a position",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lower, _ := cmd.Flags().GetInt32("lower")
			upper, _ := cmd.Flags().GetInt32("upper")
			deltaStr, _ := cmd.Flags().GetString("liquidity")
			posStr, _ := cmd.Flags().GetString("position-liquidity")

			delta, err := parseBig("liquidity", deltaStr)
			if err != nil {
				return err
			}
			posLiq := delta
			if posStr != "" {
				if posLiq, err = parseBig("position-liquidity", posStr); err != nil {
					return err
				}
			}
			cur, err := currentSqrtPrice(cmd)
			if err != nil {
				return err
			}
			slippage, err := slippageFlag(cmd)
			if err != nil {
				return err
			}

			q, err := liquidity.RemoveLiquidityAmounts(delta, posLiq, lower, upper, cur, slippage)
			if err != nil {
				return err
			}
			return emit(q,
				field{"liquidity", q.Liquidity},
				field{"amount_a", q.AmountA},
				field{"amount_b", q.AmountB},
				field{"min_amount_a", q.MinAmountA},
				field{"min_amount_b", q.MinAmountB},
			)
		},
	}
	addRangeFlags(cmd)
	cmd.Flags().String("liquidity", "", "liquidity to remove")
	cmd.Flags().String("position-liquidity", "", "liquidity held by the position (default: all of it is removed)")
	_ = cmd.MarkFlagRequired("liquidity")
	return cmd
}
