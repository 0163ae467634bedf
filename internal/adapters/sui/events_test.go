package sui

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

func event(name, payload string) domain.SimulationEvent {
	return domain.SimulationEvent{
		Type:       "0xabc::fetcher_script::" + name,
		ParsedJSON: []byte(payload),
	}
}

func TestDecodeSwapResult(t *testing.T) {
	sim, err := DecodeSwapResult(event(EventCalculatedSwapResult, `{"data":{
		"amount_in":"1000000","amount_out":997499,"fee_amount":"2500",
		"after_sqrt_price":"18446744073709551616","is_exceed":false}}`))
	require.NoError(t, err)
	assert.Equal(t, "1000000", sim.AmountIn.String())
	assert.Equal(t, "997499", sim.AmountOut.String())
	assert.Equal(t, "2500", sim.FeeAmount.String())
	assert.Equal(t, []*big.Int{new(big.Int).Lsh(big.NewInt(1), 64)}, sim.AfterSqrtPrices)
	assert.False(t, sim.IsExceed)

	_, err = DecodeSwapResult(event(EventCalculatedSwapResult, `{"data":{"amount_in":"1"}}`))
	assert.ErrorIs(t, err, router.ErrInconsistentResponse)

	_, err = DecodeSwapResult(event(EventCalculatedSwapResult, `{"data":{"amount_in":"-1","amount_out":"1","after_sqrt_price":"1"}}`))
	assert.ErrorIs(t, err, ErrEventDecode)

	_, err = DecodeSwapResult(event(EventCalculatedSwapResult, `[]`))
	assert.ErrorIs(t, err, router.ErrInconsistentResponse)
}

func TestDecodeRouterSwapResult(t *testing.T) {
	sim, err := DecodeRouterSwapResult(event(EventCalculatedRouterSwapResult, `{"data":{
		"amount_in":"1000","amount_medium":"500","amount_out":"250","is_exceed":true,
		"target_sqrt_price_ab":"11","target_sqrt_price_cd":"22"}}`))
	require.NoError(t, err)
	assert.Equal(t, "500", sim.AmountMedium.String())
	assert.Equal(t, "250", sim.AmountOut.String())
	assert.Equal(t, []*big.Int{big.NewInt(11), big.NewInt(22)}, sim.AfterSqrtPrices)
	assert.True(t, sim.IsExceed)
	assert.Nil(t, sim.FeeAmount)

	_, err = DecodeRouterSwapResult(event(EventCalculatedRouterSwapResult, `{"data":{"amount_in":"1","amount_out":"1"}}`))
	assert.ErrorIs(t, err, ErrEventDecode)
}

func TestDecodeTicks(t *testing.T) {
	ticks, err := DecodeTicks(event(EventFetchTicksResult, `{"ticks":[
		{"index":{"bits":4294967286},"sqrt_price":"100","liquidity_net":{"bits":"340282366920938463463374607431768210956"},
		 "liquidity_gross":"500","fee_growth_outside_a":"1","fee_growth_outside_b":"2","rewards_growth_outside":["3","4"]},
		{"index":{"bits":10},"sqrt_price":"200","liquidity_net":{"bits":"500"},
		 "liquidity_gross":"500","fee_growth_outside_a":"0","fee_growth_outside_b":"0","rewards_growth_outside":[]}
	]}`))
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, int32(-10), ticks[0].Index)
	assert.Equal(t, "-500", ticks[0].LiquidityNet.String())
	assert.Equal(t, []*big.Int{big.NewInt(3), big.NewInt(4)}, ticks[0].RewardGrowthsOutside)
	assert.Equal(t, int32(10), ticks[1].Index)
	assert.Equal(t, "500", ticks[1].LiquidityNet.String())

	_, err = DecodeTicks(event(EventFetchTicksResult, `{}`))
	assert.ErrorIs(t, err, ErrEventDecode)

	_, err = DecodeTicks(event(EventFetchTicksResult, `{"ticks":[{"index":{"bits":4294967296}}]}`))
	assert.ErrorIs(t, err, ErrEventDecode)
}

func TestDecodePositionEvents(t *testing.T) {
	fees, err := DecodePositionFees(event(EventFetchPositionFees,
		`{"position_id":"0x77","fee_owned_a":"12","fee_owned_b":"34"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.FeeAmounts{PositionID: "0x77", FeeOwedA: big.NewInt(12), FeeOwedB: big.NewInt(34)}, fees)

	_, err = DecodePositionFees(event(EventFetchPositionFees, `{"position_id":"0x77"}`))
	assert.ErrorIs(t, err, ErrEventDecode)

	rewards, err := DecodePositionRewards(event(EventFetchPositionRewards,
		`{"position_id":"0x77","data":["5","0","7"]}`))
	require.NoError(t, err)
	assert.Equal(t, "0x77", rewards.PositionID)
	require.Len(t, rewards.Amounts, 3)
	for i, want := range []string{"5", "0", "7"} {
		assert.Equal(t, want, rewards.Amounts[i].String())
	}

	_, err = DecodePositionRewards(event(EventFetchPositionRewards, `{"position_id":"0x77"}`))
	assert.ErrorIs(t, err, ErrEventDecode)
}
