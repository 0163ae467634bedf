package sui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

// tickPageLimit is how many ticks one fetch_ticks call returns at most.
const tickPageLimit = 512

// moveStruct is how object content renders nested structs.
type moveStruct[T any] struct {
	Type   string `json:"type"`
	Fields T      `json:"fields"`
}

type typeNameFields struct {
	Name string `json:"name"`
}

type rewarderFields struct {
	RewardCoin         moveStruct[typeNameFields] `json:"reward_coin"`
	EmissionsPerSecond bigNum                     `json:"emissions_per_second"`
	GrowthGlobal       bigNum                     `json:"growth_global"`
}

type rewarderManagerFields struct {
	Rewarders       []moveStruct[rewarderFields] `json:"rewarders"`
	LastUpdatedTime bigNum                       `json:"last_updated_time"`
}

type uidFields struct {
	ID struct {
		ID string `json:"id"`
	} `json:"id"`
}

type tickManagerFields struct {
	Ticks moveStruct[uidFields] `json:"ticks"`
}

type poolFields struct {
	TickSpacing      bigNum                            `json:"tick_spacing"`
	FeeRate          bigNum                            `json:"fee_rate"`
	Liquidity        bigNum                            `json:"liquidity"`
	CurrentSqrtPrice bigNum                            `json:"current_sqrt_price"`
	CurrentTickIndex moveStruct[bitsField]             `json:"current_tick_index"`
	FeeGrowthGlobalA bigNum                            `json:"fee_growth_global_a"`
	FeeGrowthGlobalB bigNum                            `json:"fee_growth_global_b"`
	IsPause          bool                              `json:"is_pause"`
	RewarderManager  moveStruct[rewarderManagerFields] `json:"rewarder_manager"`
	TickManager      moveStruct[tickManagerFields]     `json:"tick_manager"`
}

// PoolFetcher reads pool objects and their initialized ticks.
// It implements market.PoolSource.
type PoolFetcher struct {
	client   *Client
	protocol Protocol
}

func NewPoolFetcher(client *Client, protocol Protocol) *PoolFetcher {
	return &PoolFetcher{client: client, protocol: protocol}
}

// PoolCoinTypes extracts A and B from "0x..::pool::Pool<A, B>".
func PoolCoinTypes(objectType string) (string, string, error) {
	i := strings.IndexByte(objectType, '<')
	if i < 0 || !strings.HasSuffix(objectType, ">") {
		return "", "", fmt.Errorf("not a pool type: %q", objectType)
	}
	params := splitParams(objectType[i+1 : len(objectType)-1])
	if len(params) != 2 {
		return "", "", fmt.Errorf("not a pool type: %q", objectType)
	}
	a, err := domain.NormalizeCoinType(params[0])
	if err != nil {
		return "", "", err
	}
	b, err := domain.NormalizeCoinType(params[1])
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

// FetchPool reads the pool object and decodes its swap and accrual state.
func (f *PoolFetcher) FetchPool(ctx context.Context, address string) (*domain.PoolSnapshot, error) {
	obj, err := f.client.GetObject(ctx, address)
	if err != nil {
		return nil, err
	}
	return DecodePool(obj, time.Now().UTC())
}

// DecodePool converts a pool object into a snapshot.
func DecodePool(obj *ObjectData, fetchedAt time.Time) (*domain.PoolSnapshot, error) {
	if obj.Content == nil || len(obj.Content.Fields) == 0 {
		return nil, fmt.Errorf("%w: %s has no content", ErrObjectNotFound, obj.ObjectID)
	}
	objType := obj.Type
	if objType == "" {
		objType = obj.Content.Type
	}
	coinA, coinB, err := PoolCoinTypes(objType)
	if err != nil {
		return nil, err
	}

	var fields poolFields
	if err := sonic.Unmarshal(obj.Content.Fields, &fields); err != nil {
		return nil, fmt.Errorf("decode pool %s: %w", obj.ObjectID, err)
	}
	addr, err := domain.NormalizeAddress(obj.ObjectID)
	if err != nil {
		return nil, err
	}

	tickBits := fields.CurrentTickIndex.Fields.Bits.big()
	if !tickBits.IsUint64() || tickBits.Uint64() > 0xFFFFFFFF {
		return nil, fmt.Errorf("decode pool %s: tick bits %s", addr, tickBits)
	}

	snap := &domain.PoolSnapshot{
		Address:                 addr,
		CoinTypeA:               coinA,
		CoinTypeB:               coinB,
		TickSpacing:             int32(fields.TickSpacing.big().Int64()),
		CurrentSqrtPrice:        fields.CurrentSqrtPrice.big(),
		CurrentTickIndex:        mathutil.U32ToTick(uint32(tickBits.Uint64())),
		Liquidity:               fields.Liquidity.big(),
		FeeRate:                 fields.FeeRate.big().Uint64(),
		FeeGrowthGlobalA:        fields.FeeGrowthGlobalA.big(),
		FeeGrowthGlobalB:        fields.FeeGrowthGlobalB.big(),
		RewarderLastUpdatedTime: fields.RewarderManager.Fields.LastUpdatedTime.big().Uint64(),
		IsPaused:                fields.IsPause,
		TicksHandle:             fields.TickManager.Fields.Ticks.Fields.ID.ID,
		FetchedAt:               fetchedAt,
	}
	for _, r := range fields.RewarderManager.Fields.Rewarders {
		coin := r.Fields.RewardCoin.Fields.Name
		if coin != "" && !strings.HasPrefix(coin, "0x") {
			coin = "0x" + coin
		}
		if norm, err := domain.NormalizeCoinType(coin); err == nil {
			coin = norm
		}
		snap.Rewarders = append(snap.Rewarders, domain.Rewarder{
			CoinType:           coin,
			EmissionsPerSecond: r.Fields.EmissionsPerSecond.big(),
			GrowthGlobal:       r.Fields.GrowthGlobal.big(),
		})
	}
	return snap, nil
}

// FetchTicks pages through fetcher_script::fetch_ticks and returns every
// initialized tick in ascending index order.
func (f *PoolFetcher) FetchTicks(ctx context.Context, pool *domain.PoolSnapshot) ([]domain.TickData, error) {
	versions, err := f.client.SharedVersions(ctx, []string{pool.Address})
	if err != nil {
		return nil, err
	}

	var (
		all   []domain.TickData
		seen  = make(map[int32]struct{})
		start []uint32
	)
	for {
		tx := NewProgrammableTx()
		poolArg, err := tx.SharedObject(pool.Address, versions[pool.Address], false)
		if err != nil {
			return nil, err
		}
		err = tx.MoveCall(f.protocol.IntegratePackage, fetcherModule, "fetch_ticks",
			[]string{pool.CoinTypeA, pool.CoinTypeB},
			poolArg, tx.PureU32Vector(start), tx.PureU64(tickPageLimit))
		if err != nil {
			return nil, err
		}

		res, err := f.client.DevInspect(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("fetch ticks of %s: %w", pool.Address, err)
		}
		events := res.EventsOfType(EventFetchTicksResult)
		if len(events) != 1 {
			return nil, fmt.Errorf("%w: %d tick events", ErrEventDecode, len(events))
		}
		page, err := DecodeTicks(events[0])
		if err != nil {
			return nil, err
		}

		added := 0
		for _, t := range page {
			if _, dup := seen[t.Index]; dup {
				continue
			}
			seen[t.Index] = struct{}{}
			all = append(all, t)
			added++
		}
		if len(page) < tickPageLimit || added == 0 {
			break
		}
		start = []uint32{mathutil.TickToU32(page[len(page)-1].Index)}
	}

	sortTicksAscending(all)
	return all, nil
}

func sortTicksAscending(ticks []domain.TickData) {
	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Index < ticks[j].Index })
}
