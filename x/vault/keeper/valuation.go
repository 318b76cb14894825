package keeper

import (
	"time"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// IdleBalance reads the vault's uninvested asset balance off the bank.
// It is never stored redundantly; the bank is the source of truth.
func (k *Keeper) IdleBalance(ctx sdk.Context) (math.Int, error) {
	return k.bank.BalanceOf(ctx, k.poolAddr)
}

// StrategyValue returns the asset value of the pool's position in one
// strategy. Convertible strategies translate held units through their own
// published conversion; direct strategies are a raw balance read.
func (k *Keeper) StrategyValue(ctx sdk.Context, s *types.Strategy) (math.Int, error) {
	if s.IsConvertible() {
		adapter, ok := k.adapters.Adapter(s.Address)
		if !ok {
			return math.Int{}, errors.Wrapf(types.ErrAdapterNotFound, "strategy %d (%s)", s.Index, s.Address)
		}
		units, err := adapter.UnitBalance(ctx, k.poolAddr)
		if err != nil {
			return math.Int{}, errors.Wrapf(err, "strategy %d unit balance", s.Index)
		}
		assets, err := adapter.ConvertToAssets(ctx, units)
		if err != nil {
			return math.Int{}, errors.Wrapf(err, "strategy %d conversion", s.Index)
		}
		if assets.IsNil() || assets.IsNegative() {
			return math.Int{}, errors.Wrapf(types.ErrStrategyReport, "strategy %d returned negative value", s.Index)
		}
		return assets, nil
	}
	return k.bank.BalanceOf(ctx, s.Address)
}

// TotalValue computes idle balance plus every active strategy's
// convertible balance. Deterministic and side-effect-free; any strategy
// failure makes the whole valuation unavailable rather than silently
// stale.
func (k *Keeper) TotalValue(ctx sdk.Context) (math.Int, error) {
	total, err := k.IdleBalance(ctx)
	if err != nil {
		return math.Int{}, err
	}
	for _, s := range k.GetActiveStrategies(ctx) {
		v, err := k.StrategyValue(ctx, s)
		if err != nil {
			return math.Int{}, err
		}
		total = total.Add(v)
	}
	return total, nil
}

// RefreshValuation recomputes total value, reports the yield (or loss)
// delta against the cached snapshot when one existed, and updates the
// cache unconditionally.
func (k *Keeper) RefreshValuation(ctx sdk.Context) error {
	total, err := k.TotalValue(ctx)
	if err != nil {
		return err
	}

	prev := k.GetSnapshot(ctx)
	if prev != nil && !prev.TotalValue.Equal(total) {
		delta := total.Sub(prev.TotalValue)
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeValuationChanged,
				sdk.NewAttribute(types.AttributeKeyPreviousValue, prev.TotalValue.String()),
				sdk.NewAttribute(types.AttributeKeyNewValue, total.String()),
				sdk.NewAttribute(types.AttributeKeyDelta, delta.String()),
			),
		)
		k.logger.Debug("Valuation changed",
			"previous", prev.TotalValue.String(),
			"new", total.String(),
			"delta", delta.String(),
		)
	}

	k.SetSnapshot(ctx, &types.ValuationSnapshot{
		TotalValue: total,
		UpdatedAt:  time.Now().Unix(),
	})
	return nil
}
