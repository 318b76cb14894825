package keeper

import (
	"strconv"
	"time"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// targetValue computes a strategy's target holding from a fixed valuation
// snapshot: total * bps / 10000, rounded down.
func targetValue(total math.Int, bps int64) math.Int {
	return total.MulRaw(bps).QuoRaw(types.MaxAggregateBps)
}

// Rebalance moves capital between the idle pool and strategies to match
// target allocations. Two ordered passes over active strategies, both
// priced from a single valuation snapshot taken at entry so the passes
// themselves cannot cause target oscillation. Any sub-account failure
// aborts the whole operation; nothing is committed partially.
func (k *Keeper) Rebalance(ctx sdk.Context) error {
	release, err := k.acquireGuard()
	if err != nil {
		return err
	}
	defer release()

	if k.IsPaused(ctx) {
		return types.ErrVaultPaused
	}

	cacheCtx, write := ctx.CacheContext()

	total, err := k.TotalValue(cacheCtx)
	if err != nil {
		return err
	}
	active := k.GetActiveStrategies(cacheCtx)

	// Pass 1: divest every strategy holding above target back to idle.
	for _, s := range active {
		current, err := k.StrategyValue(cacheCtx, s)
		if err != nil {
			return err
		}
		target := targetValue(total, s.TargetBps)
		if current.LTE(target) {
			continue
		}
		excess := current.Sub(target)

		if !s.IsConvertible() {
			// A direct strategy has no generic unwind path; a silent
			// no-op would leave the allocation target quietly violated.
			return errors.Wrapf(types.ErrDirectDivestUnsupported, "strategy %d holds %s above target", s.Index, excess.String())
		}

		adapter, ok := k.adapters.Adapter(s.Address)
		if !ok {
			return errors.Wrapf(types.ErrAdapterNotFound, "strategy %d (%s)", s.Index, s.Address)
		}
		units, err := adapter.ConvertToUnits(cacheCtx, excess)
		if err != nil {
			return errors.Wrapf(err, "strategy %d convert excess", s.Index)
		}
		if !units.IsPositive() {
			continue
		}

		before, err := k.IdleBalance(cacheCtx)
		if err != nil {
			return err
		}
		returned, err := adapter.Redeem(cacheCtx, units)
		if err != nil {
			return errors.Wrapf(err, "strategy %d redeem", s.Index)
		}
		after, err := k.IdleBalance(cacheCtx)
		if err != nil {
			return err
		}
		if returned.IsNil() || returned.IsNegative() || after.Sub(before).LT(returned) {
			return errors.Wrapf(types.ErrStrategyReport, "strategy %d redeem reported %s, idle moved %s", s.Index, returned.String(), after.Sub(before).String())
		}

		k.logger.Debug("Divested strategy excess",
			"index", s.Index,
			"excess", excess.String(),
			"units", units.String(),
			"returned", returned.String(),
		)
	}

	// Pass 2: fund shortfalls from whatever idle balance remains.
	// Registry insertion order favors earlier strategies when idle runs
	// out.
	idle, err := k.IdleBalance(cacheCtx)
	if err != nil {
		return err
	}
	for _, s := range active {
		if !idle.IsPositive() {
			break
		}
		current, err := k.StrategyValue(cacheCtx, s)
		if err != nil {
			return err
		}
		target := targetValue(total, s.TargetBps)
		if current.GTE(target) {
			continue
		}
		amount := math.MinInt(target.Sub(current), idle)
		if !amount.IsPositive() {
			continue
		}

		before, err := k.IdleBalance(cacheCtx)
		if err != nil {
			return err
		}
		if s.IsConvertible() {
			adapter, ok := k.adapters.Adapter(s.Address)
			if !ok {
				return errors.Wrapf(types.ErrAdapterNotFound, "strategy %d (%s)", s.Index, s.Address)
			}
			// Exact-amount approval; no standing allowance survives the call.
			if err := k.bank.Approve(cacheCtx, k.poolAddr, s.Address, amount); err != nil {
				return err
			}
			if _, err := adapter.Deposit(cacheCtx, amount); err != nil {
				return errors.Wrapf(err, "strategy %d deposit", s.Index)
			}
		} else {
			if err := k.bank.Transfer(cacheCtx, k.poolAddr, s.Address, amount); err != nil {
				return err
			}
		}
		after, err := k.IdleBalance(cacheCtx)
		if err != nil {
			return err
		}
		if !before.Sub(after).Equal(amount) {
			return errors.Wrapf(types.ErrStrategyReport, "strategy %d deposit moved %s, expected %s", s.Index, before.Sub(after).String(), amount.String())
		}
		idle = after

		k.logger.Debug("Funded strategy shortfall",
			"index", s.Index,
			"amount", amount.String(),
		)
	}

	now := time.Now().Unix()
	cacheCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRebalanceCompleted,
			sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatInt(now, 10)),
		),
	)
	if err := k.RefreshValuation(cacheCtx); err != nil {
		return err
	}
	write()

	k.logger.Info("Rebalance completed", "total_value", total.String(), "strategies", len(active))
	return nil
}

// EmergencyWithdrawAll unwinds every active convertible strategy fully
// back to idle balance and pauses the vault. Direct strategies have no
// generic unwind path and are skipped with a warning signal; recovering
// the convertible majority beats recovering nothing.
func (k *Keeper) EmergencyWithdrawAll(ctx sdk.Context) (math.Int, error) {
	release, err := k.acquireGuard()
	if err != nil {
		return math.Int{}, err
	}
	defer release()

	cacheCtx, write := ctx.CacheContext()
	recovered := math.ZeroInt()

	for _, s := range k.GetActiveStrategies(cacheCtx) {
		if !s.IsConvertible() {
			cacheCtx.EventManager().EmitEvent(
				sdk.NewEvent(
					types.EventTypeDirectSkipped,
					sdk.NewAttribute(types.AttributeKeyStrategyIndex, strconv.FormatUint(s.Index, 10)),
					sdk.NewAttribute(types.AttributeKeyStrategyAddr, s.Address),
				),
			)
			k.logger.Warn("Direct strategy skipped during emergency unwind", "index", s.Index, "address", s.Address)
			continue
		}

		adapter, ok := k.adapters.Adapter(s.Address)
		if !ok {
			return math.Int{}, errors.Wrapf(types.ErrAdapterNotFound, "strategy %d (%s)", s.Index, s.Address)
		}
		units, err := adapter.UnitBalance(cacheCtx, k.poolAddr)
		if err != nil {
			return math.Int{}, errors.Wrapf(err, "strategy %d unit balance", s.Index)
		}
		if !units.IsPositive() {
			continue
		}
		returned, err := adapter.Redeem(cacheCtx, units)
		if err != nil {
			return math.Int{}, errors.Wrapf(err, "strategy %d emergency redeem", s.Index)
		}
		recovered = recovered.Add(returned)
	}

	k.SetPaused(cacheCtx, true)
	cacheCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeEmergencyUnwind,
			sdk.NewAttribute(types.AttributeKeyAssets, recovered.String()),
			sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatInt(time.Now().Unix(), 10)),
		),
	)
	if err := k.RefreshValuation(cacheCtx); err != nil {
		return math.Int{}, err
	}
	write()

	k.logger.Warn("Emergency unwind executed", "recovered", recovered.String())
	return recovered, nil
}
