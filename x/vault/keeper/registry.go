package keeper

import (
	"strconv"

	"cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// activeBpsSum sums target allocations over active strategies, substituting
// replaceBps for the entry at replaceIdx when replaceIdx is non-nil.
func (k *Keeper) activeBpsSum(ctx sdk.Context, replaceIdx *uint64, replaceBps int64) int64 {
	sum := int64(0)
	for _, s := range k.GetActiveStrategies(ctx) {
		if replaceIdx != nil && s.Index == *replaceIdx {
			sum += replaceBps
			continue
		}
		sum += s.TargetBps
	}
	return sum
}

// AddStrategy appends a new active strategy and returns its index.
// Validation happens entirely before the record is written.
func (k *Keeper) AddStrategy(ctx sdk.Context, address string, targetBps int64, kind string, hasLockup bool) (uint64, error) {
	if address == "" {
		return 0, types.ErrInvalidAddress
	}
	if kind != types.StrategyKindConvertible && kind != types.StrategyKindDirect {
		return 0, errors.Wrapf(types.ErrInvalidAddress, "unknown strategy kind %q", kind)
	}
	if targetBps < 0 || targetBps > types.MaxStrategyBps {
		return 0, errors.Wrapf(types.ErrAllocationCapExceeded, "%d bps > %d bps cap", targetBps, types.MaxStrategyBps)
	}
	if kind == types.StrategyKindConvertible {
		if _, ok := k.adapters.Adapter(address); !ok {
			return 0, errors.Wrapf(types.ErrAdapterNotFound, "address %s", address)
		}
	}
	if k.activeBpsSum(ctx, nil, 0)+targetBps > types.MaxAggregateBps {
		return 0, types.ErrAggregateCapExceeded
	}

	index := k.GetStrategyCount(ctx)
	s := types.NewStrategy(index, address, targetBps, kind, hasLockup)
	k.SetStrategy(ctx, s)
	k.setStrategyCount(ctx, index+1)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeStrategyAdded,
			sdk.NewAttribute(types.AttributeKeyStrategyIndex, strconv.FormatUint(index, 10)),
			sdk.NewAttribute(types.AttributeKeyStrategyAddr, address),
			sdk.NewAttribute(types.AttributeKeyTargetBps, strconv.FormatInt(targetBps, 10)),
			sdk.NewAttribute(types.AttributeKeyKind, kind),
		),
	)
	k.logger.Info("Strategy added",
		"index", index,
		"address", address,
		"target_bps", targetBps,
		"kind", kind,
		"has_lockup", hasLockup,
	)
	return index, nil
}

// UpdateAllocation changes an active strategy's target allocation
func (k *Keeper) UpdateAllocation(ctx sdk.Context, index uint64, targetBps int64) error {
	s := k.GetStrategy(ctx, index)
	if s == nil {
		return errors.Wrapf(types.ErrStrategyNotFound, "index %d", index)
	}
	if !s.Active {
		return errors.Wrapf(types.ErrStrategyInactive, "index %d", index)
	}
	if targetBps < 0 || targetBps > types.MaxStrategyBps {
		return errors.Wrapf(types.ErrAllocationCapExceeded, "%d bps > %d bps cap", targetBps, types.MaxStrategyBps)
	}
	if k.activeBpsSum(ctx, &index, targetBps) > types.MaxAggregateBps {
		return types.ErrAggregateCapExceeded
	}

	s.TargetBps = targetBps
	k.SetStrategy(ctx, s)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeStrategyUpdated,
			sdk.NewAttribute(types.AttributeKeyStrategyIndex, strconv.FormatUint(index, 10)),
			sdk.NewAttribute(types.AttributeKeyTargetBps, strconv.FormatInt(targetBps, 10)),
		),
	)
	k.logger.Info("Strategy allocation updated", "index", index, "target_bps", targetBps)
	return nil
}

// RemoveStrategy soft-deletes a strategy. Removing an already-inactive
// strategy is a no-op, matching soft-delete semantics. Existing balances
// in a deactivated strategy drop out of valuation and rebalance targets
// until manually unwound.
func (k *Keeper) RemoveStrategy(ctx sdk.Context, index uint64) (bool, error) {
	s := k.GetStrategy(ctx, index)
	if s == nil {
		return false, errors.Wrapf(types.ErrStrategyNotFound, "index %d", index)
	}
	if !s.Active {
		return false, nil
	}

	s.Active = false
	k.SetStrategy(ctx, s)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeStrategyRemoved,
			sdk.NewAttribute(types.AttributeKeyStrategyIndex, strconv.FormatUint(index, 10)),
			sdk.NewAttribute(types.AttributeKeyStrategyAddr, s.Address),
		),
	)
	k.logger.Info("Strategy removed", "index", index, "address", s.Address)
	return true, nil
}
