package keeper

import (
	"encoding/json"
	"strconv"
	"time"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// enqueue appends a pending withdrawal request. The caller has already
// burned the holder's shares; from here on the claim is a fixed asset
// amount unaffected by pool yield or loss. Runs inside a guarded op.
func (k *Keeper) enqueue(ctx sdk.Context, holder string, shares, assets math.Int) (uint64, error) {
	id := k.GetRequestCount(ctx, holder)
	req := types.NewWithdrawalRequest(id, holder, shares, assets)
	k.SetRequest(ctx, req)
	k.setRequestCount(ctx, holder, id+1)
	k.SetTotalQueued(ctx, k.GetTotalQueued(ctx).Add(assets))

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeWithdrawalQueued,
			sdk.NewAttribute(types.AttributeKeyHolder, holder),
			sdk.NewAttribute(types.AttributeKeyRequestID, strconv.FormatUint(id, 10)),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
			sdk.NewAttribute(types.AttributeKeyAssets, assets.String()),
		),
	)
	k.logger.Info("Withdrawal queued",
		"holder", holder,
		"request_id", id,
		"shares", shares.String(),
		"assets", assets.String(),
	)
	return id, nil
}

// CompleteWithdrawal settles a queued claim once idle liquidity covers
// it. Callable by anyone on behalf of the holder; the payout always goes
// to the holder. Idempotency-guarded: a completed request stays terminal.
func (k *Keeper) CompleteWithdrawal(ctx sdk.Context, holder string, id uint64) (math.Int, error) {
	release, err := k.acquireGuard()
	if err != nil {
		return math.Int{}, err
	}
	defer release()

	req := k.GetRequest(ctx, holder, id)
	if req == nil {
		return math.Int{}, errors.Wrapf(types.ErrRequestNotFound, "holder %s request %d", holder, id)
	}
	if req.IsCompleted() {
		return math.Int{}, errors.Wrapf(types.ErrRequestCompleted, "holder %s request %d", holder, id)
	}

	idle, err := k.IdleBalance(ctx)
	if err != nil {
		return math.Int{}, err
	}
	if idle.LT(req.AssetsOwed) {
		return math.Int{}, errors.Wrapf(types.ErrInsufficientLiquidity, "idle %s < owed %s", idle.String(), req.AssetsOwed.String())
	}

	cacheCtx, write := ctx.CacheContext()

	if err := k.bank.Transfer(cacheCtx, k.poolAddr, holder, req.AssetsOwed); err != nil {
		return math.Int{}, err
	}

	req.Status = types.RequestStatusCompleted
	req.CompletedAt = time.Now().Unix()
	k.SetRequest(cacheCtx, req)
	k.SetTotalQueued(cacheCtx, k.GetTotalQueued(cacheCtx).Sub(req.AssetsOwed))

	cacheCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeWithdrawalCompleted,
			sdk.NewAttribute(types.AttributeKeyHolder, holder),
			sdk.NewAttribute(types.AttributeKeyRequestID, strconv.FormatUint(id, 10)),
			sdk.NewAttribute(types.AttributeKeyAssets, req.AssetsOwed.String()),
		),
	)
	if err := k.RefreshValuation(cacheCtx); err != nil {
		return math.Int{}, err
	}
	write()

	k.logger.Info("Withdrawal completed",
		"holder", holder,
		"request_id", id,
		"assets", req.AssetsOwed.String(),
	)
	return req.AssetsOwed, nil
}

// PendingWithdrawals returns a holder's not-yet-completed requests
func (k *Keeper) PendingWithdrawals(ctx sdk.Context, holder string) []*types.WithdrawalRequest {
	var out []*types.WithdrawalRequest
	for _, r := range k.GetHolderRequests(ctx, holder) {
		if !r.IsCompleted() {
			out = append(out, r)
		}
	}
	return out
}

// AllPendingRequests returns every not-yet-completed request across all
// holders, in store key order. This is the view an external operator polls
// to decide which claims to settle.
func (k *Keeper) AllPendingRequests(ctx sdk.Context) []*types.WithdrawalRequest {
	store := k.GetStore(ctx)
	it := store.Iterator(RequestKeyPrefix, storetypes.PrefixEndBytes(RequestKeyPrefix))
	defer it.Close()

	var out []*types.WithdrawalRequest
	for ; it.Valid(); it.Next() {
		var r types.WithdrawalRequest
		if err := json.Unmarshal(it.Value(), &r); err != nil {
			continue
		}
		if !r.IsCompleted() {
			out = append(out, &r)
		}
	}
	return out
}
