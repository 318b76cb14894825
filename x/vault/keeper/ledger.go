package keeper

import (
	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// ceilDiv divides rounding up. Callers guarantee a positive denominator.
func ceilDiv(num, den math.Int) math.Int {
	q := num.Quo(den)
	if !num.Mod(den).IsZero() {
		q = q.AddRaw(1)
	}
	return q
}

// sharesForAssets converts an asset amount to shares, rounding down.
// Bootstrap (zero supply) converts 1:1.
func sharesForAssets(assets, totalValue, totalShares math.Int) (math.Int, error) {
	if totalShares.IsZero() {
		return assets, nil
	}
	if !totalValue.IsPositive() {
		return math.Int{}, types.ErrZeroValuation
	}
	return assets.Mul(totalShares).Quo(totalValue), nil
}

// assetsForShares converts a share amount to assets, rounding down.
// Fails when no shares exist to redeem.
func assetsForShares(shares, totalValue, totalShares math.Int) (math.Int, error) {
	if totalShares.IsZero() {
		return math.Int{}, types.ErrNoShares
	}
	return shares.Mul(totalValue).Quo(totalShares), nil
}

// Deposit transfers assets in and mints shares to the receiver. The
// conversion rate is fixed before the transfer lands so a depositor's own
// funds cannot inflate their share count.
func (k *Keeper) Deposit(ctx sdk.Context, depositor, receiver string, assets math.Int) (math.Int, error) {
	release, err := k.acquireGuard()
	if err != nil {
		return math.Int{}, err
	}
	defer release()

	if !assets.IsPositive() {
		return math.Int{}, types.ErrZeroAmount
	}
	if receiver == "" {
		return math.Int{}, types.ErrInvalidAddress
	}
	if k.IsPaused(ctx) {
		return math.Int{}, types.ErrVaultPaused
	}

	cacheCtx, write := ctx.CacheContext()

	total, err := k.TotalValue(cacheCtx)
	if err != nil {
		return math.Int{}, err
	}
	totalShares := k.GetTotalShares(cacheCtx)

	shares, err := sharesForAssets(assets, total, totalShares)
	if err != nil {
		return math.Int{}, err
	}
	if !shares.IsPositive() {
		return math.Int{}, errors.Wrap(types.ErrZeroAmount, "deposit rounds to zero shares")
	}

	// Funds must land before any accounting is created.
	if err := k.bank.TransferFrom(cacheCtx, k.poolAddr, depositor, k.poolAddr, assets); err != nil {
		return math.Int{}, err
	}

	k.SetShares(cacheCtx, receiver, k.GetShares(cacheCtx, receiver).Add(shares))
	k.SetTotalShares(cacheCtx, totalShares.Add(shares))

	cacheCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeDeposit,
			sdk.NewAttribute(types.AttributeKeyHolder, depositor),
			sdk.NewAttribute(types.AttributeKeyReceiver, receiver),
			sdk.NewAttribute(types.AttributeKeyAssets, assets.String()),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
		),
	)

	if err := k.RefreshValuation(cacheCtx); err != nil {
		return math.Int{}, err
	}
	write()

	k.logger.Info("Deposit processed",
		"depositor", depositor,
		"receiver", receiver,
		"assets", assets.String(),
		"shares", shares.String(),
	)
	return shares, nil
}

// Mint issues an exact share amount, charging the assets required. The
// asset charge rounds up so minting never issues ownership below cost.
func (k *Keeper) Mint(ctx sdk.Context, depositor, receiver string, shares math.Int) (math.Int, error) {
	release, err := k.acquireGuard()
	if err != nil {
		return math.Int{}, err
	}
	defer release()

	if !shares.IsPositive() {
		return math.Int{}, types.ErrZeroAmount
	}
	if receiver == "" {
		return math.Int{}, types.ErrInvalidAddress
	}
	if k.IsPaused(ctx) {
		return math.Int{}, types.ErrVaultPaused
	}

	cacheCtx, write := ctx.CacheContext()

	total, err := k.TotalValue(cacheCtx)
	if err != nil {
		return math.Int{}, err
	}
	totalShares := k.GetTotalShares(cacheCtx)

	var assets math.Int
	if totalShares.IsZero() {
		assets = shares
	} else {
		if !total.IsPositive() {
			return math.Int{}, types.ErrZeroValuation
		}
		assets = ceilDiv(shares.Mul(total), totalShares)
	}

	if err := k.bank.TransferFrom(cacheCtx, k.poolAddr, depositor, k.poolAddr, assets); err != nil {
		return math.Int{}, err
	}

	k.SetShares(cacheCtx, receiver, k.GetShares(cacheCtx, receiver).Add(shares))
	k.SetTotalShares(cacheCtx, totalShares.Add(shares))

	cacheCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeMint,
			sdk.NewAttribute(types.AttributeKeyHolder, depositor),
			sdk.NewAttribute(types.AttributeKeyReceiver, receiver),
			sdk.NewAttribute(types.AttributeKeyAssets, assets.String()),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
		),
	)

	if err := k.RefreshValuation(cacheCtx); err != nil {
		return math.Int{}, err
	}
	write()

	k.logger.Info("Mint processed",
		"depositor", depositor,
		"receiver", receiver,
		"assets", assets.String(),
		"shares", shares.String(),
	)
	return assets, nil
}

// burnFrom burns owner's shares, consuming caller's allowance when the
// caller is not the owner. Runs inside an already-guarded operation.
func (k *Keeper) burnFrom(ctx sdk.Context, caller, owner string, shares, totalShares math.Int) error {
	held := k.GetShares(ctx, owner)
	if held.LT(shares) {
		return errors.Wrapf(types.ErrInsufficientShares, "holder %s has %s, needs %s", owner, held.String(), shares.String())
	}
	if caller != owner {
		allowance := k.GetShareAllowance(ctx, owner, caller)
		if allowance.LT(shares) {
			return types.ErrInsufficientAllowance
		}
		k.SetShareAllowance(ctx, owner, caller, allowance.Sub(shares))
	}
	k.SetShares(ctx, owner, held.Sub(shares))
	k.SetTotalShares(ctx, totalShares.Sub(shares))
	return nil
}

// WithdrawResult reports how a withdraw/redeem call settled
type WithdrawResult struct {
	Shares    math.Int
	Assets    math.Int
	Queued    bool
	RequestID uint64
}

// Withdraw pays out an exact asset amount, burning the shares required
// (rounded up). If idle liquidity cannot cover the amount the claim is
// queued instead: shares burn immediately and the claim is fixed in asset
// terms at the same valuation snapshot used for the liquidity check.
func (k *Keeper) Withdraw(ctx sdk.Context, caller, owner, receiver string, assets math.Int) (*WithdrawResult, error) {
	release, err := k.acquireGuard()
	if err != nil {
		return nil, err
	}
	defer release()

	if !assets.IsPositive() {
		return nil, types.ErrZeroAmount
	}
	if owner == "" || receiver == "" {
		return nil, types.ErrInvalidAddress
	}
	if k.IsPaused(ctx) {
		return nil, types.ErrVaultPaused
	}

	cacheCtx, write := ctx.CacheContext()

	total, err := k.TotalValue(cacheCtx)
	if err != nil {
		return nil, err
	}
	totalShares := k.GetTotalShares(cacheCtx)
	if totalShares.IsZero() {
		return nil, types.ErrNoShares
	}
	if !total.IsPositive() {
		return nil, types.ErrZeroValuation
	}

	shares := ceilDiv(assets.Mul(totalShares), total)
	res, err := k.settleOrQueue(cacheCtx, caller, owner, receiver, shares, assets, totalShares)
	if err != nil {
		return nil, err
	}

	if err := k.RefreshValuation(cacheCtx); err != nil {
		return nil, err
	}
	write()
	return res, nil
}

// Redeem pays out the asset value of an exact share amount (rounded
// down), routing through the queue when idle liquidity is short.
func (k *Keeper) Redeem(ctx sdk.Context, caller, owner, receiver string, shares math.Int) (*WithdrawResult, error) {
	release, err := k.acquireGuard()
	if err != nil {
		return nil, err
	}
	defer release()

	if !shares.IsPositive() {
		return nil, types.ErrZeroAmount
	}
	if owner == "" || receiver == "" {
		return nil, types.ErrInvalidAddress
	}
	if k.IsPaused(ctx) {
		return nil, types.ErrVaultPaused
	}

	cacheCtx, write := ctx.CacheContext()

	total, err := k.TotalValue(cacheCtx)
	if err != nil {
		return nil, err
	}
	totalShares := k.GetTotalShares(cacheCtx)

	assets, err := assetsForShares(shares, total, totalShares)
	if err != nil {
		return nil, err
	}
	if !assets.IsPositive() {
		return nil, errors.Wrap(types.ErrZeroAmount, "redemption rounds to zero assets")
	}

	res, err := k.settleOrQueue(cacheCtx, caller, owner, receiver, shares, assets, totalShares)
	if err != nil {
		return nil, err
	}

	if err := k.RefreshValuation(cacheCtx); err != nil {
		return nil, err
	}
	write()
	return res, nil
}

// settleOrQueue burns the shares and either pays out immediately or
// defers the claim into the withdrawal queue, depending on idle balance.
func (k *Keeper) settleOrQueue(ctx sdk.Context, caller, owner, receiver string, shares, assets, totalShares math.Int) (*WithdrawResult, error) {
	idle, err := k.IdleBalance(ctx)
	if err != nil {
		return nil, err
	}

	if err := k.burnFrom(ctx, caller, owner, shares, totalShares); err != nil {
		return nil, err
	}

	if idle.GTE(assets) {
		if err := k.bank.Transfer(ctx, k.poolAddr, receiver, assets); err != nil {
			return nil, err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeWithdraw,
				sdk.NewAttribute(types.AttributeKeyHolder, owner),
				sdk.NewAttribute(types.AttributeKeyReceiver, receiver),
				sdk.NewAttribute(types.AttributeKeyAssets, assets.String()),
				sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
			),
		)
		k.logger.Info("Withdrawal settled",
			"owner", owner,
			"receiver", receiver,
			"assets", assets.String(),
			"shares", shares.String(),
		)
		return &WithdrawResult{Shares: shares, Assets: assets}, nil
	}

	id, err := k.enqueue(ctx, owner, shares, assets)
	if err != nil {
		return nil, err
	}
	return &WithdrawResult{Shares: shares, Assets: assets, Queued: true, RequestID: id}, nil
}

// ApproveShares sets the spender's share allowance for the owner
func (k *Keeper) ApproveShares(ctx sdk.Context, owner, spender string, shares math.Int) error {
	if owner == "" || spender == "" {
		return types.ErrInvalidAddress
	}
	if shares.IsNegative() {
		return types.ErrZeroAmount
	}
	k.SetShareAllowance(ctx, owner, spender, shares)
	return nil
}
