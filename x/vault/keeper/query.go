package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// QueryServer defines the vault QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// TotalValue returns the live pool valuation
func (q *QueryServer) TotalValue(ctx context.Context) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.TotalValue(sdkCtx)
}

// Metrics aggregates the externally observable vault state
func (q *QueryServer) Metrics(ctx context.Context) (*types.VaultMetrics, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	total, err := q.keeper.TotalValue(sdkCtx)
	if err != nil {
		return nil, err
	}
	idle, err := q.keeper.IdleBalance(sdkCtx)
	if err != nil {
		return nil, err
	}
	totalShares := q.keeper.GetTotalShares(sdkCtx)

	price := math.LegacyOneDec()
	if totalShares.IsPositive() {
		price = math.LegacyNewDecFromInt(total).Quo(math.LegacyNewDecFromInt(totalShares))
	}

	return &types.VaultMetrics{
		TotalValue:    total,
		TotalShares:   totalShares,
		PricePerShare: price,
		TotalQueued:   q.keeper.GetTotalQueued(sdkCtx),
		IdleBalance:   idle,
		Paused:        q.keeper.IsPaused(sdkCtx),
	}, nil
}

// Strategies returns every strategy record, active and tombstoned
func (q *QueryServer) Strategies(ctx context.Context) ([]*types.Strategy, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetAllStrategies(sdkCtx), nil
}

// PendingWithdrawals returns a holder's outstanding queued requests
func (q *QueryServer) PendingWithdrawals(ctx context.Context, holder string) ([]*types.WithdrawalRequest, error) {
	if holder == "" {
		return nil, types.ErrInvalidAddress
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.PendingWithdrawals(sdkCtx, holder), nil
}

// Shares returns a holder's share balance
func (q *QueryServer) Shares(ctx context.Context, holder string) (math.Int, error) {
	if holder == "" {
		return math.Int{}, types.ErrInvalidAddress
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetShares(sdkCtx, holder), nil
}

// PreviewDeposit estimates the shares a deposit would mint at the
// current exchange rate
func (q *QueryServer) PreviewDeposit(ctx context.Context, assets math.Int) (math.Int, error) {
	if !assets.IsPositive() {
		return math.Int{}, types.ErrZeroAmount
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	total, err := q.keeper.TotalValue(sdkCtx)
	if err != nil {
		return math.Int{}, err
	}
	return sharesForAssets(assets, total, q.keeper.GetTotalShares(sdkCtx))
}

// PreviewRedeem estimates the assets a redemption would pay at the
// current exchange rate
func (q *QueryServer) PreviewRedeem(ctx context.Context, shares math.Int) (math.Int, error) {
	if !shares.IsPositive() {
		return math.Int{}, types.ErrZeroAmount
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	total, err := q.keeper.TotalValue(sdkCtx)
	if err != nil {
		return math.Int{}, err
	}
	return assetsForShares(shares, total, q.keeper.GetTotalShares(sdkCtx))
}
