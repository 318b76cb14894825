package keeper

import (
	"context"
	"strconv"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// MsgServer defines the vault MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

func parseAmount(s string) (math.Int, error) {
	v, ok := math.NewIntFromString(s)
	if !ok || !v.IsPositive() {
		return math.Int{}, types.ErrZeroAmount
	}
	return v, nil
}

// Deposit handles MsgDeposit
func (m *MsgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	assets, err := parseAmount(msg.Assets)
	if err != nil {
		return nil, err
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	shares, err := m.keeper.Deposit(sdkCtx, msg.Depositor, msg.Receiver, assets)
	if err != nil {
		return nil, err
	}
	return &types.MsgDepositResponse{SharesMinted: shares.String()}, nil
}

// Mint handles MsgMint
func (m *MsgServer) Mint(ctx context.Context, msg *types.MsgMint) (*types.MsgMintResponse, error) {
	shares, err := parseAmount(msg.Shares)
	if err != nil {
		return nil, err
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	assets, err := m.keeper.Mint(sdkCtx, msg.Depositor, msg.Receiver, shares)
	if err != nil {
		return nil, err
	}
	return &types.MsgMintResponse{AssetsCharged: assets.String()}, nil
}

// Withdraw handles MsgWithdraw
func (m *MsgServer) Withdraw(ctx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	assets, err := parseAmount(msg.Assets)
	if err != nil {
		return nil, err
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	res, err := m.keeper.Withdraw(sdkCtx, msg.Caller, msg.Owner, msg.Receiver, assets)
	if err != nil {
		return nil, err
	}
	return &types.MsgWithdrawResponse{
		SharesBurned: res.Shares.String(),
		Queued:       res.Queued,
		RequestID:    res.RequestID,
	}, nil
}

// Redeem handles MsgRedeem
func (m *MsgServer) Redeem(ctx context.Context, msg *types.MsgRedeem) (*types.MsgRedeemResponse, error) {
	shares, err := parseAmount(msg.Shares)
	if err != nil {
		return nil, err
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	res, err := m.keeper.Redeem(sdkCtx, msg.Caller, msg.Owner, msg.Receiver, shares)
	if err != nil {
		return nil, err
	}
	return &types.MsgRedeemResponse{
		AssetsPaid: res.Assets.String(),
		Queued:     res.Queued,
		RequestID:  res.RequestID,
	}, nil
}

// ApproveShares handles MsgApproveShares
func (m *MsgServer) ApproveShares(ctx context.Context, msg *types.MsgApproveShares) (*types.MsgApproveSharesResponse, error) {
	shares, ok := math.NewIntFromString(msg.Shares)
	if !ok {
		return nil, types.ErrZeroAmount
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.ApproveShares(sdkCtx, msg.Owner, msg.Spender, shares); err != nil {
		return nil, err
	}
	return &types.MsgApproveSharesResponse{}, nil
}

// AddStrategy handles MsgAddStrategy (manager only)
func (m *MsgServer) AddStrategy(ctx context.Context, msg *types.MsgAddStrategy) (*types.MsgAddStrategyResponse, error) {
	if msg.Authority != m.keeper.GetAuthority() {
		return nil, types.ErrUnauthorized
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	index, err := m.keeper.AddStrategy(sdkCtx, msg.Address, msg.TargetBps, msg.Kind, msg.HasLockup)
	if err != nil {
		return nil, err
	}
	return &types.MsgAddStrategyResponse{Index: index}, nil
}

// UpdateAllocation handles MsgUpdateAllocation (manager only)
func (m *MsgServer) UpdateAllocation(ctx context.Context, msg *types.MsgUpdateAllocation) (*types.MsgUpdateAllocationResponse, error) {
	if msg.Authority != m.keeper.GetAuthority() {
		return nil, types.ErrUnauthorized
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.UpdateAllocation(sdkCtx, msg.Index, msg.TargetBps); err != nil {
		return nil, err
	}
	return &types.MsgUpdateAllocationResponse{}, nil
}

// RemoveStrategy handles MsgRemoveStrategy (manager only)
func (m *MsgServer) RemoveStrategy(ctx context.Context, msg *types.MsgRemoveStrategy) (*types.MsgRemoveStrategyResponse, error) {
	if msg.Authority != m.keeper.GetAuthority() {
		return nil, types.ErrUnauthorized
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	deactivated, err := m.keeper.RemoveStrategy(sdkCtx, msg.Index)
	if err != nil {
		return nil, err
	}
	return &types.MsgRemoveStrategyResponse{Deactivated: deactivated}, nil
}

// Rebalance handles MsgRebalance (manager only)
func (m *MsgServer) Rebalance(ctx context.Context, msg *types.MsgRebalance) (*types.MsgRebalanceResponse, error) {
	if msg.Authority != m.keeper.GetAuthority() {
		return nil, types.ErrUnauthorized
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.Rebalance(sdkCtx); err != nil {
		return nil, err
	}
	return &types.MsgRebalanceResponse{Timestamp: time.Now().Unix()}, nil
}

// CompleteWithdrawal handles MsgCompleteWithdrawal
func (m *MsgServer) CompleteWithdrawal(ctx context.Context, msg *types.MsgCompleteWithdrawal) (*types.MsgCompleteWithdrawalResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	paid, err := m.keeper.CompleteWithdrawal(sdkCtx, msg.Holder, msg.RequestID)
	if err != nil {
		return nil, err
	}
	return &types.MsgCompleteWithdrawalResponse{AssetsPaid: paid.String()}, nil
}

// EmergencyWithdrawAll handles MsgEmergencyWithdrawAll (manager only)
func (m *MsgServer) EmergencyWithdrawAll(ctx context.Context, msg *types.MsgEmergencyWithdrawAll) (*types.MsgEmergencyWithdrawAllResponse, error) {
	if msg.Authority != m.keeper.GetAuthority() {
		return nil, types.ErrUnauthorized
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	recovered, err := m.keeper.EmergencyWithdrawAll(sdkCtx)
	if err != nil {
		return nil, err
	}
	return &types.MsgEmergencyWithdrawAllResponse{AssetsRecovered: recovered.String()}, nil
}

// SetPaused handles MsgSetPaused (manager only)
func (m *MsgServer) SetPaused(ctx context.Context, msg *types.MsgSetPaused) (*types.MsgSetPausedResponse, error) {
	if msg.Authority != m.keeper.GetAuthority() {
		return nil, types.ErrUnauthorized
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	m.keeper.SetPaused(sdkCtx, msg.Paused)
	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePausedSet,
			sdk.NewAttribute(types.AttributeKeyPaused, strconv.FormatBool(msg.Paused)),
		),
	)
	return &types.MsgSetPausedResponse{}, nil
}
