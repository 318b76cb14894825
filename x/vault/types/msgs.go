package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgDeposit             = "deposit"
	TypeMsgMint                = "mint"
	TypeMsgWithdraw            = "withdraw"
	TypeMsgRedeem              = "redeem"
	TypeMsgApproveShares       = "approve_shares"
	TypeMsgAddStrategy         = "add_strategy"
	TypeMsgUpdateAllocation    = "update_allocation"
	TypeMsgRemoveStrategy      = "remove_strategy"
	TypeMsgRebalance           = "rebalance"
	TypeMsgCompleteWithdrawal  = "complete_withdrawal"
	TypeMsgEmergencyWithdraw   = "emergency_withdraw_all"
	TypeMsgSetPaused           = "set_paused"
)

// MsgDeposit deposits assets and mints shares to the receiver
type MsgDeposit struct {
	Depositor string `json:"depositor"`
	Receiver  string `json:"receiver"`
	Assets    string `json:"assets"`
}

func (msg MsgDeposit) Route() string { return ModuleName }
func (msg MsgDeposit) Type() string  { return TypeMsgDeposit }

func (msg MsgDeposit) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Depositor); err != nil {
		return err
	}
	if msg.Receiver == "" {
		return ErrInvalidAddress
	}
	return nil
}

func (msg MsgDeposit) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Depositor)
	return []sdk.AccAddress{addr}
}

func (*MsgDeposit) ProtoMessage()   {}
func (msg *MsgDeposit) Reset()      { *msg = MsgDeposit{} }
func (msg MsgDeposit) String() string {
	return fmt.Sprintf("MsgDeposit{Depositor: %s, Receiver: %s, Assets: %s}", msg.Depositor, msg.Receiver, msg.Assets)
}

// MsgDepositResponse is the deposit result
type MsgDepositResponse struct {
	SharesMinted string `json:"shares_minted"`
}

// MsgMint mints an exact share amount, charging the required assets
type MsgMint struct {
	Depositor string `json:"depositor"`
	Receiver  string `json:"receiver"`
	Shares    string `json:"shares"`
}

func (msg MsgMint) Route() string { return ModuleName }
func (msg MsgMint) Type() string  { return TypeMsgMint }

func (msg MsgMint) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Depositor); err != nil {
		return err
	}
	if msg.Receiver == "" {
		return ErrInvalidAddress
	}
	return nil
}

func (msg MsgMint) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Depositor)
	return []sdk.AccAddress{addr}
}

func (*MsgMint) ProtoMessage()   {}
func (msg *MsgMint) Reset()      { *msg = MsgMint{} }
func (msg MsgMint) String() string {
	return fmt.Sprintf("MsgMint{Depositor: %s, Receiver: %s, Shares: %s}", msg.Depositor, msg.Receiver, msg.Shares)
}

// MsgMintResponse is the mint result
type MsgMintResponse struct {
	AssetsCharged string `json:"assets_charged"`
}

// MsgWithdraw withdraws an exact asset amount, burning the required shares
type MsgWithdraw struct {
	Caller   string `json:"caller"`
	Owner    string `json:"owner"`
	Receiver string `json:"receiver"`
	Assets   string `json:"assets"`
}

func (msg MsgWithdraw) Route() string { return ModuleName }
func (msg MsgWithdraw) Type() string  { return TypeMsgWithdraw }

func (msg MsgWithdraw) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Caller); err != nil {
		return err
	}
	if msg.Owner == "" || msg.Receiver == "" {
		return ErrInvalidAddress
	}
	return nil
}

func (msg MsgWithdraw) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{addr}
}

func (*MsgWithdraw) ProtoMessage()   {}
func (msg *MsgWithdraw) Reset()      { *msg = MsgWithdraw{} }
func (msg MsgWithdraw) String() string {
	return fmt.Sprintf("MsgWithdraw{Caller: %s, Owner: %s, Assets: %s}", msg.Caller, msg.Owner, msg.Assets)
}

// MsgWithdrawResponse reports either an immediate settlement or a queued claim
type MsgWithdrawResponse struct {
	SharesBurned string `json:"shares_burned"`
	Queued       bool   `json:"queued"`
	RequestID    uint64 `json:"request_id,omitempty"`
}

// MsgRedeem redeems an exact share amount for assets
type MsgRedeem struct {
	Caller   string `json:"caller"`
	Owner    string `json:"owner"`
	Receiver string `json:"receiver"`
	Shares   string `json:"shares"`
}

func (msg MsgRedeem) Route() string { return ModuleName }
func (msg MsgRedeem) Type() string  { return TypeMsgRedeem }

func (msg MsgRedeem) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Caller); err != nil {
		return err
	}
	if msg.Owner == "" || msg.Receiver == "" {
		return ErrInvalidAddress
	}
	return nil
}

func (msg MsgRedeem) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{addr}
}

func (*MsgRedeem) ProtoMessage()   {}
func (msg *MsgRedeem) Reset()      { *msg = MsgRedeem{} }
func (msg MsgRedeem) String() string {
	return fmt.Sprintf("MsgRedeem{Caller: %s, Owner: %s, Shares: %s}", msg.Caller, msg.Owner, msg.Shares)
}

// MsgRedeemResponse reports either an immediate settlement or a queued claim
type MsgRedeemResponse struct {
	AssetsPaid string `json:"assets_paid"`
	Queued     bool   `json:"queued"`
	RequestID  uint64 `json:"request_id,omitempty"`
}

// MsgApproveShares grants a spender the right to burn the owner's shares
type MsgApproveShares struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Shares  string `json:"shares"`
}

func (msg MsgApproveShares) Route() string { return ModuleName }
func (msg MsgApproveShares) Type() string  { return TypeMsgApproveShares }

func (msg MsgApproveShares) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if msg.Spender == "" {
		return ErrInvalidAddress
	}
	return nil
}

func (msg MsgApproveShares) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

func (*MsgApproveShares) ProtoMessage()   {}
func (msg *MsgApproveShares) Reset()      { *msg = MsgApproveShares{} }
func (msg MsgApproveShares) String() string {
	return fmt.Sprintf("MsgApproveShares{Owner: %s, Spender: %s, Shares: %s}", msg.Owner, msg.Spender, msg.Shares)
}

// MsgApproveSharesResponse is the approval result
type MsgApproveSharesResponse struct{}

// MsgAddStrategy registers a new strategy (manager only)
type MsgAddStrategy struct {
	Authority string `json:"authority"`
	Address   string `json:"address"`
	TargetBps int64  `json:"target_bps"`
	Kind      string `json:"kind"`
	HasLockup bool   `json:"has_lockup"`
}

func (msg MsgAddStrategy) Route() string { return ModuleName }
func (msg MsgAddStrategy) Type() string  { return TypeMsgAddStrategy }

func (msg MsgAddStrategy) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	if msg.Address == "" {
		return ErrInvalidAddress
	}
	if msg.Kind != StrategyKindConvertible && msg.Kind != StrategyKindDirect {
		return fmt.Errorf("unknown strategy kind %q", msg.Kind)
	}
	return nil
}

func (msg MsgAddStrategy) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

func (*MsgAddStrategy) ProtoMessage()   {}
func (msg *MsgAddStrategy) Reset()      { *msg = MsgAddStrategy{} }
func (msg MsgAddStrategy) String() string {
	return fmt.Sprintf("MsgAddStrategy{Address: %s, TargetBps: %d, Kind: %s}", msg.Address, msg.TargetBps, msg.Kind)
}

// MsgAddStrategyResponse returns the assigned strategy index
type MsgAddStrategyResponse struct {
	Index uint64 `json:"index"`
}

// MsgUpdateAllocation changes a strategy's target allocation (manager only)
type MsgUpdateAllocation struct {
	Authority string `json:"authority"`
	Index     uint64 `json:"index"`
	TargetBps int64  `json:"target_bps"`
}

func (msg MsgUpdateAllocation) Route() string { return ModuleName }
func (msg MsgUpdateAllocation) Type() string  { return TypeMsgUpdateAllocation }

func (msg MsgUpdateAllocation) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	return nil
}

func (msg MsgUpdateAllocation) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

func (*MsgUpdateAllocation) ProtoMessage()   {}
func (msg *MsgUpdateAllocation) Reset()      { *msg = MsgUpdateAllocation{} }
func (msg MsgUpdateAllocation) String() string {
	return fmt.Sprintf("MsgUpdateAllocation{Index: %d, TargetBps: %d}", msg.Index, msg.TargetBps)
}

// MsgUpdateAllocationResponse is the update result
type MsgUpdateAllocationResponse struct{}

// MsgRemoveStrategy soft-deletes a strategy (manager only)
type MsgRemoveStrategy struct {
	Authority string `json:"authority"`
	Index     uint64 `json:"index"`
}

func (msg MsgRemoveStrategy) Route() string { return ModuleName }
func (msg MsgRemoveStrategy) Type() string  { return TypeMsgRemoveStrategy }

func (msg MsgRemoveStrategy) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	return nil
}

func (msg MsgRemoveStrategy) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

func (*MsgRemoveStrategy) ProtoMessage()   {}
func (msg *MsgRemoveStrategy) Reset()      { *msg = MsgRemoveStrategy{} }
func (msg MsgRemoveStrategy) String() string {
	return fmt.Sprintf("MsgRemoveStrategy{Index: %d}", msg.Index)
}

// MsgRemoveStrategyResponse is the removal result
type MsgRemoveStrategyResponse struct {
	Deactivated bool `json:"deactivated"`
}

// MsgRebalance triggers a rebalance (manager only)
type MsgRebalance struct {
	Authority string `json:"authority"`
}

func (msg MsgRebalance) Route() string { return ModuleName }
func (msg MsgRebalance) Type() string  { return TypeMsgRebalance }

func (msg MsgRebalance) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	return nil
}

func (msg MsgRebalance) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

func (*MsgRebalance) ProtoMessage()   {}
func (msg *MsgRebalance) Reset()      { *msg = MsgRebalance{} }
func (msg MsgRebalance) String() string {
	return fmt.Sprintf("MsgRebalance{Authority: %s}", msg.Authority)
}

// MsgRebalanceResponse is the rebalance result
type MsgRebalanceResponse struct {
	Timestamp int64 `json:"timestamp"`
}

// MsgCompleteWithdrawal settles a queued withdrawal once liquidity exists
type MsgCompleteWithdrawal struct {
	Caller    string `json:"caller"`
	Holder    string `json:"holder"`
	RequestID uint64 `json:"request_id"`
}

func (msg MsgCompleteWithdrawal) Route() string { return ModuleName }
func (msg MsgCompleteWithdrawal) Type() string  { return TypeMsgCompleteWithdrawal }

func (msg MsgCompleteWithdrawal) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Caller); err != nil {
		return err
	}
	if msg.Holder == "" {
		return ErrInvalidAddress
	}
	return nil
}

func (msg MsgCompleteWithdrawal) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{addr}
}

func (*MsgCompleteWithdrawal) ProtoMessage()   {}
func (msg *MsgCompleteWithdrawal) Reset()      { *msg = MsgCompleteWithdrawal{} }
func (msg MsgCompleteWithdrawal) String() string {
	return fmt.Sprintf("MsgCompleteWithdrawal{Holder: %s, RequestID: %d}", msg.Holder, msg.RequestID)
}

// MsgCompleteWithdrawalResponse is the settlement result
type MsgCompleteWithdrawalResponse struct {
	AssetsPaid string `json:"assets_paid"`
}

// MsgEmergencyWithdrawAll unwinds all convertible strategies and pauses the vault
type MsgEmergencyWithdrawAll struct {
	Authority string `json:"authority"`
}

func (msg MsgEmergencyWithdrawAll) Route() string { return ModuleName }
func (msg MsgEmergencyWithdrawAll) Type() string  { return TypeMsgEmergencyWithdraw }

func (msg MsgEmergencyWithdrawAll) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	return nil
}

func (msg MsgEmergencyWithdrawAll) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

func (*MsgEmergencyWithdrawAll) ProtoMessage()   {}
func (msg *MsgEmergencyWithdrawAll) Reset()      { *msg = MsgEmergencyWithdrawAll{} }
func (msg MsgEmergencyWithdrawAll) String() string {
	return fmt.Sprintf("MsgEmergencyWithdrawAll{Authority: %s}", msg.Authority)
}

// MsgEmergencyWithdrawAllResponse is the unwind result
type MsgEmergencyWithdrawAllResponse struct {
	AssetsRecovered string `json:"assets_recovered"`
}

// MsgSetPaused toggles the pause gate (manager only)
type MsgSetPaused struct {
	Authority string `json:"authority"`
	Paused    bool   `json:"paused"`
}

func (msg MsgSetPaused) Route() string { return ModuleName }
func (msg MsgSetPaused) Type() string  { return TypeMsgSetPaused }

func (msg MsgSetPaused) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	return nil
}

func (msg MsgSetPaused) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

func (*MsgSetPaused) ProtoMessage()   {}
func (msg *MsgSetPaused) Reset()      { *msg = MsgSetPaused{} }
func (msg MsgSetPaused) String() string {
	return fmt.Sprintf("MsgSetPaused{Paused: %v}", msg.Paused)
}

// MsgSetPausedResponse is the toggle result
type MsgSetPausedResponse struct{}

// Ensure all messages implement sdk.Msg
var (
	_ sdk.Msg = &MsgDeposit{}
	_ sdk.Msg = &MsgMint{}
	_ sdk.Msg = &MsgWithdraw{}
	_ sdk.Msg = &MsgRedeem{}
	_ sdk.Msg = &MsgApproveShares{}
	_ sdk.Msg = &MsgAddStrategy{}
	_ sdk.Msg = &MsgUpdateAllocation{}
	_ sdk.Msg = &MsgRemoveStrategy{}
	_ sdk.Msg = &MsgRebalance{}
	_ sdk.Msg = &MsgCompleteWithdrawal{}
	_ sdk.Msg = &MsgEmergencyWithdrawAll{}
	_ sdk.Msg = &MsgSetPaused{}
)
