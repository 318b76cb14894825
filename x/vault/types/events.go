package types

// Event types
const (
	EventTypeDeposit             = "vault_deposit"
	EventTypeMint                = "vault_mint"
	EventTypeWithdraw            = "vault_withdraw"
	EventTypeStrategyAdded       = "vault_strategy_added"
	EventTypeStrategyUpdated     = "vault_strategy_updated"
	EventTypeStrategyRemoved     = "vault_strategy_removed"
	EventTypeRebalanceCompleted  = "vault_rebalance_completed"
	EventTypeWithdrawalQueued    = "vault_withdrawal_queued"
	EventTypeWithdrawalCompleted = "vault_withdrawal_completed"
	EventTypeValuationChanged    = "vault_valuation_changed"
	EventTypeEmergencyUnwind     = "vault_emergency_unwind"
	EventTypeDirectSkipped       = "vault_direct_strategy_skipped"
	EventTypePausedSet           = "vault_paused_set"
)

// Event attribute keys
const (
	AttributeKeyHolder        = "holder"
	AttributeKeyReceiver      = "receiver"
	AttributeKeyAssets        = "assets"
	AttributeKeyShares        = "shares"
	AttributeKeyStrategyIndex = "strategy_index"
	AttributeKeyStrategyAddr  = "strategy_address"
	AttributeKeyTargetBps     = "target_bps"
	AttributeKeyKind          = "kind"
	AttributeKeyRequestID     = "request_id"
	AttributeKeyTimestamp     = "timestamp"
	AttributeKeyPreviousValue = "previous_value"
	AttributeKeyNewValue      = "new_value"
	AttributeKeyDelta         = "delta"
	AttributeKeyPaused        = "paused"
)
