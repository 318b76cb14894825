package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	// Validation errors: rejected before any state change
	ErrZeroAmount     = errors.Register(ModuleName, 2, "amount must be positive")
	ErrInvalidAddress = errors.Register(ModuleName, 3, "invalid address")

	// Invariant violations
	ErrAllocationCapExceeded = errors.Register(ModuleName, 4, "allocation exceeds per-strategy cap")
	ErrAggregateCapExceeded  = errors.Register(ModuleName, 5, "aggregate allocation exceeds 10000 bps")

	// Insufficient state
	ErrStrategyNotFound      = errors.Register(ModuleName, 6, "strategy not found")
	ErrStrategyInactive      = errors.Register(ModuleName, 7, "strategy is inactive")
	ErrNoShares              = errors.Register(ModuleName, 8, "no shares outstanding")
	ErrInsufficientShares    = errors.Register(ModuleName, 9, "insufficient share balance")
	ErrInsufficientAllowance = errors.Register(ModuleName, 10, "insufficient share allowance")
	ErrRequestNotFound       = errors.Register(ModuleName, 11, "withdrawal request not found")
	ErrRequestCompleted      = errors.Register(ModuleName, 12, "withdrawal request already completed")
	ErrInsufficientLiquidity = errors.Register(ModuleName, 13, "insufficient idle liquidity")
	ErrZeroValuation         = errors.Register(ModuleName, 14, "total value is zero with shares outstanding")

	// Gating
	ErrVaultPaused   = errors.Register(ModuleName, 15, "vault is paused")
	ErrUnauthorized  = errors.Register(ModuleName, 16, "unauthorized")
	ErrReentrantCall = errors.Register(ModuleName, 17, "reentrant call rejected")

	// External failures
	ErrAdapterNotFound         = errors.Register(ModuleName, 18, "no adapter registered for strategy address")
	ErrStrategyReport          = errors.Register(ModuleName, 19, "strategy reported inconsistent balances")
	ErrDirectDivestUnsupported = errors.Register(ModuleName, 20, "direct strategy requires divestment but supports none")
)
