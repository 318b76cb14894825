package types

import (
	"context"

	"cosmossdk.io/math"
)

// AssetBank is the underlying-asset transfer primitive the vault consumes.
// Implementations are trusted; a failure here aborts the enclosing operation.
// All writes must be scoped to the supplied context: the keeper branches
// state for each operation, and writes made under a discarded branch must
// not survive.
type AssetBank interface {
	BalanceOf(ctx context.Context, addr string) (math.Int, error)
	Transfer(ctx context.Context, from, to string, amount math.Int) error
	TransferFrom(ctx context.Context, spender, from, to string, amount math.Int) error
	Approve(ctx context.Context, owner, spender string, amount math.Int) error
}

// StrategyAdapter is the capability surface of a convertible strategy.
// Adapters call out to external sub-accounts of unknown behavior; every
// method may fail and the caller must treat results as untrusted. Like
// AssetBank, implementations must scope all writes to the supplied
// context so an aborted operation rolls back in full.
type StrategyAdapter interface {
	// Deposit moves pre-approved assets from the pool into the strategy
	// and returns the ownership units received.
	Deposit(ctx context.Context, assets math.Int) (math.Int, error)
	// Redeem burns units and returns the assets paid back to the pool.
	Redeem(ctx context.Context, units math.Int) (math.Int, error)
	ConvertToAssets(ctx context.Context, units math.Int) (math.Int, error)
	ConvertToUnits(ctx context.Context, assets math.Int) (math.Int, error)
	// UnitBalance returns the pool's held ownership units in the strategy.
	UnitBalance(ctx context.Context, holder string) (math.Int, error)
}

// AdapterRegistry resolves a strategy address to its adapter. Direct
// strategies have no adapter; their balance is read straight off the bank.
type AdapterRegistry interface {
	Adapter(address string) (StrategyAdapter, bool)
}
