package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// TestTotalValueComposition tests that valuation sums idle, convertible
// and direct balances
func TestTotalValueComposition(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)
	bank.fund("alice", 1000)

	if _, err := k.Deposit(ctx, "alice", "alice", math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 3000)
	if _, err := k.AddStrategy(ctx, "cosmos1direct", 2000, types.StrategyKindDirect, false); err != nil {
		t.Fatalf("add strategy failed: %v", err)
	}
	if err := k.Rebalance(ctx); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}

	// idle 500, convertible 300, direct 200
	total, err := k.TotalValue(ctx)
	if err != nil {
		t.Fatalf("total value failed: %v", err)
	}
	if !total.Equal(math.NewInt(1000)) {
		t.Errorf("expected total 1000, got %s", total.String())
	}

	idle, err := k.IdleBalance(ctx)
	if err != nil {
		t.Fatalf("idle balance failed: %v", err)
	}
	if !idle.Equal(math.NewInt(500)) {
		t.Errorf("expected idle 500, got %s", idle.String())
	}
}

// TestTotalValueTracksYield tests that strategy repricing flows into
// valuation without any vault-side writes
func TestTotalValueTracksYield(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)
	bank.fund("alice", 1000)

	if _, err := k.Deposit(ctx, "alice", "alice", math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	adapter, _ := addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 5000)
	if err := k.Rebalance(ctx); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}

	adapter.accrueYield(12, 10)

	total, err := k.TotalValue(ctx)
	if err != nil {
		t.Fatalf("total value failed: %v", err)
	}
	// idle 500 + 500 units now worth 600
	if !total.Equal(math.NewInt(1100)) {
		t.Errorf("expected total 1100, got %s", total.String())
	}
}

// TestTotalValueExcludesInactive tests that tombstoned strategies drop
// out of valuation
func TestTotalValueExcludesInactive(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)
	bank.fund("alice", 1000)

	if _, err := k.Deposit(ctx, "alice", "alice", math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 4000)
	if err := k.Rebalance(ctx); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}

	if _, err := k.RemoveStrategy(ctx, 0); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	// The 400 still held by the strategy no longer counts
	total, err := k.TotalValue(ctx)
	if err != nil {
		t.Fatalf("total value failed: %v", err)
	}
	if !total.Equal(math.NewInt(600)) {
		t.Errorf("expected total 600, got %s", total.String())
	}
}

// TestNegativeStrategyReport tests that a nonsensical adapter valuation
// poisons the whole total instead of going stale
func TestNegativeStrategyReport(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)
	bank.fund("alice", 1000)

	if _, err := k.Deposit(ctx, "alice", "alice", math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	adapter, _ := addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 4000)
	if err := k.Rebalance(ctx); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}

	adapter.negValue = true

	if _, err := k.TotalValue(ctx); !errors.Is(err, types.ErrStrategyReport) {
		t.Errorf("expected ErrStrategyReport, got %v", err)
	}

	// Deposits are blocked while valuation is unavailable
	bank.fund("bob", 100)
	if _, err := k.Deposit(ctx, "bob", "bob", math.NewInt(100)); !errors.Is(err, types.ErrStrategyReport) {
		t.Errorf("expected deposit to surface ErrStrategyReport, got %v", err)
	}
}

// TestRefreshValuationSnapshot tests snapshot caching
func TestRefreshValuationSnapshot(t *testing.T) {
	k, ctx, bank, _ := setupKeeper(t)
	bank.fund("alice", 1000)

	if _, err := k.Deposit(ctx, "alice", "alice", math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	snap := k.GetSnapshot(ctx)
	if snap == nil {
		t.Fatal("expected snapshot after deposit")
	}
	if !snap.TotalValue.Equal(math.NewInt(1000)) {
		t.Errorf("expected snapshot value 1000, got %s", snap.TotalValue.String())
	}

	bank.fund(testPoolAddr, 250)
	if err := k.RefreshValuation(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	snap = k.GetSnapshot(ctx)
	if !snap.TotalValue.Equal(math.NewInt(1250)) {
		t.Errorf("expected snapshot value 1250, got %s", snap.TotalValue.String())
	}
	if snap.UpdatedAt == 0 {
		t.Error("expected snapshot timestamp to be set")
	}
}
