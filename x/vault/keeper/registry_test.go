package keeper

import (
	"errors"
	"testing"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// TestAddStrategy tests strategy registration
func TestAddStrategy(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)

	_, index := addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 4000)
	if index != 0 {
		t.Errorf("expected index 0, got %d", index)
	}

	s := k.GetStrategy(ctx, 0)
	if s == nil {
		t.Fatal("expected strategy at index 0")
	}
	if s.Address != "cosmos1strat0" {
		t.Errorf("expected address cosmos1strat0, got %s", s.Address)
	}
	if s.TargetBps != 4000 {
		t.Errorf("expected target 4000 bps, got %d", s.TargetBps)
	}
	if s.Kind != types.StrategyKindConvertible {
		t.Errorf("expected convertible kind, got %s", s.Kind)
	}
	if !s.Active {
		t.Error("expected strategy to be active")
	}
	if k.GetStrategyCount(ctx) != 1 {
		t.Errorf("expected strategy count 1, got %d", k.GetStrategyCount(ctx))
	}
}

// TestAddStrategyPerStrategyCap tests the single-strategy allocation cap
func TestAddStrategyPerStrategyCap(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)
	registry.register("cosmos1strat0", newMockAdapter(bank, "cosmos1strat0", testPoolAddr))

	_, err := k.AddStrategy(ctx, "cosmos1strat0", types.MaxStrategyBps+1, types.StrategyKindConvertible, false)
	if !errors.Is(err, types.ErrAllocationCapExceeded) {
		t.Errorf("expected ErrAllocationCapExceeded, got %v", err)
	}

	// Exactly at the cap is allowed
	if _, err := k.AddStrategy(ctx, "cosmos1strat0", types.MaxStrategyBps, types.StrategyKindConvertible, false); err != nil {
		t.Errorf("expected cap-boundary add to succeed, got %v", err)
	}
}

// TestAddStrategyAggregateCap tests the cross-strategy allocation cap
func TestAddStrategyAggregateCap(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)

	addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 6000)
	addConvertible(t, k, ctx, bank, registry, "cosmos1strat1", 3000)

	// A third strategy pushing the sum past 100% is rejected
	registry.register("cosmos1strat2", newMockAdapter(bank, "cosmos1strat2", testPoolAddr))
	_, err := k.AddStrategy(ctx, "cosmos1strat2", 2000, types.StrategyKindConvertible, false)
	if !errors.Is(err, types.ErrAggregateCapExceeded) {
		t.Errorf("expected ErrAggregateCapExceeded, got %v", err)
	}

	// Fitting within the remaining headroom works
	if _, err := k.AddStrategy(ctx, "cosmos1strat2", 1000, types.StrategyKindConvertible, false); err != nil {
		t.Errorf("expected add within headroom to succeed, got %v", err)
	}
}

// TestAddStrategyRequiresAdapter tests that convertible strategies need a
// registered adapter
func TestAddStrategyRequiresAdapter(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)

	_, err := k.AddStrategy(ctx, "cosmos1unknown", 1000, types.StrategyKindConvertible, false)
	if !errors.Is(err, types.ErrAdapterNotFound) {
		t.Errorf("expected ErrAdapterNotFound, got %v", err)
	}

	// Direct strategies need no adapter
	if _, err := k.AddStrategy(ctx, "cosmos1direct", 1000, types.StrategyKindDirect, false); err != nil {
		t.Errorf("expected direct add to succeed, got %v", err)
	}
}

// TestAddStrategyUnknownKind tests kind validation
func TestAddStrategyUnknownKind(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)

	if _, err := k.AddStrategy(ctx, "cosmos1strat0", 1000, "mystery", false); err == nil {
		t.Error("expected unknown kind to be rejected")
	}
}

// TestUpdateAllocation tests target changes against both caps
func TestUpdateAllocation(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)

	addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 4000)
	addConvertible(t, k, ctx, bank, registry, "cosmos1strat1", 4000)

	if err := k.UpdateAllocation(ctx, 0, 5000); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if k.GetStrategy(ctx, 0).TargetBps != 5000 {
		t.Errorf("expected target 5000, got %d", k.GetStrategy(ctx, 0).TargetBps)
	}

	// The replaced value, not the old one, counts toward the aggregate
	if err := k.UpdateAllocation(ctx, 1, 6000); !errors.Is(err, types.ErrAggregateCapExceeded) {
		t.Errorf("expected ErrAggregateCapExceeded, got %v", err)
	}
	if err := k.UpdateAllocation(ctx, 1, 5000); err != nil {
		t.Errorf("expected update within caps to succeed, got %v", err)
	}

	if err := k.UpdateAllocation(ctx, 7, 1000); !errors.Is(err, types.ErrStrategyNotFound) {
		t.Errorf("expected ErrStrategyNotFound, got %v", err)
	}
}

// TestRemoveStrategy tests soft deletion and its idempotency
func TestRemoveStrategy(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)

	addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 4000)

	deactivated, err := k.RemoveStrategy(ctx, 0)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !deactivated {
		t.Error("expected first removal to deactivate")
	}
	if k.GetStrategy(ctx, 0).Active {
		t.Error("expected strategy to be inactive")
	}
	if len(k.GetActiveStrategies(ctx)) != 0 {
		t.Errorf("expected no active strategies, got %d", len(k.GetActiveStrategies(ctx)))
	}
	// Record survives as a tombstone
	if len(k.GetAllStrategies(ctx)) != 1 {
		t.Errorf("expected 1 stored strategy, got %d", len(k.GetAllStrategies(ctx)))
	}

	// Second removal is a no-op
	deactivated, err = k.RemoveStrategy(ctx, 0)
	if err != nil {
		t.Fatalf("repeat remove failed: %v", err)
	}
	if deactivated {
		t.Error("expected repeat removal to be a no-op")
	}

	// Updating an inactive strategy is rejected
	if err := k.UpdateAllocation(ctx, 0, 1000); !errors.Is(err, types.ErrStrategyInactive) {
		t.Errorf("expected ErrStrategyInactive, got %v", err)
	}
}

// TestRemovedIndexNeverReused tests that indices are append-only
func TestRemovedIndexNeverReused(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)

	addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 3000)
	if _, err := k.RemoveStrategy(ctx, 0); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	_, index := addConvertible(t, k, ctx, bank, registry, "cosmos1strat1", 3000)
	if index != 1 {
		t.Errorf("expected new strategy at index 1, got %d", index)
	}
}

// TestRemovedStrategyFreesAllocation tests that tombstoned targets stop
// counting toward the aggregate cap
func TestRemovedStrategyFreesAllocation(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)

	addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 6000)
	addConvertible(t, k, ctx, bank, registry, "cosmos1strat1", 4000)

	if _, err := k.RemoveStrategy(ctx, 0); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	registry.register("cosmos1strat2", newMockAdapter(bank, "cosmos1strat2", testPoolAddr))
	if _, err := k.AddStrategy(ctx, "cosmos1strat2", 6000, types.StrategyKindConvertible, false); err != nil {
		t.Errorf("expected freed allocation to admit a new strategy, got %v", err)
	}
}
