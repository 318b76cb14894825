package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// queueFixture deploys 60% of a 1000 deposit into a strategy so idle
// liquidity cannot cover large withdrawals
func queueFixture(t *testing.T) (*Keeper, sdk.Context, *mockBank, *mockAdapter) {
	t.Helper()

	k, ctx, bank, registry := setupKeeper(t)
	bank.fund("alice", 1000)

	if _, err := k.Deposit(ctx, "alice", "alice", math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	adapter, _ := addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 6000)
	if err := k.Rebalance(ctx); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}
	if !bank.balanceOf(testPoolAddr).Equal(math.NewInt(400)) {
		t.Fatalf("fixture expects idle 400, got %s", bank.balanceOf(testPoolAddr).String())
	}
	return k, ctx, bank, adapter
}

// TestWithdrawQueuesWhenIlliquid tests that a withdrawal beyond idle
// liquidity burns shares and queues a fixed claim
func TestWithdrawQueuesWhenIlliquid(t *testing.T) {
	k, ctx, bank, _ := queueFixture(t)

	res, err := k.Withdraw(ctx, "alice", "alice", "alice", math.NewInt(500))
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if !res.Queued {
		t.Fatal("expected withdrawal to be queued")
	}
	if res.RequestID != 0 {
		t.Errorf("expected request id 0, got %d", res.RequestID)
	}
	// Shares burn at enqueue time
	if !k.GetShares(ctx, "alice").Equal(math.NewInt(500)) {
		t.Errorf("expected alice to hold 500 shares, got %s", k.GetShares(ctx, "alice").String())
	}
	if !k.GetTotalShares(ctx).Equal(math.NewInt(500)) {
		t.Errorf("expected total shares 500, got %s", k.GetTotalShares(ctx).String())
	}
	// No assets moved yet
	if !bank.balanceOf("alice").IsZero() {
		t.Errorf("expected no payout yet, alice has %s", bank.balanceOf("alice").String())
	}
	if !k.GetTotalQueued(ctx).Equal(math.NewInt(500)) {
		t.Errorf("expected total queued 500, got %s", k.GetTotalQueued(ctx).String())
	}

	req := k.GetRequest(ctx, "alice", 0)
	if req == nil {
		t.Fatal("expected stored request")
	}
	if !req.AssetsOwed.Equal(math.NewInt(500)) {
		t.Errorf("expected 500 assets owed, got %s", req.AssetsOwed.String())
	}
	if req.Status != types.RequestStatusPending {
		t.Errorf("expected pending status, got %s", req.Status)
	}
}

// TestQueuedClaimFixedThroughYield tests that a queued claim does not
// float with later pool yield
func TestQueuedClaimFixedThroughYield(t *testing.T) {
	k, ctx, _, adapter := queueFixture(t)

	res, err := k.Withdraw(ctx, "alice", "alice", "alice", math.NewInt(500))
	if err != nil || !res.Queued {
		t.Fatalf("expected queued withdrawal, got res=%+v err=%v", res, err)
	}

	// Pool doubles in value while the claim waits
	adapter.accrueYield(2, 1)

	req := k.GetRequest(ctx, "alice", 0)
	if !req.AssetsOwed.Equal(math.NewInt(500)) {
		t.Errorf("expected claim fixed at 500, got %s", req.AssetsOwed.String())
	}
}

// TestCompleteWithdrawalNeedsLiquidity tests premature settlement rejection
func TestCompleteWithdrawalNeedsLiquidity(t *testing.T) {
	k, ctx, _, _ := queueFixture(t)

	if _, err := k.Withdraw(ctx, "alice", "alice", "alice", math.NewInt(500)); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	if _, err := k.CompleteWithdrawal(ctx, "alice", 0); !errors.Is(err, types.ErrInsufficientLiquidity) {
		t.Errorf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

// TestCompleteWithdrawal tests settlement after liquidity returns
func TestCompleteWithdrawal(t *testing.T) {
	k, ctx, bank, _ := queueFixture(t)

	if _, err := k.Withdraw(ctx, "alice", "alice", "alice", math.NewInt(500)); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	// Pull capital back from the strategy
	if err := k.UpdateAllocation(ctx, 0, 0); err != nil {
		t.Fatalf("update allocation failed: %v", err)
	}
	if err := k.Rebalance(ctx); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}

	paid, err := k.CompleteWithdrawal(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if !paid.Equal(math.NewInt(500)) {
		t.Errorf("expected 500 paid, got %s", paid.String())
	}
	if !bank.balanceOf("alice").Equal(math.NewInt(500)) {
		t.Errorf("expected alice balance 500, got %s", bank.balanceOf("alice").String())
	}
	if !k.GetTotalQueued(ctx).IsZero() {
		t.Errorf("expected total queued 0, got %s", k.GetTotalQueued(ctx).String())
	}
	req := k.GetRequest(ctx, "alice", 0)
	if !req.IsCompleted() {
		t.Error("expected request to be completed")
	}
	if req.CompletedAt == 0 {
		t.Error("expected completion timestamp to be set")
	}

	// Settlement is terminal
	if _, err := k.CompleteWithdrawal(ctx, "alice", 0); !errors.Is(err, types.ErrRequestCompleted) {
		t.Errorf("expected ErrRequestCompleted, got %v", err)
	}
}

// TestCompleteUnknownRequest tests settlement of a nonexistent claim
func TestCompleteUnknownRequest(t *testing.T) {
	k, ctx, _, _ := setupKeeper(t)

	if _, err := k.CompleteWithdrawal(ctx, "alice", 7); !errors.Is(err, types.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}

// TestPendingWithdrawalsFilter tests that completed requests drop out of
// the pending view
func TestPendingWithdrawalsFilter(t *testing.T) {
	k, ctx, _, _ := queueFixture(t)

	if _, err := k.Withdraw(ctx, "alice", "alice", "alice", math.NewInt(450)); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if _, err := k.Withdraw(ctx, "alice", "alice", "alice", math.NewInt(430)); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if len(k.PendingWithdrawals(ctx, "alice")) != 2 {
		t.Fatalf("expected 2 pending requests, got %d", len(k.PendingWithdrawals(ctx, "alice")))
	}

	if err := k.UpdateAllocation(ctx, 0, 0); err != nil {
		t.Fatalf("update allocation failed: %v", err)
	}
	if err := k.Rebalance(ctx); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}
	if _, err := k.CompleteWithdrawal(ctx, "alice", 0); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	pending := k.PendingWithdrawals(ctx, "alice")
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pending))
	}
	if pending[0].ID != 1 {
		t.Errorf("expected request 1 to remain pending, got %d", pending[0].ID)
	}
}

// TestQueuedSharesStayBurned tests that queueing reduces supply so later
// depositors are not diluted by waiting claims
func TestQueuedSharesStayBurned(t *testing.T) {
	k, ctx, _, _ := queueFixture(t)

	before := k.GetTotalShares(ctx)
	res, err := k.Withdraw(ctx, "alice", "alice", "alice", math.NewInt(500))
	if err != nil || !res.Queued {
		t.Fatalf("expected queued withdrawal, got res=%+v err=%v", res, err)
	}
	if !k.GetTotalShares(ctx).Equal(before.Sub(res.Shares)) {
		t.Errorf("expected supply %s, got %s", before.Sub(res.Shares).String(), k.GetTotalShares(ctx).String())
	}
}

// settleAllPending drives the queue the way the operator daemon does:
// walk pending requests and complete each one the idle balance covers.
func settleAllPending(t *testing.T, k *Keeper, ctx sdk.Context) int {
	t.Helper()

	settled := 0
	for _, r := range k.AllPendingRequests(ctx) {
		if _, err := k.CompleteWithdrawal(ctx, r.Holder, r.ID); err != nil {
			if errors.Is(err, types.ErrInsufficientLiquidity) {
				continue
			}
			t.Fatalf("complete %s/%d failed: %v", r.Holder, r.ID, err)
		}
		settled++
	}
	return settled
}

// TestEndBlockerLeavesQueueUntouched tests that block processing never
// settles claims on its own, even when liquidity covers them
func TestEndBlockerLeavesQueueUntouched(t *testing.T) {
	k, ctx, bank, _ := queueFixture(t)

	if res, err := k.Withdraw(ctx, "alice", "alice", "alice", math.NewInt(500)); err != nil || !res.Queued {
		t.Fatalf("expected queued withdrawal, got res=%+v err=%v", res, err)
	}

	// Bring all capital back so the claim is fully covered
	if err := k.UpdateAllocation(ctx, 0, 0); err != nil {
		t.Fatalf("update allocation failed: %v", err)
	}
	if err := k.Rebalance(ctx); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}

	if err := k.EndBlocker(ctx); err != nil {
		t.Fatalf("end blocker failed: %v", err)
	}

	// The claim waits for an explicit CompleteWithdrawal call
	if !bank.balanceOf("alice").IsZero() {
		t.Errorf("expected no payout from end blocker, alice has %s", bank.balanceOf("alice").String())
	}
	if !k.GetTotalQueued(ctx).Equal(math.NewInt(500)) {
		t.Errorf("expected total queued 500, got %s", k.GetTotalQueued(ctx).String())
	}
	if len(k.AllPendingRequests(ctx)) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(k.AllPendingRequests(ctx)))
	}

	if _, err := k.CompleteWithdrawal(ctx, "alice", 0); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if !bank.balanceOf("alice").Equal(math.NewInt(500)) {
		t.Errorf("expected alice paid 500, got %s", bank.balanceOf("alice").String())
	}
}

// TestOperatorSettlementDrainsQueue tests externally driven settlement
// once liquidity covers queued claims
func TestOperatorSettlementDrainsQueue(t *testing.T) {
	k, ctx, bank, registry := setupKeeper(t)
	bank.fund("alice", 1000)
	bank.fund("bob", 1000)

	if _, err := k.Deposit(ctx, "alice", "alice", math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := k.Deposit(ctx, "bob", "bob", math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	addConvertible(t, k, ctx, bank, registry, "cosmos1strat0", 6000)
	if err := k.Rebalance(ctx); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}

	// Idle is 800; both withdrawals overflow it
	if res, err := k.Withdraw(ctx, "alice", "alice", "alice", math.NewInt(900)); err != nil || !res.Queued {
		t.Fatalf("expected queued withdrawal, got res=%+v err=%v", res, err)
	}
	if res, err := k.Withdraw(ctx, "bob", "bob", "bob", math.NewInt(850)); err != nil || !res.Queued {
		t.Fatalf("expected queued withdrawal, got res=%+v err=%v", res, err)
	}

	// Nothing settles while liquidity is short
	if settled := settleAllPending(t, k, ctx); settled != 0 {
		t.Errorf("expected 0 settlements, got %d", settled)
	}

	// Unwind the strategy, then the operator sweep drains the queue
	if err := k.UpdateAllocation(ctx, 0, 0); err != nil {
		t.Fatalf("update allocation failed: %v", err)
	}
	if err := k.Rebalance(ctx); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}
	if settled := settleAllPending(t, k, ctx); settled != 2 {
		t.Errorf("expected 2 settlements, got %d", settled)
	}

	if !bank.balanceOf("alice").Equal(math.NewInt(900)) {
		t.Errorf("expected alice paid 900, got %s", bank.balanceOf("alice").String())
	}
	if !bank.balanceOf("bob").Equal(math.NewInt(850)) {
		t.Errorf("expected bob paid 850, got %s", bank.balanceOf("bob").String())
	}
	if !k.GetTotalQueued(ctx).IsZero() {
		t.Errorf("expected queue drained, total queued %s", k.GetTotalQueued(ctx).String())
	}
	if len(k.AllPendingRequests(ctx)) != 0 {
		t.Errorf("expected no pending requests, got %d", len(k.AllPendingRequests(ctx)))
	}
}

// TestOperatorPartialSettlement tests that claims the balance cannot
// cover stay queued through an operator sweep
func TestOperatorPartialSettlement(t *testing.T) {
	k, ctx, bank, _ := queueFixture(t)

	// Two claims, both beyond the idle 400
	if res, err := k.Withdraw(ctx, "alice", "alice", "alice", math.NewInt(450)); err != nil || !res.Queued {
		t.Fatalf("expected queued withdrawal, got res=%+v err=%v", res, err)
	}
	if res, err := k.Withdraw(ctx, "alice", "alice", "alice", math.NewInt(500)); err != nil || !res.Queued {
		t.Fatalf("expected queued withdrawal, got res=%+v err=%v", res, err)
	}

	// Shrink the strategy target so the rebalance frees 500, enough for
	// the first claim but not both
	if err := k.UpdateAllocation(ctx, 0, 1000); err != nil {
		t.Fatalf("update allocation failed: %v", err)
	}
	if err := k.Rebalance(ctx); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}
	if settled := settleAllPending(t, k, ctx); settled != 1 {
		t.Errorf("expected 1 settlement, got %d", settled)
	}

	if !bank.balanceOf("alice").Equal(math.NewInt(450)) {
		t.Errorf("expected alice paid 450, got %s", bank.balanceOf("alice").String())
	}
	pending := k.AllPendingRequests(ctx)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pending))
	}
	if !pending[0].AssetsOwed.Equal(math.NewInt(500)) {
		t.Errorf("expected remaining claim 500, got %s", pending[0].AssetsOwed.String())
	}
	if !k.GetTotalQueued(ctx).Equal(math.NewInt(500)) {
		t.Errorf("expected total queued 500, got %s", k.GetTotalQueued(ctx).String())
	}
}
