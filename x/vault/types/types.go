package types

import (
	"time"

	"cosmossdk.io/math"
)

// Module name and store key
const (
	ModuleName = "vault"
	StoreKey   = ModuleName
)

// Strategy kinds
const (
	StrategyKindConvertible = "convertible"
	StrategyKindDirect      = "direct"
)

// Withdrawal request status
const (
	RequestStatusPending   = "pending"
	RequestStatusCompleted = "completed"
)

// Allocation caps, in basis points of total pool value
const (
	MaxStrategyBps  = int64(6000)  // 60% per strategy
	MaxAggregateBps = int64(10000) // 100% across active strategies
)

// Strategy is an external sub-account holding a slice of pool capital.
// Strategies are append-only: removal only clears Active, the index is
// never reused.
type Strategy struct {
	Index     uint64 `json:"index"`
	Address   string `json:"address"`
	TargetBps int64  `json:"target_bps"`
	Kind      string `json:"kind"`
	HasLockup bool   `json:"has_lockup"`
	Active    bool   `json:"active"`
	AddedAt   int64  `json:"added_at"`
}

// NewStrategy creates an active strategy record
func NewStrategy(index uint64, address string, targetBps int64, kind string, hasLockup bool) *Strategy {
	return &Strategy{
		Index:     index,
		Address:   address,
		TargetBps: targetBps,
		Kind:      kind,
		HasLockup: hasLockup,
		Active:    true,
		AddedAt:   time.Now().Unix(),
	}
}

// IsConvertible reports whether the strategy exposes a share-like exchange rate
func (s *Strategy) IsConvertible() bool {
	return s.Kind == StrategyKindConvertible
}

// WithdrawalRequest is a deferred withdrawal claim. Shares are burned at
// creation; the claim is fixed in asset terms and does not float with
// subsequent pool yield or loss.
type WithdrawalRequest struct {
	ID           uint64   `json:"id"`
	Holder       string   `json:"holder"`
	SharesBurned math.Int `json:"shares_burned"`
	AssetsOwed   math.Int `json:"assets_owed"`
	Status       string   `json:"status"`
	CreatedAt    int64    `json:"created_at"`
	CompletedAt  int64    `json:"completed_at"`
}

// NewWithdrawalRequest creates a pending request
func NewWithdrawalRequest(id uint64, holder string, shares, assets math.Int) *WithdrawalRequest {
	return &WithdrawalRequest{
		ID:           id,
		Holder:       holder,
		SharesBurned: shares,
		AssetsOwed:   assets,
		Status:       RequestStatusPending,
		CreatedAt:    time.Now().Unix(),
		CompletedAt:  0,
	}
}

// IsCompleted reports whether the request reached its terminal state
func (r *WithdrawalRequest) IsCompleted() bool {
	return r.Status == RequestStatusCompleted
}

// ValuationSnapshot is the last computed total value. It exists to detect
// and report yield deltas; conversion paths always revalue live.
type ValuationSnapshot struct {
	TotalValue math.Int `json:"total_value"`
	UpdatedAt  int64    `json:"updated_at"`
}

// VaultMetrics aggregates the externally observable vault state
type VaultMetrics struct {
	TotalValue    math.Int       `json:"total_value"`
	TotalShares   math.Int       `json:"total_shares"`
	PricePerShare math.LegacyDec `json:"price_per_share"`
	TotalQueued   math.Int       `json:"total_queued"`
	IdleBalance   math.Int       `json:"idle_balance"`
	Paused        bool           `json:"paused"`
}
