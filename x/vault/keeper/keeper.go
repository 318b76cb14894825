package keeper

import (
	"encoding/json"
	"sync"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// Store key prefixes
var (
	ShareKeyPrefix        = []byte{0x01}
	TotalSharesKey        = []byte{0x02}
	StrategyKeyPrefix     = []byte{0x03}
	StrategyCountKey      = []byte{0x04}
	RequestKeyPrefix      = []byte{0x05}
	RequestCountKeyPrefix = []byte{0x06}
	TotalQueuedKey        = []byte{0x07}
	SnapshotKey           = []byte{0x08}
	PausedKey             = []byte{0x09}
	AllowanceKeyPrefix    = []byte{0x0A}
)

// Keeper manages the vault module state. All balance-affecting entry
// points share a single mutual-exclusion guard; adapters are untrusted
// and a reentrant call through one of them is rejected, not queued.
type Keeper struct {
	cdc      codec.BinaryCodec
	storeKey storetypes.StoreKey
	bank     types.AssetBank
	adapters types.AdapterRegistry

	poolAddr  string
	authority string
	logger    log.Logger

	mu sync.Mutex
}

// NewKeeper creates a new vault keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bank types.AssetBank,
	adapters types.AdapterRegistry,
	poolAddr string,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:       cdc,
		storeKey:  storeKey,
		bank:      bank,
		adapters:  adapters,
		poolAddr:  poolAddr,
		authority: authority,
		logger:    logger.With("module", "x/vault"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the manager authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// PoolAddress returns the address holding the vault's idle balance
func (k *Keeper) PoolAddress() string {
	return k.poolAddr
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// acquireGuard takes the shared entry guard, failing on reentrancy.
// Release via the returned func.
func (k *Keeper) acquireGuard() (func(), error) {
	if !k.mu.TryLock() {
		return nil, types.ErrReentrantCall
	}
	return k.mu.Unlock, nil
}

// ============ Paused flag ============

// SetPaused stores the pause gate
func (k *Keeper) SetPaused(ctx sdk.Context, paused bool) {
	store := k.GetStore(ctx)
	if paused {
		store.Set(PausedKey, []byte{1})
	} else {
		store.Set(PausedKey, []byte{0})
	}
}

// IsPaused reads the pause gate
func (k *Keeper) IsPaused(ctx sdk.Context) bool {
	bz := k.GetStore(ctx).Get(PausedKey)
	return len(bz) == 1 && bz[0] == 1
}

// ============ Share ledger storage ============

func shareKey(holder string) []byte {
	return append(ShareKeyPrefix, []byte(holder)...)
}

func allowanceKey(owner, spender string) []byte {
	return append(AllowanceKeyPrefix, []byte(owner+":"+spender)...)
}

func (k *Keeper) setInt(ctx sdk.Context, key []byte, v math.Int) {
	k.GetStore(ctx).Set(key, []byte(v.String()))
}

func (k *Keeper) getInt(ctx sdk.Context, key []byte) math.Int {
	bz := k.GetStore(ctx).Get(key)
	if bz == nil {
		return math.ZeroInt()
	}
	v, ok := math.NewIntFromString(string(bz))
	if !ok {
		return math.ZeroInt()
	}
	return v
}

// GetShares returns a holder's share balance
func (k *Keeper) GetShares(ctx sdk.Context, holder string) math.Int {
	return k.getInt(ctx, shareKey(holder))
}

// SetShares stores a holder's share balance
func (k *Keeper) SetShares(ctx sdk.Context, holder string, shares math.Int) {
	k.setInt(ctx, shareKey(holder), shares)
}

// GetTotalShares returns the outstanding share supply
func (k *Keeper) GetTotalShares(ctx sdk.Context) math.Int {
	return k.getInt(ctx, TotalSharesKey)
}

// SetTotalShares stores the outstanding share supply
func (k *Keeper) SetTotalShares(ctx sdk.Context, shares math.Int) {
	k.setInt(ctx, TotalSharesKey, shares)
}

// GetShareAllowance returns the shares spender may burn on behalf of owner
func (k *Keeper) GetShareAllowance(ctx sdk.Context, owner, spender string) math.Int {
	return k.getInt(ctx, allowanceKey(owner, spender))
}

// SetShareAllowance stores a share allowance
func (k *Keeper) SetShareAllowance(ctx sdk.Context, owner, spender string, shares math.Int) {
	k.setInt(ctx, allowanceKey(owner, spender), shares)
}

// ============ Strategy storage ============

func strategyKey(index uint64) []byte {
	return append(StrategyKeyPrefix, sdk.Uint64ToBigEndian(index)...)
}

// GetStrategyCount returns the number of strategies ever added
func (k *Keeper) GetStrategyCount(ctx sdk.Context) uint64 {
	bz := k.GetStore(ctx).Get(StrategyCountKey)
	if bz == nil {
		return 0
	}
	return sdk.BigEndianToUint64(bz)
}

func (k *Keeper) setStrategyCount(ctx sdk.Context, count uint64) {
	k.GetStore(ctx).Set(StrategyCountKey, sdk.Uint64ToBigEndian(count))
}

// SetStrategy saves a strategy record
func (k *Keeper) SetStrategy(ctx sdk.Context, s *types.Strategy) {
	bz, _ := json.Marshal(s)
	k.GetStore(ctx).Set(strategyKey(s.Index), bz)
}

// GetStrategy retrieves a strategy by index
func (k *Keeper) GetStrategy(ctx sdk.Context, index uint64) *types.Strategy {
	bz := k.GetStore(ctx).Get(strategyKey(index))
	if bz == nil {
		return nil
	}
	var s types.Strategy
	if err := json.Unmarshal(bz, &s); err != nil {
		return nil
	}
	return &s
}

// GetAllStrategies returns every strategy in insertion order
func (k *Keeper) GetAllStrategies(ctx sdk.Context) []*types.Strategy {
	count := k.GetStrategyCount(ctx)
	out := make([]*types.Strategy, 0, count)
	for i := uint64(0); i < count; i++ {
		if s := k.GetStrategy(ctx, i); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// GetActiveStrategies returns active strategies in insertion order
func (k *Keeper) GetActiveStrategies(ctx sdk.Context) []*types.Strategy {
	var out []*types.Strategy
	for _, s := range k.GetAllStrategies(ctx) {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// ============ Withdrawal request storage ============

func requestKey(holder string, id uint64) []byte {
	key := append(RequestKeyPrefix, []byte(holder+":")...)
	return append(key, sdk.Uint64ToBigEndian(id)...)
}

func requestCountKey(holder string) []byte {
	return append(RequestCountKeyPrefix, []byte(holder)...)
}

// GetRequestCount returns how many requests a holder has ever queued
func (k *Keeper) GetRequestCount(ctx sdk.Context, holder string) uint64 {
	bz := k.GetStore(ctx).Get(requestCountKey(holder))
	if bz == nil {
		return 0
	}
	return sdk.BigEndianToUint64(bz)
}

func (k *Keeper) setRequestCount(ctx sdk.Context, holder string, count uint64) {
	k.GetStore(ctx).Set(requestCountKey(holder), sdk.Uint64ToBigEndian(count))
}

// SetRequest saves a withdrawal request
func (k *Keeper) SetRequest(ctx sdk.Context, r *types.WithdrawalRequest) {
	bz, _ := json.Marshal(r)
	k.GetStore(ctx).Set(requestKey(r.Holder, r.ID), bz)
}

// GetRequest retrieves a holder's withdrawal request by id
func (k *Keeper) GetRequest(ctx sdk.Context, holder string, id uint64) *types.WithdrawalRequest {
	bz := k.GetStore(ctx).Get(requestKey(holder, id))
	if bz == nil {
		return nil
	}
	var r types.WithdrawalRequest
	if err := json.Unmarshal(bz, &r); err != nil {
		return nil
	}
	return &r
}

// GetHolderRequests returns all of a holder's requests in creation order
func (k *Keeper) GetHolderRequests(ctx sdk.Context, holder string) []*types.WithdrawalRequest {
	count := k.GetRequestCount(ctx, holder)
	out := make([]*types.WithdrawalRequest, 0, count)
	for i := uint64(0); i < count; i++ {
		if r := k.GetRequest(ctx, holder, i); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// GetTotalQueued returns the aggregate outstanding queued-asset claims
func (k *Keeper) GetTotalQueued(ctx sdk.Context) math.Int {
	return k.getInt(ctx, TotalQueuedKey)
}

// SetTotalQueued stores the aggregate queued-asset counter
func (k *Keeper) SetTotalQueued(ctx sdk.Context, v math.Int) {
	k.setInt(ctx, TotalQueuedKey, v)
}

// ============ Valuation snapshot storage ============

// SetSnapshot saves the last computed valuation
func (k *Keeper) SetSnapshot(ctx sdk.Context, s *types.ValuationSnapshot) {
	bz, _ := json.Marshal(s)
	k.GetStore(ctx).Set(SnapshotKey, bz)
}

// GetSnapshot retrieves the last computed valuation, nil if none exists
func (k *Keeper) GetSnapshot(ctx sdk.Context) *types.ValuationSnapshot {
	bz := k.GetStore(ctx).Get(SnapshotKey)
	if bz == nil {
		return nil
	}
	var s types.ValuationSnapshot
	if err := json.Unmarshal(bz, &s); err != nil {
		return nil
	}
	return &s
}
