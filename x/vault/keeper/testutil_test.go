package keeper

import (
	"context"
	"fmt"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yield-vault/x/vault/types"
)

const (
	testPoolAddr  = "cosmos1pool"
	testAuthority = "cosmos1manager"
)

// mockBank is an asset ledger for tests. Balances live in a KVStore read
// through the supplied context, so writes made under a cache branch vanish
// when the branch is discarded, the same rollback behavior the bank-backed
// adapter has in production.
type mockBank struct {
	key storetypes.StoreKey
	ctx sdk.Context
}

func newMockBank(key storetypes.StoreKey, ctx sdk.Context) *mockBank {
	return &mockBank{key: key, ctx: ctx}
}

func balanceKey(addr string) string {
	return "balance/" + addr
}

func allowKey(owner, spender string) string {
	return "allowance/" + owner + "/" + spender
}

func (b *mockBank) get(ctx context.Context, key string) math.Int {
	bz := sdk.UnwrapSDKContext(ctx).KVStore(b.key).Get([]byte(key))
	if bz == nil {
		return math.ZeroInt()
	}
	v, ok := math.NewIntFromString(string(bz))
	if !ok {
		return math.ZeroInt()
	}
	return v
}

func (b *mockBank) set(ctx context.Context, key string, v math.Int) {
	sdk.UnwrapSDKContext(ctx).KVStore(b.key).Set([]byte(key), []byte(v.String()))
}

// fund and balanceOf are test helpers operating on the root context
func (b *mockBank) fund(addr string, amount int64) {
	b.set(b.ctx, balanceKey(addr), b.get(b.ctx, balanceKey(addr)).Add(math.NewInt(amount)))
}

func (b *mockBank) balanceOf(addr string) math.Int {
	return b.get(b.ctx, balanceKey(addr))
}

func (b *mockBank) move(ctx context.Context, from, to string, amount math.Int) error {
	have := b.get(ctx, balanceKey(from))
	if have.LT(amount) {
		return fmt.Errorf("insufficient funds: %s has %s, needs %s", from, have.String(), amount.String())
	}
	b.set(ctx, balanceKey(from), have.Sub(amount))
	b.set(ctx, balanceKey(to), b.get(ctx, balanceKey(to)).Add(amount))
	return nil
}

func (b *mockBank) BalanceOf(ctx context.Context, addr string) (math.Int, error) {
	return b.get(ctx, balanceKey(addr)), nil
}

func (b *mockBank) Transfer(ctx context.Context, from, to string, amount math.Int) error {
	return b.move(ctx, from, to, amount)
}

func (b *mockBank) TransferFrom(ctx context.Context, spender, from, to string, amount math.Int) error {
	return b.move(ctx, from, to, amount)
}

func (b *mockBank) Approve(ctx context.Context, owner, spender string, amount math.Int) error {
	b.set(ctx, allowKey(owner, spender), amount)
	return nil
}

// mockAdapter is a convertible strategy backed by the mock bank. Units
// price at priceNum/priceDen assets each; bumping priceNum simulates
// yield accrual inside the strategy. Unit holdings share the bank's
// context-scoped store so they roll back with it.
type mockAdapter struct {
	bank     *mockBank
	addr     string
	pool     string
	priceNum int64
	priceDen int64

	failDeposit bool
	failRedeem  bool
	negValue    bool

	// onDeposit runs at the top of Deposit when set; lets a test stand in
	// for an adapter that misbehaves mid-call.
	onDeposit func(ctx context.Context) error
}

func newMockAdapter(bank *mockBank, addr, pool string) *mockAdapter {
	return &mockAdapter{
		bank:     bank,
		addr:     addr,
		pool:     pool,
		priceNum: 1,
		priceDen: 1,
	}
}

func (a *mockAdapter) unitKey(holder string) string {
	return "units/" + a.addr + "/" + holder
}

func (a *mockAdapter) unitBalance(holder string) math.Int {
	return a.bank.get(a.bank.ctx, a.unitKey(holder))
}

func (a *mockAdapter) Deposit(ctx context.Context, assets math.Int) (math.Int, error) {
	if a.onDeposit != nil {
		if err := a.onDeposit(ctx); err != nil {
			return math.Int{}, err
		}
	}
	if a.failDeposit {
		return math.Int{}, fmt.Errorf("adapter deposit refused")
	}
	if err := a.bank.move(ctx, a.pool, a.addr, assets); err != nil {
		return math.Int{}, err
	}
	minted := assets.MulRaw(a.priceDen).QuoRaw(a.priceNum)
	a.bank.set(ctx, a.unitKey(a.pool), a.bank.get(ctx, a.unitKey(a.pool)).Add(minted))
	return minted, nil
}

func (a *mockAdapter) Redeem(ctx context.Context, units math.Int) (math.Int, error) {
	if a.failRedeem {
		return math.Int{}, fmt.Errorf("adapter redeem refused")
	}
	held := a.bank.get(ctx, a.unitKey(a.pool))
	if held.LT(units) {
		return math.Int{}, fmt.Errorf("insufficient units: have %s, need %s", held.String(), units.String())
	}
	assets := units.MulRaw(a.priceNum).QuoRaw(a.priceDen)
	if err := a.bank.move(ctx, a.addr, a.pool, assets); err != nil {
		return math.Int{}, err
	}
	a.bank.set(ctx, a.unitKey(a.pool), held.Sub(units))
	return assets, nil
}

func (a *mockAdapter) ConvertToAssets(ctx context.Context, units math.Int) (math.Int, error) {
	if a.negValue {
		return math.NewInt(-1), nil
	}
	return units.MulRaw(a.priceNum).QuoRaw(a.priceDen), nil
}

func (a *mockAdapter) ConvertToUnits(ctx context.Context, assets math.Int) (math.Int, error) {
	return assets.MulRaw(a.priceDen).QuoRaw(a.priceNum), nil
}

func (a *mockAdapter) UnitBalance(ctx context.Context, holder string) (math.Int, error) {
	return a.bank.get(ctx, a.unitKey(holder)), nil
}

// accrueYield simulates strategy earnings: units reprice upward and the
// backing assets appear on the adapter's bank account.
func (a *mockAdapter) accrueYield(num, den int64) {
	a.priceNum = num
	a.priceDen = den
	held := a.unitBalance(a.pool)
	value := held.MulRaw(num).QuoRaw(den)
	backing := a.bank.balanceOf(a.addr)
	if value.GT(backing) {
		a.bank.fund(a.addr, value.Sub(backing).Int64())
	}
}

// mockRegistry resolves adapters by strategy address
type mockRegistry struct {
	adapters map[string]types.StrategyAdapter
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{adapters: make(map[string]types.StrategyAdapter)}
}

func (r *mockRegistry) register(addr string, a types.StrategyAdapter) {
	r.adapters[addr] = a
}

func (r *mockRegistry) Adapter(address string) (types.StrategyAdapter, bool) {
	a, ok := r.adapters[address]
	return a, ok
}

// setupKeeper creates a test keeper with an in-memory store. The mock bank
// mounts its own store key alongside the module's so a cache branch covers
// both.
func setupKeeper(tb testing.TB) (*Keeper, sdk.Context, *mockBank, *mockRegistry) {
	tb.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	bankKey := storetypes.NewKVStoreKey("bankmock")
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(bankKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger())

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	bank := newMockBank(bankKey, ctx)
	registry := newMockRegistry()
	keeper := NewKeeper(cdc, storeKey, bank, registry, testPoolAddr, testAuthority, log.NewNopLogger())

	return keeper, ctx, bank, registry
}

// addConvertible registers an adapter and adds an active convertible
// strategy in one step
func addConvertible(tb testing.TB, k *Keeper, ctx sdk.Context, bank *mockBank, registry *mockRegistry, addr string, targetBps int64) (*mockAdapter, uint64) {
	tb.Helper()

	adapter := newMockAdapter(bank, addr, testPoolAddr)
	registry.register(addr, adapter)
	index, err := k.AddStrategy(ctx, addr, targetBps, types.StrategyKindConvertible, false)
	if err != nil {
		tb.Fatalf("failed to add strategy %s: %v", addr, err)
	}
	return adapter, index
}
