package operator

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// stubQuerier serves canned queue state to the operator
type stubQuerier struct {
	pending []*types.WithdrawalRequest
	idle    math.Int
	err     error
}

func (q *stubQuerier) PendingRequests(ctx context.Context) ([]*types.WithdrawalRequest, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.pending, nil
}

func (q *stubQuerier) IdleBalance(ctx context.Context) (math.Int, error) {
	if q.err != nil {
		return math.Int{}, q.err
	}
	return q.idle, nil
}

func pendingRequest(holder string, id uint64, owed int64) *types.WithdrawalRequest {
	return types.NewWithdrawalRequest(id, holder, math.NewInt(owed), math.NewInt(owed))
}

// TestScanSubmitsCoveredClaims tests that a scan submits exactly the
// claims the idle balance covers
func TestScanSubmitsCoveredClaims(t *testing.T) {
	querier := &stubQuerier{
		pending: []*types.WithdrawalRequest{
			pendingRequest("cosmos1alice", 0, 400),
			pendingRequest("cosmos1bob", 0, 300),
			pendingRequest("cosmos1carol", 0, 500),
		},
		idle: math.NewInt(750),
	}
	submitter := NewMockSubmitter()
	op := NewOperator(DefaultConfig(), querier, submitter)

	op.scanOnce(context.Background())

	// 400 and 300 fit; 500 exceeds the remaining 50
	submitted := submitter.GetSubmittedCompletions()
	require.Len(t, submitted, 2)
	require.Equal(t, "cosmos1alice", submitted[0].Holder)
	require.Equal(t, "cosmos1bob", submitted[1].Holder)
	require.Equal(t, int64(2), op.GetStats().TotalSubmitted)
}

// TestScanSkipsOversizedClaim tests that a large claim at the front does
// not starve smaller claims behind it
func TestScanSkipsOversizedClaim(t *testing.T) {
	querier := &stubQuerier{
		pending: []*types.WithdrawalRequest{
			pendingRequest("cosmos1whale", 0, 10000),
			pendingRequest("cosmos1small", 0, 100),
		},
		idle: math.NewInt(150),
	}
	submitter := NewMockSubmitter()
	op := NewOperator(DefaultConfig(), querier, submitter)

	op.scanOnce(context.Background())

	submitted := submitter.GetSubmittedCompletions()
	require.Len(t, submitted, 1)
	require.Equal(t, "cosmos1small", submitted[0].Holder)
	require.True(t, submitted[0].Assets.Equal(math.NewInt(100)))
}

// TestScanRespectsBatchSize tests the per-submission batch cap
func TestScanRespectsBatchSize(t *testing.T) {
	config := DefaultConfig()
	config.BatchSize = 2

	querier := &stubQuerier{
		pending: []*types.WithdrawalRequest{
			pendingRequest("cosmos1a", 0, 10),
			pendingRequest("cosmos1b", 0, 10),
			pendingRequest("cosmos1c", 0, 10),
		},
		idle: math.NewInt(1000),
	}
	submitter := NewMockSubmitter()
	op := NewOperator(config, querier, submitter)

	op.scanOnce(context.Background())

	require.Len(t, submitter.GetSubmittedCompletions(), 2)
}

// TestScanNoLiquidity tests that nothing is submitted when idle covers
// no claim
func TestScanNoLiquidity(t *testing.T) {
	querier := &stubQuerier{
		pending: []*types.WithdrawalRequest{pendingRequest("cosmos1alice", 0, 500)},
		idle:    math.NewInt(10),
	}
	submitter := NewMockSubmitter()
	op := NewOperator(DefaultConfig(), querier, submitter)

	op.scanOnce(context.Background())

	require.Empty(t, submitter.GetSubmittedCompletions())
	require.Zero(t, op.GetStats().TotalSubmitted)
}

// TestScanSubmitFailure tests that a failed submission leaves the
// submitted counter untouched
func TestScanSubmitFailure(t *testing.T) {
	querier := &stubQuerier{
		pending: []*types.WithdrawalRequest{pendingRequest("cosmos1alice", 0, 100)},
		idle:    math.NewInt(1000),
	}
	submitter := NewMockSubmitter()
	submitter.SetSimulateFailure(true)
	op := NewOperator(DefaultConfig(), querier, submitter)

	op.scanOnce(context.Background())

	require.Zero(t, op.GetStats().TotalSubmitted)
	status := submitter.GetStatus()
	require.Equal(t, int64(1), status.FailedSubmissions)
}

// TestOperatorStartStop tests the poll loop lifecycle
func TestOperatorStartStop(t *testing.T) {
	config := DefaultConfig()
	config.PollInterval = 10 * time.Millisecond

	querier := &stubQuerier{
		pending: []*types.WithdrawalRequest{pendingRequest("cosmos1alice", 0, 100)},
		idle:    math.NewInt(1000),
	}
	submitter := NewMockSubmitter()
	op := NewOperator(config, querier, submitter)

	require.NoError(t, op.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, op.Stop())

	require.NotEmpty(t, submitter.GetSubmittedCompletions())
	require.False(t, op.GetStats().LastScan.IsZero())
}
