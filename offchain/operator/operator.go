package operator

import (
	"context"
	"log"
	"sync"
	"time"

	"cosmossdk.io/math"

	"github.com/openalpha/yield-vault/metrics"
	"github.com/openalpha/yield-vault/x/vault/types"
)

// Config holds the operator configuration
type Config struct {
	PollInterval time.Duration // Interval between settlement scans
	BatchSize    int           // Maximum completions per submission
	ChainRPCURL  string        // Chain RPC URL for queries and submission
	MetricsAddr  string        // Listen address for the metrics endpoint
}

// DefaultConfig returns the default operator configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 5 * time.Second,
		BatchSize:    50,
		ChainRPCURL:  "http://localhost:26657",
		MetricsAddr:  ":9464",
	}
}

// ChainQuerier reads vault state from the chain
type ChainQuerier interface {
	// PendingRequests returns all not-yet-completed withdrawal requests
	PendingRequests(ctx context.Context) ([]*types.WithdrawalRequest, error)

	// IdleBalance returns the vault's undeployed asset balance
	IdleBalance(ctx context.Context) (math.Int, error)
}

// Operator is the offchain settlement daemon. It watches the withdrawal
// queue and submits completion transactions whenever the vault's idle
// balance covers a queued claim.
type Operator struct {
	config    *Config
	querier   ChainQuerier
	submitter SettlementSubmitter

	mu        sync.RWMutex
	lastScan  time.Time
	submitted int64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewOperator creates a new operator instance
func NewOperator(config *Config, querier ChainQuerier, submitter SettlementSubmitter) *Operator {
	if config == nil {
		config = DefaultConfig()
	}
	if submitter == nil {
		submitter = NewMockSubmitter()
	}

	return &Operator{
		config:    config,
		querier:   querier,
		submitter: submitter,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the operator
func (o *Operator) Start(ctx context.Context) error {
	log.Println("Starting vault operator...")

	o.wg.Add(1)
	go o.pollLoop(ctx)

	log.Println("Vault operator started")
	return nil
}

// Stop stops the operator
func (o *Operator) Stop() error {
	log.Println("Stopping vault operator...")
	close(o.stopCh)
	o.wg.Wait()
	log.Println("Vault operator stopped")
	return nil
}

// pollLoop periodically scans the queue and submits settlements
func (o *Operator) pollLoop(ctx context.Context) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		case <-ticker.C:
			o.scanOnce(ctx)
		}
	}
}

// scanOnce runs a single settlement scan. Requests are considered in
// query order and greedily matched against the remaining idle balance,
// so a large claim at the front does not starve smaller ones behind it.
func (o *Operator) scanOnce(ctx context.Context) {
	timer := metrics.NewTimer()
	collector := metrics.GetCollector()

	pending, err := o.querier.PendingRequests(ctx)
	if err != nil {
		log.Printf("Error querying pending requests: %v", err)
		collector.RecordOperatorPoll("query_error", timer.ElapsedMs())
		return
	}
	if len(pending) == 0 {
		collector.RecordOperatorPoll("empty", timer.ElapsedMs())
		return
	}

	idle, err := o.querier.IdleBalance(ctx)
	if err != nil {
		log.Printf("Error querying idle balance: %v", err)
		collector.RecordOperatorPoll("query_error", timer.ElapsedMs())
		return
	}

	var batch []*Completion
	remaining := idle
	for _, r := range pending {
		if len(batch) >= o.config.BatchSize {
			break
		}
		if r.AssetsOwed.GT(remaining) {
			continue
		}
		batch = append(batch, &Completion{
			Holder:    r.Holder,
			RequestID: r.ID,
			Assets:    r.AssetsOwed,
		})
		remaining = remaining.Sub(r.AssetsOwed)
	}

	totalOwed := math.ZeroInt()
	for _, r := range pending {
		totalOwed = totalOwed.Add(r.AssetsOwed)
	}
	owedF, _ := totalOwed.ToLegacyDec().Float64()
	collector.UpdateQueueMetrics(len(pending), owedF)

	if len(batch) == 0 {
		collector.RecordOperatorPoll("no_liquidity", timer.ElapsedMs())
		return
	}

	log.Printf("Submitting %d settlement completions...", len(batch))
	if err := o.submitter.SubmitCompletions(ctx, batch); err != nil {
		log.Printf("Error submitting completions: %v", err)
		collector.RecordOperatorSubmission("error")
		collector.RecordOperatorPoll("submit_error", timer.ElapsedMs())
		return
	}
	collector.RecordOperatorSubmission("ok")
	collector.RecordOperatorPoll("ok", timer.ElapsedMs())

	o.mu.Lock()
	o.lastScan = time.Now()
	o.submitted += int64(len(batch))
	o.mu.Unlock()
}

// Stats holds operator statistics
type Stats struct {
	LastScan        time.Time
	TotalSubmitted  int64
	SubmitterStatus SubmitterStatus
}

// GetStats returns current operator statistics
func (o *Operator) GetStats() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return Stats{
		LastScan:        o.lastScan,
		TotalSubmitted:  o.submitted,
		SubmitterStatus: o.submitter.GetStatus(),
	}
}
