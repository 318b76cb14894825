package operator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"cosmossdk.io/math"
)

// Completion identifies a queued withdrawal ready to settle
type Completion struct {
	Holder    string
	RequestID uint64
	Assets    math.Int
}

// SettlementSubmitter defines the interface for submitting settlement
// transactions to the chain
type SettlementSubmitter interface {
	// SubmitCompletions submits a batch of withdrawal completions
	SubmitCompletions(ctx context.Context, completions []*Completion) error

	// GetStatus returns the submitter status
	GetStatus() SubmitterStatus
}

// SubmitterStatus represents the status of a submitter
type SubmitterStatus struct {
	Connected         bool
	PendingTxCount    int
	LastSubmitTime    time.Time
	LastError         string
	TotalSubmissions  int64
	FailedSubmissions int64
}

// MockSubmitter is a mock implementation for testing
type MockSubmitter struct {
	mu              sync.Mutex
	completions     []*Completion
	status          SubmitterStatus
	simulateFailure bool
}

// NewMockSubmitter creates a new mock submitter
func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{
		completions: make([]*Completion, 0),
		status: SubmitterStatus{
			Connected: true,
		},
	}
}

// SubmitCompletions submits completions (mock implementation)
func (s *MockSubmitter) SubmitCompletions(ctx context.Context, completions []*Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.simulateFailure {
		s.status.FailedSubmissions++
		s.status.LastError = "simulated failure"
		return fmt.Errorf("simulated failure")
	}

	s.completions = append(s.completions, completions...)
	s.status.TotalSubmissions++
	s.status.LastSubmitTime = time.Now()

	log.Printf("[MockSubmitter] Submitted %d completions", len(completions))
	for _, c := range completions {
		log.Printf("  Completion: holder=%s, request=%d, assets=%s", c.Holder, c.RequestID, c.Assets.String())
	}

	return nil
}

// GetStatus returns the mock submitter status
func (s *MockSubmitter) GetStatus() SubmitterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// GetSubmittedCompletions returns all submitted completions (for testing)
func (s *MockSubmitter) GetSubmittedCompletions() []*Completion {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*Completion, len(s.completions))
	copy(result, s.completions)
	return result
}

// SetSimulateFailure enables or disables failure simulation
func (s *MockSubmitter) SetSimulateFailure(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulateFailure = fail
}

// Clear clears all submitted data (for testing)
func (s *MockSubmitter) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions = make([]*Completion, 0)
}

// RPCSubmitter submits completions to the chain over RPC
type RPCSubmitter struct {
	rpcURL        string
	batchSize     int
	retryAttempts int
	retryDelay    time.Duration

	mu     sync.Mutex
	status SubmitterStatus
}

// RPCSubmitterConfig holds configuration for RPCSubmitter
type RPCSubmitterConfig struct {
	RPCURL        string
	BatchSize     int
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultRPCSubmitterConfig returns default configuration
func DefaultRPCSubmitterConfig() *RPCSubmitterConfig {
	return &RPCSubmitterConfig{
		RPCURL:        "http://localhost:26657",
		BatchSize:     50,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// NewRPCSubmitter creates a new RPC submitter
func NewRPCSubmitter(config *RPCSubmitterConfig) *RPCSubmitter {
	if config == nil {
		config = DefaultRPCSubmitterConfig()
	}

	return &RPCSubmitter{
		rpcURL:        config.RPCURL,
		batchSize:     config.BatchSize,
		retryAttempts: config.RetryAttempts,
		retryDelay:    config.RetryDelay,
		status: SubmitterStatus{
			Connected: true,
		},
	}
}

// SubmitCompletions submits completions in batches
func (s *RPCSubmitter) SubmitCompletions(ctx context.Context, completions []*Completion) error {
	if len(completions) == 0 {
		return nil
	}

	s.mu.Lock()
	s.status.PendingTxCount = len(completions)
	s.mu.Unlock()

	// Split into batches
	for i := 0; i < len(completions); i += s.batchSize {
		end := i + s.batchSize
		if end > len(completions) {
			end = len(completions)
		}
		batch := completions[i:end]

		if err := s.submitBatchWithRetry(ctx, batch); err != nil {
			s.mu.Lock()
			s.status.FailedSubmissions++
			s.status.LastError = err.Error()
			s.mu.Unlock()
			return fmt.Errorf("failed to submit batch: %w", err)
		}
	}

	s.mu.Lock()
	s.status.TotalSubmissions++
	s.status.LastSubmitTime = time.Now()
	s.status.PendingTxCount = 0
	s.mu.Unlock()

	return nil
}

// submitBatchWithRetry submits a batch with retry logic
func (s *RPCSubmitter) submitBatchWithRetry(ctx context.Context, batch []*Completion) error {
	var lastErr error
	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		if err := s.submitBatch(ctx, batch); err != nil {
			lastErr = err
			log.Printf("Batch submission attempt %d failed: %v", attempt+1, err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all retry attempts failed: %w", lastErr)
}

// submitBatch submits a single batch
func (s *RPCSubmitter) submitBatch(ctx context.Context, batch []*Completion) error {
	// Prepare the transaction message
	msg := struct {
		Jsonrpc string        `json:"jsonrpc"`
		ID      int           `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params"`
	}{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  "broadcast_tx_async",
		Params:  []interface{}{s.encodeCompletions(batch)},
	}

	// Log the submission (in production, this would be an actual RPC call)
	msgBytes, _ := json.Marshal(msg)
	log.Printf("[RPCSubmitter] Submitting batch of %d completions to %s", len(batch), s.rpcURL)
	log.Printf("[RPCSubmitter] Message: %s", string(msgBytes))

	// In a real implementation, we would:
	// 1. Create a MsgCompleteWithdrawal transaction per completion
	// 2. Sign the transaction
	// 3. Broadcast via RPC

	return nil
}

// encodeCompletions encodes completions for submission
func (s *RPCSubmitter) encodeCompletions(completions []*Completion) string {
	data := make([]map[string]string, len(completions))
	for i, c := range completions {
		data[i] = map[string]string{
			"holder":     c.Holder,
			"request_id": fmt.Sprintf("%d", c.RequestID),
			"assets":     c.Assets.String(),
		}
	}
	encoded, _ := json.Marshal(data)
	return string(encoded)
}

// GetStatus returns the submitter status
func (s *RPCSubmitter) GetStatus() SubmitterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetRPCURL updates the RPC URL
func (s *RPCSubmitter) SetRPCURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rpcURL = url
}

// SubmitterFactory creates submitters based on configuration
type SubmitterFactory struct{}

// NewSubmitterFactory creates a new submitter factory
func NewSubmitterFactory() *SubmitterFactory {
	return &SubmitterFactory{}
}

// Create creates a new submitter based on the type
func (f *SubmitterFactory) Create(submitterType string, config *RPCSubmitterConfig) SettlementSubmitter {
	switch submitterType {
	case "mock":
		return NewMockSubmitter()
	case "rpc":
		return NewRPCSubmitter(config)
	default:
		return NewMockSubmitter()
	}
}
