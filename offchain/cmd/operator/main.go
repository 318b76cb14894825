package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cosmossdk.io/math"

	"github.com/openalpha/yield-vault/metrics"
	"github.com/openalpha/yield-vault/offchain/operator"
	"github.com/openalpha/yield-vault/x/vault/types"
)

// Config holds the application configuration
type Config struct {
	PollInterval  time.Duration `json:"poll_interval"`
	BatchSize     int           `json:"batch_size"`
	ChainRPCURL   string        `json:"chain_rpc_url"`
	MetricsAddr   string        `json:"metrics_addr"`
	SubmitterType string        `json:"submitter_type"` // "mock" or "rpc"
	Demo          bool          `json:"demo"`           // run demo mode
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval:  5 * time.Second,
		BatchSize:     50,
		ChainRPCURL:   "http://localhost:26657",
		MetricsAddr:   ":9464",
		SubmitterType: "mock",
		Demo:          false,
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	pollInterval := flag.Duration("poll-interval", 0, "Interval between settlement scans")
	batchSize := flag.Int("batch-size", 0, "Maximum completions per submission")
	rpcURL := flag.String("rpc", "", "Chain RPC URL")
	metricsAddr := flag.String("metrics", "", "Metrics listen address")
	submitterType := flag.String("submitter", "", "Submitter type (mock or rpc)")
	demo := flag.Bool("demo", false, "Run demo mode with a simulated queue")
	flag.Parse()

	// Load configuration
	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Override with command line flags
	if *pollInterval > 0 {
		config.PollInterval = *pollInterval
	}
	if *batchSize > 0 {
		config.BatchSize = *batchSize
	}
	if *rpcURL != "" {
		config.ChainRPCURL = *rpcURL
	}
	if *metricsAddr != "" {
		config.MetricsAddr = *metricsAddr
	}
	if *submitterType != "" {
		config.SubmitterType = *submitterType
	}
	if *demo {
		config.Demo = true
	}

	// Print configuration
	log.Println("=== Vault Settlement Operator ===")
	log.Printf("Poll Interval: %v", config.PollInterval)
	log.Printf("Batch Size: %d", config.BatchSize)
	log.Printf("Chain RPC: %s", config.ChainRPCURL)
	log.Printf("Metrics: %s", config.MetricsAddr)
	log.Printf("Submitter: %s", config.SubmitterType)
	log.Println("=================================")

	// Create submitter
	factory := operator.NewSubmitterFactory()
	submitter := factory.Create(config.SubmitterType, &operator.RPCSubmitterConfig{
		RPCURL:        config.ChainRPCURL,
		BatchSize:     config.BatchSize,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	})

	// Create querier
	var querier operator.ChainQuerier
	if config.Demo {
		querier = newDemoQuerier()
	} else {
		querier = newRPCQuerier(config.ChainRPCURL)
	}

	// Create operator
	operatorConfig := &operator.Config{
		PollInterval: config.PollInterval,
		BatchSize:    config.BatchSize,
		ChainRPCURL:  config.ChainRPCURL,
		MetricsAddr:  config.MetricsAddr,
	}
	op := operator.NewOperator(operatorConfig, querier, submitter)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Serve the metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(config.MetricsAddr, mux); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()

	// Start the operator
	if err := op.Start(ctx); err != nil {
		log.Fatalf("Failed to start operator: %v", err)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Periodic stats logging
	statsTicker := time.NewTicker(10 * time.Second)
	defer statsTicker.Stop()

	log.Println("Operator is running. Press Ctrl+C to stop.")

	for {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal: %v", sig)
			cancel()
			if err := op.Stop(); err != nil {
				log.Printf("Error stopping operator: %v", err)
			}
			log.Println("Operator stopped")
			return
		case <-statsTicker.C:
			stats := op.GetStats()
			log.Printf("Stats: LastScan=%v, TotalSubmitted=%d, SubmitterOK=%d, SubmitterFailed=%d",
				stats.LastScan.Format(time.RFC3339), stats.TotalSubmitted,
				stats.SubmitterStatus.TotalSubmissions, stats.SubmitterStatus.FailedSubmissions)
		}
	}
}

// rpcQuerier queries vault state from a chain node
type rpcQuerier struct {
	rpcURL string
}

func newRPCQuerier(rpcURL string) *rpcQuerier {
	return &rpcQuerier{rpcURL: rpcURL}
}

// PendingRequests queries the pending withdrawal queue
func (q *rpcQuerier) PendingRequests(ctx context.Context) ([]*types.WithdrawalRequest, error) {
	// In a real deployment this queries the vault module over gRPC.
	// Until proto generation is wired up there is nothing to decode.
	return nil, nil
}

// IdleBalance queries the vault's idle asset balance
func (q *rpcQuerier) IdleBalance(ctx context.Context) (math.Int, error) {
	return math.ZeroInt(), nil
}

// demoQuerier simulates a queue that drains as completions settle
type demoQuerier struct {
	mu      sync.Mutex
	pending []*types.WithdrawalRequest
	idle    math.Int
	round   int
}

func newDemoQuerier() *demoQuerier {
	return &demoQuerier{
		pending: []*types.WithdrawalRequest{
			types.NewWithdrawalRequest(0, "cosmos1demo1", math.NewInt(100), math.NewInt(250)),
			types.NewWithdrawalRequest(0, "cosmos1demo2", math.NewInt(400), math.NewInt(1000)),
			types.NewWithdrawalRequest(1, "cosmos1demo1", math.NewInt(40), math.NewInt(100)),
		},
		idle: math.NewInt(300),
	}
}

// PendingRequests returns the simulated queue
func (q *demoQuerier) PendingRequests(ctx context.Context) ([]*types.WithdrawalRequest, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Simulate yield arriving: idle grows each round
	q.round++
	if q.round > 1 {
		q.idle = q.idle.Add(math.NewInt(500))
	}

	out := make([]*types.WithdrawalRequest, len(q.pending))
	copy(out, q.pending)
	return out, nil
}

// IdleBalance returns the simulated idle balance
func (q *demoQuerier) IdleBalance(ctx context.Context) (math.Int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idle, nil
}
