package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Vault Metrics Collector
// Provides comprehensive metrics for monitoring

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all vault metrics
type Collector struct {
	// Ledger metrics
	TotalValue    prometheus.Gauge
	TotalShares   prometheus.Gauge
	PricePerShare prometheus.Gauge
	IdleBalance   prometheus.Gauge
	HolderCount   prometheus.Gauge

	// Flow metrics
	DepositsTotal    *prometheus.CounterVec
	DepositVolume    prometheus.Counter
	WithdrawalsTotal *prometheus.CounterVec
	WithdrawalVolume prometheus.Counter

	// Queue metrics
	QueuedRequests    prometheus.Gauge
	QueuedValue       prometheus.Gauge
	SettlementsTotal  *prometheus.CounterVec
	SettlementLatency *prometheus.HistogramVec

	// Strategy metrics
	StrategiesActive prometheus.Gauge
	StrategyValue    *prometheus.GaugeVec
	StrategyTarget   *prometheus.GaugeVec

	// Rebalance metrics
	RebalancesTotal  *prometheus.CounterVec
	RebalanceLatency *prometheus.HistogramVec
	RebalanceMoved   *prometheus.CounterVec
	EmergencyUnwinds prometheus.Counter

	// Operator metrics
	OperatorPollsTotal  *prometheus.CounterVec
	OperatorPollLatency *prometheus.HistogramVec
	OperatorSubmissions *prometheus.CounterVec

	// System metrics
	Paused      prometheus.Gauge
	BlockHeight prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	// Ledger metrics
	c.TotalValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "ledger",
			Name:      "total_value",
			Help:      "Total pool valuation in asset units",
		},
	)

	c.TotalShares = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "ledger",
			Name:      "total_shares",
			Help:      "Outstanding share supply",
		},
	)

	c.PricePerShare = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "ledger",
			Name:      "price_per_share",
			Help:      "Current exchange rate, assets per share",
		},
	)

	c.IdleBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "ledger",
			Name:      "idle_balance",
			Help:      "Undeployed asset balance held by the pool",
		},
	)

	c.HolderCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "ledger",
			Name:      "holder_count",
			Help:      "Number of distinct share holders",
		},
	)

	// Flow metrics
	c.DepositsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "flows",
			Name:      "deposits_total",
			Help:      "Total number of deposits",
		},
		[]string{"status"},
	)

	c.DepositVolume = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "flows",
			Name:      "deposit_volume",
			Help:      "Total asset volume deposited",
		},
	)

	c.WithdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "flows",
			Name:      "withdrawals_total",
			Help:      "Total number of withdrawals",
		},
		[]string{"status"},
	)

	c.WithdrawalVolume = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "flows",
			Name:      "withdrawal_volume",
			Help:      "Total asset volume withdrawn",
		},
	)

	// Queue metrics
	c.QueuedRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "queue",
			Name:      "pending_requests",
			Help:      "Number of pending withdrawal requests",
		},
	)

	c.QueuedValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "queue",
			Name:      "pending_value",
			Help:      "Aggregate asset value of pending requests",
		},
	)

	c.SettlementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "queue",
			Name:      "settlements_total",
			Help:      "Total settlement attempts",
		},
		[]string{"result"},
	)

	c.SettlementLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vault",
			Subsystem: "queue",
			Name:      "settlement_latency_ms",
			Help:      "Settlement submission latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"result"},
	)

	// Strategy metrics
	c.StrategiesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "strategies",
			Name:      "active",
			Help:      "Number of active strategies",
		},
	)

	c.StrategyValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "strategies",
			Name:      "value",
			Help:      "Asset value held by each strategy",
		},
		[]string{"index", "kind"},
	)

	c.StrategyTarget = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "strategies",
			Name:      "target_bps",
			Help:      "Target allocation per strategy in basis points",
		},
		[]string{"index", "kind"},
	)

	// Rebalance metrics
	c.RebalancesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "rebalance",
			Name:      "total",
			Help:      "Total rebalance attempts",
		},
		[]string{"result"},
	)

	c.RebalanceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vault",
			Subsystem: "rebalance",
			Name:      "latency_ms",
			Help:      "Rebalance execution latency in milliseconds",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"result"},
	)

	c.RebalanceMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "rebalance",
			Name:      "moved_value",
			Help:      "Total asset value moved by rebalances",
		},
		[]string{"direction"},
	)

	c.EmergencyUnwinds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "rebalance",
			Name:      "emergency_unwinds",
			Help:      "Total emergency unwind executions",
		},
	)

	// Operator metrics
	c.OperatorPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "operator",
			Name:      "polls_total",
			Help:      "Total operator poll cycles",
		},
		[]string{"result"},
	)

	c.OperatorPollLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vault",
			Subsystem: "operator",
			Name:      "poll_latency_ms",
			Help:      "Operator poll cycle latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{},
	)

	c.OperatorSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "operator",
			Name:      "submissions_total",
			Help:      "Total settlement transactions submitted by the operator",
		},
		[]string{"result"},
	)

	// System metrics
	c.Paused = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "system",
			Name:      "paused",
			Help:      "Pause gate state (1 paused, 0 active)",
		},
	)

	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Subsystem: "system",
			Name:      "block_height",
			Help:      "Current block height",
		},
	)

	// Register all metrics
	c.registerAll()

	return c
}

// registerAll registers all metrics with Prometheus
func (c *Collector) registerAll() {
	// Ledger metrics
	prometheus.MustRegister(c.TotalValue)
	prometheus.MustRegister(c.TotalShares)
	prometheus.MustRegister(c.PricePerShare)
	prometheus.MustRegister(c.IdleBalance)
	prometheus.MustRegister(c.HolderCount)

	// Flow metrics
	prometheus.MustRegister(c.DepositsTotal)
	prometheus.MustRegister(c.DepositVolume)
	prometheus.MustRegister(c.WithdrawalsTotal)
	prometheus.MustRegister(c.WithdrawalVolume)

	// Queue metrics
	prometheus.MustRegister(c.QueuedRequests)
	prometheus.MustRegister(c.QueuedValue)
	prometheus.MustRegister(c.SettlementsTotal)
	prometheus.MustRegister(c.SettlementLatency)

	// Strategy metrics
	prometheus.MustRegister(c.StrategiesActive)
	prometheus.MustRegister(c.StrategyValue)
	prometheus.MustRegister(c.StrategyTarget)

	// Rebalance metrics
	prometheus.MustRegister(c.RebalancesTotal)
	prometheus.MustRegister(c.RebalanceLatency)
	prometheus.MustRegister(c.RebalanceMoved)
	prometheus.MustRegister(c.EmergencyUnwinds)

	// Operator metrics
	prometheus.MustRegister(c.OperatorPollsTotal)
	prometheus.MustRegister(c.OperatorPollLatency)
	prometheus.MustRegister(c.OperatorSubmissions)

	// System metrics
	prometheus.MustRegister(c.Paused)
	prometheus.MustRegister(c.BlockHeight)
}

// ============ Recording Helpers ============

// RecordDeposit records a deposit event
func (c *Collector) RecordDeposit(status string, volume float64) {
	c.DepositsTotal.WithLabelValues(status).Inc()
	if volume > 0 {
		c.DepositVolume.Add(volume)
	}
}

// RecordWithdrawal records a withdrawal event
func (c *Collector) RecordWithdrawal(status string, volume float64) {
	c.WithdrawalsTotal.WithLabelValues(status).Inc()
	if volume > 0 {
		c.WithdrawalVolume.Add(volume)
	}
}

// RecordSettlement records a settlement attempt
func (c *Collector) RecordSettlement(result string, latencyMs float64) {
	c.SettlementsTotal.WithLabelValues(result).Inc()
	c.SettlementLatency.WithLabelValues(result).Observe(latencyMs)
}

// RecordRebalance records a rebalance attempt
func (c *Collector) RecordRebalance(result string, latencyMs float64) {
	c.RebalancesTotal.WithLabelValues(result).Inc()
	c.RebalanceLatency.WithLabelValues(result).Observe(latencyMs)
}

// RecordOperatorPoll records an operator poll cycle
func (c *Collector) RecordOperatorPoll(result string, latencyMs float64) {
	c.OperatorPollsTotal.WithLabelValues(result).Inc()
	c.OperatorPollLatency.WithLabelValues().Observe(latencyMs)
}

// RecordOperatorSubmission records a settlement submission
func (c *Collector) RecordOperatorSubmission(result string) {
	c.OperatorSubmissions.WithLabelValues(result).Inc()
}

// UpdateLedgerMetrics updates the valuation gauges
func (c *Collector) UpdateLedgerMetrics(totalValue, totalShares, pricePerShare, idleBalance float64) {
	c.TotalValue.Set(totalValue)
	c.TotalShares.Set(totalShares)
	c.PricePerShare.Set(pricePerShare)
	c.IdleBalance.Set(idleBalance)
}

// UpdateQueueMetrics updates the queue gauges
func (c *Collector) UpdateQueueMetrics(pendingRequests int, pendingValue float64) {
	c.QueuedRequests.Set(float64(pendingRequests))
	c.QueuedValue.Set(pendingValue)
}

// UpdateStrategyMetrics updates per-strategy gauges
func (c *Collector) UpdateStrategyMetrics(index, kind string, value, targetBps float64) {
	c.StrategyValue.WithLabelValues(index, kind).Set(value)
	c.StrategyTarget.WithLabelValues(index, kind).Set(targetBps)
}

// SetPaused updates the pause gauge
func (c *Collector) SetPaused(paused bool) {
	if paused {
		c.Paused.Set(1)
	} else {
		c.Paused.Set(0)
	}
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
