package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"royaltyhub/native/royalty"
)

// MarketplaceMetrics tracks royalty engine activity. It satisfies
// royalty.Metrics.
type MarketplaceMetrics struct {
	operations *prometheus.CounterVec
	sales      *prometheus.CounterVec
	volume     *prometheus.CounterVec
	fees       *prometheus.CounterVec
	payouts    *prometheus.CounterVec
}

type storeMetrics struct {
	latency   *prometheus.HistogramVec
	conflicts prometheus.Counter
}

var (
	marketplaceOnce     sync.Once
	marketplaceRegistry *MarketplaceMetrics

	storeOnce     sync.Once
	storeRegistry *storeMetrics
)

var _ royalty.Metrics = (*MarketplaceMetrics)(nil)

// Marketplace returns the lazily-initialised marketplace metrics registry.
func Marketplace() *MarketplaceMetrics {
	marketplaceOnce.Do(func() {
		marketplaceRegistry = &MarketplaceMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "royalty",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Marketplace operations segmented by operation and outcome code.",
			}, []string{"operation", "outcome"}),
			sales: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "royalty",
				Subsystem: "market",
				Name:      "sales_total",
				Help:      "Completed sales segmented by primary or secondary market.",
			}, []string{"kind"}),
			volume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "royalty",
				Subsystem: "market",
				Name:      "volume_usdc",
				Help:      "Gross sale volume in whole USDC.",
			}, []string{"kind"}),
			fees: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "royalty",
				Subsystem: "market",
				Name:      "platform_fees_usdc",
				Help:      "Platform fees routed to the treasury in whole USDC.",
			}, []string{"kind"}),
			payouts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "royalty",
				Subsystem: "payout",
				Name:      "amount_usdc",
				Help:      "Payout pool deposits and claims in whole USDC.",
			}, []string{"kind"}),
		}
		prometheus.MustRegister(
			marketplaceRegistry.operations,
			marketplaceRegistry.sales,
			marketplaceRegistry.volume,
			marketplaceRegistry.fees,
			marketplaceRegistry.payouts,
		)
	})
	return marketplaceRegistry
}

// RecordOperation counts one engine operation. Outcome is "ok" or an error code.
func (m *MarketplaceMetrics) RecordOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(label(op), label(outcome)).Inc()
}

// RecordSale records a committed primary or secondary sale.
func (m *MarketplaceMetrics) RecordSale(kind royalty.SaleKind, price, platformFee uint64) {
	if m == nil {
		return
	}
	k := label(string(kind))
	m.sales.WithLabelValues(k).Inc()
	m.volume.WithLabelValues(k).Add(usdc(price))
	m.fees.WithLabelValues(k).Add(usdc(platformFee))
}

// RecordPayout records a pool deposit or claim.
func (m *MarketplaceMetrics) RecordPayout(kind string, amount uint64) {
	if m == nil {
		return
	}
	m.payouts.WithLabelValues(label(kind)).Add(usdc(amount))
}

// Store returns the metrics registry for persistence units.
func Store() *storeMetrics {
	storeOnce.Do(func() {
		storeRegistry = &storeMetrics{
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "royalty",
				Subsystem: "store",
				Name:      "unit_duration_seconds",
				Help:      "Latency of store units segmented by driver and mode.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"driver", "mode"}),
			conflicts: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "royalty",
				Subsystem: "store",
				Name:      "conflicts_total",
				Help:      "Units aborted by a concurrent writer.",
			}),
		}
		prometheus.MustRegister(storeRegistry.latency, storeRegistry.conflicts)
	})
	return storeRegistry
}

// ObserveUnit records how long a store unit took.
func (m *storeMetrics) ObserveUnit(driver, mode string, d time.Duration, conflict bool) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(label(driver), label(mode)).Observe(d.Seconds())
	if conflict {
		m.conflicts.Inc()
	}
}

func label(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

func usdc(amount uint64) float64 {
	return float64(amount) / 1e6
}
