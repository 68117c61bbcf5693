package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PurchaseMetrics tracks purchase volume and ranking recompute latency.
type PurchaseMetrics struct {
	purchases *prometheus.CounterVec
	positions prometheus.Counter
	overtakes prometheus.Counter
	recompute prometheus.Histogram
}

// NewPurchaseMetrics registers the purchase metrics on the provided registerer.
func NewPurchaseMetrics(reg prometheus.Registerer) *PurchaseMetrics {
	if reg == nil {
		return &PurchaseMetrics{}
	}
	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worldleader",
		Name:      "purchases_total",
		Help:      "Completed position purchases.",
	}, []string{"continent"})
	positions := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "worldleader",
		Name:      "positions_credited_total",
		Help:      "Total positions credited across all purchases.",
	})
	overtakes := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "worldleader",
		Name:      "overtake_events_total",
		Help:      "Overtaken users detected during rank recomputes.",
	})
	recompute := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "worldleader",
		Name:      "rank_recompute_duration_seconds",
		Help:      "Duration of full leaderboard recomputes in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(purchases, positions, overtakes, recompute)
	return &PurchaseMetrics{
		purchases: purchases,
		positions: positions,
		overtakes: overtakes,
		recompute: recompute,
	}
}

// ObservePurchase records one completed purchase and the positions it credited.
func (p *PurchaseMetrics) ObservePurchase(continent string, positions int64) {
	if p == nil || p.purchases == nil {
		return
	}
	p.purchases.WithLabelValues(normalizeLabel(continent)).Inc()
	if positions > 0 {
		p.positions.Add(float64(positions))
	}
}

// AddOvertakes counts pushed-down users from a single recompute.
func (p *PurchaseMetrics) AddOvertakes(count int) {
	if p == nil || p.overtakes == nil || count <= 0 {
		return
	}
	p.overtakes.Add(float64(count))
}

// ObserveRecompute records the duration of a leaderboard recompute.
func (p *PurchaseMetrics) ObserveRecompute(duration time.Duration) {
	if p == nil || p.recompute == nil {
		return
	}
	p.recompute.Observe(duration.Seconds())
}
