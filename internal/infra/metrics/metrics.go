package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_runs_total",
		Help: "Engine runs by job and result.",
	}, []string{"job", "result"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_run_duration_seconds",
		Help:    "Engine run duration by job.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	PlannedOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planner_orders_planned",
		Help: "Weekly orders in the last generated plan.",
	})

	PlannedSpend = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planner_spend_planned",
		Help: "Total cost of the last generated plan.",
	})

	UnmatchedItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planner_unmatched_items",
		Help: "Products dropped from the last plan for lack of cost or supplier.",
	})

	PriceChanges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planner_price_changes_detected",
		Help: "Price hikes found by the last detector run.",
	})
)

// Observe засекает время работы job и считает результат.
func Observe(job string, fn func() error) error {
	start := time.Now()
	err := fn()
	runDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	runs.WithLabelValues(job, result).Inc()
	return err
}
