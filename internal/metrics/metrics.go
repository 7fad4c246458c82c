package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulerMetrics exposes counters/histograms for scheduling operations.
type SchedulerMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	occupiedSlots     prometheus.Gauge
}

func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "operations_total",
			Help:      "Scheduling operations by outcome",
		}, []string{"operation", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "operation_duration_seconds",
			Help:      "Latency of scheduling operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		occupiedSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "occupied_slots",
			Help:      "Provider slots currently occupied",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.operationDuration, m.occupiedSlots)
	return m
}

func (m *SchedulerMetrics) ObserveOperation(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

func (m *SchedulerMetrics) SlotClaimed() {
	if m == nil {
		return
	}
	m.occupiedSlots.Inc()
}

func (m *SchedulerMetrics) SlotReleased() {
	if m == nil {
		return
	}
	m.occupiedSlots.Dec()
}
