package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSchedulerMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulerMetrics(reg)

	m.ObserveOperation("create_booking", "ok", 0.002)
	m.ObserveOperation("create_booking", "slot_unavailable", 0.001)
	m.ObserveOperation("create_booking", "ok", 0.003)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("create_booking", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("create_booking", "slot_unavailable")))
}

func TestSchedulerMetricsOccupancy(t *testing.T) {
	m := NewSchedulerMetrics(prometheus.NewRegistry())

	m.SlotClaimed()
	m.SlotClaimed()
	m.SlotReleased()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.occupiedSlots))
}

func TestSchedulerMetricsNilSafe(t *testing.T) {
	var m *SchedulerMetrics
	m.ObserveOperation("cancel_booking", "ok", 0.1)
	m.SlotClaimed()
	m.SlotReleased()
}
