package jsworker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// poolMetrics are the pool's Prometheus collectors. A nil *poolMetrics is
// valid and simply a no-op, so zero-value Pool construction never panics.
type poolMetrics struct {
	workers  prometheus.Gauge
	busy     prometheus.Gauge
	tasks    *prometheus.CounterVec
	duration prometheus.Histogram
}

func newPoolMetrics(reg prometheus.Registerer) *poolMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &poolMetrics{
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jsworker_pool_workers",
			Help: "Current number of spawned interpreter workers.",
		}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jsworker_pool_busy_workers",
			Help: "Current number of workers executing a task.",
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jsworker_pool_tasks_total",
			Help: "Completed tasks, partitioned by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jsworker_pool_task_duration_seconds",
			Help:    "Task wall time, excluding the one-time READY handshake.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.workers, m.busy, m.tasks, m.duration)
	return m
}

func (m *poolMetrics) setWorkers(n int) {
	if m != nil {
		m.workers.Set(float64(n))
	}
}

func (m *poolMetrics) setBusy(n int32) {
	if m != nil {
		m.busy.Set(float64(n))
	}
}

func (m *poolMetrics) observeTask(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	m.tasks.WithLabelValues(outcome).Inc()
}
