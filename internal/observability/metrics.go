package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	poolAcquireTotal *prometheus.CounterVec
	poolRecycleTotal *prometheus.CounterVec
	poolFreeSlots    *prometheus.GaugeVec

	workerItemsTotal *prometheus.CounterVec
	workerGateOpen   *prometheus.GaugeVec
	workerQueueSize  *prometheus.GaugeVec

	executorTaskDuration *prometheus.HistogramVec
	executorQueueSize    prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			poolAcquireTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "pool_acquire_total",
					Help: "Total command acquisitions by pool and result (hit, miss).",
				},
				[]string{"pool", "result"},
			),
			poolRecycleTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "pool_recycle_total",
					Help: "Total command recycles by pool and result (kept, dropped).",
				},
				[]string{"pool", "result"},
			),
			poolFreeSlots: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "pool_free_slots",
					Help: "Current number of idle commands held by a pool.",
				},
				[]string{"pool"},
			),
			workerItemsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "worker_items_total",
					Help: "Total work items handled by worker and outcome (run, discarded, panicked).",
				},
				[]string{"worker", "outcome"},
			),
			workerGateOpen: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "worker_gate_open",
					Help: "Worker gate state (1 open, 0 closed).",
				},
				[]string{"worker"},
			),
			workerQueueSize: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "worker_queue_size",
					Help: "Current number of items waiting on a worker.",
				},
				[]string{"worker"},
			),
			executorTaskDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "executor_task_duration_seconds",
					Help:    "Rendering context task duration in seconds by status.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"status"},
			),
			executorQueueSize: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "executor_queue_size",
					Help: "Current number of tasks waiting on the rendering context.",
				},
			),
		}
		prometheus.MustRegister(
			m.poolAcquireTotal,
			m.poolRecycleTotal,
			m.poolFreeSlots,
			m.workerItemsTotal,
			m.workerGateOpen,
			m.workerQueueSize,
			m.executorTaskDuration,
			m.executorQueueSize,
		)
		metricsInst = m
	})
	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// MetricsHandler serves the default registry.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// RecordPoolAcquire counts an acquisition. hit is true when an idle command was reused.
func RecordPoolAcquire(pool string, hit bool, freeSlots int) {
	m := getMetrics()
	result := "miss"
	if hit {
		result = "hit"
	}
	m.poolAcquireTotal.WithLabelValues(pool, result).Inc()
	m.poolFreeSlots.WithLabelValues(pool).Set(float64(freeSlots))
}

// RecordPoolRecycle counts a recycle. dropped is true when the pool was full.
func RecordPoolRecycle(pool string, dropped bool, freeSlots int) {
	m := getMetrics()
	result := "kept"
	if dropped {
		result = "dropped"
	}
	m.poolRecycleTotal.WithLabelValues(pool, result).Inc()
	m.poolFreeSlots.WithLabelValues(pool).Set(float64(freeSlots))
}

// SetPoolFreeSlots updates the idle gauge after a resize or prewarm.
func SetPoolFreeSlots(pool string, freeSlots int) {
	getMetrics().poolFreeSlots.WithLabelValues(pool).Set(float64(freeSlots))
}

// RecordWorkerItem counts a work item outcome.
func RecordWorkerItem(worker, outcome string, queueSize int) {
	m := getMetrics()
	m.workerItemsTotal.WithLabelValues(worker, outcome).Inc()
	m.workerQueueSize.WithLabelValues(worker).Set(float64(queueSize))
}

// SetWorkerQueueSize updates the worker queue gauge.
func SetWorkerQueueSize(worker string, queueSize int) {
	getMetrics().workerQueueSize.WithLabelValues(worker).Set(float64(queueSize))
}

// SetWorkerGate records the gate state.
func SetWorkerGate(worker string, open bool) {
	value := 0.0
	if open {
		value = 1
	}
	getMetrics().workerGateOpen.WithLabelValues(worker).Set(value)
}

// RecordExecutorTask observes a rendering context task.
func RecordExecutorTask(duration time.Duration, success bool, queueSize int) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.executorTaskDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.executorQueueSize.Set(float64(queueSize))
}

// SetExecutorQueueSize updates the executor queue gauge.
func SetExecutorQueueSize(queueSize int) {
	getMetrics().executorQueueSize.Set(float64(queueSize))
}
