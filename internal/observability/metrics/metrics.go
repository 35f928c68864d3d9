package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters the services report. A nil *Metrics is valid and records nothing.
type Metrics struct {
	tasksMaterialized *prometheus.CounterVec
	tasksCompleted    *prometheus.CounterVec
	costRecalcs       *prometheus.CounterVec
	financeSyncs      *prometheus.CounterVec
	jobRuns           *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
}

// New registers the collectors on registerer, or on the default registerer when nil.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		tasksMaterialized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flockcare_tasks_materialized_total",
			Help: "Task instances processed by materialization, by outcome (created, existing).",
		}, []string{"outcome"}),
		tasksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flockcare_tasks_completed_total",
			Help: "Task completion calls, by outcome (completed, noop).",
		}, []string{"outcome"}),
		costRecalcs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flockcare_death_cost_recalculations_total",
			Help: "Death record valuations, by outcome (updated, failed).",
		}, []string{"outcome"}),
		financeSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flockcare_finance_syncs_total",
			Help: "Finance sync attempts, by outcome (created, noop, skipped, failed, backfilled).",
		}, []string{"outcome"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flockcare_scheduler_job_runs_total",
			Help: "Scheduled job runs, by job and status.",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flockcare_scheduler_job_duration_seconds",
			Help:    "Scheduled job latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"job"}),
	}

	registerer.MustRegister(
		m.tasksMaterialized,
		m.tasksCompleted,
		m.costRecalcs,
		m.financeSyncs,
		m.jobRuns,
		m.jobDuration,
	)
	return m
}

func (m *Metrics) TaskMaterialized(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.tasksMaterialized.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) TaskCompleted(outcome string) {
	if m == nil {
		return
	}
	m.tasksCompleted.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CostRecalculated(outcome string) {
	if m == nil {
		return
	}
	m.costRecalcs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FinanceSync(outcome string) {
	if m == nil {
		return
	}
	m.financeSyncs.WithLabelValues(outcome).Inc()
}

// JobFinished records one scheduled job run.
func (m *Metrics) JobFinished(job string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(seconds)
}
