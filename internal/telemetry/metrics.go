package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/Cascade/internal/domain"
)

// Metrics — Prometheus-метрики выполнения workflow.
//
// Nil-экземпляр безопасен: все Observe-методы на nil — no-op.
// Это позволяет собирать Runner в тестах без реестра метрик.
type Metrics struct {
	// TaskAttempts — попытки выполнения задач по виду и исходу.
	TaskAttempts *prometheus.CounterVec

	// BranchOutcomes — исходы веток по фазе и статусу.
	BranchOutcomes *prometheus.CounterVec

	// BranchDuration — продолжительность веток по фазе.
	BranchDuration *prometheus.HistogramVec

	// RunsTotal — завершённые runs по итоговому статусу.
	RunsTotal *prometheus.CounterVec

	// RunDuration — продолжительность runs.
	RunDuration prometheus.Histogram
}

// NewMetrics создаёт и регистрирует метрики в реестре.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TaskAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Name:      "task_attempts_total",
			Help:      "Task invocation attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),

		BranchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Name:      "branch_outcomes_total",
			Help:      "Branch outcomes by phase and status.",
		}, []string{"phase", "status"}),

		BranchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cascade",
			Name:      "branch_duration_seconds",
			Help:      "Branch execution duration by phase.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"phase"}),

		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Name:      "runs_total",
			Help:      "Finished runs by terminal status.",
		}, []string{"status"}),

		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cascade",
			Name:      "run_duration_seconds",
			Help:      "Run execution duration.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
		}),
	}

	reg.MustRegister(
		m.TaskAttempts,
		m.BranchOutcomes,
		m.BranchDuration,
		m.RunsTotal,
		m.RunDuration,
	)
	return m
}

// ObserveTask учитывает попытки одной задачи.
func (m *Metrics) ObserveTask(result domain.TaskResult) {
	if m == nil {
		return
	}
	m.TaskAttempts.WithLabelValues(string(result.Kind), string(result.Status)).Add(float64(result.Attempts))
}

// ObserveBranch учитывает исход и продолжительность ветки.
func (m *Metrics) ObserveBranch(branch domain.BranchResult) {
	if m == nil {
		return
	}
	m.BranchOutcomes.WithLabelValues(string(branch.Phase), string(branch.Status)).Inc()
	m.BranchDuration.WithLabelValues(string(branch.Phase)).Observe(branch.Duration().Seconds())
}

// ObserveRun учитывает завершённый run.
func (m *Metrics) ObserveRun(run *domain.Run) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(string(run.Status)).Inc()
	m.RunDuration.Observe(run.Duration().Seconds())
}
