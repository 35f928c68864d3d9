package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TaskMaterialized("created", 3)
	m.TaskMaterialized("existing", 0)
	m.FinanceSync("noop")
	m.FinanceSync("noop")
	m.JobFinished("finance_repair", 0.2, errors.New("boom"))

	require.Equal(t, 3.0, testutil.ToFloat64(m.tasksMaterialized.WithLabelValues("created")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.tasksMaterialized.WithLabelValues("existing")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.financeSyncs.WithLabelValues("noop")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("finance_repair", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.TaskMaterialized("created", 1)
		m.TaskCompleted("completed")
		m.CostRecalculated("updated")
		m.FinanceSync("created")
		m.JobFinished("x", 1, nil)
	})
}
