package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/config"
	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/observability/metrics"
	"github.com/mamadbah2/flockcare/internal/repository/memory"
	"github.com/mamadbah2/flockcare/internal/service/batches"
	"github.com/mamadbah2/flockcare/internal/service/finance"
	"github.com/mamadbah2/flockcare/internal/service/scheduling"
)

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) NotifyGroup(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

var testSchedules = config.SchedulerConfig{
	TaskCronSchedule:   "5 0 * * *",
	RepairCronSchedule: "*/30 * * * *",
	DigestCronSchedule: "0 7 * * *",
}

func setup(t *testing.T, notifier Notifier) (*Scheduler, *memory.Store, *prometheus.Registry) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	entry := time.Now().UTC().AddDate(0, 0, -7)

	require.NoError(t, store.CreateTemplate(ctx, models.Template{
		ID:   "tpl",
		Name: "Broiler",
		Tasks: []models.TaskTemplate{
			{ID: "vax-7", DayAgeOffset: 7, Category: models.CategoryVaccine, Title: "Gumboro"},
		},
	}))
	require.NoError(t, store.CreateBatch(ctx, models.Batch{
		ID:              "batch-1",
		BatchNumber:     "B-001",
		EntryDate:       entry,
		InitialQuantity: 10,
		CurrentCount:    10,
		Status:          models.BatchActive,
		TemplateID:      "tpl",
	}))

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	planner := scheduling.NewService(store, time.UTC, m, zap.NewNop())
	s := NewScheduler(testSchedules, time.UTC, planner,
		batches.NewService(store, zap.NewNop()),
		finance.NewService(store, nil, m, zap.NewNop()),
		notifier, m, zap.NewNop())
	return s, store, registry
}

func TestMaterializeToday(t *testing.T) {
	s, store, _ := setup(t, nil)
	ctx := context.Background()

	require.NoError(t, s.MaterializeToday(ctx))
	require.NoError(t, s.MaterializeToday(ctx))

	tasks, err := store.ListTasks(ctx, models.TaskFilter{BatchID: "batch-1"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 7, tasks[0].DayAge)
}

func TestSendDigest(t *testing.T) {
	notifier := &recordingNotifier{}
	s, _, _ := setup(t, notifier)

	require.NoError(t, s.SendDigest(context.Background()))
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Lot B-001 - jour 7")
	assert.Contains(t, notifier.messages[0], "Gumboro")
}

func TestRepairFinanceJob(t *testing.T) {
	s, store, registry := setup(t, nil)
	ctx := context.Background()

	require.NoError(t, store.InsertCostRecord(ctx, models.CostRecord{
		ID:       "c-1",
		BatchID:  "batch-1",
		Kind:     models.CostPrevention,
		Category: "vaccine",
		Amount:   9,
		Date:     time.Now().UTC(),
	}))

	s.wrap(jobRepair, s.RepairFinance)()

	_, err := store.FindLedgerEntryByRelated(ctx, "c-1")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(registry, "flockcare_scheduler_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s, _, _ := setup(t, nil)
	s.cfg.TaskCronSchedule = "not a cron"

	require.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s, _, _ := setup(t, &recordingNotifier{})

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 3)
	s.Stop()
}
