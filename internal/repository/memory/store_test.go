package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

func seedBatch(t *testing.T, s *Store) models.Batch {
	t.Helper()
	batch := models.Batch{
		ID:              "batch-1",
		BatchNumber:     "B-001",
		EntryDate:       time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
		InitialQuantity: 10,
		CurrentCount:    10,
		Status:          models.BatchActive,
	}
	require.NoError(t, s.CreateBatch(context.Background(), batch))
	return batch
}

func TestCreateBatchRejectsDuplicateNumber(t *testing.T) {
	s := NewStore()
	seedBatch(t, s)

	err := s.CreateBatch(context.Background(), models.Batch{ID: "batch-2", BatchNumber: "B-001"})
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestAdjustCountNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedBatch(t, s)

	updated, err := s.AdjustCount(ctx, "batch-1", -4)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.CurrentCount)

	_, err = s.AdjustCount(ctx, "batch-1", -7)
	require.ErrorIs(t, err, models.ErrInvalidState)

	batch, err := s.GetBatch(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 6, batch.CurrentCount)

	_, err = s.AdjustCount(ctx, "missing", -1)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateStatusIsOneWay(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedBatch(t, s)

	require.NoError(t, s.UpdateStatus(ctx, "batch-1", models.BatchArchived))
	require.ErrorIs(t, s.UpdateStatus(ctx, "batch-1", models.BatchActive), models.ErrInvalidState)

	active, err := s.ListActiveBatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestInsertTaskIsUniquePerKey(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	tpl := models.TaskTemplate{ID: "vax", DayAgeOffset: 7, Category: models.CategoryVaccine, Title: "Vaccin"}
	now := time.Now().UTC()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.InsertTask(ctx, models.NewTaskInstance("batch-1", 7, tpl, now))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
	tasks, err := s.ListTasks(ctx, models.TaskFilter{BatchID: "batch-1"})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestMarkTaskCompletedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	task := models.NewTaskInstance("batch-1", 0, models.TaskTemplate{ID: "check"}, time.Now())
	_, err := s.InsertTask(ctx, task)
	require.NoError(t, err)

	first := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	ok, err := s.MarkTaskCompleted(ctx, task.ID, "amadou", first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkTaskCompleted(ctx, task.ID, "fatou", first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "amadou", got.CompletedBy)
	assert.Equal(t, first, *got.CompletedAt)

	pending, err := s.ListTasks(ctx, models.TaskFilter{BatchID: "batch-1", PendingOnly: true})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCostRecordFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	day := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	for _, rec := range []models.CostRecord{
		{ID: "c1", BatchID: "batch-1", Kind: models.CostMaterial, Amount: 5, Date: day},
		{ID: "c2", BatchID: "batch-1", Kind: models.CostPrevention, Amount: 5, Date: day.AddDate(0, 0, 1)},
		{ID: "c3", BatchID: "batch-2", Kind: models.CostMaterial, Amount: 5, Date: day},
		{ID: "c4", BatchID: "batch-1", Kind: models.CostMaterial, Amount: 5, Date: day, IsDeleted: true},
	} {
		require.NoError(t, s.InsertCostRecord(ctx, rec))
	}

	recs, err := s.ListCostRecords(ctx, models.CostFilter{BatchID: "batch-1", Until: &day})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "c1", recs[0].ID)

	recs, err = s.ListCostRecords(ctx, models.CostFilter{IncludeDeleted: true, AfterID: "c1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "c2", recs[0].ID)
	assert.Equal(t, "c3", recs[1].ID)

	err = s.AttachDiagnosisCost(ctx, "c1", models.DiagnosisCost{DiagnosisID: "d", MedicationCost: 1})
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestInsertLedgerEntryUniquePerRecord(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	ok, err := s.InsertLedgerEntry(ctx, models.FinanceLedgerEntry{ID: "e1", RelatedRecordID: "c1", Amount: 3})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.InsertLedgerEntry(ctx, models.FinanceLedgerEntry{ID: "e2", RelatedRecordID: "c1", Amount: 3})
	require.NoError(t, err)
	assert.False(t, ok)

	entry, err := s.FindLedgerEntryByRelated(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "e1", entry.ID)

	require.NoError(t, s.BackfillLedgerEntry(ctx, "e1", models.CostTypeFeed, 3))
	require.ErrorIs(t, s.BackfillLedgerEntry(ctx, "e1", models.CostTypeFeed, 3), models.ErrInvalidState)

	_, err = s.InsertLedgerEntry(ctx, models.FinanceLedgerEntry{ID: "e0", RelatedRecordID: "c0", CostType: models.CostTypeHealth})
	require.NoError(t, err)
	require.ErrorIs(t, s.BackfillLedgerEntry(ctx, "e0", models.CostTypeHealth, 0), models.ErrInvalidState)

	_, err = s.FindLedgerEntryByRelated(ctx, "c9")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeathRecordsBeforeIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertDeathRecord(ctx, models.DeathRecord{ID: "d1", BatchID: "batch-1", DeathCount: 1, DeathDate: day.Add(-time.Hour)}))
	require.NoError(t, s.InsertDeathRecord(ctx, models.DeathRecord{ID: "d2", BatchID: "batch-1", DeathCount: 1, DeathDate: day}))

	recs, err := s.ListDeathRecords(ctx, models.DeathFilter{BatchID: "batch-1", Before: &day})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "d1", recs[0].ID)
}
