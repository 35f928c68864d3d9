package batches

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/repository/memory"
)

func newTemplate(t *testing.T, svc *Service) models.Template {
	t.Helper()
	tpl, err := svc.CreateTemplate(context.Background(), models.Template{
		Name: "Pondeuses",
		Tasks: []models.TaskTemplate{
			{ID: "vax-1", DayAgeOffset: 1, Category: models.CategoryVaccine, Title: "Marek"},
			{ID: "clean-3", DayAgeOffset: 3, Category: models.CategoryDisinfection, Title: "Nettoyage"},
		},
	})
	require.NoError(t, err)
	return tpl
}

func TestRegisterBatch(t *testing.T) {
	svc := NewService(memory.NewStore(), zap.NewNop())
	tpl := newTemplate(t, svc)
	ctx := context.Background()

	batch, err := svc.RegisterBatch(ctx, RegisterBatchInput{
		BatchNumber:     " B-010 ",
		EntryDate:       time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC),
		InitialQuantity: 500,
		EntryTotalCost:  1250,
		TemplateID:      tpl.ID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, "B-010", batch.BatchNumber)
	assert.Equal(t, 500, batch.CurrentCount)
	assert.Equal(t, models.BatchActive, batch.Status)

	byNumber, err := svc.GetBatchByNumber(ctx, "B-010")
	require.NoError(t, err)
	assert.Equal(t, batch.ID, byNumber.ID)

	_, err = svc.RegisterBatch(ctx, RegisterBatchInput{
		BatchNumber:     "B-010",
		EntryDate:       time.Now(),
		InitialQuantity: 10,
		TemplateID:      tpl.ID,
	})
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestRegisterBatchValidation(t *testing.T) {
	svc := NewService(memory.NewStore(), zap.NewNop())
	tpl := newTemplate(t, svc)
	ctx := context.Background()
	now := time.Now()

	_, err := svc.RegisterBatch(ctx, RegisterBatchInput{BatchNumber: "B-1", EntryDate: now, InitialQuantity: 0, TemplateID: tpl.ID})
	require.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = svc.RegisterBatch(ctx, RegisterBatchInput{BatchNumber: "B-1", EntryDate: now, InitialQuantity: 5, EntryTotalCost: -1, TemplateID: tpl.ID})
	require.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = svc.RegisterBatch(ctx, RegisterBatchInput{BatchNumber: "B-1", EntryDate: now, InitialQuantity: 5, TemplateID: "missing"})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestArchiveBatch(t *testing.T) {
	svc := NewService(memory.NewStore(), zap.NewNop())
	tpl := newTemplate(t, svc)
	ctx := context.Background()

	batch, err := svc.RegisterBatch(ctx, RegisterBatchInput{BatchNumber: "B-2", EntryDate: time.Now(), InitialQuantity: 5, TemplateID: tpl.ID})
	require.NoError(t, err)

	archived, err := svc.ArchiveBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchArchived, archived.Status)

	_, err = svc.ArchiveBatch(ctx, batch.ID)
	require.ErrorIs(t, err, models.ErrInvalidState)

	active, err := svc.ListActiveBatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCreateTemplateValidation(t *testing.T) {
	svc := NewService(memory.NewStore(), zap.NewNop())
	ctx := context.Background()

	cases := map[string]models.Template{
		"missing name":     {Tasks: []models.TaskTemplate{{ID: "a", Category: models.CategoryVaccine}}},
		"missing task id":  {Name: "x", Tasks: []models.TaskTemplate{{Category: models.CategoryVaccine}}},
		"negative offset":  {Name: "x", Tasks: []models.TaskTemplate{{ID: "a", DayAgeOffset: -1, Category: models.CategoryVaccine}}},
		"unknown category": {Name: "x", Tasks: []models.TaskTemplate{{ID: "a", Category: "feeding"}}},
		"duplicate ids": {Name: "x", Tasks: []models.TaskTemplate{
			{ID: "a", Category: models.CategoryVaccine},
			{ID: "a", DayAgeOffset: 2, Category: models.CategoryVaccine},
		}},
	}
	for name, tpl := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateTemplate(ctx, tpl)
			require.ErrorIs(t, err, models.ErrInvalidArgument)
		})
	}
}

func TestGetTemplate(t *testing.T) {
	svc := NewService(memory.NewStore(), zap.NewNop())
	tpl := newTemplate(t, svc)

	got, err := svc.GetTemplate(context.Background(), tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.Tasks, got.Tasks)

	_, err = svc.GetTemplate(context.Background(), "missing")
	require.ErrorIs(t, err, models.ErrNotFound)
}
