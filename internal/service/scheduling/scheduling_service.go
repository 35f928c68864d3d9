package scheduling

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/observability/metrics"
	"github.com/mamadbah2/flockcare/internal/repository"
)

// Store is the storage the scheduler needs.
type Store interface {
	repository.BatchStore
	repository.TemplateStore
	repository.TaskStore
}

// MaterializeResult describes the task set of a (batch, day-age) pair after materialization.
type MaterializeResult struct {
	BatchID  string                `json:"batchId"`
	DayAge   int                   `json:"dayAge"`
	Created  int                   `json:"created"`
	Existing int                   `json:"existing"`
	Tasks    []models.TaskInstance `json:"tasks"`
}

// BatchError ties a failure to the batch it happened on.
type BatchError struct {
	BatchID string `json:"batchId"`
	Error   string `json:"error"`
}

// DueSummary reports a materialization pass over every active batch.
type DueSummary struct {
	Date    string       `json:"date"`
	Batches int          `json:"batches"`
	Created int          `json:"created"`
	Errors  []BatchError `json:"errors"`
}

// Service materializes care tasks from templates.
type Service struct {
	store   Store
	loc     *time.Location
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a scheduler. loc decides calendar-day boundaries for day-ages.
func NewService(store Store, loc *time.Location, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, metrics: m, logger: logger, now: time.Now}
}

// MaterializeTasks inserts one task instance per template task due at dayAge. Instances that
// already exist are left untouched, so repeated or concurrent calls converge on the same set.
func (s *Service) MaterializeTasks(ctx context.Context, batchID string, dayAge int) (MaterializeResult, error) {
	if dayAge < 0 {
		return MaterializeResult{}, fmt.Errorf("day-age %d: %w", dayAge, models.ErrInvalidArgument)
	}

	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return MaterializeResult{}, err
	}
	if !batch.IsActive() {
		return MaterializeResult{}, fmt.Errorf("batch %s is %s: %w", batchID, batch.Status, models.ErrInvalidState)
	}

	tpl, err := s.store.GetTemplate(ctx, batch.TemplateID)
	if err != nil {
		return MaterializeResult{}, err
	}

	result := MaterializeResult{BatchID: batchID, DayAge: dayAge}
	now := s.now().UTC()
	for _, due := range tpl.TasksFor(dayAge) {
		inserted, err := s.store.InsertTask(ctx, models.NewTaskInstance(batchID, dayAge, due, now))
		if err != nil {
			return MaterializeResult{}, fmt.Errorf("materialize %s for batch %s: %w", due.ID, batchID, err)
		}
		if inserted {
			result.Created++
		} else {
			result.Existing++
		}
	}

	result.Tasks, err = s.store.ListTasks(ctx, models.TaskFilter{BatchID: batchID, DayAge: &dayAge})
	if err != nil {
		return MaterializeResult{}, err
	}

	s.metrics.TaskMaterialized("created", result.Created)
	s.metrics.TaskMaterialized("existing", result.Existing)
	if result.Created > 0 {
		s.logger.Info("tasks materialized",
			zap.String("batch_id", batchID),
			zap.Int("day_age", dayAge),
			zap.Int("created", result.Created),
			zap.Int("existing", result.Existing))
	}
	return result, nil
}

// MaterializeDue materializes the tasks every active batch has due on the given day.
// A failing batch is recorded and the pass continues.
func (s *Service) MaterializeDue(ctx context.Context, on time.Time) (DueSummary, error) {
	batches, err := s.store.ListActiveBatches(ctx)
	if err != nil {
		return DueSummary{}, err
	}

	summary := DueSummary{Date: on.In(s.loc).Format("2006-01-02"), Errors: []BatchError{}}
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		dayAge := batch.DayAge(on, s.loc)
		if dayAge < 0 {
			continue
		}
		summary.Batches++

		res, err := s.MaterializeTasks(ctx, batch.ID, dayAge)
		if err != nil {
			s.logger.Warn("materialization failed", zap.String("batch_id", batch.ID), zap.Int("day_age", dayAge), zap.Error(err))
			summary.Errors = append(summary.Errors, BatchError{BatchID: batch.ID, Error: err.Error()})
			continue
		}
		summary.Created += res.Created
	}
	return summary, nil
}

// ListTasks returns a batch's tasks, optionally for one day-age or pending only.
func (s *Service) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.TaskInstance, error) {
	if _, err := s.store.GetBatch(ctx, filter.BatchID); err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, filter)
}

// CurrentDayAge returns the batch's day-age today.
func (s *Service) CurrentDayAge(batch models.Batch) int {
	return batch.DayAge(s.now(), s.loc)
}
