package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/observability/metrics"
	"github.com/mamadbah2/flockcare/internal/repository"
)

// Store is the storage the tracker needs.
type Store interface {
	repository.BatchStore
	repository.TaskStore
}

// Result is the task after a completion call. AlreadyCompleted is set when the call
// changed nothing.
type Result struct {
	Task             models.TaskInstance `json:"task"`
	AlreadyCompleted bool                `json:"alreadyCompleted"`
}

// Service moves task instances from pending to completed.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(store Store, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, metrics: m, logger: logger, now: time.Now}
}

// CompleteTask marks the task completed by operatorID. Completing a completed task is a
// successful no-op that keeps the first completion's operator and timestamp.
func (s *Service) CompleteTask(ctx context.Context, taskID, operatorID string) (Result, error) {
	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return Result{}, fmt.Errorf("operator is required: %w", models.ErrInvalidArgument)
	}

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return Result{}, err
	}
	if task.Completed {
		s.metrics.TaskCompleted("noop")
		return Result{Task: task, AlreadyCompleted: true}, nil
	}

	batch, err := s.store.GetBatch(ctx, task.BatchID)
	if err != nil {
		return Result{}, err
	}
	if !batch.IsActive() {
		return Result{}, fmt.Errorf("batch %s is %s: %w", batch.ID, batch.Status, models.ErrInvalidState)
	}

	updated, err := s.store.MarkTaskCompleted(ctx, taskID, operatorID, s.now().UTC())
	if err != nil {
		return Result{}, err
	}

	task, err = s.store.GetTask(ctx, taskID)
	if err != nil {
		return Result{}, err
	}

	if !updated {
		s.metrics.TaskCompleted("noop")
		return Result{Task: task, AlreadyCompleted: true}, nil
	}

	s.metrics.TaskCompleted("completed")
	s.logger.Info("task completed",
		zap.String("task_id", taskID),
		zap.String("batch_id", task.BatchID),
		zap.String("operator", operatorID))
	return Result{Task: task}, nil
}
