package batches

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/repository"
)

// Store is the storage the registry needs.
type Store interface {
	repository.BatchStore
	repository.TemplateStore
}

// RegisterBatchInput carries the fields of a new batch.
type RegisterBatchInput struct {
	BatchNumber     string    `json:"batchNumber" binding:"required"`
	EntryDate       time.Time `json:"entryDate" binding:"required"`
	InitialQuantity int       `json:"initialQuantity" binding:"required"`
	EntryTotalCost  float64   `json:"entryTotalCost"`
	TemplateID      string    `json:"templateId" binding:"required"`
}

// Service is the batch registry and template store.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a registry service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// RegisterBatch creates an active batch whose current count starts at its initial quantity.
func (s *Service) RegisterBatch(ctx context.Context, in RegisterBatchInput) (models.Batch, error) {
	number := strings.TrimSpace(in.BatchNumber)
	switch {
	case number == "":
		return models.Batch{}, fmt.Errorf("batch number is required: %w", models.ErrInvalidArgument)
	case in.InitialQuantity <= 0:
		return models.Batch{}, fmt.Errorf("initial quantity must be positive: %w", models.ErrInvalidArgument)
	case in.EntryTotalCost < 0:
		return models.Batch{}, fmt.Errorf("entry cost must not be negative: %w", models.ErrInvalidArgument)
	case in.EntryDate.IsZero():
		return models.Batch{}, fmt.Errorf("entry date is required: %w", models.ErrInvalidArgument)
	}

	if _, err := s.store.GetTemplate(ctx, in.TemplateID); err != nil {
		return models.Batch{}, err
	}

	now := s.now().UTC()
	batch := models.Batch{
		ID:              uuid.NewString(),
		BatchNumber:     number,
		EntryDate:       in.EntryDate.UTC(),
		InitialQuantity: in.InitialQuantity,
		CurrentCount:    in.InitialQuantity,
		EntryTotalCost:  in.EntryTotalCost,
		Status:          models.BatchActive,
		TemplateID:      in.TemplateID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateBatch(ctx, batch); err != nil {
		return models.Batch{}, err
	}

	s.logger.Info("batch registered",
		zap.String("batch_id", batch.ID),
		zap.String("batch_number", batch.BatchNumber),
		zap.Int("quantity", batch.InitialQuantity))
	return batch, nil
}

func (s *Service) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	return s.store.GetBatch(ctx, id)
}

func (s *Service) GetBatchByNumber(ctx context.Context, number string) (models.Batch, error) {
	return s.store.GetBatchByNumber(ctx, strings.TrimSpace(number))
}

func (s *Service) ListActiveBatches(ctx context.Context) ([]models.Batch, error) {
	return s.store.ListActiveBatches(ctx)
}

// ArchiveBatch retires a batch. Archived batches never return to active.
func (s *Service) ArchiveBatch(ctx context.Context, id string) (models.Batch, error) {
	if err := s.store.UpdateStatus(ctx, id, models.BatchArchived); err != nil {
		return models.Batch{}, err
	}
	s.logger.Info("batch archived", zap.String("batch_id", id))
	return s.store.GetBatch(ctx, id)
}

// CreateTemplate stores a care template. Task ids must be present and unique in the template.
func (s *Service) CreateTemplate(ctx context.Context, tpl models.Template) (models.Template, error) {
	if strings.TrimSpace(tpl.Name) == "" {
		return models.Template{}, fmt.Errorf("template name is required: %w", models.ErrInvalidArgument)
	}

	seen := make(map[string]struct{}, len(tpl.Tasks))
	for i, task := range tpl.Tasks {
		switch {
		case task.ID == "":
			return models.Template{}, fmt.Errorf("task %d has no id: %w", i, models.ErrInvalidArgument)
		case task.DayAgeOffset < 0:
			return models.Template{}, fmt.Errorf("task %s has negative day-age: %w", task.ID, models.ErrInvalidArgument)
		case !task.Category.Valid():
			return models.Template{}, fmt.Errorf("task %s has unknown category %q: %w", task.ID, task.Category, models.ErrInvalidArgument)
		}
		if _, dup := seen[task.ID]; dup {
			return models.Template{}, fmt.Errorf("task id %s repeated: %w", task.ID, models.ErrInvalidArgument)
		}
		seen[task.ID] = struct{}{}
	}

	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	tpl.CreatedAt = s.now().UTC()
	if err := s.store.CreateTemplate(ctx, tpl); err != nil {
		return models.Template{}, err
	}

	s.logger.Info("template created", zap.String("template_id", tpl.ID), zap.Int("tasks", len(tpl.Tasks)))
	return tpl, nil
}

func (s *Service) GetTemplate(ctx context.Context, id string) (models.Template, error) {
	return s.store.GetTemplate(ctx, id)
}
