package recording

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/repository"
	"github.com/mamadbah2/flockcare/internal/service/finance"
)

// Store is the storage the recording flows need.
type Store interface {
	repository.BatchStore
	repository.CostStore
}

// FinanceSyncer propagates a stored record to the finance ledger.
type FinanceSyncer interface {
	SyncToFinance(ctx context.Context, rec models.CostRecord) (finance.SyncResult, error)
}

// CostInput is a cost reported by a material, prevention, treatment or purchase flow.
type CostInput struct {
	BatchID     string                `json:"batchId" binding:"required"`
	Kind        models.CostKind       `json:"kind" binding:"required"`
	Category    string                `json:"category"`
	Amount      float64               `json:"amount"`
	Date        time.Time             `json:"date"`
	SyncFinance bool                  `json:"syncFinance"`
	Diagnosis   *models.DiagnosisCost `json:"diagnosis,omitempty"`
}

// Result is the stored record and the outcome of its finance sync. SyncError is set when
// the sync failed; the record is stored regardless and the repair pass will pick it up.
type Result struct {
	Record    models.CostRecord   `json:"record"`
	Finance   *finance.SyncResult `json:"finance,omitempty"`
	SyncError string              `json:"syncError,omitempty"`
}

// Service stores cost source records.
type Service struct {
	store   Store
	finance FinanceSyncer
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(store Store, syncer FinanceSyncer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, finance: syncer, logger: logger, now: time.Now}
}

// RecordCost validates and stores a cost record, then syncs it to finance.
func (s *Service) RecordCost(ctx context.Context, in CostInput) (Result, error) {
	if err := validateCost(in); err != nil {
		return Result{}, err
	}
	if _, err := s.store.GetBatch(ctx, in.BatchID); err != nil {
		return Result{}, err
	}

	now := s.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}

	rec := models.CostRecord{
		ID:          uuid.NewString(),
		BatchID:     in.BatchID,
		Kind:        in.Kind,
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
		Amount:      in.Amount,
		Date:        date.UTC(),
		SyncFinance: in.SyncFinance,
		Diagnosis:   in.Diagnosis,
		CreatedAt:   now,
	}
	if err := s.store.InsertCostRecord(ctx, rec); err != nil {
		return Result{}, err
	}

	s.logger.Info("cost recorded",
		zap.String("record_id", rec.ID),
		zap.String("batch_id", rec.BatchID),
		zap.String("kind", string(rec.Kind)),
		zap.Float64("amount", rec.Amount))

	result := Result{Record: rec}
	if s.finance == nil {
		return result, nil
	}

	sync, err := s.finance.SyncToFinance(ctx, rec)
	if err != nil {
		s.logger.Error("finance sync failed, left for repair pass", zap.String("record_id", rec.ID), zap.Error(err))
		result.SyncError = err.Error()
		return result, nil
	}
	result.Finance = &sync
	return result, nil
}

// AttachDiagnosisCost nests a diagnosis medication cost under a treatment record.
func (s *Service) AttachDiagnosisCost(ctx context.Context, recordID string, diagnosis models.DiagnosisCost) (models.CostRecord, error) {
	if strings.TrimSpace(diagnosis.DiagnosisID) == "" {
		return models.CostRecord{}, fmt.Errorf("diagnosis id is required: %w", models.ErrInvalidArgument)
	}
	if !validAmount(diagnosis.MedicationCost) {
		return models.CostRecord{}, fmt.Errorf("medication cost %v: %w", diagnosis.MedicationCost, models.ErrInvalidArgument)
	}

	if err := s.store.AttachDiagnosisCost(ctx, recordID, diagnosis); err != nil {
		return models.CostRecord{}, err
	}
	s.logger.Info("diagnosis cost attached",
		zap.String("record_id", recordID),
		zap.String("diagnosis_id", diagnosis.DiagnosisID),
		zap.Float64("medication_cost", diagnosis.MedicationCost))
	return s.store.GetCostRecord(ctx, recordID)
}

// DeleteCost soft-deletes a cost record.
func (s *Service) DeleteCost(ctx context.Context, recordID string) error {
	if err := s.store.SoftDeleteCostRecord(ctx, recordID); err != nil {
		return err
	}
	s.logger.Info("cost deleted", zap.String("record_id", recordID))
	return nil
}

func validateCost(in CostInput) error {
	switch {
	case strings.TrimSpace(in.BatchID) == "":
		return fmt.Errorf("batch id is required: %w", models.ErrInvalidArgument)
	case !in.Kind.Valid():
		return fmt.Errorf("unknown cost kind %q: %w", in.Kind, models.ErrInvalidArgument)
	case !validAmount(in.Amount):
		return fmt.Errorf("amount %v: %w", in.Amount, models.ErrInvalidArgument)
	case in.Diagnosis != nil && in.Kind != models.CostTreatment:
		return fmt.Errorf("diagnosis cost on a %s record: %w", in.Kind, models.ErrInvalidArgument)
	case in.Diagnosis != nil && !validAmount(in.Diagnosis.MedicationCost):
		return fmt.Errorf("medication cost %v: %w", in.Diagnosis.MedicationCost, models.ErrInvalidArgument)
	}
	return nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
