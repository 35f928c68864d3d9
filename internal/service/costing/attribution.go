package costing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

// RecordError ties a recalculation failure to its death record.
type RecordError struct {
	RecordID string `json:"recordId"`
	Error    string `json:"error"`
}

// RecalcSummary reports a bulk recalculation pass.
type RecalcSummary struct {
	ProcessedCount int           `json:"processedCount"`
	UpdatedCount   int           `json:"updatedCount"`
	Errors         []RecordError `json:"errors"`
}

// MortalityInput is a mortality report.
type MortalityInput struct {
	BatchID string    `json:"-"`
	Count   int       `json:"deathCount" binding:"required"`
	Cause   string    `json:"deathCause"`
	Date    time.Time `json:"deathDate"`
}

// ExitInput is a report of animals leaving the batch alive.
type ExitInput struct {
	BatchID  string    `json:"-"`
	Quantity int       `json:"quantity" binding:"required"`
	Date     time.Time `json:"exitDate"`
}

// ComputeMortalityLoss values the death record as of its death date and overwrites its
// financial loss.
func (s *Service) ComputeMortalityLoss(ctx context.Context, deathRecordID string) (models.DeathRecord, error) {
	rec, err := s.store.GetDeathRecord(ctx, deathRecordID)
	if err != nil {
		return models.DeathRecord{}, err
	}
	if rec.IsDeleted {
		return models.DeathRecord{}, fmt.Errorf("death record %s: %w", deathRecordID, models.ErrNotFound)
	}
	return s.valueDeath(ctx, rec)
}

func (s *Service) valueDeath(ctx context.Context, rec models.DeathRecord) (models.DeathRecord, error) {
	if rec.DeathCount <= 0 {
		return models.DeathRecord{}, fmt.Errorf("death record %s has count %d: %w", rec.ID, rec.DeathCount, models.ErrComputation)
	}
	if rec.DeathDate.IsZero() {
		return models.DeathRecord{}, fmt.Errorf("death record %s has no date: %w", rec.ID, models.ErrComputation)
	}

	breakdown, err := s.ComputeUnitCostComponents(ctx, rec.BatchID, rec.DeathDate)
	if err != nil {
		return models.DeathRecord{}, err
	}

	loss := valuation(breakdown, rec.DeathCount, s.now().UTC())
	if err := s.store.SetFinancialLoss(ctx, rec.ID, loss); err != nil {
		return models.DeathRecord{}, err
	}
	rec.FinancialLoss = &loss
	return rec, nil
}

// RecalculateAllDeathCosts re-values every death record, optionally of one batch, page by
// page. Each record is recomputed independently and overwritten, so the pass can be
// interrupted and rerun from scratch. Failures are collected per record.
func (s *Service) RecalculateAllDeathCosts(ctx context.Context, batchID string) RecalcSummary {
	summary := RecalcSummary{Errors: []RecordError{}}
	var mu sync.Mutex

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			summary.Errors = append(summary.Errors, RecordError{Error: fmt.Sprintf("pass interrupted after %s: %v", cursor, err)})
			break
		}

		page, err := s.store.ListDeathRecords(ctx, models.DeathFilter{BatchID: batchID, AfterID: cursor, Limit: s.chunkSize})
		if err != nil {
			summary.Errors = append(summary.Errors, RecordError{Error: fmt.Sprintf("load death records after %q: %v", cursor, err)})
			break
		}
		if len(page) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for _, rec := range page {
			g.Go(func() error {
				_, err := s.valueDeath(gctx, rec)

				mu.Lock()
				defer mu.Unlock()
				summary.ProcessedCount++
				if err != nil {
					s.metrics.CostRecalculated("failed")
					summary.Errors = append(summary.Errors, RecordError{RecordID: rec.ID, Error: err.Error()})
					return nil
				}
				s.metrics.CostRecalculated("updated")
				summary.UpdatedCount++
				return nil
			})
		}
		_ = g.Wait()

		cursor = page[len(page)-1].ID
		if len(page) < s.chunkSize {
			break
		}
	}

	sort.Slice(summary.Errors, func(i, j int) bool { return summary.Errors[i].RecordID < summary.Errors[j].RecordID })
	s.logger.Info("death costs recalculated",
		zap.String("batch_id", batchID),
		zap.Int("processed", summary.ProcessedCount),
		zap.Int("updated", summary.UpdatedCount),
		zap.Int("errors", len(summary.Errors)))
	return summary
}

// RecordMortality stores a mortality report, shrinks the batch and values the loss.
// A valuation failure leaves the record without a loss for the next bulk pass.
func (s *Service) RecordMortality(ctx context.Context, in MortalityInput) (models.DeathRecord, error) {
	if in.Count <= 0 {
		return models.DeathRecord{}, fmt.Errorf("death count must be positive: %w", models.ErrInvalidArgument)
	}

	batch, err := s.store.GetBatch(ctx, in.BatchID)
	if err != nil {
		return models.DeathRecord{}, err
	}
	if !batch.IsActive() {
		return models.DeathRecord{}, fmt.Errorf("batch %s is %s: %w", batch.ID, batch.Status, models.ErrInvalidState)
	}

	now := s.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	if date.Before(models.StartOfDay(batch.EntryDate, s.loc)) {
		return models.DeathRecord{}, fmt.Errorf("death date precedes batch entry: %w", models.ErrInvalidArgument)
	}

	if _, err := s.store.AdjustCount(ctx, batch.ID, -in.Count); err != nil {
		return models.DeathRecord{}, err
	}

	rec := models.DeathRecord{
		ID:         uuid.NewString(),
		BatchID:    batch.ID,
		DeathCount: in.Count,
		DeathCause: strings.TrimSpace(in.Cause),
		DeathDate:  date.UTC(),
		CreatedAt:  now,
	}
	if err := s.store.InsertDeathRecord(ctx, rec); err != nil {
		s.restoreCount(ctx, batch.ID, in.Count)
		return models.DeathRecord{}, err
	}

	s.logger.Info("mortality recorded",
		zap.String("batch_id", batch.ID),
		zap.String("record_id", rec.ID),
		zap.Int("count", rec.DeathCount))

	valued, err := s.valueDeath(ctx, rec)
	if err != nil {
		s.logger.Warn("mortality loss not computed", zap.String("record_id", rec.ID), zap.Error(err))
		return rec, nil
	}
	return valued, nil
}

// RecordExit values animals leaving the batch at the as-of unit cost and shrinks the batch.
// The batch moves to exited once nobody is left.
func (s *Service) RecordExit(ctx context.Context, in ExitInput) (models.ExitRecord, error) {
	if in.Quantity <= 0 {
		return models.ExitRecord{}, fmt.Errorf("exit quantity must be positive: %w", models.ErrInvalidArgument)
	}

	batch, err := s.store.GetBatch(ctx, in.BatchID)
	if err != nil {
		return models.ExitRecord{}, err
	}
	if !batch.IsActive() {
		return models.ExitRecord{}, fmt.Errorf("batch %s is %s: %w", batch.ID, batch.Status, models.ErrInvalidState)
	}

	now := s.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	if date.Before(models.StartOfDay(batch.EntryDate, s.loc)) {
		return models.ExitRecord{}, fmt.Errorf("exit date precedes batch entry: %w", models.ErrInvalidArgument)
	}

	breakdown, err := s.breakdown(ctx, batch, date)
	if err != nil {
		return models.ExitRecord{}, err
	}
	value := valuation(breakdown, in.Quantity, now)

	updated, err := s.store.AdjustCount(ctx, batch.ID, -in.Quantity)
	if err != nil {
		return models.ExitRecord{}, err
	}

	rec := models.ExitRecord{
		ID:        uuid.NewString(),
		BatchID:   batch.ID,
		Quantity:  in.Quantity,
		ExitDate:  date.UTC(),
		Valuation: &value,
		CreatedAt: now,
	}
	if err := s.store.InsertExitRecord(ctx, rec); err != nil {
		s.restoreCount(ctx, batch.ID, in.Quantity)
		return models.ExitRecord{}, err
	}

	if updated.CurrentCount == 0 {
		if err := s.store.UpdateStatus(ctx, batch.ID, models.BatchExited); err != nil && !errors.Is(err, models.ErrInvalidState) {
			s.logger.Error("failed to mark batch exited", zap.String("batch_id", batch.ID), zap.Error(err))
		}
	}

	s.logger.Info("exit recorded",
		zap.String("batch_id", batch.ID),
		zap.String("record_id", rec.ID),
		zap.Int("quantity", rec.Quantity),
		zap.Float64("total_cost", value.TotalLoss))
	return rec, nil
}

func (s *Service) restoreCount(ctx context.Context, batchID string, n int) {
	if _, err := s.store.AdjustCount(ctx, batchID, n); err != nil {
		s.logger.Error("failed to restore batch count", zap.String("batch_id", batchID), zap.Int("count", n), zap.Error(err))
	}
}
