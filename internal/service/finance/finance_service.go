package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/observability/metrics"
	"github.com/mamadbah2/flockcare/internal/repository"
)

const repairPageSize = 200

// Store is the storage the bridge needs.
type Store interface {
	repository.CostStore
	repository.FinanceStore
}

// Mirror receives a copy of every newly created ledger entry.
type Mirror interface {
	AppendLedgerEntry(ctx context.Context, entry models.FinanceLedgerEntry) error
}

// SyncResult describes what a sync call did. Entry is the ledger entry bound to the
// source record, whether created now or earlier.
type SyncResult struct {
	Created bool                       `json:"created"`
	Skipped bool                       `json:"skipped"`
	Entry   *models.FinanceLedgerEntry `json:"entry,omitempty"`
}

// RepairError ties a repair failure to its source record.
type RepairError struct {
	RecordID string `json:"recordId"`
	Error    string `json:"error"`
}

// RepairSummary reports a repair pass.
type RepairSummary struct {
	Scanned  int           `json:"scanned"`
	Created  int           `json:"created"`
	Repaired int           `json:"repaired"`
	Errors   []RepairError `json:"errors"`
}

// Service propagates cost records into the finance ledger, once per record.
type Service struct {
	store   Store
	mirror  Mirror
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires the bridge. mirror may be nil.
func NewService(store Store, mirror Mirror, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, mirror: mirror, metrics: m, logger: logger, now: time.Now}
}

// SyncToFinance writes the ledger entry of rec unless one already exists. Records that are
// not flagged for synchronization are skipped.
func (s *Service) SyncToFinance(ctx context.Context, rec models.CostRecord) (SyncResult, error) {
	if !rec.SyncsToFinance() {
		s.metrics.FinanceSync("skipped")
		return SyncResult{Skipped: true}, nil
	}

	if existing, found, err := s.lookup(ctx, rec.ID); err != nil {
		return SyncResult{}, err
	} else if found {
		s.metrics.FinanceSync("noop")
		return SyncResult{Entry: &existing}, nil
	}

	entry := models.FinanceLedgerEntry{
		ID:              uuid.NewString(),
		BatchID:         rec.BatchID,
		Category:        rec.Category,
		CostType:        models.FinanceCostType(rec),
		Amount:          ledgerAmount(rec),
		RelatedRecordID: rec.ID,
		Source:          rec.Kind,
		Date:            rec.Date,
		CreatedAt:       s.now().UTC(),
	}

	inserted, err := s.store.InsertLedgerEntry(ctx, entry)
	if err != nil {
		s.metrics.FinanceSync("failed")
		return SyncResult{}, fmt.Errorf("record %s: %w: %v", rec.ID, models.ErrSyncFailure, err)
	}
	if !inserted {
		// Lost a race against a concurrent sync of the same record.
		existing, _, err := s.lookup(ctx, rec.ID)
		if err != nil {
			return SyncResult{}, err
		}
		s.metrics.FinanceSync("noop")
		return SyncResult{Entry: &existing}, nil
	}

	s.metrics.FinanceSync("created")
	s.logger.Info("finance entry created",
		zap.String("record_id", rec.ID),
		zap.String("entry_id", entry.ID),
		zap.String("cost_type", entry.CostType),
		zap.Float64("amount", entry.Amount))

	if s.mirror != nil {
		if err := s.mirror.AppendLedgerEntry(ctx, entry); err != nil {
			s.logger.Warn("finance mirror append failed", zap.String("entry_id", entry.ID), zap.Error(err))
		}
	}
	return SyncResult{Created: true, Entry: &entry}, nil
}

// SyncByID loads the cost record and syncs it.
func (s *Service) SyncByID(ctx context.Context, costRecordID string) (SyncResult, error) {
	rec, err := s.store.GetCostRecord(ctx, costRecordID)
	if err != nil {
		return SyncResult{}, err
	}
	return s.SyncToFinance(ctx, rec)
}

// RepairFinance scans every live cost record, creates missing ledger entries and
// back-fills entries that lack a cost type or amount.
func (s *Service) RepairFinance(ctx context.Context) (RepairSummary, error) {
	summary := RepairSummary{Errors: []RepairError{}}

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		page, err := s.store.ListCostRecords(ctx, models.CostFilter{AfterID: cursor, Limit: repairPageSize})
		if err != nil {
			return summary, err
		}

		for _, rec := range page {
			if !rec.SyncsToFinance() {
				continue
			}
			summary.Scanned++
			if err := s.repairOne(ctx, rec, &summary); err != nil {
				summary.Errors = append(summary.Errors, RepairError{RecordID: rec.ID, Error: err.Error()})
			}
		}

		if len(page) < repairPageSize {
			break
		}
		cursor = page[len(page)-1].ID
	}

	s.logger.Info("finance repair finished",
		zap.Int("scanned", summary.Scanned),
		zap.Int("created", summary.Created),
		zap.Int("repaired", summary.Repaired),
		zap.Int("errors", len(summary.Errors)))
	return summary, nil
}

func (s *Service) repairOne(ctx context.Context, rec models.CostRecord, summary *RepairSummary) error {
	existing, found, err := s.lookup(ctx, rec.ID)
	if err != nil {
		return err
	}

	if !found {
		res, err := s.SyncToFinance(ctx, rec)
		if err != nil {
			return err
		}
		if res.Created {
			summary.Created++
		}
		return nil
	}

	filled, changed := existing.Backfilled(models.FinanceCostType(rec), ledgerAmount(rec))
	if !changed {
		return nil
	}
	if err := s.store.BackfillLedgerEntry(ctx, existing.ID, filled.CostType, filled.Amount); err != nil {
		if errors.Is(err, models.ErrInvalidState) {
			return nil
		}
		return err
	}
	s.metrics.FinanceSync("backfilled")
	summary.Repaired++
	return nil
}

func (s *Service) lookup(ctx context.Context, recordID string) (models.FinanceLedgerEntry, bool, error) {
	entry, err := s.store.FindLedgerEntryByRelated(ctx, recordID)
	switch {
	case err == nil:
		return entry, true, nil
	case errors.Is(err, models.ErrNotFound):
		return models.FinanceLedgerEntry{}, false, nil
	default:
		s.metrics.FinanceSync("failed")
		return models.FinanceLedgerEntry{}, false, fmt.Errorf("record %s: %w: %v", recordID, models.ErrSyncFailure, err)
	}
}

func ledgerAmount(rec models.CostRecord) float64 {
	return decimal.NewFromFloat(rec.TotalAmount()).Round(2).InexactFloat64()
}
