package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

func (s *Store) InsertCostRecord(_ context.Context, rec models.CostRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.costs[rec.ID]; ok {
		return fmt.Errorf("cost record %s already exists: %w", rec.ID, models.ErrInvalidArgument)
	}
	s.costs[rec.ID] = cloneCost(rec)
	return nil
}

func (s *Store) GetCostRecord(_ context.Context, id string) (models.CostRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.costs[id]
	if !ok {
		return models.CostRecord{}, notFound("cost record", id)
	}
	return cloneCost(rec), nil
}

func (s *Store) ListCostRecords(_ context.Context, filter models.CostFilter) ([]models.CostRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kinds := map[models.CostKind]bool{}
	for _, k := range filter.Kinds {
		kinds[k] = true
	}

	out := []models.CostRecord{}
	for _, rec := range s.costs {
		switch {
		case filter.BatchID != "" && rec.BatchID != filter.BatchID:
			continue
		case len(kinds) > 0 && !kinds[rec.Kind]:
			continue
		case filter.Until != nil && rec.Date.After(*filter.Until):
			continue
		case !filter.IncludeDeleted && rec.IsDeleted:
			continue
		case filter.AfterID != "" && rec.ID <= filter.AfterID:
			continue
		}
		out = append(out, cloneCost(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return limit(out, filter.Limit), nil
}

func (s *Store) AttachDiagnosisCost(_ context.Context, id string, diagnosis models.DiagnosisCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.costs[id]
	if !ok {
		return notFound("cost record", id)
	}
	if rec.Kind != models.CostTreatment {
		return fmt.Errorf("cost record %s is not a treatment: %w", id, models.ErrInvalidArgument)
	}
	rec.Diagnosis = &diagnosis
	s.costs[id] = rec
	return nil
}

func (s *Store) SoftDeleteCostRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.costs[id]
	if !ok {
		return notFound("cost record", id)
	}
	rec.IsDeleted = true
	s.costs[id] = rec
	return nil
}

func (s *Store) InsertDeathRecord(_ context.Context, rec models.DeathRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deaths[rec.ID]; ok {
		return fmt.Errorf("death record %s already exists: %w", rec.ID, models.ErrInvalidArgument)
	}
	s.deaths[rec.ID] = cloneDeath(rec)
	return nil
}

func (s *Store) GetDeathRecord(_ context.Context, id string) (models.DeathRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.deaths[id]
	if !ok {
		return models.DeathRecord{}, notFound("death record", id)
	}
	return cloneDeath(rec), nil
}

func (s *Store) ListDeathRecords(_ context.Context, filter models.DeathFilter) ([]models.DeathRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.DeathRecord{}
	for _, rec := range s.deaths {
		switch {
		case rec.IsDeleted:
			continue
		case filter.BatchID != "" && rec.BatchID != filter.BatchID:
			continue
		case filter.Before != nil && !rec.DeathDate.Before(*filter.Before):
			continue
		case filter.AfterID != "" && rec.ID <= filter.AfterID:
			continue
		}
		out = append(out, cloneDeath(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return limit(out, filter.Limit), nil
}

func (s *Store) SetFinancialLoss(_ context.Context, id string, loss models.FinancialLoss) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.deaths[id]
	if !ok {
		return notFound("death record", id)
	}
	rec.FinancialLoss = &loss
	s.deaths[id] = rec
	return nil
}

func (s *Store) InsertExitRecord(_ context.Context, rec models.ExitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exits[rec.ID]; ok {
		return fmt.Errorf("exit record %s already exists: %w", rec.ID, models.ErrInvalidArgument)
	}
	s.exits[rec.ID] = rec
	return nil
}

func (s *Store) ListExitRecords(_ context.Context, filter models.ExitFilter) ([]models.ExitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.ExitRecord{}
	for _, rec := range s.exits {
		switch {
		case rec.IsDeleted:
			continue
		case filter.BatchID != "" && rec.BatchID != filter.BatchID:
			continue
		case filter.Before != nil && !rec.ExitDate.Before(*filter.Before):
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExitDate.Before(out[j].ExitDate) })
	return out, nil
}

func (s *Store) InsertLedgerEntry(_ context.Context, entry models.FinanceLedgerEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.related[entry.RelatedRecordID]; ok {
		return false, nil
	}
	if _, ok := s.ledger[entry.ID]; ok {
		return false, fmt.Errorf("ledger entry %s already exists: %w", entry.ID, models.ErrInvalidArgument)
	}
	s.ledger[entry.ID] = entry
	s.related[entry.RelatedRecordID] = entry.ID
	return true, nil
}

func (s *Store) FindLedgerEntryByRelated(_ context.Context, relatedRecordID string) (models.FinanceLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.related[relatedRecordID]
	if !ok {
		return models.FinanceLedgerEntry{}, notFound("ledger entry for", relatedRecordID)
	}
	return s.ledger[id], nil
}

func (s *Store) ListLedgerEntries(_ context.Context, filter models.LedgerFilter) ([]models.FinanceLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.FinanceLedgerEntry{}
	for _, entry := range s.ledger {
		if filter.BatchID != "" && entry.BatchID != filter.BatchID {
			continue
		}
		if filter.AfterID != "" && entry.ID <= filter.AfterID {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return limit(out, filter.Limit), nil
}

func (s *Store) BackfillLedgerEntry(_ context.Context, id, costType string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.ledger[id]
	if !ok {
		return notFound("ledger entry", id)
	}
	filled, changed := entry.Backfilled(costType, amount)
	if !changed {
		return fmt.Errorf("ledger entry %s has nothing to backfill: %w", id, models.ErrInvalidState)
	}
	s.ledger[id] = filled
	return nil
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func cloneCost(r models.CostRecord) models.CostRecord {
	if r.Diagnosis != nil {
		d := *r.Diagnosis
		r.Diagnosis = &d
	}
	return r
}

func cloneDeath(r models.DeathRecord) models.DeathRecord {
	if r.FinancialLoss != nil {
		l := *r.FinancialLoss
		r.FinancialLoss = &l
	}
	return r
}
