// Package memory provides a mutex-guarded in-process implementation of repository.Store.
// It enforces the same uniqueness constraints as the MongoDB indexes and backs tests and
// the STORAGE_DRIVER=memory mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store keeps every collection in maps keyed by id.
type Store struct {
	mu sync.RWMutex

	batches   map[string]models.Batch
	templates map[string]models.Template
	tasks     map[string]models.TaskInstance
	taskKeys  map[string]string
	costs     map[string]models.CostRecord
	deaths    map[string]models.DeathRecord
	exits     map[string]models.ExitRecord
	ledger    map[string]models.FinanceLedgerEntry
	related   map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		batches:   map[string]models.Batch{},
		templates: map[string]models.Template{},
		tasks:     map[string]models.TaskInstance{},
		taskKeys:  map[string]string{},
		costs:     map[string]models.CostRecord{},
		deaths:    map[string]models.DeathRecord{},
		exits:     map[string]models.ExitRecord{},
		ledger:    map[string]models.FinanceLedgerEntry{},
		related:   map[string]string{},
	}
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, models.ErrNotFound)
}

func (s *Store) CreateBatch(_ context.Context, batch models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batch.ID]; ok {
		return fmt.Errorf("batch %s already exists: %w", batch.ID, models.ErrInvalidArgument)
	}
	for _, existing := range s.batches {
		if existing.BatchNumber == batch.BatchNumber {
			return fmt.Errorf("batch number %s already registered: %w", batch.BatchNumber, models.ErrInvalidArgument)
		}
	}
	s.batches[batch.ID] = batch
	return nil
}

func (s *Store) GetBatch(_ context.Context, id string) (models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[id]
	if !ok {
		return models.Batch{}, notFound("batch", id)
	}
	return batch, nil
}

func (s *Store) GetBatchByNumber(_ context.Context, number string) (models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, batch := range s.batches {
		if batch.BatchNumber == number {
			return batch, nil
		}
	}
	return models.Batch{}, notFound("batch", number)
}

func (s *Store) ListActiveBatches(context.Context) ([]models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Batch{}
	for _, batch := range s.batches {
		if batch.IsActive() {
			out = append(out, batch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryDate.Before(out[j].EntryDate) })
	return out, nil
}

func (s *Store) AdjustCount(_ context.Context, id string, delta int) (models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[id]
	if !ok {
		return models.Batch{}, notFound("batch", id)
	}
	if batch.CurrentCount+delta < 0 {
		return models.Batch{}, fmt.Errorf("batch %s count cannot drop by %d: %w", id, -delta, models.ErrInvalidState)
	}
	batch.CurrentCount += delta
	batch.UpdatedAt = time.Now().UTC()
	s.batches[id] = batch
	return batch, nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, status models.BatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[id]
	if !ok {
		return notFound("batch", id)
	}
	if !batch.CanTransition(status) {
		return fmt.Errorf("batch %s cannot move to %s: %w", id, status, models.ErrInvalidState)
	}
	batch.Status = status
	batch.UpdatedAt = time.Now().UTC()
	s.batches[id] = batch
	return nil
}

func (s *Store) CreateTemplate(_ context.Context, tpl models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[tpl.ID]; ok {
		return fmt.Errorf("template %s already exists: %w", tpl.ID, models.ErrInvalidArgument)
	}
	tpl.Tasks = append([]models.TaskTemplate(nil), tpl.Tasks...)
	s.templates[tpl.ID] = tpl
	return nil
}

func (s *Store) GetTemplate(_ context.Context, id string) (models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[id]
	if !ok {
		return models.Template{}, notFound("template", id)
	}
	tpl.Tasks = append([]models.TaskTemplate(nil), tpl.Tasks...)
	return tpl, nil
}

func taskKey(t models.TaskInstance) string {
	return t.BatchID + "|" + strconv.Itoa(t.DayAge) + "|" + t.TemplateTaskID
}

func (s *Store) InsertTask(_ context.Context, task models.TaskInstance) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.taskKeys[taskKey(task)]; ok {
		return false, nil
	}
	if _, ok := s.tasks[task.ID]; ok {
		return false, nil
	}
	s.tasks[task.ID] = task
	s.taskKeys[taskKey(task)] = task.ID
	return true, nil
}

func (s *Store) GetTask(_ context.Context, id string) (models.TaskInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return models.TaskInstance{}, notFound("task", id)
	}
	return cloneTask(task), nil
}

func (s *Store) ListTasks(_ context.Context, filter models.TaskFilter) ([]models.TaskInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.TaskInstance{}
	for _, task := range s.tasks {
		if task.BatchID != filter.BatchID {
			continue
		}
		if filter.DayAge != nil && task.DayAge != *filter.DayAge {
			continue
		}
		if filter.PendingOnly && task.Completed {
			continue
		}
		out = append(out, cloneTask(task))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayAge != out[j].DayAge {
			return out[i].DayAge < out[j].DayAge
		}
		return out[i].TemplateTaskID < out[j].TemplateTaskID
	})
	return out, nil
}

func (s *Store) MarkTaskCompleted(_ context.Context, id, operatorID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return false, notFound("task", id)
	}
	if task.Completed {
		return false, nil
	}
	task.Completed = true
	task.CompletedBy = operatorID
	task.CompletedAt = &at
	s.tasks[id] = task
	return true, nil
}

func cloneTask(t models.TaskInstance) models.TaskInstance {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}
