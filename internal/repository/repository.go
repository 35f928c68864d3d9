// Package repository declares the storage contracts shared by the MongoDB and in-memory stores.
//
// Uniqueness is enforced by the store, not by callers: inserts that collide with an existing
// key report inserted=false with a nil error.
package repository

import (
	"context"
	"time"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

// BatchStore persists batches.
type BatchStore interface {
	CreateBatch(ctx context.Context, batch models.Batch) error
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	GetBatchByNumber(ctx context.Context, number string) (models.Batch, error)
	ListActiveBatches(ctx context.Context) ([]models.Batch, error)
	// AdjustCount adds delta to the current count, failing with models.ErrInvalidState
	// when the result would be negative.
	AdjustCount(ctx context.Context, id string, delta int) (models.Batch, error)
	UpdateStatus(ctx context.Context, id string, status models.BatchStatus) error
}

// TemplateStore persists care templates.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, tpl models.Template) error
	GetTemplate(ctx context.Context, id string) (models.Template, error)
}

// TaskStore persists task instances. (batch_id, day_age, template_task_id) is unique.
type TaskStore interface {
	InsertTask(ctx context.Context, task models.TaskInstance) (bool, error)
	GetTask(ctx context.Context, id string) (models.TaskInstance, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.TaskInstance, error)
	// MarkTaskCompleted completes a pending task. It returns false when the task was
	// already completed.
	MarkTaskCompleted(ctx context.Context, id, operatorID string, at time.Time) (bool, error)
}

// CostStore persists cost source records.
type CostStore interface {
	InsertCostRecord(ctx context.Context, rec models.CostRecord) error
	GetCostRecord(ctx context.Context, id string) (models.CostRecord, error)
	ListCostRecords(ctx context.Context, filter models.CostFilter) ([]models.CostRecord, error)
	AttachDiagnosisCost(ctx context.Context, id string, diagnosis models.DiagnosisCost) error
	SoftDeleteCostRecord(ctx context.Context, id string) error
}

// DeathStore persists mortality records.
type DeathStore interface {
	InsertDeathRecord(ctx context.Context, rec models.DeathRecord) error
	GetDeathRecord(ctx context.Context, id string) (models.DeathRecord, error)
	ListDeathRecords(ctx context.Context, filter models.DeathFilter) ([]models.DeathRecord, error)
	SetFinancialLoss(ctx context.Context, id string, loss models.FinancialLoss) error
}

// ExitStore persists exit records.
type ExitStore interface {
	InsertExitRecord(ctx context.Context, rec models.ExitRecord) error
	ListExitRecords(ctx context.Context, filter models.ExitFilter) ([]models.ExitRecord, error)
}

// FinanceStore is the append-only finance ledger. related_record_id is unique.
type FinanceStore interface {
	InsertLedgerEntry(ctx context.Context, entry models.FinanceLedgerEntry) (bool, error)
	FindLedgerEntryByRelated(ctx context.Context, relatedRecordID string) (models.FinanceLedgerEntry, error)
	ListLedgerEntries(ctx context.Context, filter models.LedgerFilter) ([]models.FinanceLedgerEntry, error)
	// BackfillLedgerEntry sets cost type and amount on an entry that is missing them.
	BackfillLedgerEntry(ctx context.Context, id, costType string, amount float64) error
}

// Store bundles every collection the service reads or writes.
type Store interface {
	BatchStore
	TemplateStore
	TaskStore
	CostStore
	DeathStore
	ExitStore
	FinanceStore
	Close(ctx context.Context) error
}
