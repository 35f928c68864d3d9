package models

import "time"

// BatchStatus enumerates the lifecycle states of a batch.
type BatchStatus string

const (
	BatchActive   BatchStatus = "active"
	BatchExited   BatchStatus = "exited"
	BatchArchived BatchStatus = "archived"
)

// Batch is a cohort of animals entered into production together.
type Batch struct {
	ID              string      `bson:"_id" json:"id"`
	BatchNumber     string      `bson:"batch_number" json:"batchNumber"`
	EntryDate       time.Time   `bson:"entry_date" json:"entryDate"`
	InitialQuantity int         `bson:"initial_quantity" json:"initialQuantity"`
	CurrentCount    int         `bson:"current_count" json:"currentCount"`
	EntryTotalCost  float64     `bson:"entry_total_cost" json:"entryTotalCost"`
	Status          BatchStatus `bson:"status" json:"status"`
	TemplateID      string      `bson:"template_id" json:"templateId"`
	CreatedAt       time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `bson:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the batch still accepts tasks and completions.
func (b Batch) IsActive() bool {
	return b.Status == BatchActive
}

// CanTransition reports whether status may move from the batch's current status to next.
// Transitions are one-way: active -> exited|archived, exited -> archived.
func (b Batch) CanTransition(next BatchStatus) bool {
	switch b.Status {
	case BatchActive:
		return next == BatchExited || next == BatchArchived
	case BatchExited:
		return next == BatchArchived
	default:
		return false
	}
}

// DayAge returns the number of whole days elapsed between the entry date and on,
// both taken as calendar days in loc. The entry day is day-age 0.
func (b Batch) DayAge(on time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return calendarDays(b.EntryDate.In(loc), on.In(loc))
}

func calendarDays(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f) / (24 * time.Hour))
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last representable instant of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
