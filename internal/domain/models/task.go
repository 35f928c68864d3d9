package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// taskNamespace seeds deterministic task instance ids.
var taskNamespace = uuid.MustParse("6f1c2b9e-4d0a-4f7e-9b5c-3a8e2d71c0f4")

// TaskInstance is a care task materialized for one batch at one day-age.
type TaskInstance struct {
	ID             string       `bson:"_id" json:"id"`
	BatchID        string       `bson:"batch_id" json:"batchId"`
	TemplateTaskID string       `bson:"template_task_id" json:"templateTaskId"`
	DayAge         int          `bson:"day_age" json:"dayAge"`
	Title          string       `bson:"title" json:"title"`
	Description    string       `bson:"description" json:"description"`
	Category       TaskCategory `bson:"category" json:"category"`
	Completed      bool         `bson:"completed" json:"completed"`
	CompletedBy    string       `bson:"completed_by,omitempty" json:"completedBy,omitempty"`
	CompletedAt    *time.Time   `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	CreatedAt      time.Time    `bson:"created_at" json:"createdAt"`
}

// TaskInstanceID derives the id of the instance identified by (batchID, dayAge, templateTaskID).
// Every caller materializing the same key computes the same id.
func TaskInstanceID(batchID string, dayAge int, templateTaskID string) string {
	key := batchID + "|" + strconv.Itoa(dayAge) + "|" + templateTaskID
	return uuid.NewSHA1(taskNamespace, []byte(key)).String()
}

// NewTaskInstance builds the pending instance of tpl for a batch.
func NewTaskInstance(batchID string, dayAge int, tpl TaskTemplate, now time.Time) TaskInstance {
	return TaskInstance{
		ID:             TaskInstanceID(batchID, dayAge, tpl.ID),
		BatchID:        batchID,
		TemplateTaskID: tpl.ID,
		DayAge:         dayAge,
		Title:          tpl.Title,
		Description:    tpl.Description,
		Category:       tpl.Category,
		CreatedAt:      now,
	}
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	BatchID     string
	DayAge      *int
	PendingOnly bool
}
