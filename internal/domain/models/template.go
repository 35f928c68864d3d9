package models

import "time"

// TaskCategory enumerates care task categories.
type TaskCategory string

const (
	CategoryVaccine      TaskCategory = "vaccine"
	CategoryMedication   TaskCategory = "medication"
	CategoryDisinfection TaskCategory = "disinfection"
	CategoryInspection   TaskCategory = "inspection"
)

// Valid reports whether c is a known category.
func (c TaskCategory) Valid() bool {
	switch c {
	case CategoryVaccine, CategoryMedication, CategoryDisinfection, CategoryInspection:
		return true
	}
	return false
}

// TaskTemplate defines a care task due at a given day-age.
type TaskTemplate struct {
	ID           string       `bson:"id" json:"id"`
	DayAgeOffset int          `bson:"day_age_offset" json:"dayAgeOffset"`
	Category     TaskCategory `bson:"category" json:"category"`
	Title        string       `bson:"title" json:"title"`
	Description  string       `bson:"description" json:"description"`
}

// Template is an immutable care schedule referenced by batches.
type Template struct {
	ID        string         `bson:"_id" json:"id"`
	Name      string         `bson:"name" json:"name"`
	Tasks     []TaskTemplate `bson:"tasks" json:"tasks"`
	CreatedAt time.Time      `bson:"created_at" json:"createdAt"`
}

// TasksFor returns the template tasks due at dayAge, in template order.
func (t Template) TasksFor(dayAge int) []TaskTemplate {
	var due []TaskTemplate
	for _, task := range t.Tasks {
		if task.DayAgeOffset == dayAge {
			due = append(due, task)
		}
	}
	return due
}
