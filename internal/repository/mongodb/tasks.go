package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

// InsertTask writes the instance unless its composite key already exists. Duplicate keys
// are reported as inserted=false so concurrent materializations converge.
func (r *MongoDBRepository) InsertTask(ctx context.Context, task models.TaskInstance) (bool, error) {
	if _, err := r.coll(tasksColl).InsertOne(ctx, task); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert task instance: %w", err)
	}
	return true, nil
}

func (r *MongoDBRepository) GetTask(ctx context.Context, id string) (models.TaskInstance, error) {
	var task models.TaskInstance
	err := r.findOne(ctx, tasksColl, bson.M{"_id": id}, &task, "task "+id)
	return task, err
}

func (r *MongoDBRepository) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.TaskInstance, error) {
	query := bson.M{"batch_id": filter.BatchID}
	if filter.DayAge != nil {
		query["day_age"] = *filter.DayAge
	}
	if filter.PendingOnly {
		query["completed"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "day_age", Value: 1}, {Key: "template_task_id", Value: 1}})

	tasks, err := findAll[models.TaskInstance](ctx, r.coll(tasksColl), query, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks for batch %s: %w", filter.BatchID, err)
	}
	return tasks, nil
}

// MarkTaskCompleted only matches pending tasks, so the first completion wins.
func (r *MongoDBRepository) MarkTaskCompleted(ctx context.Context, id, operatorID string, at time.Time) (bool, error) {
	res, err := r.coll(tasksColl).UpdateOne(ctx,
		bson.M{"_id": id, "completed": false},
		bson.M{"$set": bson.M{"completed": true, "completed_by": operatorID, "completed_at": at}},
	)
	if err != nil {
		return false, fmt.Errorf("complete task %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetTask(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}
