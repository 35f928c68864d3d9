package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

// CreateBatch inserts a batch. A duplicate batch number is an invalid argument.
func (r *MongoDBRepository) CreateBatch(ctx context.Context, batch models.Batch) error {
	if _, err := r.coll(batchesColl).InsertOne(ctx, batch); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("batch number %s already registered: %w", batch.BatchNumber, models.ErrInvalidArgument)
		}
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	var batch models.Batch
	err := r.findOne(ctx, batchesColl, bson.M{"_id": id}, &batch, "batch "+id)
	return batch, err
}

func (r *MongoDBRepository) GetBatchByNumber(ctx context.Context, number string) (models.Batch, error) {
	var batch models.Batch
	err := r.findOne(ctx, batchesColl, bson.M{"batch_number": number}, &batch, "batch "+number)
	return batch, err
}

func (r *MongoDBRepository) ListActiveBatches(ctx context.Context) ([]models.Batch, error) {
	opts := options.Find().SetSort(bson.D{{Key: "entry_date", Value: 1}})
	batches, err := findAll[models.Batch](ctx, r.coll(batchesColl), bson.M{"status": models.BatchActive}, opts)
	if err != nil {
		return nil, fmt.Errorf("list active batches: %w", err)
	}
	return batches, nil
}

// AdjustCount applies delta with a guard on the current count so concurrent decrements
// cannot drive the population negative.
func (r *MongoDBRepository) AdjustCount(ctx context.Context, id string, delta int) (models.Batch, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["current_count"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"current_count": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var batch models.Batch
	err := r.coll(batchesColl).FindOneAndUpdate(ctx, filter, update, opts).Decode(&batch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := r.GetBatch(ctx, id); getErr != nil {
			return models.Batch{}, getErr
		}
		return models.Batch{}, fmt.Errorf("batch %s count cannot drop by %d: %w", id, -delta, models.ErrInvalidState)
	}
	if err != nil {
		return models.Batch{}, fmt.Errorf("adjust batch count: %w", err)
	}
	return batch, nil
}

// UpdateStatus moves the batch to status; the filter only matches allowed source states.
func (r *MongoDBRepository) UpdateStatus(ctx context.Context, id string, status models.BatchStatus) error {
	from := []models.BatchStatus{models.BatchActive}
	if status == models.BatchArchived {
		from = append(from, models.BatchExited)
	}

	res, err := r.coll(batchesColl).UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetBatch(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("batch %s cannot move to %s: %w", id, status, models.ErrInvalidState)
	}
	return nil
}

func (r *MongoDBRepository) CreateTemplate(ctx context.Context, tpl models.Template) error {
	if _, err := r.coll(templatesColl).InsertOne(ctx, tpl); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("template %s already exists: %w", tpl.ID, models.ErrInvalidArgument)
		}
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetTemplate(ctx context.Context, id string) (models.Template, error) {
	var tpl models.Template
	err := r.findOne(ctx, templatesColl, bson.M{"_id": id}, &tpl, "template "+id)
	return tpl, err
}
