package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

func (r *MongoDBRepository) InsertDeathRecord(ctx context.Context, rec models.DeathRecord) error {
	if _, err := r.coll(deathsColl).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert death record: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetDeathRecord(ctx context.Context, id string) (models.DeathRecord, error) {
	var rec models.DeathRecord
	err := r.findOne(ctx, deathsColl, bson.M{"_id": id}, &rec, "death record "+id)
	return rec, err
}

func (r *MongoDBRepository) ListDeathRecords(ctx context.Context, filter models.DeathFilter) ([]models.DeathRecord, error) {
	query := bson.M{"is_deleted": bson.M{"$ne": true}}
	if filter.BatchID != "" {
		query["batch_id"] = filter.BatchID
	}
	if filter.Before != nil {
		query["death_date"] = bson.M{"$lt": *filter.Before}
	}

	opts := pageOptions(query, filter.AfterID, filter.Limit)
	records, err := findAll[models.DeathRecord](ctx, r.coll(deathsColl), query, opts)
	if err != nil {
		return nil, fmt.Errorf("list death records: %w", err)
	}
	return records, nil
}

// SetFinancialLoss overwrites the stored valuation.
func (r *MongoDBRepository) SetFinancialLoss(ctx context.Context, id string, loss models.FinancialLoss) error {
	res, err := r.coll(deathsColl).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"financial_loss": loss}})
	if err != nil {
		return fmt.Errorf("set financial loss on %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("death record %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *MongoDBRepository) InsertExitRecord(ctx context.Context, rec models.ExitRecord) error {
	if _, err := r.coll(exitsColl).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert exit record: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) ListExitRecords(ctx context.Context, filter models.ExitFilter) ([]models.ExitRecord, error) {
	query := bson.M{"is_deleted": bson.M{"$ne": true}}
	if filter.BatchID != "" {
		query["batch_id"] = filter.BatchID
	}
	if filter.Before != nil {
		query["exit_date"] = bson.M{"$lt": *filter.Before}
	}

	opts := options.Find().SetSort(bson.D{{Key: "exit_date", Value: 1}})
	records, err := findAll[models.ExitRecord](ctx, r.coll(exitsColl), query, opts)
	if err != nil {
		return nil, fmt.Errorf("list exit records: %w", err)
	}
	return records, nil
}
