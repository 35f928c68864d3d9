package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

func (r *MongoDBRepository) InsertCostRecord(ctx context.Context, rec models.CostRecord) error {
	if _, err := r.coll(costsColl).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert cost record: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetCostRecord(ctx context.Context, id string) (models.CostRecord, error) {
	var rec models.CostRecord
	err := r.findOne(ctx, costsColl, bson.M{"_id": id}, &rec, "cost record "+id)
	return rec, err
}

func (r *MongoDBRepository) ListCostRecords(ctx context.Context, filter models.CostFilter) ([]models.CostRecord, error) {
	query := bson.M{}
	if filter.BatchID != "" {
		query["batch_id"] = filter.BatchID
	}
	if len(filter.Kinds) > 0 {
		query["kind"] = bson.M{"$in": filter.Kinds}
	}
	if filter.Until != nil {
		query["date"] = bson.M{"$lte": *filter.Until}
	}
	if !filter.IncludeDeleted {
		query["is_deleted"] = bson.M{"$ne": true}
	}

	opts := pageOptions(query, filter.AfterID, filter.Limit)
	records, err := findAll[models.CostRecord](ctx, r.coll(costsColl), query, opts)
	if err != nil {
		return nil, fmt.Errorf("list cost records: %w", err)
	}
	return records, nil
}

// AttachDiagnosisCost nests a diagnosis medication cost under a treatment record.
func (r *MongoDBRepository) AttachDiagnosisCost(ctx context.Context, id string, diagnosis models.DiagnosisCost) error {
	res, err := r.coll(costsColl).UpdateOne(ctx,
		bson.M{"_id": id, "kind": models.CostTreatment},
		bson.M{"$set": bson.M{"diagnosis": diagnosis}},
	)
	if err != nil {
		return fmt.Errorf("attach diagnosis cost: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetCostRecord(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("cost record %s is not a treatment: %w", id, models.ErrInvalidArgument)
	}
	return nil
}

func (r *MongoDBRepository) SoftDeleteCostRecord(ctx context.Context, id string) error {
	res, err := r.coll(costsColl).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_deleted": true}})
	if err != nil {
		return fmt.Errorf("soft delete cost record: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("cost record %s: %w", id, models.ErrNotFound)
	}
	return nil
}
