package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/repository"
)

const (
	batchesColl   = "batches"
	templatesColl = "templates"
	tasksColl     = "task_instances"
	costsColl     = "cost_records"
	deathsColl    = "death_records"
	exitsColl     = "exit_records"
	ledgerColl    = "finance_ledger"
)

var _ repository.Store = (*MongoDBRepository)(nil)

// MongoDBRepository implements repository.Store on MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository connects, verifies the connection and ensures the indexes the
// uniqueness guarantees depend on.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}

	if err := r.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

// EnsureIndexes creates the unique and lookup indexes. It is safe to call repeatedly.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		batchesColl: {
			{Keys: bson.D{{Key: "batch_number", Value: 1}}, Options: options.Index().SetUnique(true).SetName("ux_batch_number")},
			{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("ix_batch_status")},
		},
		tasksColl: {
			{
				Keys: bson.D{
					{Key: "batch_id", Value: 1},
					{Key: "day_age", Value: 1},
					{Key: "template_task_id", Value: 1},
				},
				Options: options.Index().SetUnique(true).SetName("ux_task_batch_dayage_template"),
			},
		},
		costsColl: {
			{Keys: bson.D{{Key: "batch_id", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetName("ix_cost_batch_date")},
		},
		deathsColl: {
			{Keys: bson.D{{Key: "batch_id", Value: 1}, {Key: "death_date", Value: 1}}, Options: options.Index().SetName("ix_death_batch_date")},
		},
		exitsColl: {
			{Keys: bson.D{{Key: "batch_id", Value: 1}, {Key: "exit_date", Value: 1}}, Options: options.Index().SetName("ix_exit_batch_date")},
		},
		ledgerColl: {
			{Keys: bson.D{{Key: "related_record_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("ux_ledger_related_record")},
			{Keys: bson.D{{Key: "batch_id", Value: 1}}, Options: options.Index().SetName("ix_ledger_batch")},
		},
	}

	for coll, idx := range indexes {
		names, err := r.db.Collection(coll).Indexes().CreateMany(ctx, idx)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
		r.logger.Debug("indexes ensured", zap.String("collection", coll), zap.Strings("indexes", names))
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) coll(name string) *mongo.Collection {
	return r.db.Collection(name)
}

// findOne decodes the single document matching filter into out, mapping a miss to
// models.ErrNotFound.
func (r *MongoDBRepository) findOne(ctx context.Context, coll string, filter any, out any, what string) error {
	err := r.coll(coll).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find %s: %w", what, err)
	}
	return nil
}

// pageOptions sorts by _id and applies the cursor/limit pair used by chunked scans.
func pageOptions(filter bson.M, afterID string, limit int) *options.FindOptions {
	if afterID != "" {
		filter["_id"] = bson.M{"$gt": afterID}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
