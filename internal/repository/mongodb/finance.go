package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

// InsertLedgerEntry appends an entry. A second entry for the same related record loses
// against the unique index and is reported as inserted=false.
func (r *MongoDBRepository) InsertLedgerEntry(ctx context.Context, entry models.FinanceLedgerEntry) (bool, error) {
	if _, err := r.coll(ledgerColl).InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return true, nil
}

func (r *MongoDBRepository) FindLedgerEntryByRelated(ctx context.Context, relatedRecordID string) (models.FinanceLedgerEntry, error) {
	var entry models.FinanceLedgerEntry
	err := r.findOne(ctx, ledgerColl, bson.M{"related_record_id": relatedRecordID}, &entry, "ledger entry for "+relatedRecordID)
	return entry, err
}

func (r *MongoDBRepository) ListLedgerEntries(ctx context.Context, filter models.LedgerFilter) ([]models.FinanceLedgerEntry, error) {
	query := bson.M{}
	if filter.BatchID != "" {
		query["batch_id"] = filter.BatchID
	}
	opts := pageOptions(query, filter.AfterID, filter.Limit)
	entries, err := findAll[models.FinanceLedgerEntry](ctx, r.coll(ledgerColl), query, opts)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}

// BackfillLedgerEntry only touches entries that are still missing a cost type, or
// hold a zero amount while the source amount is not zero.
func (r *MongoDBRepository) BackfillLedgerEntry(ctx context.Context, id, costType string, amount float64) error {
	missing := bson.A{bson.M{"cost_type": bson.M{"$in": bson.A{"", nil}}}}
	set := bson.M{"cost_type": costType}
	if amount != 0 {
		missing = append(missing, bson.M{"amount": 0})
		set["amount"] = amount
	}
	filter := bson.M{"_id": id, "$or": missing}
	res, err := r.coll(ledgerColl).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("backfill ledger entry %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("ledger entry %s has nothing to backfill: %w", id, models.ErrInvalidState)
	}
	return nil
}
