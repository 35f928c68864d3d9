package models

import (
	"strings"
	"time"
)

// Finance cost types.
const (
	CostTypeHealth   = "health"
	CostTypeFeed     = "feed"
	CostTypePurchase = "purchase"
	CostTypeOther    = "other"
)

// FinanceLedgerEntry is the accounting-side copy of a cost record.
// RelatedRecordID is unique across the ledger.
type FinanceLedgerEntry struct {
	ID              string    `bson:"_id" json:"recordId"`
	BatchID         string    `bson:"batch_id" json:"batchId"`
	Category        string    `bson:"category" json:"category"`
	CostType        string    `bson:"cost_type" json:"costType"`
	Amount          float64   `bson:"amount" json:"amount"`
	RelatedRecordID string    `bson:"related_record_id" json:"relatedRecordId"`
	Source          CostKind  `bson:"source" json:"source"`
	Date            time.Time `bson:"date" json:"date"`
	CreatedAt       time.Time `bson:"created_at" json:"createdAt"`
}

// Backfilled fills a missing cost type or zero amount from the source values and
// reports whether the entry changed. A zero source amount leaves a zero entry as is.
func (e FinanceLedgerEntry) Backfilled(costType string, amount float64) (FinanceLedgerEntry, bool) {
	changed := false
	if e.CostType == "" && costType != "" {
		e.CostType = costType
		changed = true
	}
	if e.Amount == 0 && amount != 0 {
		e.Amount = amount
		changed = true
	}
	return e, changed
}

// LedgerFilter narrows ledger listings.
type LedgerFilter struct {
	BatchID string
	AfterID string
	Limit   int
}

var healthCategories = map[string]struct{}{
	"vaccine":      {},
	"disinfection": {},
	"medicine":     {},
}

// SyncsToFinance reports whether the record produces a finance ledger entry.
func (r CostRecord) SyncsToFinance() bool {
	if r.IsDeleted {
		return false
	}
	if r.SyncFinance {
		return true
	}
	if r.Kind != CostPrevention {
		return false
	}
	_, ok := healthCategories[strings.ToLower(r.Category)]
	return ok
}

// FinanceCostType maps a record's category, then its kind, to a ledger cost type.
func FinanceCostType(r CostRecord) string {
	category := strings.ToLower(r.Category)
	if _, ok := healthCategories[category]; ok {
		return CostTypeHealth
	}
	switch category {
	case "feed", "material":
		return CostTypeFeed
	}

	switch r.Kind {
	case CostTreatment, CostPrevention:
		return CostTypeHealth
	case CostMaterial:
		return CostTypeFeed
	case CostEntry:
		return CostTypePurchase
	}
	return CostTypeOther
}
