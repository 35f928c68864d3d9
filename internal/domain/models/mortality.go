package models

import "time"

// CalculationMethodCurrentCount marks valuations whose amortized components are divided
// by the surviving population at the valuation date.
const CalculationMethodCurrentCount = "weighted_current_count"

// FinancialLoss is the valuation written onto a death or exit record.
type FinancialLoss struct {
	UnitCost          float64       `bson:"unit_cost" json:"unitCost"`
	TotalLoss         float64       `bson:"total_loss" json:"totalLoss"`
	CostBreakdown     CostBreakdown `bson:"cost_breakdown" json:"costBreakdown"`
	CalculationMethod string        `bson:"calculation_method" json:"calculationMethod"`
	CalculatedAt      time.Time     `bson:"calculated_at" json:"calculatedAt"`
}

// DeathRecord captures a mortality report for a batch.
type DeathRecord struct {
	ID            string         `bson:"_id" json:"id"`
	BatchID       string         `bson:"batch_id" json:"batchId"`
	DeathCount    int            `bson:"death_count" json:"deathCount"`
	DeathCause    string         `bson:"death_cause" json:"deathCause"`
	DeathDate     time.Time      `bson:"death_date" json:"deathDate"`
	FinancialLoss *FinancialLoss `bson:"financial_loss,omitempty" json:"financialLoss,omitempty"`
	IsDeleted     bool           `bson:"is_deleted" json:"isDeleted"`
	CreatedAt     time.Time      `bson:"created_at" json:"createdAt"`
}

// DeathFilter narrows death record listings. Before is exclusive.
type DeathFilter struct {
	BatchID string
	Before  *time.Time
	AfterID string
	Limit   int
}

// ExitRecord captures animals leaving a batch alive (sale, transfer).
type ExitRecord struct {
	ID        string         `bson:"_id" json:"id"`
	BatchID   string         `bson:"batch_id" json:"batchId"`
	Quantity  int            `bson:"quantity" json:"quantity"`
	ExitDate  time.Time      `bson:"exit_date" json:"exitDate"`
	Valuation *FinancialLoss `bson:"valuation,omitempty" json:"valuation,omitempty"`
	IsDeleted bool           `bson:"is_deleted" json:"isDeleted"`
	CreatedAt time.Time      `bson:"created_at" json:"createdAt"`
}

// ExitFilter narrows exit record listings. Before is exclusive.
type ExitFilter struct {
	BatchID string
	Before  *time.Time
}
