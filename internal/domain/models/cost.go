package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostKind enumerates the cost source categories rolled into a batch valuation.
type CostKind string

const (
	CostEntry      CostKind = "entry"
	CostMaterial   CostKind = "material"
	CostPrevention CostKind = "prevention"
	CostTreatment  CostKind = "treatment"
)

// Valid reports whether k is a known cost kind.
func (k CostKind) Valid() bool {
	switch k {
	case CostEntry, CostMaterial, CostPrevention, CostTreatment:
		return true
	}
	return false
}

// DiagnosisCost is the medication cost a diagnosis attaches to a treatment record.
type DiagnosisCost struct {
	DiagnosisID    string  `bson:"diagnosis_id" json:"diagnosisId"`
	MedicationCost float64 `bson:"medication_cost" json:"medicationCost"`
}

// CostRecord is an operational cost scoped to a batch.
type CostRecord struct {
	ID          string         `bson:"_id" json:"id"`
	BatchID     string         `bson:"batch_id" json:"batchId"`
	Kind        CostKind       `bson:"kind" json:"kind"`
	Category    string         `bson:"category,omitempty" json:"category,omitempty"`
	Amount      float64        `bson:"amount" json:"amount"`
	Date        time.Time      `bson:"date" json:"date"`
	SyncFinance bool           `bson:"sync_finance" json:"syncFinance"`
	Diagnosis   *DiagnosisCost `bson:"diagnosis,omitempty" json:"diagnosis,omitempty"`
	IsDeleted   bool           `bson:"is_deleted" json:"isDeleted"`
	CreatedAt   time.Time      `bson:"created_at" json:"createdAt"`
}

// TotalAmount is the record's own amount plus any diagnosis-derived medication cost.
func (r CostRecord) TotalAmount() float64 {
	if r.Diagnosis == nil {
		return r.Amount
	}
	return r.Amount + r.Diagnosis.MedicationCost
}

// CostFilter narrows cost record listings. Until is inclusive.
type CostFilter struct {
	BatchID        string
	Kinds          []CostKind
	Until          *time.Time
	IncludeDeleted bool
	AfterID        string
	Limit          int
}

// CostBreakdown is the per-animal decomposition of a batch's accumulated cost.
type CostBreakdown struct {
	EntryUnitCost  float64 `bson:"entry_unit_cost" json:"entryUnitCost"`
	BreedingCost   float64 `bson:"breeding_cost" json:"breedingCost"`
	PreventionCost float64 `bson:"prevention_cost" json:"preventionCost"`
	TreatmentCost  float64 `bson:"treatment_cost" json:"treatmentCost"`
	Population     int     `bson:"population" json:"population"`
	NonComputable  bool    `bson:"non_computable" json:"nonComputable"`
}

// UnitCost is the sum of the components rounded to cents.
func (b CostBreakdown) UnitCost() float64 {
	return decimal.NewFromFloat(b.EntryUnitCost).
		Add(decimal.NewFromFloat(b.BreedingCost)).
		Add(decimal.NewFromFloat(b.PreventionCost)).
		Add(decimal.NewFromFloat(b.TreatmentCost)).
		Round(2).
		InexactFloat64()
}
