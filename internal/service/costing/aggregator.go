package costing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

// ComputeUnitCostComponents splits the batch's accumulated cost as of asOf into per-head
// components. Entry cost is spread over the initial quantity; feed, prevention and treatment
// spend over the population still alive at the start of asOf's day. A batch with nobody left
// yields a zero breakdown flagged NonComputable.
func (s *Service) ComputeUnitCostComponents(ctx context.Context, batchID string, asOf time.Time) (models.CostBreakdown, error) {
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return models.CostBreakdown{}, err
	}
	return s.breakdown(ctx, batch, asOf)
}

func (s *Service) breakdown(ctx context.Context, batch models.Batch, asOf time.Time) (models.CostBreakdown, error) {
	if batch.InitialQuantity <= 0 {
		return models.CostBreakdown{}, fmt.Errorf("batch %s has initial quantity %d: %w", batch.ID, batch.InitialQuantity, models.ErrComputation)
	}

	dayStart := models.StartOfDay(asOf, s.loc)
	population, err := s.populationAsOf(ctx, batch, dayStart)
	if err != nil {
		return models.CostBreakdown{}, err
	}
	if population == 0 {
		return models.CostBreakdown{NonComputable: true}, nil
	}

	until := models.EndOfDay(asOf, s.loc)
	records, err := s.store.ListCostRecords(ctx, models.CostFilter{BatchID: batch.ID, Until: &until})
	if err != nil {
		return models.CostBreakdown{}, err
	}

	totals := map[models.CostKind]decimal.Decimal{}
	for _, rec := range records {
		amount := rec.TotalAmount()
		if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
			return models.CostBreakdown{}, fmt.Errorf("cost record %s has amount %v: %w", rec.ID, amount, models.ErrComputation)
		}
		totals[rec.Kind] = totals[rec.Kind].Add(decimal.NewFromFloat(amount))
	}

	entryTotal := totals[models.CostEntry]
	if batch.EntryTotalCost > 0 {
		entryTotal = decimal.NewFromFloat(batch.EntryTotalCost)
	}

	alive := decimal.NewFromInt(int64(population))
	return models.CostBreakdown{
		EntryUnitCost:  perHead(entryTotal, decimal.NewFromInt(int64(batch.InitialQuantity))),
		BreedingCost:   perHead(totals[models.CostMaterial], alive),
		PreventionCost: perHead(totals[models.CostPrevention], alive),
		TreatmentCost:  perHead(totals[models.CostTreatment], alive),
		Population:     population,
	}, nil
}

// populationAsOf is the initial quantity minus deaths and exits dated before dayStart.
func (s *Service) populationAsOf(ctx context.Context, batch models.Batch, dayStart time.Time) (int, error) {
	deaths, err := s.store.ListDeathRecords(ctx, models.DeathFilter{BatchID: batch.ID, Before: &dayStart})
	if err != nil {
		return 0, err
	}
	exits, err := s.store.ListExitRecords(ctx, models.ExitFilter{BatchID: batch.ID, Before: &dayStart})
	if err != nil {
		return 0, err
	}

	population := batch.InitialQuantity
	for _, d := range deaths {
		population -= d.DeathCount
	}
	for _, e := range exits {
		population -= e.Quantity
	}
	if population < 0 {
		return 0, fmt.Errorf("batch %s population is %d on %s: %w", batch.ID, population, dayStart.Format("2006-01-02"), models.ErrComputation)
	}
	return population, nil
}

func perHead(total, heads decimal.Decimal) float64 {
	if heads.IsZero() {
		return 0
	}
	return total.Div(heads).Round(2).InexactFloat64()
}

// valuation sums the components into a unit cost and multiplies it by count.
func valuation(b models.CostBreakdown, count int, at time.Time) models.FinancialLoss {
	unit := decimal.NewFromFloat(b.UnitCost())
	total := unit.Mul(decimal.NewFromInt(int64(count))).Round(2)

	return models.FinancialLoss{
		UnitCost:          unit.InexactFloat64(),
		TotalLoss:         total.InexactFloat64(),
		CostBreakdown:     b,
		CalculationMethod: models.CalculationMethodCurrentCount,
		CalculatedAt:      at,
	}
}
