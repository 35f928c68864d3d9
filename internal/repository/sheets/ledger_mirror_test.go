package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

func TestLedgerRow(t *testing.T) {
	entry := models.FinanceLedgerEntry{
		ID:              "entry-1",
		BatchID:         "batch-1",
		Category:        "vaccine",
		CostType:        models.CostTypeHealth,
		Amount:          12.5,
		RelatedRecordID: "cost-1",
		Source:          models.CostPrevention,
		Date:            time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC),
	}

	require.Equal(t, []interface{}{
		"2026-03-04", "entry-1", "batch-1", "vaccine", "health", "12.50", "cost-1", "prevention",
	}, ledgerRow(entry))
}
