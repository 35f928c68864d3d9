package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/domain/models"
)

type stubCosting struct {
	CostingService
	asOf []time.Time
}

func (s *stubCosting) ComputeUnitCostComponents(_ context.Context, batchID string, asOf time.Time) (models.CostBreakdown, error) {
	if batchID == "missing" {
		return models.CostBreakdown{}, models.ErrNotFound
	}
	s.asOf = append(s.asOf, asOf)
	return models.CostBreakdown{EntryUnitCost: 2, BreedingCost: 0.5}, nil
}

func newCostEngine(t *testing.T, now time.Time) (*gin.Engine, *stubCosting) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	costing := &stubCosting{}
	loc, err := time.LoadLocation("Africa/Conakry")
	require.NoError(t, err)

	h := NewAPIHandler(Services{Costing: costing}, loc, zap.NewNop())
	h.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/batches/:id/cost-breakdown", h.CostBreakdown)
	return r, costing
}

func TestCostBreakdownDefaultsToToday(t *testing.T) {
	r, costing := newCostEngine(t, time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC))

	rec := serve(r, http.MethodGet, "/batches/batch-1/cost-breakdown", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			AsOf     string  `json:"asOf"`
			UnitCost float64 `json:"unitCost"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "2026-03-04", body.Data.AsOf)
	assert.Equal(t, 2.5, body.Data.UnitCost)
	require.Len(t, costing.asOf, 1)
	assert.Equal(t, "Africa/Conakry", costing.asOf[0].Location().String())
}

func TestCostBreakdownExplicitDate(t *testing.T) {
	r, costing := newCostEngine(t, time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))

	rec := serve(r, http.MethodGet, "/batches/batch-1/cost-breakdown?asOf=2026-02-20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, costing.asOf, 1)
	assert.Equal(t, "2026-02-20", costing.asOf[0].Format(time.DateOnly))

	rec = serve(r, http.MethodGet, "/batches/batch-1/cost-breakdown?asOf=20-02-2026", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodGet, "/batches/missing/cost-breakdown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
