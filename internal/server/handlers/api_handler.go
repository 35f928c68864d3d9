package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/service/batches"
	"github.com/mamadbah2/flockcare/internal/service/completion"
	"github.com/mamadbah2/flockcare/internal/service/costing"
	"github.com/mamadbah2/flockcare/internal/service/finance"
	"github.com/mamadbah2/flockcare/internal/service/recording"
	"github.com/mamadbah2/flockcare/internal/service/scheduling"
)

// BatchService manages batches and schedule templates.
type BatchService interface {
	RegisterBatch(ctx context.Context, in batches.RegisterBatchInput) (models.Batch, error)
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	ArchiveBatch(ctx context.Context, id string) (models.Batch, error)
	CreateTemplate(ctx context.Context, tpl models.Template) (models.Template, error)
	GetTemplate(ctx context.Context, id string) (models.Template, error)
}

// SchedulingService materializes and lists task instances.
type SchedulingService interface {
	MaterializeTasks(ctx context.Context, batchID string, dayAge int) (scheduling.MaterializeResult, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.TaskInstance, error)
	CurrentDayAge(batch models.Batch) int
}

// CompletionService completes task instances.
type CompletionService interface {
	CompleteTask(ctx context.Context, taskID, operatorID string) (completion.Result, error)
}

// CostingService computes unit costs and values losses.
type CostingService interface {
	ComputeUnitCostComponents(ctx context.Context, batchID string, asOf time.Time) (models.CostBreakdown, error)
	ComputeMortalityLoss(ctx context.Context, deathRecordID string) (models.DeathRecord, error)
	RecalculateAllDeathCosts(ctx context.Context, batchID string) costing.RecalcSummary
	RecordMortality(ctx context.Context, in costing.MortalityInput) (models.DeathRecord, error)
	RecordExit(ctx context.Context, in costing.ExitInput) (models.ExitRecord, error)
}

// RecordingService stores cost source records.
type RecordingService interface {
	RecordCost(ctx context.Context, in recording.CostInput) (recording.Result, error)
	AttachDiagnosisCost(ctx context.Context, recordID string, diagnosis models.DiagnosisCost) (models.CostRecord, error)
	DeleteCost(ctx context.Context, recordID string) error
}

// FinanceService mirrors cost records into the finance ledger.
type FinanceService interface {
	SyncByID(ctx context.Context, costRecordID string) (finance.SyncResult, error)
	RepairFinance(ctx context.Context) (finance.RepairSummary, error)
}

// Services groups the domain services the API exposes.
type Services struct {
	Batches    BatchService
	Scheduling SchedulingService
	Completion CompletionService
	Costing    CostingService
	Recording  RecordingService
	Finance    FinanceService
}

// APIHandler serves the JSON API.
type APIHandler struct {
	svc    Services
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewAPIHandler constructs the API handler. loc is used to interpret calendar dates.
func NewAPIHandler(svc Services, loc *time.Location, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &APIHandler{svc: svc, loc: loc, logger: logger, now: time.Now}
}

type materializeRequest struct {
	DayAge *int `json:"dayAge"`
}

type completeRequest struct {
	OperatorID string `json:"operatorId"`
}

type recalculateRequest struct {
	BatchID string `json:"batchId"`
}

func (h *APIHandler) ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func (h *APIHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func (h *APIHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, models.ErrComputation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrSyncFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RegisterBatch handles POST /api/batches.
func (h *APIHandler) RegisterBatch(c *gin.Context) {
	var in batches.RegisterBatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	batch, err := h.svc.Batches.RegisterBatch(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, batch)
}

// GetBatch handles GET /api/batches/:id.
func (h *APIHandler) GetBatch(c *gin.Context) {
	batch, err := h.svc.Batches.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"batch": batch, "dayAge": h.svc.Scheduling.CurrentDayAge(batch)})
}

// ArchiveBatch handles POST /api/batches/:id/archive.
func (h *APIHandler) ArchiveBatch(c *gin.Context) {
	batch, err := h.svc.Batches.ArchiveBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, batch)
}

// CreateTemplate handles POST /api/templates.
func (h *APIHandler) CreateTemplate(c *gin.Context) {
	var tpl models.Template
	if err := c.ShouldBindJSON(&tpl); err != nil {
		h.badRequest(c, err)
		return
	}
	created, err := h.svc.Batches.CreateTemplate(c.Request.Context(), tpl)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, created)
}

// GetTemplate handles GET /api/templates/:id.
func (h *APIHandler) GetTemplate(c *gin.Context) {
	tpl, err := h.svc.Batches.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, tpl)
}

// MaterializeTasks handles POST /api/batches/:id/tasks/materialize. Without a dayAge the
// batch's current day-age is used.
func (h *APIHandler) MaterializeTasks(c *gin.Context) {
	var req materializeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	batchID := c.Param("id")

	var dayAge int
	if req.DayAge != nil {
		dayAge = *req.DayAge
	} else {
		batch, err := h.svc.Batches.GetBatch(ctx, batchID)
		if err != nil {
			h.fail(c, err)
			return
		}
		dayAge = h.svc.Scheduling.CurrentDayAge(batch)
	}

	res, err := h.svc.Scheduling.MaterializeTasks(ctx, batchID, dayAge)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, res)
}

// ListTasks handles GET /api/batches/:id/tasks?dayAge=&pending=.
func (h *APIHandler) ListTasks(c *gin.Context) {
	filter := models.TaskFilter{BatchID: c.Param("id")}

	if raw := c.Query("dayAge"); raw != "" {
		dayAge, err := strconv.Atoi(raw)
		if err != nil {
			h.badRequest(c, errors.New("dayAge must be an integer"))
			return
		}
		filter.DayAge = &dayAge
	}
	if raw := c.Query("pending"); raw != "" {
		pending, err := strconv.ParseBool(raw)
		if err != nil {
			h.badRequest(c, errors.New("pending must be a boolean"))
			return
		}
		filter.PendingOnly = pending
	}

	tasks, err := h.svc.Scheduling.ListTasks(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, tasks)
}

// CompleteTask handles POST /api/tasks/:id/complete.
func (h *APIHandler) CompleteTask(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	res, err := h.svc.Completion.CompleteTask(c.Request.Context(), c.Param("id"), req.OperatorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, res)
}

// RecordCost handles POST /api/costs.
func (h *APIHandler) RecordCost(c *gin.Context) {
	var in recording.CostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	res, err := h.svc.Recording.RecordCost(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, res)
}

// AttachDiagnosis handles POST /api/costs/:id/diagnosis.
func (h *APIHandler) AttachDiagnosis(c *gin.Context) {
	var diagnosis models.DiagnosisCost
	if err := c.ShouldBindJSON(&diagnosis); err != nil {
		h.badRequest(c, err)
		return
	}
	rec, err := h.svc.Recording.AttachDiagnosisCost(c.Request.Context(), c.Param("id"), diagnosis)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, rec)
}

// DeleteCost handles DELETE /api/costs/:id.
func (h *APIHandler) DeleteCost(c *gin.Context) {
	if err := h.svc.Recording.DeleteCost(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"id": c.Param("id"), "deleted": true})
}

// CostBreakdown handles GET /api/batches/:id/cost-breakdown?asOf=YYYY-MM-DD. asOf defaults
// to today.
func (h *APIHandler) CostBreakdown(c *gin.Context) {
	asOf := h.now().In(h.loc)
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, raw, h.loc)
		if err != nil {
			h.badRequest(c, errors.New("asOf must be formatted as YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}

	b, err := h.svc.Costing.ComputeUnitCostComponents(c.Request.Context(), c.Param("id"), asOf)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"asOf": asOf.Format(time.DateOnly), "breakdown": b, "unitCost": b.UnitCost()})
}

// RecordMortality handles POST /api/batches/:id/deaths.
func (h *APIHandler) RecordMortality(c *gin.Context) {
	var in costing.MortalityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	in.BatchID = c.Param("id")

	rec, err := h.svc.Costing.RecordMortality(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, rec)
}

// ComputeLoss handles POST /api/deaths/:id/loss.
func (h *APIHandler) ComputeLoss(c *gin.Context) {
	rec, err := h.svc.Costing.ComputeMortalityLoss(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, rec)
}

// RecalculateDeaths handles POST /api/deaths/recalculate. An empty batchId covers every batch.
func (h *APIHandler) RecalculateDeaths(c *gin.Context) {
	var req recalculateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, err)
			return
		}
	}
	h.ok(c, http.StatusOK, h.svc.Costing.RecalculateAllDeathCosts(c.Request.Context(), req.BatchID))
}

// RecordExit handles POST /api/batches/:id/exits.
func (h *APIHandler) RecordExit(c *gin.Context) {
	var in costing.ExitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	in.BatchID = c.Param("id")

	rec, err := h.svc.Costing.RecordExit(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, rec)
}

// SyncFinance handles POST /api/finance/sync/:costId.
func (h *APIHandler) SyncFinance(c *gin.Context) {
	res, err := h.svc.Finance.SyncByID(c.Request.Context(), c.Param("costId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, res)
}

// RepairFinance handles POST /api/finance/repair.
func (h *APIHandler) RepairFinance(c *gin.Context) {
	summary, err := h.svc.Finance.RepairFinance(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, summary)
}
