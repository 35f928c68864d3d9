package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. webhook may be nil when
// the WhatsApp channel is disabled.
func New(api *handlers.APIHandler, webhook *handlers.WebhookHandler, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api")
	{
		v1.POST("/batches", api.RegisterBatch)
		v1.GET("/batches/:id", api.GetBatch)
		v1.POST("/batches/:id/archive", api.ArchiveBatch)
		v1.POST("/batches/:id/tasks/materialize", api.MaterializeTasks)
		v1.GET("/batches/:id/tasks", api.ListTasks)
		v1.GET("/batches/:id/cost-breakdown", api.CostBreakdown)
		v1.POST("/batches/:id/deaths", api.RecordMortality)
		v1.POST("/batches/:id/exits", api.RecordExit)

		v1.POST("/templates", api.CreateTemplate)
		v1.GET("/templates/:id", api.GetTemplate)

		v1.POST("/tasks/:id/complete", api.CompleteTask)

		v1.POST("/costs", api.RecordCost)
		v1.POST("/costs/:id/diagnosis", api.AttachDiagnosis)
		v1.DELETE("/costs/:id", api.DeleteCost)

		v1.POST("/deaths/recalculate", api.RecalculateDeaths)
		v1.POST("/deaths/:id/loss", api.ComputeLoss)

		v1.POST("/finance/sync/:costId", api.SyncFinance)
		v1.POST("/finance/repair", api.RepairFinance)
	}

	if webhook != nil {
		r.GET("/webhook", webhook.Verify)
		r.POST("/webhook", webhook.Receive)
		r.POST("/send-message", webhook.SendMessage)
	}

	if logger != nil {
		logger.Info("router initialized", zap.Bool("webhook", webhook != nil))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
