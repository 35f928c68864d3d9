package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/domain/models"
	service "github.com/mamadbah2/flockcare/internal/service/whatsapp"
)

// WebhookHandler handles worker WhatsApp callbacks and manual notifications.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

// NewWebhookHandler constructs the HTTP handler adapter.
func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

// Verify answers Meta's subscription challenge so worker messages start flowing.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	resp, err := h.svc.VerifyWebhookToken(mode, token, challenge)
	if err != nil {
		h.logger.Warn("webhook verification failed", zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}

	c.String(http.StatusOK, resp)
}

// Receive runs the /tasks and /done commands carried by inbound worker messages.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("worker command failed",
			zap.String("object", payload.Object),
			zap.Int("entries", len(payload.Entry)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to process worker command"})
		return
	}

	c.Status(http.StatusOK)
}

// SendMessage pushes a manual notification to a worker or the farm group.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	if req.To == "" {
		if err := h.svc.NotifyGroup(c.Request.Context(), req.Message); err != nil {
			h.logger.Error("failed notifying group", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "unable to send message"})
			return
		}
		c.Status(http.StatusAccepted)
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}
