package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/config"
	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/service/commands"
	client "github.com/mamadbah2/flockcare/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// MessagingService describes the operations the HTTP layer and scheduler perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	NotifyGroup(ctx context.Context, message string) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaWhatsAppService{cfg: cfg, client: client, dispatcher: dispatcher, logger: logger}
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook answers every inbound worker message. The first failure is returned after
// all messages were attempted.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := msg.Body()
	if text == "" {
		s.logger.Debug("ignoring message without text", zap.String("message_id", msg.ID), zap.String("type", msg.Type))
		return nil
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, msg.From)
	if errors.Is(err, commands.ErrInvalidArguments) {
		reply, err = "Commande incomplete.\n"+helpText(ctx, s.dispatcher), nil
	}
	if err != nil {
		return fmt.Errorf("handle %s command: %w", cmd.Type, err)
	}

	return s.send(ctx, msg.From, reply)
}

// SendOutbound lets internal operators push quick notifications.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	return s.send(ctx, req.To, req.Message)
}

// NotifyGroup posts message to the configured farm group.
func (s *MetaWhatsAppService) NotifyGroup(ctx context.Context, message string) error {
	if s.cfg.GroupID == "" {
		return errors.New("WHATSAPP_GROUP_ID is not configured")
	}
	return s.send(ctx, s.cfg.GroupID, message)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	id, err := s.client.SendText(ctxWithTimeout, to, body)
	if err != nil {
		return err
	}
	s.logger.Debug("message sent", zap.String("to", to), zap.String("message_id", id))
	return nil
}

func helpText(ctx context.Context, d commands.Dispatcher) string {
	text, err := d.HandleCommand(ctx, models.Command{Type: models.CommandHelp}, "")
	if err != nil {
		return ""
	}
	return text
}
