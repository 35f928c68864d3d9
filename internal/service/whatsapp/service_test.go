package whatsapp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/config"
	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/service/commands"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) SendText(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	args := m.Called(ctx, cmd.Type, sender)
	return args.String(0), args.Error(1)
}

var testConfig = config.WhatsAppConfig{VerifyToken: "secret", GroupID: "120363000000@g.us"}

func textPayload(from, body string) models.WebhookPayload {
	return models.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []models.WebhookEntry{{
			Changes: []models.WebhookChange{{
				Field: "messages",
				Value: models.WebhookValue{Messages: []models.InboundMessage{{
					From: from,
					ID:   "wamid.in",
					Type: "text",
					Text: &models.TextContent{Body: body},
				}}},
			}},
		}},
	}
}

func TestVerifyWebhookToken(t *testing.T) {
	svc := NewMetaWhatsAppService(testConfig, new(mockClient), new(mockDispatcher), zap.NewNop())

	challenge, err := svc.VerifyWebhookToken("subscribe", "secret", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", challenge)

	_, err = svc.VerifyWebhookToken("subscribe", "wrong", "42")
	require.Error(t, err)

	_, err = svc.VerifyWebhookToken("unsubscribe", "secret", "42")
	require.Error(t, err)

	_, err = svc.VerifyWebhookToken("", "", "")
	require.Error(t, err)
}

func TestHandleWebhookRepliesToSender(t *testing.T) {
	client := new(mockClient)
	dispatcher := new(mockDispatcher)
	svc := NewMetaWhatsAppService(testConfig, client, dispatcher, zap.NewNop())

	dispatcher.On("HandleCommand", mock.Anything, models.CommandTasks, "224600000001").Return("Lot B-001 - jour 3", nil)
	client.On("SendText", mock.Anything, "224600000001", "Lot B-001 - jour 3").Return("wamid.out", nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("224600000001", "/tasks B-001")))
	dispatcher.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestHandleWebhookInvalidArgumentsSendsHelp(t *testing.T) {
	client := new(mockClient)
	dispatcher := new(mockDispatcher)
	svc := NewMetaWhatsAppService(testConfig, client, dispatcher, zap.NewNop())

	dispatcher.On("HandleCommand", mock.Anything, models.CommandDone, "224600000001").Return("", commands.ErrInvalidArguments)
	dispatcher.On("HandleCommand", mock.Anything, models.CommandHelp, "").Return("Commandes disponibles", nil)
	client.On("SendText", mock.Anything, "224600000001", "Commande incomplete.\nCommandes disponibles").Return("wamid.out", nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("224600000001", "/done")))
	client.AssertExpectations(t)
}

func TestHandleWebhookIgnoresNonText(t *testing.T) {
	client := new(mockClient)
	dispatcher := new(mockDispatcher)
	svc := NewMetaWhatsAppService(testConfig, client, dispatcher, zap.NewNop())

	payload := textPayload("224600000001", "")
	payload.Entry[0].Changes[0].Value.Messages[0].Text = nil
	payload.Entry[0].Changes[0].Value.Messages[0].Type = "image"

	require.NoError(t, svc.HandleWebhook(context.Background(), payload))
	dispatcher.AssertNotCalled(t, "HandleCommand", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhookReturnsSendFailure(t *testing.T) {
	client := new(mockClient)
	dispatcher := new(mockDispatcher)
	svc := NewMetaWhatsAppService(testConfig, client, dispatcher, zap.NewNop())

	dispatcher.On("HandleCommand", mock.Anything, models.CommandHelp, "224600000001").Return("aide", nil)
	client.On("SendText", mock.Anything, "224600000001", "aide").Return("", errors.New("rate limited"))

	err := svc.HandleWebhook(context.Background(), textPayload("224600000001", "aide"))
	require.ErrorContains(t, err, "rate limited")
}

func TestNotifyGroup(t *testing.T) {
	client := new(mockClient)
	svc := NewMetaWhatsAppService(testConfig, client, new(mockDispatcher), zap.NewNop())

	client.On("SendText", mock.Anything, testConfig.GroupID, "digest").Return("wamid.g", nil)
	require.NoError(t, svc.NotifyGroup(context.Background(), "digest"))
	client.AssertExpectations(t)

	noGroup := NewMetaWhatsAppService(config.WhatsAppConfig{}, client, new(mockDispatcher), zap.NewNop())
	require.Error(t, noGroup.NotifyGroup(context.Background(), "digest"))
}
