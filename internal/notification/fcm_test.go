package notification

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenMuensterAPI/internal/logger"
	"greenMuensterAPI/internal/types/notification"
)

type fakeSender struct {
	sent []*messaging.Message
	fail map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, m *messaging.Message) (string, error) {
	if f.fail[m.Token] {
		return "", errors.New("registration-token-not-registered")
	}
	f.sent = append(f.sent, m)
	return "projects/x/messages/1", nil
}

func TestBuildMessage_PlatformConfig(t *testing.T) {
	android := buildMessage(notification.DeviceToken{Token: "a", Platform: "android"}, "t", "b", nil)
	assert.NotNil(t, android.Android)
	assert.Nil(t, android.APNS)

	ios := buildMessage(notification.DeviceToken{Token: "i", Platform: "ios"}, "t", "b", nil)
	require.NotNil(t, ios.APNS)
	assert.Equal(t, "default", ios.APNS.Payload.Aps.Sound)

	web := buildMessage(notification.DeviceToken{Token: "w", Platform: "web"}, "t", "b", nil)
	assert.NotNil(t, web.Webpush)
}

func TestSendPush_PartialFailure(t *testing.T) {
	sender := &fakeSender{fail: map[string]bool{"dead": true}}
	svc := &FCMService{client: sender, log: logger.Discard()}

	err := svc.SendPush(context.Background(), []notification.DeviceToken{
		{Token: "dead"},
		{Token: "alive", Platform: "ios"},
	}, "Bronze medal!", "You earned bronze", map[string]any{"tier": "bronze"})

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "bronze", sender.sent[0].Data["tier"])
}

func TestSendPush_AllFailed(t *testing.T) {
	svc := &FCMService{client: &fakeSender{fail: map[string]bool{"dead": true}}, log: logger.Discard()}

	err := svc.SendPush(context.Background(), []notification.DeviceToken{{Token: "dead"}}, "t", "b", nil)
	assert.Error(t, err)
}

func TestSendPush_NoTokens(t *testing.T) {
	svc := &FCMService{client: &fakeSender{}, log: logger.Discard()}
	assert.NoError(t, svc.SendPush(context.Background(), nil, "t", "b", nil))
}
