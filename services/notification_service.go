package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type DeviceStore interface {
	UpsertDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) error
	DeleteDeviceToken(ctx context.Context, userID uuid.UUID, token string) error
}

// NotificationService manages the push tokens medal notifications go to.
type NotificationService struct {
	store DeviceStore
}

func NewNotificationService(store DeviceStore) *NotificationService {
	return &NotificationService{store: store}
}

// RegisterDevice moves a token to userID if another user registered it
// before. An empty platform is treated as android.
func (s *NotificationService) RegisterDevice(ctx context.Context, userID uuid.UUID, token, platform string) error {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		platform = "android"
	}
	return s.store.UpsertDeviceToken(ctx, userID, strings.TrimSpace(token), platform)
}

func (s *NotificationService) UnregisterDevice(ctx context.Context, userID uuid.UUID, token string) error {
	return s.store.DeleteDeviceToken(ctx, userID, strings.TrimSpace(token))
}
