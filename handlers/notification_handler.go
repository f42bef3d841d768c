package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/types/notification"
)

type DeviceRegistry interface {
	RegisterDevice(ctx context.Context, userID uuid.UUID, token, platform string) error
	UnregisterDevice(ctx context.Context, userID uuid.UUID, token string) error
}

type NotificationHandler struct {
	devices  DeviceRegistry
	profiles ProfileResolver
	log      *logrus.Entry
}

func NewNotificationHandler(devices DeviceRegistry, profiles ProfileResolver, log *logrus.Entry) *NotificationHandler {
	return &NotificationHandler{
		devices:  devices,
		profiles: profiles,
		log:      log.WithField("component", "notification_handler"),
	}
}

// POST /api/v1/devices - register a push token for medal notifications
func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, ok := currentProfile(ctx, w, h.profiles)
	if !ok {
		return
	}

	var req notification.RegisterDeviceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.devices.RegisterDevice(ctx, p.ID, req.Token, req.Platform); err != nil {
		h.log.WithError(err).Error("Failed to register device")
		respondWithError(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device registered successfully"})
}

// DELETE /api/v1/devices?token=...
func (h *NotificationHandler) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, ok := currentProfile(ctx, w, h.profiles)
	if !ok {
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'token' is required")
		return
	}

	if err := h.devices.UnregisterDevice(ctx, p.ID, token); err != nil {
		h.log.WithError(err).Error("Failed to unregister device")
		respondWithError(w, http.StatusInternalServerError, "Failed to unregister device")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device removed"})
}
