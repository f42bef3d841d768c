package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/types/clerk"
	"greenMuensterAPI/internal/types/profile"
	"greenMuensterAPI/services"
)

const (
	maxWebhookBody      = int64(65536)
	webhookTolerance    = 5 * time.Minute
	webhookSecretPrefix = "whsec_"
)

var errInvalidSignature = errors.New("invalid webhook signature")

type ProfileLifecycle interface {
	CreateOrUpdate(ctx context.Context, req *profile.CreateProfileRequest) (*profile.Profile, error)
	Update(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error)
	Delete(ctx context.Context, clerkID string) error
}

type WebhookHandler struct {
	profiles ProfileLifecycle
	secret   string
	log      *logrus.Entry
	now      func() time.Time
}

// NewWebhookHandler verifies svix signatures with secret. An empty secret
// turns verification off, which is only meant for local development.
func NewWebhookHandler(profiles ProfileLifecycle, secret string, log *logrus.Entry) *WebhookHandler {
	return &WebhookHandler{
		profiles: profiles,
		secret:   secret,
		log:      log.WithField("component", "clerk_webhook"),
		now:      time.Now,
	}
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.log.WithError(err).Warn("Error reading webhook body")
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if err := h.verifySignature(r.Header, body); err != nil {
		h.log.WithError(err).Warn("Rejected webhook")
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event clerk.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	log := h.log.WithField("event", event.Type)

	switch event.Type {
	case clerk.EventUserCreated:
		err = h.handleUserCreated(ctx, event.Data)
	case clerk.EventUserUpdated:
		err = h.handleUserUpdated(ctx, event.Data)
	case clerk.EventUserDeleted:
		err = h.handleUserDeleted(ctx, event.Data)
	default:
		log.Debug("Ignoring webhook event")
	}

	if err != nil {
		log.WithError(err).Error("Error handling webhook")
		respondWithError(w, http.StatusInternalServerError, "Error processing webhook")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) handleUserCreated(ctx context.Context, data json.RawMessage) error {
	var userData clerk.UserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	if userData.ID == "" {
		return errors.New("user data without id")
	}

	_, err := h.profiles.CreateOrUpdate(ctx, &profile.CreateProfileRequest{
		ClerkID:   userData.ID,
		Username:  userData.Username,
		FullName:  userData.FullName(),
		AvatarURL: userData.Avatar(),
	})
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// handleUserUpdated only overwrites the fields Clerk sent. A user whose
// created event was lost gets a profile here.
func (h *WebhookHandler) handleUserUpdated(ctx context.Context, data json.RawMessage) error {
	var userData clerk.UserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	_, err := h.profiles.Update(ctx, userData.ID, &profile.UpdateProfileRequest{
		Username:  userData.Username,
		FullName:  userData.FullName(),
		AvatarURL: userData.Avatar(),
	})
	if errors.Is(err, services.ErrProfileNotFound) {
		return h.handleUserCreated(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData clerk.DeletedData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	err := h.profiles.Delete(ctx, userData.ID)
	if err != nil && !errors.Is(err, services.ErrProfileNotFound) {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// verifySignature checks the svix headers: the signed content is
// "id.timestamp.body", keyed with the base64 part of the whsec_ secret,
// and svix-signature holds space separated "v1,<base64>" candidates.
func (h *WebhookHandler) verifySignature(header http.Header, body []byte) error {
	if h.secret == "" {
		return nil
	}

	svixID := header.Get("svix-id")
	svixTimestamp := header.Get("svix-timestamp")
	svixSignature := header.Get("svix-signature")
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		return fmt.Errorf("missing signature headers: %w", errInvalidSignature)
	}

	ts, err := strconv.ParseInt(svixTimestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("bad timestamp: %w", errInvalidSignature)
	}
	if age := h.now().Sub(time.Unix(ts, 0)); age > webhookTolerance || age < -webhookTolerance {
		return fmt.Errorf("timestamp outside tolerance: %w", errInvalidSignature)
	}

	expected, err := signWebhook(h.secret, svixID, svixTimestamp, body)
	if err != nil {
		return err
	}

	for _, candidate := range strings.Fields(svixSignature) {
		version, sig, ok := strings.Cut(candidate, ",")
		if !ok || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return errInvalidSignature
}

func signWebhook(secret, id, timestamp string, body []byte) (string, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, webhookSecretPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode webhook secret: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
