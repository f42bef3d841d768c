package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type RealtimeHandler struct {
	hub      *realtime.Hub
	profiles ProfileResolver
	log      *logrus.Entry
}

func NewRealtimeHandler(hub *realtime.Hub, profiles ProfileResolver, log *logrus.Entry) *RealtimeHandler {
	return &RealtimeHandler{
		hub:      hub,
		profiles: profiles,
		log:      log.WithField("component", "realtime_handler"),
	}
}

// SubscribeChallenges upgrades to a websocket that receives the caller's
// challenge progress changes.
func (h *RealtimeHandler) SubscribeChallenges(w http.ResponseWriter, r *http.Request) {
	p, ok := currentProfile(r.Context(), w, h.profiles)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.log.WithError(err).Warn("Could not upgrade connection")
		return
	}

	h.log.WithField("user_id", p.ID).Debug("Realtime client connected")
	realtime.NewClient(h.hub, conn, p.ID).Serve()
}
