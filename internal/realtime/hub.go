// Package realtime pushes challenge progress changes to connected clients.
// The hub owns the client set; every mutation goes through its Run loop.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/metrics"
	"greenMuensterAPI/internal/types/notification"
)

const EventProgressUpdated = "user_challenge_updated"

type Message struct {
	Type    string                     `json:"type"`
	Payload notification.ProgressEvent `json:"payload"`
}

type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	publish    chan notification.ProgressEvent
	count      chan chan int
	done       chan struct{}
	log        *logrus.Entry
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan notification.ProgressEvent, 256),
		count:      make(chan chan int),
		done:       make(chan struct{}),
		log:        log.WithField("component", "realtime_hub"),
	}
}

// Run serves the hub until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					h.drop(c)
				}
			}
			return

		case c := <-h.register:
			set, ok := h.clients[c.UserID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[c.UserID] = set
			}
			set[c] = true
			metrics.ClientConnected()
			h.log.WithField("user_id", c.UserID).Debug("Client connected")

		case c := <-h.unregister:
			if set, ok := h.clients[c.UserID]; ok && set[c] {
				h.drop(c)
			}

		case event := <-h.publish:
			set := h.clients[event.UserID]
			if len(set) == 0 {
				continue
			}

			data, err := json.Marshal(Message{Type: EventProgressUpdated, Payload: event})
			if err != nil {
				h.log.WithError(err).Error("Failed to encode progress event")
				continue
			}

			for c := range set {
				select {
				case c.send <- data:
				default:
					// slow consumer
					h.drop(c)
				}
			}

		case reply := <-h.count:
			n := 0
			for _, set := range h.clients {
				n += len(set)
			}
			reply <- n
		}
	}
}

func (h *Hub) drop(c *Client) {
	set := h.clients[c.UserID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.send)
	metrics.ClientDisconnected()
}

// Publish hands an event to the hub. Events are dropped when the hub is
// backed up; the client state is refetched on reconnect anyway.
func (h *Hub) Publish(event notification.ProgressEvent) {
	select {
	case h.publish <- event:
	default:
		h.log.WithField("user_id", event.UserID).Warn("Realtime queue full, dropping event")
	}
}

// Register reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount is mostly useful in tests. It returns 0 once the hub has
// stopped.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}
