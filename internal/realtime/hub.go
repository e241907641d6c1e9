// internal/realtime/hub.go
package realtime

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingPeriod     = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Authenticator resolves a bearer token to the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// Hub tracks live connections per user. A user may hold several connections
// (one per open client); each receives every delta for that user.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	log     *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		log:     log,
	}
}

// Publish encodes d and queues it on every connection of userID.
func (h *Hub) Publish(userID uuid.UUID, d Delta) {
	data, err := Encode(d)
	if err != nil {
		h.log.Errorw("Failed to encode delta", "topic", d.Topic, "op", d.Op, "error", err)
		return
	}
	h.SendToUser(userID, data)
}

// SendToUser queues message on each of the user's connections and reports how
// many accepted it. A connection whose buffer is full is dropped.
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) int {
	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.send <- message:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warnw("Dropping slow realtime client", "user_id", userID)
		h.unregister(c)
	}
	return delivered
}

// Disconnect closes every connection held by userID. Used on sign-out.
func (h *Hub) Disconnect(userID uuid.UUID) {
	h.mu.RLock()
	var conns []*Client
	for c := range h.clients[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.unregister(c)
	}
}

// ClientCount returns the number of open connections across all users.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// ActiveUsers lists users with at least one open connection.
func (h *Hub) ActiveUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]uuid.UUID, 0, len(h.clients))
	for id := range h.clients {
		users = append(users, id)
	}
	return users
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

// unregister is idempotent; the send channel is closed exactly once, which
// makes the write pump send a close frame and exit.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// ServeWS upgrades authenticated requests. The token is read from the token
// query parameter or a bearer Authorization header.
func (h *Hub) ServeWS(auth Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if token == "" {
			http.Error(w, "token required", http.StatusUnauthorized)
			return
		}

		userID, err := auth.Authenticate(r.Context(), token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Errorw("WebSocket upgrade failed", "error", err)
			return
		}

		client := &Client{
			userID:      userID,
			conn:        conn,
			send:        make(chan []byte, sendBuffer),
			hub:         h,
			connectedAt: time.Now(),
		}
		h.register(client)
		h.log.Infow("Realtime client connected", "user_id", userID)

		go client.writePump()
		go client.readPump()
	}
}
