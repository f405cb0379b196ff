package server

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/observability"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type SocketConfig struct {
	BufferSize        int
	MaxMessageSize    int64
	RateLimitBurst    int
	RateLimitInterval time.Duration
}

// SocketHandler upgrades GET /ws and runs one SocketClient per connection.
type SocketHandler struct {
	log      *slog.Logger
	upgrader websocket.Upgrader
	sessions contract.ISessionHandler
	metrics  *observability.Metrics
	cfg      SocketConfig

	mu      sync.Mutex
	clients map[domain.ConnectionID]*SocketClient
	closing bool
	active  sync.WaitGroup
}

func NewSocketHandler(log *slog.Logger, sessions contract.ISessionHandler, metrics *observability.Metrics,
	origins *OriginPolicy, cfg SocketConfig) *SocketHandler {
	return &SocketHandler{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.CheckOrigin,
		},
		sessions: sessions,
		metrics:  metrics,
		cfg:      cfg,
		clients:  make(map[domain.ConnectionID]*SocketClient),
	}
}

// ServeHTTP holds the request until the connection ends; the read pump runs
// on the request goroutine.
// The request must carry an authenticated user id (see auth.Middleware).
func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	// Counted before the upgrade so CloseAll never waits on a zero counter
	// while a new connection is being added.
	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	h.active.Add(1)
	h.mu.Unlock()
	defer h.active.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	handle := domain.NewConnectionID()
	client := newSocketClient(h.log, conn, handle, identity, h.sessions, h.metrics, h.cfg)

	h.mu.Lock()
	if h.closing {
		// CloseAll already took its snapshot
		h.mu.Unlock()
		client.close()
		return
	}
	h.clients[handle] = client
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, handle)
		h.mu.Unlock()
	}()

	h.sessions.Connect(handle, client)
	go client.writePump()
	client.readPump(r.Context())
}

// CloseAll closes every live connection and waits until each one has reported
// its disconnect. Hijacked connections are invisible to http.Server.Shutdown.
// New upgrades are refused from then on.
func (h *SocketHandler) CloseAll() {
	h.mu.Lock()
	h.closing = true
	clients := make([]*SocketClient, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.close()
	}
	h.active.Wait()
	if len(clients) > 0 {
		h.log.Info("Closed websocket connections", "count", len(clients))
	}
}
