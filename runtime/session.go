package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type session struct {
	state domain.SessionState
	user  domain.UserID
}

// SessionHandler sequences the lifecycle events of every live connection:
// connect, announce, send and disconnect.
//
// Each connection is driven by a single goroutine (its read pump), so events of one
// connection arrive in order. Events of different connections run concurrently.
// Invalid events are dropped and logged, they never close the connection.
type SessionHandler struct {
	mu           sync.Mutex
	log          *slog.Logger
	sessions     map[domain.ConnectionID]*session
	presence     contract.IPresenceManager
	store        contract.IMessageStore
	dispatcher   contract.IDispatcher
	connections  contract.IConnections
	metrics      *observability.Metrics
	storeTimeout time.Duration
}

func NewSessionHandler(log *slog.Logger, presence contract.IPresenceManager, store contract.IMessageStore,
	dispatcher contract.IDispatcher, connections contract.IConnections,
	metrics *observability.Metrics, storeTimeout time.Duration) *SessionHandler {
	return &SessionHandler{
		log:          log,
		sessions:     make(map[domain.ConnectionID]*session),
		presence:     presence,
		store:        store,
		dispatcher:   dispatcher,
		connections:  connections,
		metrics:      metrics,
		storeTimeout: storeTimeout,
	}
}

// Connect opens an anonymous session for a freshly accepted connection.
func (h *SessionHandler) Connect(handle domain.ConnectionID, sink contract.EventSink) {
	h.mu.Lock()
	h.sessions[handle] = &session{state: domain.SessionAnonymous}
	h.mu.Unlock()

	h.connections.Attach(handle, sink)
	h.metrics.ActiveConnections.Set(float64(h.connections.Len()))
	h.log.Debug("Connection opened", "connection_id", handle)
}

// Announce binds the connection to a user and marks the user online.
// It walks the session through three checks:
// 1. The announce names a user.
// 2. The connection is still open (connected and not yet disconnected).
// 3. An identified connection only re-announces the same user.
//
// Re-announcing the same user registers the connection again, taking the
// entry back from a newer login.
func (h *SessionHandler) Announce(ctx context.Context, handle domain.ConnectionID, user domain.UserID) error {
	if user.IsEmpty() {
		return h.drop(handle, "empty_user", fmt.Errorf("%w: announce without user", errors.ErrValidation))
	}

	h.mu.Lock()
	s, ok := h.sessions[handle]
	if !ok {
		h.mu.Unlock()
		return h.drop(handle, "unknown_connection", fmt.Errorf("%w: announce on unknown connection", errors.ErrStaleSession))
	}
	if s.state == domain.SessionIdentified && s.user != user {
		h.mu.Unlock()
		return h.drop(handle, "identity_change", fmt.Errorf("%w: connection already bound to %s", errors.ErrStaleSession, s.user))
	}
	s.state = domain.SessionIdentified
	s.user = user
	h.mu.Unlock()

	// Presence is updated outside the lock: it talks to the store
	h.presence.MarkOnline(ctx, user, handle)
	return nil
}

// Send persists the message then hands it to the dispatcher.
// A persistence failure is logged and the message is dropped; the sender is not notified.
func (h *SessionHandler) Send(ctx context.Context, handle domain.ConnectionID, cmd domain.SendCommand) error {
	if !cmd.Complete() {
		return h.drop(handle, "incomplete_message", fmt.Errorf("%w: senderId, receiverId and content are required", errors.ErrValidation))
	}
	if !h.isOpen(handle) {
		return h.drop(handle, "unknown_connection", fmt.Errorf("%w: send on unknown connection", errors.ErrStaleSession))
	}

	// 1. Persist first: only a stored message may reach the receiver
	message, err := h.createMessage(ctx, cmd)
	if err != nil {
		h.metrics.PersistenceFailures.WithLabelValues("create_message").Inc()
		h.log.Error("Failed to store message",
			"connection_id", handle,
			"sender_id", cmd.SenderID,
			"receiver_id", cmd.ReceiverID,
			"error", err)
		return err
	}
	h.metrics.MessagesPersisted.Inc()

	// 2. Best-effort live push, the outcome does not concern the sender
	h.dispatcher.Dispatch(ctx, message)
	return nil
}

// Disconnect closes the session for good and marks its user offline when the
// connection was still the one on record.
func (h *SessionHandler) Disconnect(ctx context.Context, handle domain.ConnectionID) {
	h.mu.Lock()
	_, ok := h.sessions[handle]
	delete(h.sessions, handle)
	h.mu.Unlock()

	if !ok {
		h.log.Debug("Disconnect for unknown connection", "connection_id", handle)
		return
	}

	// Stop pushing to the dead sink before touching presence
	h.connections.Detach(handle)
	h.metrics.ActiveConnections.Set(float64(h.connections.Len()))
	h.presence.MarkOffline(ctx, handle)
	h.log.Debug("Connection closed", "connection_id", handle)
}

// State returns the lifecycle state of a connection; forgotten handles are closed.
func (h *SessionHandler) State(handle domain.ConnectionID) domain.SessionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[handle]; ok {
		return s.state
	}
	return domain.SessionClosed
}

func (h *SessionHandler) createMessage(ctx context.Context, cmd domain.SendCommand) (domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, h.storeTimeout)
	defer cancel()
	return h.store.CreateMessage(ctx, cmd.SenderID, cmd.ReceiverID, cmd.Content)
}

func (h *SessionHandler) isOpen(handle domain.ConnectionID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sessions[handle]
	return ok
}

func (h *SessionHandler) drop(handle domain.ConnectionID, reason string, err error) error {
	h.metrics.DroppedEvents.WithLabelValues(reason).Inc()
	h.log.Warn("Session event dropped", "connection_id", handle, "reason", reason, "error", err)
	return err
}
