package server

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/observability"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var errSendBufferFull = fmt.Errorf("send buffer full")
var errConnectionClosed = fmt.Errorf("connection closed")

// SocketClient is one websocket connection: a read pump turning frames into
// session events and a write pump draining the outbound buffer.
type SocketClient struct {
	log      *slog.Logger
	conn     *websocket.Conn
	handle   domain.ConnectionID
	identity domain.UserID
	sessions contract.ISessionHandler
	metrics  *observability.Metrics
	limiter  *rate.Limiter

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newSocketClient(log *slog.Logger, conn *websocket.Conn, handle domain.ConnectionID, identity domain.UserID,
	sessions contract.ISessionHandler, metrics *observability.Metrics, cfg SocketConfig) *SocketClient {
	conn.SetReadLimit(cfg.MaxMessageSize)
	return &SocketClient{
		log:      log.With("connection_id", handle, "user_id", identity, "remote_addr", conn.RemoteAddr().String()),
		conn:     conn,
		handle:   handle,
		identity: identity,
		sessions: sessions,
		metrics:  metrics,
		limiter:  rate.NewLimiter(rate.Every(cfg.RateLimitInterval), cfg.RateLimitBurst),
		send:     make(chan []byte, cfg.BufferSize),
	}
}

// Consume queues an outbound event without blocking. A full buffer or a
// closed connection drops the event.
func (c *SocketClient) Consume(_ context.Context, e domain.Event) error {
	frame, err := encodeEvent(e)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnectionClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return errSendBufferFull
	}
}

// readPump blocks until the connection fails, then reports the disconnect.
func (c *SocketClient) readPump(ctx context.Context) {
	defer func() {
		c.sessions.Disconnect(context.WithoutCancel(ctx), c.handle)
		c.closeSend()
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if !c.limiter.Allow() {
			c.metrics.DroppedEvents.WithLabelValues("rate_limited").Inc()
			c.log.Warn("Rate limit exceeded, discarding frame")
			continue
		}
		c.handleFrame(ctx, raw)
	}
}

// handleFrame never fails the connection: invalid frames are logged and dropped.
// A connection only speaks for the user its token was issued to; blank ids
// are left to the session handler, which drops them as incomplete.
func (c *SocketClient) handleFrame(ctx context.Context, raw []byte) {
	envelope, err := decodeEnvelope(raw)
	if err != nil {
		c.dropInvalid(err)
		return
	}

	switch envelope.Event {
	case EventUserOnline:
		userID, err := decodeUserID(envelope.Data)
		if err != nil {
			c.dropInvalid(err)
			return
		}
		if !userID.IsEmpty() && userID != c.identity {
			c.dropImpersonation(envelope.Event, userID)
			return
		}
		_ = c.sessions.Announce(ctx, c.handle, userID)
	case EventSendMessage:
		cmd, err := decodeSendCommand(envelope.Data)
		if err != nil {
			c.dropInvalid(err)
			return
		}
		if !cmd.SenderID.IsEmpty() && cmd.SenderID != c.identity {
			c.dropImpersonation(envelope.Event, cmd.SenderID)
			return
		}
		_ = c.sessions.Send(ctx, c.handle, cmd)
	default:
		c.metrics.DroppedEvents.WithLabelValues("unknown_event").Inc()
		c.log.Debug("Unknown event ignored", "event", envelope.Event)
	}
}

func (c *SocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logWriteError(err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logWriteError(err)
				return
			}
		}
	}
}

// close ends the connection from the server side; the read pump then
// reports the disconnect.
func (c *SocketClient) close() {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(writeWait))
	_ = c.conn.Close()
}

func (c *SocketClient) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *SocketClient) dropInvalid(err error) {
	c.metrics.DroppedEvents.WithLabelValues("invalid_payload").Inc()
	c.log.Warn("Invalid frame dropped", "error", err)
}

func (c *SocketClient) dropImpersonation(event string, claimed domain.UserID) {
	c.metrics.DroppedEvents.WithLabelValues("identity_mismatch").Inc()
	c.log.Warn("Event for another user dropped", "event", event, "claimed_user_id", claimed)
}

func (c *SocketClient) logReadError(err error) {
	switch {
	case stderrors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Frame exceeded maximum size, closing connection")
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway),
		stderrors.Is(err, io.EOF), isExpectedCloseError(err):
		c.log.Debug("Client disconnected", "error", err)
	default:
		c.log.Warn("Websocket read error", "error", err)
	}
}

func (c *SocketClient) logWriteError(err error) {
	if isExpectedCloseError(err) {
		return
	}
	c.log.Warn("Websocket write error", "error", err)
}

func isExpectedCloseError(err error) bool {
	return stderrors.Is(err, net.ErrClosed) || stderrors.Is(err, websocket.ErrCloseSent)
}
