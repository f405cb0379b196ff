package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Gateway is the badger-backed message store used by the chat runtime.
// Every operation is bounded by its context and backend failures surface as
// errors.ErrPersistence.
type Gateway struct {
	log      *slog.Logger
	users    IUserRepository
	messages IMessageRepository

	clockMu  sync.Mutex
	lastTime time.Time
	now      func() time.Time
}

var _ contract.IMessageStore = (*Gateway)(nil)

func NewGateway(log *slog.Logger, users IUserRepository, messages IMessageRepository) *Gateway {
	return &Gateway{log: log, users: users, messages: messages, now: time.Now}
}

func (g *Gateway) CreateMessage(ctx context.Context, senderID, receiverID domain.UserID, content string) (domain.Message, error) {
	if senderID.IsEmpty() || receiverID.IsEmpty() || strings.TrimSpace(content) == "" {
		return domain.Message{}, fmt.Errorf("%w: sender, receiver and content are required", errors.ErrValidation)
	}
	return bounded(ctx, func(ctx context.Context) (domain.Message, error) {
		// Both accounts must exist before anything is written
		for _, id := range []domain.UserID{senderID, receiverID} {
			if _, err := g.users.GetUser(id); err != nil {
				return domain.Message{}, persistence(err)
			}
		}
		message := domain.Message{
			ID:         uuid.New(),
			SenderID:   senderID,
			ReceiverID: receiverID,
			Content:    content,
			IsRead:     false,
			CreatedAt:  g.tick(),
		}
		if err := g.messages.StoreMessage(ctx, message); err != nil {
			return domain.Message{}, persistence(err)
		}
		g.log.Debug("Message stored", "message_id", message.ID, "sender_id", senderID, "receiver_id", receiverID)
		return message, nil
	})
}

func (g *Gateway) ListMessagesFor(ctx context.Context, userID domain.UserID) ([]domain.MessageView, error) {
	return bounded(ctx, func(context.Context) ([]domain.MessageView, error) {
		messages, err := g.messages.ListInvolving(userID)
		if err != nil {
			return nil, persistence(err)
		}
		return g.views(messages)
	})
}

func (g *Gateway) ListUnreadFor(ctx context.Context, userID domain.UserID) ([]domain.MessageView, error) {
	return bounded(ctx, func(context.Context) ([]domain.MessageView, error) {
		messages, err := g.messages.ListUnread(userID)
		if err != nil {
			return nil, persistence(err)
		}
		return g.views(messages)
	})
}

func (g *Gateway) GetMessage(ctx context.Context, messageID string) (domain.Message, error) {
	id, err := parseMessageID(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	return bounded(ctx, func(context.Context) (domain.Message, error) {
		message, err := g.messages.GetMessage(id)
		return message, persistence(err)
	})
}

// MarkRead is idempotent.
func (g *Gateway) MarkRead(ctx context.Context, messageID string) (domain.Message, error) {
	id, err := parseMessageID(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	return bounded(ctx, func(ctx context.Context) (domain.Message, error) {
		message, err := g.messages.MarkRead(ctx, id)
		return message, persistence(err)
	})
}

// parseMessageID rejects malformed ids as missing: they cannot exist in the store.
func parseMessageID(messageID string) (uuid.UUID, error) {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: message %q", errors.ErrNotFound, messageID)
	}
	return id, nil
}

func (g *Gateway) SetUserStatus(ctx context.Context, userID domain.UserID, status domain.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", errors.ErrValidation, status)
	}
	_, err := bounded(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, persistence(g.users.SetStatus(ctx, userID, status))
	})
	return err
}

func (g *Gateway) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	return bounded(ctx, func(context.Context) ([]domain.UserSummary, error) {
		users, err := g.users.ListUsers()
		if err != nil {
			return nil, persistence(err)
		}
		return lo.Map(users, func(u domain.User, _ int) domain.UserSummary {
			return u.Summary()
		}), nil
	})
}

// views attaches sender and receiver display names, loading each account once.
// An account that disappeared is shown with its id only rather than failing
// the whole listing.
func (g *Gateway) views(messages []domain.Message) ([]domain.MessageView, error) {
	parties := make(map[domain.UserID]domain.Party)
	party := func(id domain.UserID) (domain.Party, error) {
		if p, ok := parties[id]; ok {
			return p, nil
		}
		user, err := g.users.GetUser(id)
		switch {
		case stderrors.Is(err, errors.ErrNotFound):
			g.log.Warn("Message references a missing account", "user_id", id)
			user = domain.User{ID: id}
		case err != nil:
			return domain.Party{}, persistence(err)
		}
		p := domain.Party{ID: user.ID, Username: user.Username}
		parties[id] = p
		return p, nil
	}

	views := make([]domain.MessageView, 0, len(messages))
	for _, message := range messages {
		sender, err := party(message.SenderID)
		if err != nil {
			return nil, err
		}
		receiver, err := party(message.ReceiverID)
		if err != nil {
			return nil, err
		}
		views = append(views, domain.MessageView{Message: message, Sender: sender, Receiver: receiver})
	}
	return views, nil
}

// tick returns a strictly increasing creation time so that messages keep their
// submission order in the time-ordered indexes.
func (g *Gateway) tick() time.Time {
	g.clockMu.Lock()
	defer g.clockMu.Unlock()
	now := g.now().UTC()
	if !now.After(g.lastTime) {
		now = g.lastTime.Add(time.Nanosecond)
	}
	g.lastTime = now
	return now
}

// bounded runs op and gives up when ctx ends first.
// Badger transactions are not interruptible, so op keeps running in the
// background; the commit gate it receives through its context guarantees that
// a write reported as failed never lands afterwards.
func bounded[T any](ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	type result struct {
		value T
		err   error
	}
	gate := &commitGate{}
	opCtx := withGate(ctx, gate)
	done := make(chan result, 1)
	go func() {
		value, err := op(opCtx)
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		if gate.abandon() {
			return zero, fmt.Errorf("%w: %v", errors.ErrPersistence, ctx.Err())
		}
		// The write is already committing: report what really happened
		r := <-done
		return r.value, r.err
	}
}

// persistence keeps domain errors as they are and wraps everything else.
func persistence(err error) error {
	switch {
	case err == nil,
		stderrors.Is(err, errors.ErrNotFound),
		stderrors.Is(err, errors.ErrValidation),
		stderrors.Is(err, errors.ErrUserAlreadyExists),
		stderrors.Is(err, errors.ErrPersistence):
		return err
	default:
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
}
