package services

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"time"
)

type IChatService interface {
	ListUsers(ctx context.Context) ([]domain.UserSummary, error)
	PostMessage(ctx context.Context, senderID domain.UserID, req auth.PostMessageRequest) (domain.Message, error)
	ListMessages(ctx context.Context, userID domain.UserID) ([]domain.MessageView, error)
	ListUnread(ctx context.Context, userID domain.UserID) ([]domain.MessageView, error)
	MarkRead(ctx context.Context, readerID domain.UserID, messageID string) (domain.Message, error)
}

// ChatService backs the REST API with the message store.
// Messages posted here are stored only, live pushes belong to the socket path.
type ChatService struct {
	store        contract.IMessageStore
	storeTimeout time.Duration
}

func NewChatService(store contract.IMessageStore, storeTimeout time.Duration) *ChatService {
	return &ChatService{store: store, storeTimeout: storeTimeout}
}

func (s *ChatService) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.ListUsers(ctx)
}

func (s *ChatService) PostMessage(ctx context.Context, senderID domain.UserID, req auth.PostMessageRequest) (domain.Message, error) {
	if err := auth.ValidatePostMessage(req); err != nil {
		return domain.Message{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.CreateMessage(ctx, senderID, domain.UserID(req.ReceiverID), req.Content)
}

func (s *ChatService) ListMessages(ctx context.Context, userID domain.UserID) ([]domain.MessageView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.ListMessagesFor(ctx, userID)
}

func (s *ChatService) ListUnread(ctx context.Context, userID domain.UserID) ([]domain.MessageView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.ListUnreadFor(ctx, userID)
}

// MarkRead only lets the receiver acknowledge a message; for anyone else the
// message does not exist.
func (s *ChatService) MarkRead(ctx context.Context, readerID domain.UserID, messageID string) (domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	message, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if message.ReceiverID != readerID {
		return domain.Message{}, fmt.Errorf("%w: message %s", errors.ErrNotFound, messageID)
	}
	return s.store.MarkRead(ctx, messageID)
}
