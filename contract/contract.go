//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
)

// EventSink is the outbound side of one live connection.
// Consume must not block: a sink that cannot accept the event returns an error.
type EventSink interface {
	Consume(ctx context.Context, e domain.Event) error
}

// IMessageStore is the durable side of the chat: accounts, statuses and messages.
// Every call honours ctx; an expired context is reported as errors.ErrPersistence.
type IMessageStore interface {
	CreateMessage(ctx context.Context, senderID, receiverID domain.UserID, content string) (domain.Message, error)
	ListMessagesFor(ctx context.Context, userID domain.UserID) ([]domain.MessageView, error)
	ListUnreadFor(ctx context.Context, userID domain.UserID) ([]domain.MessageView, error)
	GetMessage(ctx context.Context, messageID string) (domain.Message, error)
	MarkRead(ctx context.Context, messageID string) (domain.Message, error)
	SetUserStatus(ctx context.Context, userID domain.UserID, status domain.Status) error
	ListUsers(ctx context.Context) ([]domain.UserSummary, error)
}
