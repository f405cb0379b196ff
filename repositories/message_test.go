package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func message(sender, receiver domain.UserID, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		CreatedAt:  at,
	}
}

func Test_Record_Multiple_Message(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t))

	at := time.Now().UTC()
	messages := []domain.Message{
		message("alice", "bob", "first", at),
		message("bob", "alice", "second", at.Add(time.Minute)),
		message("alice", "carol", "third", at.Add(2*time.Minute)),
		message("carol", "dave", "unrelated", at.Add(3*time.Minute)),
	}
	for _, m := range messages {
		req.NoError(repository.StoreMessage(ctx, m))
	}

	// Newest first
	fetched, err := repository.ListInvolving("alice")
	req.NoError(err)
	req.Equal([]domain.Message{messages[2], messages[1], messages[0]}, fetched)

	all, err := repository.ListAll()
	req.NoError(err)
	req.Len(all, len(messages))
}

func Test_Unread_Index_And_Mark_Read(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t))

	at := time.Now().UTC()
	first := message("alice", "bob", "first", at)
	second := message("alice", "bob", "second", at.Add(time.Second))
	req.NoError(repository.StoreMessage(ctx, first))
	req.NoError(repository.StoreMessage(ctx, second))

	unread, err := repository.ListUnread("bob")
	req.NoError(err)
	req.Equal([]uuid.UUID{second.ID, first.ID}, lo.Map(unread, func(m domain.Message, _ int) uuid.UUID { return m.ID }))

	// Sender sees nothing unread
	unread, err = repository.ListUnread("alice")
	req.NoError(err)
	req.Empty(unread)

	read, err := repository.MarkRead(ctx, first.ID)
	req.NoError(err)
	req.True(read.IsRead)

	// Marking again keeps the same record
	again, err := repository.MarkRead(ctx, first.ID)
	req.NoError(err)
	req.Equal(read, again)

	unread, err = repository.ListUnread("bob")
	req.NoError(err)
	req.Len(unread, 1)
	req.Equal(second.ID, unread[0].ID)

	stored, err := repository.GetMessage(first.ID)
	req.NoError(err)
	req.True(stored.IsRead)
}

func Test_Mark_Unknown_Message(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t))

	_, err := repository.MarkRead(ctx, uuid.New())
	req.ErrorIs(err, errors.ErrNotFound)

	_, err = repository.GetMessage(uuid.New())
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Message_To_Self_Is_Listed_Once(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t))

	note := message("alice", "alice", "note to self", time.Now().UTC())
	req.NoError(repository.StoreMessage(ctx, note))

	fetched, err := repository.ListInvolving("alice")
	req.NoError(err)
	req.Len(fetched, 1)
}
