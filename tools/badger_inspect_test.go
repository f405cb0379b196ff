package main

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/repositories"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPrintUsersAndMessages(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	users := repositories.NewUserRepository(db)
	alice, err := users.CreateUser("alice", "hash")
	req.NoError(err)
	bob, err := users.CreateUser("bob", "hash")
	req.NoError(err)

	messages := repositories.NewMessageRepository(db)
	req.NoError(messages.StoreMessage(context.Background(), domain.Message{
		ID:         uuid.New(),
		SenderID:   alice,
		ReceiverID: bob,
		Content:    strings.Repeat("long ", 20),
		CreatedAt:  time.Now().UTC(),
	}))

	var out bytes.Buffer
	req.NoError(printUsers(&out, users))
	req.Contains(out.String(), "alice")
	req.Contains(out.String(), "offline")

	out.Reset()
	req.NoError(printMessages(&out, messages, bob))
	req.Contains(out.String(), string(alice))
	req.Contains(out.String(), "…")

	out.Reset()
	req.NoError(printMessages(&out, messages, alice))
	req.NotContains(out.String(), string(bob))
}
