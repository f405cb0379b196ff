package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Create_And_Get_User(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	id, err := repository.CreateUser("alice", "$argon2id$hash")
	req.NoError(err)
	req.False(id.IsEmpty())

	byName, err := repository.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal(id, byName.ID)
	req.Equal("$argon2id$hash", byName.PasswordHash)
	req.Equal(domain.StatusOffline, byName.Status)

	byID, err := repository.GetUser(id)
	req.NoError(err)
	req.Equal(byName, byID)
}

func Test_Create_User_Twice_Fails(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	_, err := repository.CreateUser("alice", "hash")
	req.NoError(err)

	_, err = repository.CreateUser("alice", "other")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Get_Unknown_User(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openDB(t))

	_, err := repository.GetUserByUsername("nobody")
	req.ErrorIs(err, errors.ErrNotFound)

	_, err = repository.GetUser("00000000-0000-0000-0000-000000000000")
	req.ErrorIs(err, errors.ErrNotFound)

	err = repository.SetStatus(ctx, "missing", domain.StatusOnline)
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Set_Status_And_List_Users(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openDB(t))

	bob, err := repository.CreateUser("bob", "hash")
	req.NoError(err)
	alice, err := repository.CreateUser("alice", "hash")
	req.NoError(err)

	req.NoError(repository.SetStatus(ctx, bob, domain.StatusOnline))

	users, err := repository.ListUsers()
	req.NoError(err)
	req.Len(users, 2)
	req.Equal(alice, users[0].ID)
	req.Equal(domain.StatusOffline, users[0].Status)
	req.Equal(bob, users[1].ID)
	req.Equal(domain.StatusOnline, users[1].Status)
}
