//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"context"
	"chat-relay/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	userPrefix     = "user:"
	usernamePrefix = "username:"
)

type IUserRepository interface {
	CreateUser(username, hashedPassword string) (domain.UserID, error)
	GetUserByUsername(username string) (domain.User, error)
	GetUser(id domain.UserID) (domain.User, error)
	ListUsers() ([]domain.User, error)
	SetStatus(ctx context.Context, id domain.UserID, status domain.Status) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// DiskUser is the stored form of an account.
type DiskUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Status       string `json:"status"`
	CreatedAt    int64  `json:"created_at"`
}

// CreateUser persists a new offline account and returns its generated ID.
// The username index "username:{name}" makes usernames unique.
func (u UserRepository) CreateUser(username, hashedPassword string) (domain.UserID, error) {
	newID := uuid.New().String()
	data, err := json.Marshal(DiskUser{
		ID:           newID,
		Username:     username,
		PasswordHash: hashedPassword,
		Status:       string(domain.StatusOffline),
		CreatedAt:    time.Now().UTC().UnixNano(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		// 1. Reserve the username, badger's conflict detection covers concurrent registrations
		indexKey := []byte(usernamePrefix + username)
		if _, err := txn.Get(indexKey); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(indexKey, []byte(newID)); err != nil {
			return err
		}
		// 2. Store the account itself
		return txn.Set([]byte(userPrefix+newID), data)
	})
	if err != nil {
		return "", err
	}
	return domain.UserID(newID), nil
}

func (u UserRepository) GetUserByUsername(username string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(usernamePrefix + username))
		if err != nil {
			return notFound(err, "username %q", username)
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		user, err = readUser(txn, domain.UserID(id))
		return err
	})
	return user, err
}

func (u UserRepository) GetUser(id domain.UserID) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) (err error) {
		user, err = readUser(txn, id)
		return err
	})
	return user, err
}

// ListUsers returns every account ordered by username.
func (u UserRepository) ListUsers() ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte(userPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				user, err := decodeUser(val)
				if err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// SetStatus overwrites the durable presence flag of an account.
// Nothing is written once ctx is done.
func (u UserRepository) SetStatus(ctx context.Context, id domain.UserID, status domain.Status) error {
	return u.db.Update(func(txn *badger.Txn) error {
		user, err := readUser(txn, id)
		if err != nil {
			return err
		}
		// Same value: leave the record alone
		if user.Status == status {
			return nil
		}
		user.Status = status
		data, err := json.Marshal(fromUser(user))
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		if err := txn.Set([]byte(userPrefix+string(id)), data); err != nil {
			return err
		}
		// Last chance to give up: an error here discards the transaction
		return claimCommit(ctx)
	})
}

func readUser(txn *badger.Txn, id domain.UserID) (domain.User, error) {
	item, err := txn.Get([]byte(userPrefix + string(id)))
	if err != nil {
		return domain.User{}, notFound(err, "user %s", id)
	}
	var user domain.User
	err = item.Value(func(val []byte) error {
		user, err = decodeUser(val)
		return err
	})
	return user, err
}

func decodeUser(val []byte) (domain.User, error) {
	var disk DiskUser
	if err := json.Unmarshal(val, &disk); err != nil {
		return domain.User{}, fmt.Errorf("unmarshal failed: %w", err)
	}
	return toUser(disk), nil
}

func fromUser(user domain.User) DiskUser {
	return DiskUser{
		ID:           string(user.ID),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Status:       string(user.Status),
		CreatedAt:    user.CreatedAt.UnixNano(),
	}
}

func toUser(disk DiskUser) domain.User {
	return domain.User{
		ID:           domain.UserID(disk.ID),
		Username:     disk.Username,
		PasswordHash: disk.PasswordHash,
		Status:       domain.Status(disk.Status),
		CreatedAt:    time.Unix(0, disk.CreatedAt).UTC(),
	}
}

// notFound translates a missing badger key into errors.ErrNotFound.
func notFound(err error, format string, args ...any) error {
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", errors.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}
