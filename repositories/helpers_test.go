package repositories

import (
	"chat-relay/domain"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestGateway(t *testing.T) (*Gateway, IUserRepository) {
	db := openDB(t)
	users := NewUserRepository(db)
	return NewGateway(logs.GetLoggerFromLevel(slog.LevelDebug), users, NewMessageRepository(db)), users
}

// slowUsers delays the wrapped repository and reports the outcome of status writes.
type slowUsers struct {
	IUserRepository
	getDelay time.Duration
	setDelay time.Duration
	written  chan error
}

func (s *slowUsers) GetUser(id domain.UserID) (domain.User, error) {
	time.Sleep(s.getDelay)
	return s.IUserRepository.GetUser(id)
}

func (s *slowUsers) SetStatus(ctx context.Context, id domain.UserID, status domain.Status) error {
	time.Sleep(s.setDelay)
	err := s.IUserRepository.SetStatus(ctx, id, status)
	if s.written != nil {
		s.written <- err
	}
	return err
}

type recordingMessages struct {
	IMessageRepository
	stored chan error
}

func (r *recordingMessages) StoreMessage(ctx context.Context, message domain.Message) error {
	err := r.IMessageRepository.StoreMessage(ctx, message)
	r.stored <- err
	return err
}
