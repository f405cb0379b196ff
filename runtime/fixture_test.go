package runtime

import (
	"chat-relay/domain"
	"chat-relay/mocks"
	"chat-relay/observability"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"go.uber.org/mock/gomock"
)

const testStoreTimeout = 200 * time.Millisecond

type fixture struct {
	ctrl        *gomock.Controller
	store       *mocks.MockIMessageStore
	registry    *Registry
	connections *Connections
	metrics     *observability.Metrics
	presence    *PresenceManager
	dispatcher  *Dispatcher
	handler     *SessionHandler
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := mocks.NewMockIMessageStore(ctrl)
	registry := NewRegistry()
	connections := NewConnections()
	metrics := observability.NewMetrics()
	presence := NewPresenceManager(log, registry, store, metrics, testStoreTimeout)
	dispatcher := NewDispatcher(log, registry, connections, metrics)
	handler := NewSessionHandler(log, presence, store, dispatcher, connections, metrics, testStoreTimeout)
	return fixture{
		ctrl:        ctrl,
		store:       store,
		registry:    registry,
		connections: connections,
		metrics:     metrics,
		presence:    presence,
		dispatcher:  dispatcher,
		handler:     handler,
	}
}

// storedMessage mimics the store: it stamps an id and a creation time.
func storedMessage(_ context.Context, sender, receiver domain.UserID, content string) (domain.Message, error) {
	return domain.Message{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		IsRead:     false,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
