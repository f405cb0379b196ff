package runtime

import (
	"chat-relay/domain"
	"chat-relay/mocks"
	"chat-relay/observability"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMessage(sender, receiver domain.UserID, content string) domain.Message {
	return domain.Message{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestDispatcher_Delivers_Once_To_Live_Receiver(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	bobSink := mocks.NewMockEventSink(f.ctrl)
	message := newMessage("alice", "bob", "hi")

	// Given bob is online on c2
	f.registry.Register("bob", "c2")
	f.connections.Attach("c2", bobSink)

	// Then bob's sink gets the message exactly once
	bobSink.EXPECT().Consume(gomock.Any(), domain.Delivery{Message: message}).Return(nil).Times(1)

	req.True(f.dispatcher.Dispatch(ctx, message))
	req.Equal(float64(1), testutil.ToFloat64(f.metrics.Deliveries.WithLabelValues(observability.DeliveryLive)))
}

func TestDispatcher_Offline_Receiver_Is_Noop(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	aliceSink := mocks.NewMockEventSink(f.ctrl)

	f.registry.Register("alice", "c1")
	f.connections.Attach("c1", aliceSink)
	aliceSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Times(0)

	req.False(f.dispatcher.Dispatch(context.Background(), newMessage("alice", "bob", "hi")))
	req.Equal(float64(1), testutil.ToFloat64(f.metrics.Deliveries.WithLabelValues(observability.DeliveryOffline)))
}

func TestDispatcher_Registered_Without_Sink_Counts_As_Offline(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	f.registry.Register("bob", "c2")

	req.False(f.dispatcher.Dispatch(context.Background(), newMessage("alice", "bob", "hi")))
	req.Equal(float64(1), testutil.ToFloat64(f.metrics.Deliveries.WithLabelValues(observability.DeliveryOffline)))
}

func TestDispatcher_Sink_Failure_Is_Dropped(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	bobSink := mocks.NewMockEventSink(f.ctrl)

	f.registry.Register("bob", "c2")
	f.connections.Attach("c2", bobSink)
	bobSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(fmt.Errorf("send buffer full")).Times(1)

	req.False(f.dispatcher.Dispatch(context.Background(), newMessage("alice", "bob", "hi")))
	req.Equal(float64(1), testutil.ToFloat64(f.metrics.Deliveries.WithLabelValues(observability.DeliveryDropped)))
}

func TestDispatcher_Delivers_To_Latest_Connection_Only(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	oldSink := mocks.NewMockEventSink(f.ctrl)
	newSink := mocks.NewMockEventSink(f.ctrl)

	// Given bob logged in twice
	f.registry.Register("bob", "c2")
	f.connections.Attach("c2", oldSink)
	f.registry.Register("bob", "c3")
	f.connections.Attach("c3", newSink)

	oldSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Times(0)
	newSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	req.True(f.dispatcher.Dispatch(context.Background(), newMessage("alice", "bob", "hi")))
}
