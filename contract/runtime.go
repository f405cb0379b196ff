package contract

import (
	"chat-relay/domain"
	"context"
)

// IRegistry maps each user to the single connection currently on record.
// The mapping is one-to-one in both directions: at most one handle per user
// and at most one user per handle.
type IRegistry interface {
	// Register overwrites the entry of user. When handle was bound to another
	// user, that user's entry is removed as well.
	Register(user domain.UserID, handle domain.ConnectionID)
	Lookup(user domain.UserID) (domain.ConnectionID, bool)
	Unregister(user domain.UserID, handle domain.ConnectionID) bool
	ResolveUserByHandle(handle domain.ConnectionID) (domain.UserID, bool)
	Release(handle domain.ConnectionID) (domain.UserID, bool)
	Len() int
}

// IConnections resolves a connection handle into the sink writing to it.
type IConnections interface {
	Attach(handle domain.ConnectionID, sink EventSink)
	Detach(handle domain.ConnectionID)
	Sink(handle domain.ConnectionID) (EventSink, bool)
	Len() int
}

type IPresenceManager interface {
	MarkOnline(ctx context.Context, user domain.UserID, handle domain.ConnectionID)
	MarkOffline(ctx context.Context, handle domain.ConnectionID)
}

type IDispatcher interface {
	Dispatch(ctx context.Context, message domain.Message) bool
}

// ISessionHandler reacts to the lifecycle events of one connection.
type ISessionHandler interface {
	Connect(handle domain.ConnectionID, sink EventSink)
	Announce(ctx context.Context, handle domain.ConnectionID, user domain.UserID) error
	Send(ctx context.Context, handle domain.ConnectionID, cmd domain.SendCommand) error
	Disconnect(ctx context.Context, handle domain.ConnectionID)
}
