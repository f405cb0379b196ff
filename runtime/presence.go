package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

// PresenceManager owns the online/offline transitions of users.
//
// The registry is always mutated first and the durable status follows.
// There is no transaction between the two: a failed status write is logged and
// counted, the in-memory registration is kept so live delivery keeps working.
type PresenceManager struct {
	log          *slog.Logger
	registry     contract.IRegistry
	store        contract.IMessageStore
	metrics      *observability.Metrics
	storeTimeout time.Duration
}

func NewPresenceManager(log *slog.Logger, registry contract.IRegistry, store contract.IMessageStore,
	metrics *observability.Metrics, storeTimeout time.Duration) *PresenceManager {
	return &PresenceManager{
		log:          log,
		registry:     registry,
		store:        store,
		metrics:      metrics,
		storeTimeout: storeTimeout,
	}
}

// MarkOnline registers the handle for the user, replacing any older one, then
// records the online status.
func (p *PresenceManager) MarkOnline(ctx context.Context, user domain.UserID, handle domain.ConnectionID) {
	p.registry.Register(user, handle)
	p.metrics.PresenceEntries.Set(float64(p.registry.Len()))

	if err := p.persistStatus(ctx, user, domain.StatusOnline); err != nil {
		p.log.Error("Failed to persist online status",
			"user_id", user,
			"connection_id", handle,
			"error", err)
		return
	}
	p.log.Debug("User online", "user_id", user, "connection_id", handle)
}

// MarkOffline releases the handle and downgrades the status only when the handle
// was the one on record. A stale handle (the user reconnected elsewhere) or an
// unknown one (never announced, duplicate disconnect) leaves everything untouched.
func (p *PresenceManager) MarkOffline(ctx context.Context, handle domain.ConnectionID) {
	// Resolve and remove in one step, a concurrent announce cannot slip in between
	user, released := p.registry.Release(handle)
	if !released {
		p.log.Debug("Disconnect ignored",
			"connection_id", handle,
			"reason", errors.ErrStaleSession)
		return
	}
	p.metrics.PresenceEntries.Set(float64(p.registry.Len()))

	if err := p.persistStatus(ctx, user, domain.StatusOffline); err != nil {
		p.log.Error("Failed to persist offline status",
			"user_id", user,
			"connection_id", handle,
			"error", err)
		return
	}
	p.log.Debug("User offline", "user_id", user, "connection_id", handle)
}

func (p *PresenceManager) persistStatus(ctx context.Context, user domain.UserID, status domain.Status) error {
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	if err := p.store.SetUserStatus(ctx, user, status); err != nil {
		p.metrics.PersistenceFailures.WithLabelValues("set_status").Inc()
		return err
	}
	return nil
}
