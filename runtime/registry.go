package runtime

import (
	"chat-relay/domain"
	"sync"
)

// Registry maps every user to the single connection currently on record.
//
// A new registration for a user replaces the previous one ("latest login wins"):
// the older connection is not closed, it simply stops receiving deliveries.
// A secondary index (connection -> user) is kept under the same lock so the
// reverse lookup needed on disconnect is O(1) and never observes a half-updated pair.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.UserID]domain.ConnectionID
	owners   map[domain.ConnectionID]domain.UserID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.UserID]domain.ConnectionID),
		owners:   make(map[domain.ConnectionID]domain.UserID),
	}
}

// Register binds the user to the handle, overwriting any previous binding.
// Rebinding a handle to a new user evicts the former user: the session handler
// never does it, but the reverse index could not hold both.
func (r *Registry) Register(user domain.UserID, handle domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. The user's older connection loses its reverse entry
	if previous, ok := r.sessions[user]; ok {
		delete(r.owners, previous)
	}
	// 2. A handle carries one identity at a time
	if former, ok := r.owners[handle]; ok && former != user {
		delete(r.sessions, former)
	}
	// 3. Both directions point at each other again
	r.sessions[user] = handle
	r.owners[handle] = user
}

func (r *Registry) Lookup(user domain.UserID) (domain.ConnectionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.sessions[user]
	return handle, ok
}

// Unregister removes the binding only when handle is still the one on record,
// so a late disconnect of an older connection never evicts a newer session.
// It reports whether an entry was removed.
func (r *Registry) Unregister(user domain.UserID, handle domain.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.unregister(user, handle)
}

func (r *Registry) ResolveUserByHandle(handle domain.ConnectionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.owners[handle]
	return user, ok
}

// Release resolves the owner of handle and unregisters it in a single critical section.
func (r *Registry) Release(handle domain.ConnectionID) (domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.owners[handle]
	if !ok {
		return "", false
	}
	return user, r.unregister(user, handle)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

func (r *Registry) unregister(user domain.UserID, handle domain.ConnectionID) bool {
	current, ok := r.sessions[user]
	if !ok || current != handle {
		return false
	}
	delete(r.sessions, user)
	delete(r.owners, handle)
	return true
}
