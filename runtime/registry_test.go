package runtime

import (
	"chat-relay/domain"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Register_One_User(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given no user is connected
	req.Empty(registry.sessions)
	req.Empty(registry.owners)

	// When alice registers on c1
	registry.Register("alice", "c1")

	// Then alice is bound to c1 in both directions
	handle, ok := registry.Lookup("alice")
	req.True(ok)
	req.Equal(domain.ConnectionID("c1"), handle)

	user, ok := registry.ResolveUserByHandle("c1")
	req.True(ok)
	req.Equal(domain.UserID("alice"), user)
	req.Equal(1, registry.Len())
}

func TestRegistry_Register_Twice_Latest_Login_Wins(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given alice is registered on c1
	registry.Register("alice", "c1")

	// When alice logs in again on c2
	registry.Register("alice", "c2")

	// Then only c2 is on record
	handle, ok := registry.Lookup("alice")
	req.True(ok)
	req.Equal(domain.ConnectionID("c2"), handle)
	req.Equal(1, registry.Len())

	// And c1 is orphaned
	_, ok = registry.ResolveUserByHandle("c1")
	req.False(ok)
	req.Len(registry.owners, 1)
}

func TestRegistry_Unregister_Mismatched_Handle_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", "c1")
	registry.Register("alice", "c2")

	// When the stale connection goes away
	removed := registry.Unregister("alice", "c1")

	// Then nothing is removed
	req.False(removed)
	handle, ok := registry.Lookup("alice")
	req.True(ok)
	req.Equal(domain.ConnectionID("c2"), handle)

	// And absent users are a no-op too
	req.False(registry.Unregister("bob", "c3"))
}

func TestRegistry_Unregister_Matching_Handle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", "c1")

	req.True(registry.Unregister("alice", "c1"))

	_, ok := registry.Lookup("alice")
	req.False(ok)
	req.Empty(registry.sessions)
	req.Empty(registry.owners)
}

func TestRegistry_Release(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", "c1")
	registry.Register("bob", "c2")

	// When c9, never registered, is released
	user, released := registry.Release("c9")

	// Then nothing changes
	req.False(released)
	req.Empty(user)
	req.Equal(2, registry.Len())

	// When c1 is released
	user, released = registry.Release("c1")

	// Then alice is gone and bob stays
	req.True(released)
	req.Equal(domain.UserID("alice"), user)
	_, ok := registry.Lookup("alice")
	req.False(ok)
	_, ok = registry.Lookup("bob")
	req.True(ok)

	// And a duplicate release is a no-op
	_, released = registry.Release("c1")
	req.False(released)
}

// Rebinding a handle evicts its former owner so both indexes stay one-to-one.
func TestRegistry_Handle_Rebound_To_Another_User(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", "c1")

	registry.Register("bob", "c1")

	_, ok := registry.Lookup("alice")
	req.False(ok)
	user, ok := registry.ResolveUserByHandle("c1")
	req.True(ok)
	req.Equal(domain.UserID("bob"), user)
	req.Equal(1, registry.Len())
}

// Random register/unregister/release sequences never leave more than one entry per user,
// and both indexes always mirror each other.
func TestRegistry_Random_Sequences_Keep_Indexes_Consistent(t *testing.T) {
	req := require.New(t)
	rnd := rand.New(rand.NewSource(42))
	users := []domain.UserID{"alice", "bob", "clara"}
	handles := []domain.ConnectionID{"c1", "c2", "c3", "c4", "c5"}

	for run := 0; run < 200; run++ {
		registry := NewRegistry()
		for step := 0; step < 50; step++ {
			user := users[rnd.Intn(len(users))]
			handle := handles[rnd.Intn(len(handles))]
			switch rnd.Intn(3) {
			case 0:
				registry.Register(user, handle)
			case 1:
				before, had := registry.Lookup(user)
				removed := registry.Unregister(user, handle)
				if !had || before != handle {
					req.False(removed)
					after, has := registry.Lookup(user)
					req.Equal(had, has)
					req.Equal(before, after)
				}
			case 2:
				registry.Release(handle)
			}

			req.Len(registry.owners, len(registry.sessions))
			for u, h := range registry.sessions {
				req.Equal(u, registry.owners[h], fmt.Sprintf("run %d step %d", run, step))
			}
		}
	}
}

func TestRegistry_Concurrent_Release_Only_Once(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", "c1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	released := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := registry.Release("c1"); ok {
				mu.Lock()
				released++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	req.Equal(1, released)
	req.Equal(0, registry.Len())
}
