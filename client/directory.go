package main

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"sync"
)

// directory resolves usernames typed by the user into account ids and back.
type directory struct {
	mu     sync.RWMutex
	byName map[string]domain.UserSummary
	byID   map[domain.UserID]domain.UserSummary
}

func newDirectory() *directory {
	return &directory{
		byName: make(map[string]domain.UserSummary),
		byID:   make(map[domain.UserID]domain.UserSummary),
	}
}

func (d *directory) refresh(ctx context.Context, a *api) error {
	users, err := a.users(ctx)
	if err != nil {
		return fmt.Errorf("could not list users: %w", err)
	}
	d.load(users)
	return nil
}

func (d *directory) load(users []domain.UserSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.byName)
	clear(d.byID)
	for _, user := range users {
		d.byName[user.Username] = user
		d.byID[user.ID] = user
	}
}

func (d *directory) idOf(username string) (domain.UserID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.byName[username]
	return user.ID, ok
}

// nameOf falls back to the raw id for accounts created after the last refresh.
func (d *directory) nameOf(id domain.UserID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if user, ok := d.byID[id]; ok {
		return user.Username
	}
	return string(id)
}

func (d *directory) print() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, user := range d.byID {
		status := notice.Render(string(user.Status))
		if user.Status == domain.StatusOnline {
			status = mine.Render(string(user.Status))
		}
		fmt.Printf("  %-20s %s\n", user.Username, status)
	}
}
