// Package domain contains core concepts of the chat system.
// This file defines accounts and their durable presence status.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// UserID is the stable identity of an account.
type UserID string

func (u UserID) IsEmpty() bool {
	return blank(string(u))
}

// Status is the durable presence flag of an account.
// StatusOnline is best-effort: an unclean disconnect can leave it stale.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

func (s Status) Valid() bool {
	return s == StatusOnline || s == StatusOffline
}

type User struct {
	ID           UserID
	Username     string
	PasswordHash string
	Status       Status
	CreatedAt    time.Time
}

// UserSummary is the public projection of an account.
type UserSummary struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Status   Status `json:"status"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Status: u.Status}
}
