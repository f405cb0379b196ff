// Package domain contains core concepts of the chat system.
// This file defines direct messages and their read-only views.
// Messages are immutable once stored; IsRead is the only field allowed to change.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two accounts.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   UserID    `json:"senderId"`
	ReceiverID UserID    `json:"receiverId"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Involves reports whether the user is the sender or the receiver.
func (m Message) Involves(user UserID) bool {
	return m.SenderID == user || m.ReceiverID == user
}

// Party is the display information of one side of a message.
type Party struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// MessageView is a Message augmented with sender and receiver display information.
type MessageView struct {
	Message
	Sender   Party `json:"sender"`
	Receiver Party `json:"receiver"`
}
