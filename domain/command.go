package domain

import "strings"

// SendCommand is the payload of a send-message session event.
type SendCommand struct {
	SenderID   UserID `json:"senderId"`
	ReceiverID UserID `json:"receiverId"`
	Content    string `json:"content"`
}

// Complete reports whether every field is present.
func (c SendCommand) Complete() bool {
	return !blank(string(c.SenderID)) && !blank(string(c.ReceiverID)) && !blank(c.Content)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
