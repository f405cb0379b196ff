package main

import (
	"fmt"
	"strings"
)

// Line is one parsed line typed by the user.
type Line struct {
	Command   string
	Recipient string
	Text      string
}

const (
	commandSend  = "send"
	commandUsers = "users"
	commandQuit  = "quit"
)

// parseLine understands "@username text", "/users" and "/quit".
func parseLine(raw string) (Line, error) {
	line := strings.TrimSpace(raw)
	switch {
	case line == "":
		return Line{}, fmt.Errorf("empty line")
	case line == "/users":
		return Line{Command: commandUsers}, nil
	case line == "/quit" || line == "/exit":
		return Line{Command: commandQuit}, nil
	case strings.HasPrefix(line, "@"):
		recipient, text, _ := strings.Cut(line[1:], " ")
		text = strings.TrimSpace(text)
		if recipient == "" || text == "" {
			return Line{}, fmt.Errorf("usage: @username message")
		}
		return Line{Command: commandSend, Recipient: recipient, Text: text}, nil
	default:
		return Line{}, fmt.Errorf("unknown input %q, try @username message, /users or /quit", line)
	}
}
