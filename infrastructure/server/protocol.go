package server

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"strings"
)

// Inbound event names.
const (
	EventUserOnline  = "userOnline"
	EventSendMessage = "sendMessage"
)

// Envelope is the JSON frame exchanged on the socket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func decodeEnvelope(raw []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	if strings.TrimSpace(envelope.Event) == "" {
		return Envelope{}, fmt.Errorf("%w: missing event name", errors.ErrInvalidPayload)
	}
	return envelope, nil
}

// decodeUserID reads the payload of userOnline: a bare JSON string.
func decodeUserID(data json.RawMessage) (domain.UserID, error) {
	var userID string
	if err := json.Unmarshal(data, &userID); err != nil {
		return "", fmt.Errorf("%w: user id must be a string: %v", errors.ErrInvalidPayload, err)
	}
	return domain.UserID(strings.TrimSpace(userID)), nil
}

func decodeSendCommand(data json.RawMessage) (domain.SendCommand, error) {
	var cmd domain.SendCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return domain.SendCommand{}, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return cmd, nil
}

func encodeEvent(e domain.Event) ([]byte, error) {
	return json.Marshal(outbound{Event: e.Name(), Data: e.Payload()})
}
