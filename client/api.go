package main

import (
	"bytes"
	"chat-relay/domain"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// api talks to the REST side of the relay.
type api struct {
	baseURL string
	http    *http.Client
	token   string
}

type session struct {
	UserID domain.UserID `json:"userId"`
	Token  string        `json:"token"`
}

func newAPI(baseURL string) *api {
	return &api{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: 10 * time.Second}}
}

func (a *api) login(ctx context.Context, username, password string) (session, error) {
	var s session
	body := map[string]string{"username": username, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/login", body, &s); err != nil {
		return session{}, err
	}
	a.token = s.Token
	return s, nil
}

func (a *api) users(ctx context.Context) ([]domain.UserSummary, error) {
	var users []domain.UserSummary
	err := a.do(ctx, http.MethodGet, "/api/users", nil, &users)
	return users, err
}

func (a *api) unread(ctx context.Context) ([]domain.MessageView, error) {
	var views []domain.MessageView
	err := a.do(ctx, http.MethodGet, "/api/messages/unread", nil, &views)
	return views, err
}

func (a *api) markRead(ctx context.Context, messageID string) error {
	return a.do(ctx, http.MethodPost, "/api/messages/"+url.PathEscape(messageID)+"/read", nil, nil)
}

// socketURL derives ws(s)://host/ws from the REST base URL.
func (a *api) socketURL() (string, error) {
	parsed, err := url.Parse(a.baseURL)
	if err != nil {
		return "", err
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	case "http":
		parsed.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/ws"
	return parsed.String(), nil
}

// authHeader carries the session token, on REST calls and on the websocket upgrade.
func (a *api) authHeader() http.Header {
	header := http.Header{}
	if a.token != "" {
		header.Set("Authorization", "Bearer "+a.token)
	}
	return header
}

func (a *api) do(ctx context.Context, method, path string, body, target any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}
	r, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, &payload)
	if err != nil {
		return err
	}
	r.Header = a.authHeader()
	r.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, failure.Error)
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
