package server

import (
	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/services"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthHandler serves the public account endpoints.
type AuthHandler struct {
	log     *slog.Logger
	service services.IAuthService
}

func NewAuthHandler(log *slog.Logger, service services.IAuthService) *AuthHandler {
	return &AuthHandler{log: log, service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeBody(w, r, &body); err != nil {
		writeError(h.log, w, err)
		return
	}
	session, err := h.service.Register(body.Username, body.Password)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"userId":  session.UserID,
		"token":   session.Token,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeBody(w, r, &body); err != nil {
		writeError(h.log, w, err)
		return
	}
	session, err := h.service.Login(body.Username, body.Password)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ChatHandler serves the authenticated REST endpoints.
type ChatHandler struct {
	log     *slog.Logger
	service services.IChatService
}

func NewChatHandler(log *slog.Logger, service services.IChatService) *ChatHandler {
	return &ChatHandler{log: log, service: service}
}

func (h *ChatHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(h.log, w, errors.ErrUnauthenticated)
		return
	}
	var body auth.PostMessageRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(h.log, w, err)
		return
	}
	message, err := h.service.PostMessage(r.Context(), userID, body)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(h.log, w, errors.ErrUnauthenticated)
		return
	}
	views, err := h.service.ListMessages(r.Context(), userID)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(views))
}

func (h *ChatHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(h.log, w, errors.ErrUnauthenticated)
		return
	}
	views, err := h.service.ListUnread(r.Context(), userID)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(views))
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(h.log, w, errors.ErrUnauthenticated)
		return
	}
	message, err := h.service.MarkRead(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError hides internal failures behind a generic message.
func writeError(log *slog.Logger, w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
