package server

import (
	"chat-relay/auth"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type Router struct {
	Log     *slog.Logger
	Auth    *AuthHandler
	Chat    *ChatHandler
	Socket  http.Handler
	Metrics http.Handler
	Issuer  *auth.TokenIssuer
	Origins *OriginPolicy
}

// Handler builds the full HTTP surface:
//
//	GET  /health, /metrics
//	GET  /ws, authenticated by Bearer header or ?token=
//	POST /api/register, /api/login
//	/api/users and /api/messages behind the bearer middleware
func (rt Router) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", rt.Metrics).Methods(http.MethodGet)
	socketAuth := auth.Middleware(rt.Log, rt.Issuer, auth.BearerHeader, auth.QueryParam("token"))
	r.Handle("/ws", socketAuth(rt.Socket)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", rt.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", rt.Auth.Login).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(auth.Middleware(rt.Log, rt.Issuer))
	protected.HandleFunc("/users", rt.Chat.ListUsers).Methods(http.MethodGet)
	protected.HandleFunc("/messages", rt.Chat.ListMessages).Methods(http.MethodGet)
	protected.HandleFunc("/messages", rt.Chat.PostMessage).Methods(http.MethodPost)
	protected.HandleFunc("/messages/unread", rt.Chat.ListUnread).Methods(http.MethodGet)
	protected.HandleFunc("/messages/{id}/read", rt.Chat.MarkRead).Methods(http.MethodPost)

	return cors.New(cors.Options{
		AllowedOrigins: rt.Origins.CORSOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(r)
}
