package main

import (
	"chat-relay/auth"
	"chat-relay/infrastructure/server"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until SIGINT/SIGTERM.
// Returning instead of exiting lets the deferred cleanups run.
func run() error {
	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("dotenv error: %w", err)
	}

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// Store
	userRepository := repositories.NewUserRepository(db)
	gateway := repositories.NewGateway(log, userRepository, repositories.NewMessageRepository(db))

	// Presence and delivery runtime
	metrics := observability.NewMetrics()
	registry := runtime.NewRegistry()
	connections := runtime.NewConnections()
	presence := runtime.NewPresenceManager(log, registry, gateway, metrics, config.StoreTimeout)
	dispatcher := runtime.NewDispatcher(log, registry, connections, metrics)
	sessions := runtime.NewSessionHandler(log, presence, gateway, dispatcher, connections, metrics, config.StoreTimeout)

	// HTTP surface
	issuer := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	origins := server.NewOriginPolicy(log, config.Origins())
	sockets := server.NewSocketHandler(log, sessions, metrics, origins, server.SocketConfig{
		BufferSize:        config.ConnectionBufferSize,
		MaxMessageSize:    config.MaxMessageSize,
		RateLimitBurst:    config.RateLimitBurst,
		RateLimitInterval: config.RateLimitInterval,
	})
	router := server.Router{
		Log:     log,
		Auth:    server.NewAuthHandler(log, services.NewAuthService(log, userRepository, issuer)),
		Chat:    server.NewChatHandler(log, services.NewChatService(gateway, config.StoreTimeout)),
		Socket:  sockets,
		Metrics: metrics.Handler(),
		Issuer:  issuer,
		Origins: origins,
	}

	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	httpWorker := workers.NewHTTPServerWorker(log, address, router.Handler(), config.ShutdownTimeout).
		OnShutdown(sockets.CloseAll)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := workers.NewSupervisor(log, config.RestartInterval).Add(httpWorker)
	if config.ReportInterval > 0 {
		sup.Add(workers.NewReporterWorker(log, registry, connections, config.ReportInterval))
	}
	log.Info("Starting chat relay", "address", address)
	sup.Run(ctx)

	// Sessions still open write their offline status before the store closes
	sockets.CloseAll()

	log.Info("Program stopped cleanly")
	return nil
}
