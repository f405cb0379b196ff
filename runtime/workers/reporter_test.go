package workers

import (
	"bytes"
	"chat-relay/runtime"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReporterWorker_Logs_Presence(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	registry := runtime.NewRegistry()
	registry.Register("alice", "c1")
	registry.Register("bob", "c2")

	worker := NewReporterWorker(log, registry, runtime.NewConnections(), 20*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	req.NoError(worker.Run(ctx))
	req.Contains(out.String(), "Presence report")
	req.Contains(out.String(), "online_users=2")
}
