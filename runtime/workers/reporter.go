package workers

import (
	"chat-relay/contract"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ReporterWorker periodically logs a presence snapshot along with the
// process footprint.
type ReporterWorker struct {
	log         *slog.Logger
	registry    contract.IRegistry
	connections contract.IConnections
	interval    time.Duration
}

func NewReporterWorker(log *slog.Logger, registry contract.IRegistry,
	connections contract.IConnections, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{log: log, registry: registry, connections: connections, interval: interval}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *ReporterWorker) report(p *process.Process) {
	attrs := []any{
		"online_users", w.registry.Len(),
		"connections", w.connections.Len(),
	}
	rss, cpu, err := selfStats(p)
	if err != nil {
		w.log.Warn("Failed to collect self stats", "error", err)
	} else {
		attrs = append(attrs, "rss_mb", rss/1024/1024, "cpu_percent", cpu)
	}
	w.log.Info("Presence report", attrs...)
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
