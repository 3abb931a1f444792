package app

import (
	"context"
	"time"

	"casewire/internal/audit"
	"casewire/internal/services/session"
	"casewire/internal/services/transfer"
)

// Wire bundles the constructed services for callers of the transmission
// layer.
type Wire struct {
	Sessions  *session.Service
	Transfers *transfer.Service
	Audit     *audit.Queue

	cfg Config
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) *Wire {
	cfg.applyDefaults()

	// Audit fan-out first; every service records through it.
	q := audit.NewQueue(cfg.AuditBuffer)

	sessions := session.New(cfg.Clock, cfg.Rand, q, cfg.KDFIterations)
	transfers := transfer.New(sessions, cfg.Clock, cfg.Rand, q, transfer.Config{
		ChunkSize:    cfg.ChunkSize,
		MaxFileBytes: cfg.MaxFileBytes,
		Retention:    cfg.TransferRetention,
	})

	// Closing a session drops the transfers it owns.
	sessions.OnClose(transfers.RemoveForSession)

	return &Wire{
		Sessions:  sessions,
		Transfers: transfers,
		Audit:     q,
		cfg:       cfg,
	}
}

// RunSweeper scans sessions and transfers on the configured interval until
// ctx is cancelled, bounding memory growth from abandoned state.
func (w *Wire) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sessions.SweepOnce()
			w.Transfers.SweepOnce()
		}
	}
}

// Close stops the audit queue after draining buffered events.
func (w *Wire) Close() {
	w.Audit.Close()
}
