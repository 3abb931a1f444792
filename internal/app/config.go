package app

import (
	"crypto/rand"
	"io"
	"time"

	"casewire/internal/chunk"
	"casewire/internal/crypto"
	"casewire/internal/domain"
	"casewire/internal/services/session"
	"casewire/internal/services/transfer"
)

// Config holds runtime wiring options for building the transmission layer.
// Zero values take the documented defaults.
type Config struct {
	ChunkSize         int           // ciphertext chunk size (64 KiB)
	MaxFileBytes      int64         // per-transfer plaintext ceiling (100 MiB)
	KDFIterations     int           // PBKDF2 iterations (100 000 floor)
	SweepInterval     time.Duration // expiry sweep cadence (5 min)
	TransferRetention time.Duration // transfer retention window (1 h)
	AuditBuffer       int           // audit queue depth (256)

	Clock domain.Clock // defaults to the system clock
	Rand  io.Reader    // defaults to crypto/rand
}

func (c *Config) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = chunk.DefaultSize
	}
	if c.MaxFileBytes <= 0 {
		c.MaxFileBytes = transfer.DefaultMaxFileBytes
	}
	if c.KDFIterations <= 0 {
		c.KDFIterations = crypto.DefaultKDFIterations
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = session.DefaultSweepEvery
	}
	if c.TransferRetention <= 0 {
		c.TransferRetention = transfer.DefaultRetention
	}
	if c.Clock == nil {
		c.Clock = domain.SystemClock{}
	}
	if c.Rand == nil {
		c.Rand = rand.Reader
	}
}
