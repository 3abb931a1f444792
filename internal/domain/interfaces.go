package domain

import (
	"context"
	"time"
)

// Clock abstracts wall-clock time so expiry and retention are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// AuditSink accepts structured audit records. Implementations must not
// block the caller; slow or failing sinks lose events, never stall the
// protocol.
type AuditSink interface {
	Record(AuditEvent)
}

// Transport is a duplex message transport the encrypted channel wraps.
// Retry and backoff policy belong to the transport's owner, not here.
type Transport interface {
	Send(ctx context.Context, payload []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// SessionDirectory is the session manager surface the transfer engine
// depends on.
type SessionDirectory interface {
	// Authorize returns a snapshot of a live session whose key exchange has
	// completed, or ErrSessionNotFound / ErrSessionClosed /
	// ErrKeyExchangeIncomplete.
	Authorize(SessionID) (Session, error)

	// ConsumeTransferSlot is Authorize plus a quota increment. It fails
	// with ErrQuotaExceeded without mutating the count when the ceiling
	// would be exceeded.
	ConsumeTransferSlot(SessionID) (Session, error)
}
