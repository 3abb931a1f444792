package domain

import "time"

// Audit actions emitted on lifecycle edges.
const (
	AuditSessionCreated      = "session_created"
	AuditKeyExchangeComplete = "key_exchange_completed"
	AuditSessionClosed       = "session_closed"
	AuditSessionExpired      = "session_expired"
	AuditTransferPrepared    = "transfer_prepared"
	AuditTransferCompleted   = "transfer_completed"
	AuditTransferReceived    = "transfer_received"
	AuditTransferFailed      = "transfer_failed"
)

// AuditEvent is a structured record handed to the audit sink. Delivery is
// fire-and-forget; the protocol never blocks on it.
type AuditEvent struct {
	Action     string
	SessionID  SessionID
	TransferID TransferID
	Principal  PrincipalID
	Timestamp  time.Time
	Fields     map[string]string
}
