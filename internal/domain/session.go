package domain

import "time"

// Session is the negotiated, time-bounded cryptographic context between two
// principals. Key material is owned exclusively by the session and is zeroed
// when the session closes; the struct is never reused afterwards.
type Session struct {
	ID          SessionID
	LocalParty  PrincipalID
	RemoteParty PrincipalID

	PrivateKey X25519Private
	PublicKey  X25519Public
	Key        SymmetricKey

	KeyExchanged bool
	Active       bool

	TransferCount int
	MaxTransfers  int

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its absolute deadline.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
