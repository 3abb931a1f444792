package domain

// SessionID identifies one negotiated transmission session.
type SessionID string

// String returns the string form of the session identifier.
func (id SessionID) String() string { return string(id) }

// TransferID identifies one file transfer within a session.
type TransferID string

// String returns the string form of the transfer identifier.
func (id TransferID) String() string { return string(id) }

// PrincipalID is an opaque authenticated-principal identifier supplied by
// the authentication collaborator. The transmission layer never interprets
// or verifies it.
type PrincipalID string

// String returns the string form of the principal identifier.
func (p PrincipalID) String() string { return string(p) }
