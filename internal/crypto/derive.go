package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"casewire/internal/domain"
)

// DefaultKDFIterations is the floor for the PBKDF2 stretch. Callers may
// configure more, never fewer.
const DefaultKDFIterations = 100_000

// DeriveSessionKey stretches a raw ECDH shared secret into the session's
// symmetric key. The session ID is the salt, so the same two parties
// completing an exchange in a different session derive a different key and
// ciphertext can never be replayed across sessions.
func DeriveSessionKey(shared [32]byte, sessionID domain.SessionID, iterations int) domain.SymmetricKey {
	if iterations < DefaultKDFIterations {
		iterations = DefaultKDFIterations
	}
	var key domain.SymmetricKey
	raw := pbkdf2.Key(shared[:], []byte(sessionID), iterations, len(key), sha256.New)
	copy(key[:], raw)
	return key
}
