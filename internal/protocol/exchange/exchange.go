package exchange

import (
	"fmt"
	"io"

	"casewire/internal/crypto"
	"casewire/internal/domain"
	"casewire/internal/util/memzero"
)

// PublicKeyBytes is the exact length a remote public key must have.
const PublicKeyBytes = 32

// Initiate generates this side's ephemeral key pair from r.
func Initiate(r io.Reader) (domain.X25519Private, domain.X25519Public, error) {
	priv, pub, err := crypto.GenerateX25519(r)
	if err != nil {
		return priv, pub, fmt.Errorf("generate ephemeral key pair: %w", err)
	}
	return priv, pub, nil
}

// Complete computes the shared point from the counterpart's public key and
// stretches it into the session's symmetric key. The raw ECDH output is
// wiped before returning; only the derived key leaves this function.
func Complete(priv domain.X25519Private, remotePub []byte, sessionID domain.SessionID, iterations int) (domain.SymmetricKey, error) {
	var key domain.SymmetricKey
	if len(remotePub) != PublicKeyBytes {
		return key, fmt.Errorf("%w: want %d bytes, got %d", domain.ErrMalformedPublicKey, PublicKeyBytes, len(remotePub))
	}
	var pub domain.X25519Public
	copy(pub[:], remotePub)

	shared, err := crypto.DH(priv, pub)
	if err != nil {
		return key, fmt.Errorf("%w: %v", domain.ErrMalformedPublicKey, err)
	}
	key = crypto.DeriveSessionKey(shared, sessionID, iterations)
	memzero.Zero(shared[:])
	return key, nil
}
