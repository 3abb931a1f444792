package domain

import "errors"

// Error taxonomy of the transmission layer. Cryptographic and integrity
// failures always abort the current operation; nothing here is retried
// internally.
var (
	// ErrSessionNotFound indicates the session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed indicates the session was closed or is past its
	// expiry deadline.
	ErrSessionClosed = errors.New("session closed")

	// ErrKeyExchangeIncomplete indicates an encrypt/decrypt operation was
	// attempted before the session key was derived.
	ErrKeyExchangeIncomplete = errors.New("key exchange not completed")

	// ErrKeyExchangeDone indicates a second exchange completion was
	// attempted; the session key is set exactly once.
	ErrKeyExchangeDone = errors.New("key exchange already completed")

	// ErrMalformedPublicKey indicates the remote public key has the wrong
	// length or is not a valid curve point.
	ErrMalformedPublicKey = errors.New("malformed remote public key")

	// ErrQuotaExceeded indicates the session's transfer ceiling was hit.
	// The failed call does not mutate the transfer count.
	ErrQuotaExceeded = errors.New("session transfer quota exceeded")

	// ErrFileTooLarge indicates the payload exceeds the configured maximum.
	// The failed call does not consume quota.
	ErrFileTooLarge = errors.New("file exceeds maximum transfer size")

	// ErrChunkIntegrity indicates a chunk's content hash did not match.
	ErrChunkIntegrity = errors.New("chunk integrity check failed")

	// ErrReassemblyIncomplete indicates the chunk set has gaps or
	// duplicate indices and cannot cover the ciphertext.
	ErrReassemblyIncomplete = errors.New("chunk set does not cover ciphertext")

	// ErrDecryptionAuth indicates the AEAD tag or the bound associated
	// metadata failed verification.
	ErrDecryptionAuth = errors.New("ciphertext authentication failed")

	// ErrTransferNotFound indicates the transfer ID is unknown or already
	// evicted.
	ErrTransferNotFound = errors.New("transfer not found")
)
