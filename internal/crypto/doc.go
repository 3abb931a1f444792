// Package crypto exposes the primitives used by the transmission layer.
//
// Contents
//
//   - X25519 ephemeral key generation, clamping and Diffie–Hellman
//     (GenerateX25519, DH)
//   - Session-key stretching via PBKDF2 bound to the session ID
//     (DeriveSessionKey)
//   - AEAD sealing/opening for bulk blobs and individual channel messages
//     (SealBlob, OpenBlob, SealMessage, OpenMessage)
//   - A pull-based encrypting chunk stream for large payloads (StreamSealer)
//   - Short public-key fingerprints for audit fields (Fingerprint)
//
// # Notes
//
// All functions return fixed-size array types defined in internal/domain to
// avoid accidental reallocations. Callers should treat returned secrets as
// sensitive and rely on memzero when practical to reduce lifetime in memory.
package crypto
