// Package exchange implements the ephemeral key agreement of the
// transmission layer: X25519 Diffie–Hellman followed by a PBKDF2 stretch
// salted with the session ID.
//
// The salt binding means two sessions between the same parties, even ones
// reusing the same curve key pairs, derive different symmetric keys, so
// ciphertext can never be replayed across sessions.
package exchange
