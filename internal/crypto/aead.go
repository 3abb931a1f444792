package crypto

import (
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"casewire/internal/domain"
)

// Blob layout: one algorithm byte, the nonce, then ciphertext||tag as
// produced by the AEAD. Associated data is authenticated but never part of
// the blob; it travels beside it in the clear.
const (
	AlgChaCha20Poly1305 byte = 0x01

	NonceBytes = chacha20poly1305.NonceSize
	TagBytes   = chacha20poly1305.Overhead

	blobHeaderBytes = 1 + NonceBytes
)

// SealBlob encrypts plaintext under key with a fresh nonce read from r,
// binding aad as authenticated-but-cleartext context.
func SealBlob(key domain.SymmetricKey, plaintext, aad []byte, r io.Reader) ([]byte, error) {
	aead, err := chacha20poly1305.New(key.Slice())
	if err != nil {
		return nil, err
	}
	out := make([]byte, blobHeaderBytes, blobHeaderBytes+len(plaintext)+TagBytes)
	out[0] = AlgChaCha20Poly1305
	if _, err := io.ReadFull(r, out[1:blobHeaderBytes]); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return aead.Seal(out, out[1:blobHeaderBytes], plaintext, aad), nil
}

// OpenBlob decrypts a blob produced by SealBlob. It fails closed with
// domain.ErrDecryptionAuth when the tag does not verify or aad differs from
// what was bound at seal time.
func OpenBlob(key domain.SymmetricKey, blob, aad []byte) ([]byte, error) {
	if len(blob) < blobHeaderBytes+TagBytes {
		return nil, fmt.Errorf("%w: blob too short", domain.ErrDecryptionAuth)
	}
	if blob[0] != AlgChaCha20Poly1305 {
		return nil, fmt.Errorf("%w: unknown algorithm 0x%02x", domain.ErrDecryptionAuth, blob[0])
	}
	aead, err := chacha20poly1305.New(key.Slice())
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, blob[1:blobHeaderBytes], blob[blobHeaderBytes:], aad)
	if err != nil {
		return nil, domain.ErrDecryptionAuth
	}
	return plain, nil
}

// SealMessage encrypts one channel message, returning the nonce, ciphertext
// and tag separately for the envelope frame.
func SealMessage(key domain.SymmetricKey, plaintext, aad []byte, r io.Reader) (nonce, ciphertext, tag []byte, err error) {
	aead, err := chacha20poly1305.New(key.Slice())
	if err != nil {
		return nil, nil, nil, err
	}
	nonce = make([]byte, NonceBytes)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("nonce: %w", err)
	}
	sealed := aead.Seal(nil, nonce, plaintext, aad)
	split := len(sealed) - TagBytes
	return nonce, sealed[:split], sealed[split:], nil
}

// OpenMessage decrypts one channel message framed as nonce/ciphertext/tag.
func OpenMessage(key domain.SymmetricKey, nonce, ciphertext, tag, aad []byte) ([]byte, error) {
	if len(nonce) != NonceBytes || len(tag) != TagBytes {
		return nil, domain.ErrDecryptionAuth
	}
	aead, err := chacha20poly1305.New(key.Slice())
	if err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plain, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, domain.ErrDecryptionAuth
	}
	return plain, nil
}
