package crypto

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"casewire/internal/domain"
)

// StreamSealer turns an io.Reader into a finite, forward-only sequence of
// independently sealed ciphertext chunks, keeping memory bounded for
// payloads too large for a single blob. Nonces are a random 4-byte prefix
// fixed at construction plus a big-endian chunk counter; the stream is not
// restartable mid-way.
type StreamSealer struct {
	aead      cipher.AEAD
	src       io.Reader
	buf       []byte
	prefix    [4]byte
	counter   uint64
	exhausted bool
}

// NewStreamSealer prepares a sealer over src producing chunks of at most
// chunkSize plaintext bytes each.
func NewStreamSealer(key domain.SymmetricKey, src io.Reader, chunkSize int, r io.Reader) (*StreamSealer, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	aead, err := chacha20poly1305.New(key.Slice())
	if err != nil {
		return nil, err
	}
	s := &StreamSealer{aead: aead, src: src, buf: make([]byte, chunkSize)}
	if _, err := io.ReadFull(r, s.prefix[:]); err != nil {
		return nil, fmt.Errorf("nonce prefix: %w", err)
	}
	return s, nil
}

// Next returns the next sealed chunk, or io.EOF when the source is drained.
// Each returned slice is nonce||ciphertext||tag and is owned by the caller.
func (s *StreamSealer) Next() ([]byte, error) {
	if s.exhausted {
		return nil, io.EOF
	}
	n, err := io.ReadFull(s.src, s.buf)
	if err == io.EOF {
		s.exhausted = true
		return nil, io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		s.exhausted = true
	} else if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceBytes)
	copy(nonce, s.prefix[:])
	binary.BigEndian.PutUint64(nonce[NonceBytes-8:], s.counter)
	s.counter++

	out := make([]byte, NonceBytes, NonceBytes+n+TagBytes)
	copy(out, nonce)
	return s.aead.Seal(out, nonce, s.buf[:n], nil), nil
}

// OpenStreamChunk decrypts one chunk produced by StreamSealer.
func OpenStreamChunk(key domain.SymmetricKey, chunk []byte) ([]byte, error) {
	if len(chunk) < NonceBytes+TagBytes {
		return nil, domain.ErrDecryptionAuth
	}
	aead, err := chacha20poly1305.New(key.Slice())
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, chunk[:NonceBytes], chunk[NonceBytes:], nil)
	if err != nil {
		return nil, domain.ErrDecryptionAuth
	}
	return plain, nil
}
