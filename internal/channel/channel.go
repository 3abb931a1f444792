// Package channel applies the session's AEAD transparently to every message
// crossing a duplex transport.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"casewire/internal/crypto"
	"casewire/internal/domain"
)

// Channel encrypts outbound and decrypts inbound messages under one session
// key. Every message carries a fresh nonce and is independently
// authenticated; there is no cross-message chaining.
//
// Consumers register handlers before calling Run. A message that fails to
// decrypt fires the error handlers and is dropped; the channel stays usable
// for subsequent, correctly encrypted messages.
type Channel struct {
	transport domain.Transport
	key       domain.SymmetricKey
	clock     domain.Clock
	rand      io.Reader

	mu        sync.Mutex
	onMessage []func([]byte)
	onError   []func(error)
}

// Secure wraps a duplex transport with the session key.
func Secure(t domain.Transport, key domain.SymmetricKey, clock domain.Clock, rnd io.Reader) *Channel {
	return &Channel{transport: t, key: key, clock: clock, rand: rnd}
}

// OnMessage registers a handler for decrypted inbound messages.
func (c *Channel) OnMessage(fn func(plaintext []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = append(c.onMessage, fn)
}

// OnError registers a handler for inbound messages that fail decryption or
// framing.
func (c *Channel) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = append(c.onError, fn)
}

// Send seals plaintext with a fresh nonce and writes the envelope to the
// transport. The envelope timestamp is bound as associated data, so it
// cannot be altered in flight without failing the tag.
func (c *Channel) Send(ctx context.Context, plaintext []byte) error {
	ts := c.clock.Now().UTC().Format(time.RFC3339Nano)
	nonce, ct, tag, err := crypto.SealMessage(c.key, plaintext, []byte(ts), c.rand)
	if err != nil {
		return fmt.Errorf("seal message: %w", err)
	}
	env := domain.ChannelEnvelope{
		IV:        crypto.B64(nonce),
		Data:      crypto.B64(ct),
		Tag:       crypto.B64(tag),
		Timestamp: ts,
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return c.transport.Send(ctx, frame)
}

// Run pumps inbound frames until ctx is cancelled or the transport fails.
// Decryption failures are surfaced through the error handlers and never
// stop the pump.
func (c *Channel) Run(ctx context.Context) error {
	for {
		frame, err := c.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("transport receive: %w", err)
		}
		plain, err := c.open(frame)
		if err != nil {
			c.dispatchError(err)
			continue
		}
		c.dispatchMessage(plain)
	}
}

func (c *Channel) open(frame []byte) ([]byte, error) {
	var env domain.ChannelEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	nonce, err := crypto.B64Decode(env.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	ct, err := crypto.B64Decode(env.Data)
	if err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	tag, err := crypto.B64Decode(env.Tag)
	if err != nil {
		return nil, fmt.Errorf("decode tag: %w", err)
	}
	plain, err := crypto.OpenMessage(c.key, nonce, ct, tag, []byte(env.Timestamp))
	if err != nil {
		return nil, fmt.Errorf("open message: %w", err)
	}
	return plain, nil
}

func (c *Channel) dispatchMessage(plain []byte) {
	c.mu.Lock()
	handlers := append([]func([]byte){}, c.onMessage...)
	c.mu.Unlock()
	for _, fn := range handlers {
		fn(plain)
	}
}

func (c *Channel) dispatchError(err error) {
	c.mu.Lock()
	handlers := append([]func(error){}, c.onError...)
	c.mu.Unlock()
	for _, fn := range handlers {
		fn(err)
	}
}
