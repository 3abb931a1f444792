// Package transport provides an in-process duplex pipe implementing
// domain.Transport. Real network transports are collaborators outside this
// subsystem; the pipe exists for the channel tests and the CLI demo.
package transport

import (
	"context"
	"errors"
	"sync"

	"casewire/internal/domain"
)

// ErrClosed is returned once either end of the pipe has been closed.
var ErrClosed = errors.New("transport closed")

type pipeEnd struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once *sync.Once
}

// Pipe returns two connected transport ends with the given buffer depth.
// Closing either end fails all further operations on both.
func Pipe(buffer int) (domain.Transport, domain.Transport) {
	ab := make(chan []byte, buffer)
	ba := make(chan []byte, buffer)
	done := make(chan struct{})
	once := &sync.Once{}
	a := &pipeEnd{in: ba, out: ab, done: done, once: once}
	b := &pipeEnd{in: ab, out: ba, done: done, once: once}
	return a, b
}

func (p *pipeEnd) Send(ctx context.Context, payload []byte) error {
	msg := append([]byte(nil), payload...)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrClosed
	case p.out <- msg:
		return nil
	}
}

func (p *pipeEnd) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, ErrClosed
	case msg := <-p.in:
		return msg, nil
	}
}

func (p *pipeEnd) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

// Compile-time assertion that pipeEnd implements domain.Transport.
var _ domain.Transport = (*pipeEnd)(nil)
