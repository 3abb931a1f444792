// Package audit fans audit events out to subscribed sinks without ever
// blocking the protocol. Delivery is fire-and-forget: a full queue drops
// the event rather than stall the caller.
package audit

import (
	"log"
	"sync"

	"casewire/internal/domain"
)

// DefaultBuffer is the queue depth used when none is configured.
const DefaultBuffer = 256

// Queue is an asynchronous, multi-consumer audit sink.
type Queue struct {
	events chan domain.AuditEvent
	done   chan struct{}
	stop   sync.Once
	wg     sync.WaitGroup

	mu    sync.Mutex
	sinks []domain.AuditSink
}

// NewQueue starts the delivery goroutine.
func NewQueue(buffer int) *Queue {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	q := &Queue{
		events: make(chan domain.AuditEvent, buffer),
		done:   make(chan struct{}),
	}
	q.wg.Add(1)
	go q.pump()
	return q
}

// Subscribe adds a downstream sink. Sinks registered after an event was
// delivered do not see it.
func (q *Queue) Subscribe(s domain.AuditSink) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sinks = append(q.sinks, s)
}

// Record enqueues an event, dropping it if the queue is full or closed.
func (q *Queue) Record(e domain.AuditEvent) {
	select {
	case <-q.done:
	case q.events <- e:
	default:
	}
}

// Close drains pending events and stops delivery. Safe to call more than
// once.
func (q *Queue) Close() {
	q.stop.Do(func() { close(q.done) })
	q.wg.Wait()
}

func (q *Queue) pump() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			// Drain whatever is buffered, then stop.
			for {
				select {
				case e := <-q.events:
					q.deliver(e)
				default:
					return
				}
			}
		case e := <-q.events:
			q.deliver(e)
		}
	}
}

func (q *Queue) deliver(e domain.AuditEvent) {
	q.mu.Lock()
	sinks := append([]domain.AuditSink(nil), q.sinks...)
	q.mu.Unlock()
	for _, s := range sinks {
		s.Record(e)
	}
}

// Compile-time assertion that Queue implements domain.AuditSink.
var _ domain.AuditSink = (*Queue)(nil)

// LogSink writes events to a standard logger, one line per event.
type LogSink struct {
	Logger *log.Logger
}

// Record logs the event.
func (l LogSink) Record(e domain.AuditEvent) {
	l.Logger.Printf("audit action=%s session=%s transfer=%s principal=%s fields=%v",
		e.Action, e.SessionID, e.TransferID, e.Principal, e.Fields)
}

// SinkFunc adapts a function to the AuditSink interface.
type SinkFunc func(domain.AuditEvent)

// Record calls the function.
func (f SinkFunc) Record(e domain.AuditEvent) { f(e) }
