package session_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"sync"
	"testing"
	"time"

	"casewire/internal/audit"
	"casewire/internal/crypto"
	"casewire/internal/domain"
	"casewire/internal/protocol/exchange"
	"casewire/internal/services/session"
)

// fakeClock is a manually advanced clock shared by service and test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder is a synchronous audit sink collecting events.
type recorder struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *recorder) Record(e domain.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Action == action {
			n++
		}
	}
	return n
}

func newService(t *testing.T) (*session.Service, *fakeClock, *recorder) {
	t.Helper()
	clock := newFakeClock()
	rec := &recorder{}
	return session.New(clock, rand.Reader, rec, 0), clock, rec
}

// createReady opens a session and completes its key exchange, returning the
// session ID and the counterpart's independently derived key.
func createReady(t *testing.T, svc *session.Service, ttl time.Duration, maxTransfers int) (domain.SessionID, domain.SymmetricKey) {
	t.Helper()
	resp, err := svc.Create("local", "remote", ttl, maxTransfers)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sid := domain.SessionID(resp.SessionID)

	remotePriv, remotePub, err := exchange.Initiate(rand.Reader)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if err := svc.CompleteExchange(sid, remotePub.Slice()); err != nil {
		t.Fatalf("CompleteExchange: %v", err)
	}

	localPub, err := crypto.B64Decode(resp.PublicKey)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	remoteKey, err := exchange.Complete(remotePriv, localPub, sid, 0)
	if err != nil {
		t.Fatalf("counterpart Complete: %v", err)
	}
	return sid, remoteKey
}

func TestCreatePendingExchange(t *testing.T) {
	svc, _, _ := newService(t)
	resp, err := svc.Create("local", "remote", time.Minute, 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sid := domain.SessionID(resp.SessionID)

	sess, err := svc.Get(sid)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.KeyExchanged {
		t.Fatal("fresh session must be pending exchange")
	}
	if _, err := svc.Authorize(sid); !errors.Is(err, domain.ErrKeyExchangeIncomplete) {
		t.Fatalf("want ErrKeyExchangeIncomplete, got %v", err)
	}
}

func TestCompleteExchangeDerivesSharedKey(t *testing.T) {
	svc, _, _ := newService(t)
	sid, remoteKey := createReady(t, svc, time.Minute, 2)

	sess, err := svc.Authorize(sid)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !bytes.Equal(sess.Key.Slice(), remoteKey.Slice()) {
		t.Fatal("service and counterpart must derive the same key")
	}
}

func TestCompleteExchangeRunsOnce(t *testing.T) {
	svc, _, _ := newService(t)
	sid, _ := createReady(t, svc, time.Minute, 2)

	_, remotePub, err := exchange.Initiate(rand.Reader)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if err := svc.CompleteExchange(sid, remotePub.Slice()); !errors.Is(err, domain.ErrKeyExchangeDone) {
		t.Fatalf("want ErrKeyExchangeDone, got %v", err)
	}
}

func TestCompleteExchangeRejectsMalformedKey(t *testing.T) {
	svc, _, _ := newService(t)
	resp, err := svc.Create("local", "remote", time.Minute, 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	err = svc.CompleteExchange(domain.SessionID(resp.SessionID), []byte("short"))
	if !errors.Is(err, domain.ErrMalformedPublicKey) {
		t.Fatalf("want ErrMalformedPublicKey, got %v", err)
	}
}

func TestQuotaHardCeiling(t *testing.T) {
	svc, _, _ := newService(t)
	sid, _ := createReady(t, svc, time.Minute, 1)

	if _, err := svc.ConsumeTransferSlot(sid); err != nil {
		t.Fatalf("first slot: %v", err)
	}
	if _, err := svc.ConsumeTransferSlot(sid); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("want ErrQuotaExceeded, got %v", err)
	}

	sess, err := svc.Get(sid)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.TransferCount != 1 {
		t.Fatalf("failed call must not mutate the count, got %d", sess.TransferCount)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	svc, _, rec := newService(t)
	sid, _ := createReady(t, svc, time.Minute, 2)

	svc.Close(sid, "manual")
	svc.Close(sid, "manual")

	if got := rec.count(domain.AuditSessionClosed); got != 1 {
		t.Fatalf("want exactly one session_closed event, got %d", got)
	}
	if _, err := svc.Get(sid); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("want ErrSessionClosed after close, got %v", err)
	}
	if err := svc.CompleteExchange(sid, make([]byte, 32)); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("want ErrSessionClosed, got %v", err)
	}
}

func TestCloseFiresCallbacks(t *testing.T) {
	svc, _, _ := newService(t)
	var mu sync.Mutex
	var closed []domain.SessionID
	svc.OnClose(func(id domain.SessionID) {
		mu.Lock()
		defer mu.Unlock()
		closed = append(closed, id)
	})

	sid, _ := createReady(t, svc, time.Minute, 2)
	svc.Close(sid, "manual")
	svc.Close(sid, "manual")

	mu.Lock()
	defer mu.Unlock()
	if len(closed) != 1 || closed[0] != sid {
		t.Fatalf("want one callback for %s, got %v", sid, closed)
	}
}

func TestExpiryTreatedAsClosed(t *testing.T) {
	svc, clock, _ := newService(t)
	sid, _ := createReady(t, svc, time.Second, 2)

	clock.Advance(2 * time.Second)

	if _, err := svc.Get(sid); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("want ErrSessionClosed, got %v", err)
	}
	if _, err := svc.ConsumeTransferSlot(sid); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("want ErrSessionClosed, got %v", err)
	}
}

func TestSweepEvictsExpiredAndClosed(t *testing.T) {
	svc, clock, rec := newService(t)
	sid, _ := createReady(t, svc, time.Second, 2)

	clock.Advance(2 * time.Second)
	if n := svc.SweepOnce(); n != 1 {
		t.Fatalf("want 1 expired session, got %d", n)
	}
	if got := rec.count(domain.AuditSessionExpired); got != 1 {
		t.Fatalf("want one session_expired event, got %d", got)
	}

	// The tombstone goes on the next pass; afterwards the ID is unknown.
	svc.SweepOnce()
	if _, err := svc.Get(sid); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound after eviction, got %v", err)
	}
}

func TestUnknownSession(t *testing.T) {
	svc, _, _ := newService(t)
	if _, err := svc.Get("nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}

// Keep the audit queue exercised alongside the direct sink used above.
func TestAuditQueueDelivers(t *testing.T) {
	q := audit.NewQueue(8)
	rec := &recorder{}
	q.Subscribe(rec)

	clock := newFakeClock()
	svc := session.New(clock, rand.Reader, q, 0)
	if _, err := svc.Create("local", "remote", time.Minute, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	q.Close() // drains buffered events

	if got := rec.count(domain.AuditSessionCreated); got != 1 {
		t.Fatalf("want one session_created event through the queue, got %d", got)
	}
}
