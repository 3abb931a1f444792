package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"casewire/internal/crypto"
	"casewire/internal/domain"
	"casewire/internal/protocol/exchange"
	"casewire/internal/util/memzero"
)

// Defaults applied when a caller passes zero values to Create.
const (
	DefaultTTL          = time.Hour
	DefaultMaxTransfers = 16
	DefaultSweepEvery   = 5 * time.Minute
)

// errExpired marks a session found past its deadline during lookup; callers
// translate it into a full close plus domain.ErrSessionClosed.
var errExpired = errors.New("session expired")

// Service manages session state: creation, key exchange completion,
// quota accounting, expiry, and destruction.
//
// A session's derived key is set exactly once, by CompleteExchange. Closing
// is idempotent; closed and expired sessions fail every operation with
// domain.ErrSessionClosed.
type Service struct {
	clock      domain.Clock
	rand       io.Reader
	audit      domain.AuditSink
	iterations int

	mu       sync.Mutex
	sessions map[domain.SessionID]*domain.Session
	onClose  []func(domain.SessionID)
}

// New constructs a session Service. kdfIterations below the PBKDF2 floor is
// raised to it.
func New(clock domain.Clock, rnd io.Reader, audit domain.AuditSink, kdfIterations int) *Service {
	return &Service{
		clock:      clock,
		rand:       rnd,
		audit:      audit,
		iterations: kdfIterations,
		sessions:   make(map[domain.SessionID]*domain.Session),
	}
}

// OnClose registers a callback fired once per session close, after key
// material is zeroed. The transfer engine uses this to drop owned transfers.
func (s *Service) OnClose(fn func(domain.SessionID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = append(s.onClose, fn)
}

// Create opens a pending-exchange session between two principals and
// generates this side's ephemeral key pair. It fails only if the RNG does.
func (s *Service) Create(local, remote domain.PrincipalID, ttl time.Duration, maxTransfers int) (domain.SessionInitResponse, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxTransfers <= 0 {
		maxTransfers = DefaultMaxTransfers
	}

	priv, pub, err := exchange.Initiate(s.rand)
	if err != nil {
		return domain.SessionInitResponse{}, err
	}

	now := s.clock.Now()
	sess := &domain.Session{
		ID:           domain.SessionID(uuid.NewString()),
		LocalParty:   local,
		RemoteParty:  remote,
		PrivateKey:   priv,
		PublicKey:    pub,
		Active:       true,
		MaxTransfers: maxTransfers,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.audit.Record(domain.AuditEvent{
		Action:    domain.AuditSessionCreated,
		SessionID: sess.ID,
		Principal: local,
		Timestamp: now,
		Fields: map[string]string{
			"remote":        remote.String(),
			"public_key":    crypto.Fingerprint(pub.Slice()),
			"max_transfers": strconv.Itoa(maxTransfers),
			"expires_at":    sess.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})

	return domain.SessionInitResponse{
		SessionID: sess.ID.String(),
		PublicKey: crypto.B64(pub.Slice()),
		ExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// CompleteExchange derives and stores the session key from the remote
// party's ephemeral public key. This is the only path that sets the key,
// and it may run at most once per session.
func (s *Service) CompleteExchange(id domain.SessionID, remotePub []byte) error {
	s.mu.Lock()
	sess, err := s.liveLocked(id)
	if err != nil {
		s.mu.Unlock()
		return s.lookupFailed(id, err)
	}
	if sess.KeyExchanged {
		s.mu.Unlock()
		return domain.ErrKeyExchangeDone
	}

	key, err := exchange.Complete(sess.PrivateKey, remotePub, id, s.iterations)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("complete key exchange: %w", err)
	}
	sess.Key = key
	sess.KeyExchanged = true
	local := sess.LocalParty
	s.mu.Unlock()

	s.audit.Record(domain.AuditEvent{
		Action:    domain.AuditKeyExchangeComplete,
		SessionID: id,
		Principal: local,
		Timestamp: s.clock.Now(),
		Fields: map[string]string{
			"remote_public_key": crypto.Fingerprint(remotePub),
		},
	})
	return nil
}

// Get returns a snapshot of a live session.
func (s *Service) Get(id domain.SessionID) (domain.Session, error) {
	s.mu.Lock()
	sess, err := s.liveLocked(id)
	if err != nil {
		s.mu.Unlock()
		return domain.Session{}, s.lookupFailed(id, err)
	}
	snap := *sess
	s.mu.Unlock()
	return snap, nil
}

// Authorize returns a snapshot of a live session whose key exchange has
// completed.
func (s *Service) Authorize(id domain.SessionID) (domain.Session, error) {
	s.mu.Lock()
	sess, err := s.liveLocked(id)
	if err != nil {
		s.mu.Unlock()
		return domain.Session{}, s.lookupFailed(id, err)
	}
	if !sess.KeyExchanged {
		s.mu.Unlock()
		return domain.Session{}, domain.ErrKeyExchangeIncomplete
	}
	snap := *sess
	s.mu.Unlock()
	return snap, nil
}

// ConsumeTransferSlot authorizes the session and claims one transfer slot.
// When the ceiling would be exceeded it fails with domain.ErrQuotaExceeded
// and leaves the count untouched.
func (s *Service) ConsumeTransferSlot(id domain.SessionID) (domain.Session, error) {
	s.mu.Lock()
	sess, err := s.liveLocked(id)
	if err != nil {
		s.mu.Unlock()
		return domain.Session{}, s.lookupFailed(id, err)
	}
	if !sess.KeyExchanged {
		s.mu.Unlock()
		return domain.Session{}, domain.ErrKeyExchangeIncomplete
	}
	if sess.TransferCount >= sess.MaxTransfers {
		s.mu.Unlock()
		return domain.Session{}, domain.ErrQuotaExceeded
	}
	sess.TransferCount++
	snap := *sess
	s.mu.Unlock()
	return snap, nil
}

// Close tears a session down: zeroes key material, marks it inactive, fires
// close callbacks (dropping owned transfers) and emits a session_closed
// audit event. Closing an already-closed session is a no-op.
func (s *Service) Close(id domain.SessionID, reason string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok || !sess.Active {
		s.mu.Unlock()
		return
	}
	zeroKeys(sess)
	sess.Active = false
	duration := s.clock.Now().Sub(sess.CreatedAt)
	transfers := sess.TransferCount
	local := sess.LocalParty
	callbacks := append([]func(domain.SessionID){}, s.onClose...)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(id)
	}
	s.audit.Record(domain.AuditEvent{
		Action:    domain.AuditSessionClosed,
		SessionID: id,
		Principal: local,
		Timestamp: s.clock.Now(),
		Fields: map[string]string{
			"reason":      reason,
			"duration_ms": strconv.FormatInt(duration.Milliseconds(), 10),
			"transfers":   strconv.Itoa(transfers),
		},
	})
}

// SweepOnce closes every session past its deadline and evicts records
// already closed. It returns how many sessions this pass expired.
func (s *Service) SweepOnce() int {
	now := s.clock.Now()

	s.mu.Lock()
	var expired []domain.SessionID
	for id, sess := range s.sessions {
		switch {
		case !sess.Active:
			delete(s.sessions, id)
		case sess.Expired(now):
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.expire(id)
	}
	return len(expired)
}

// Sweep runs SweepOnce on the given interval until ctx is cancelled. A
// non-positive interval falls back to the default.
func (s *Service) Sweep(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = DefaultSweepEvery
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// liveLocked resolves id to an active, unexpired session. Caller holds s.mu.
func (s *Service) liveLocked(id domain.SessionID) (*domain.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if !sess.Active {
		return nil, domain.ErrSessionClosed
	}
	if sess.Expired(s.clock.Now()) {
		return nil, errExpired
	}
	return sess, nil
}

// lookupFailed maps lookup errors for callers, turning lazy expiry into a
// full close so owned transfers are dropped even without a sweep. Caller
// must have released s.mu.
func (s *Service) lookupFailed(id domain.SessionID, err error) error {
	if errors.Is(err, errExpired) {
		s.expire(id)
		return domain.ErrSessionClosed
	}
	return err
}

func (s *Service) expire(id domain.SessionID) {
	s.audit.Record(domain.AuditEvent{
		Action:    domain.AuditSessionExpired,
		SessionID: id,
		Timestamp: s.clock.Now(),
	})
	s.Close(id, "expired")
}

func zeroKeys(sess *domain.Session) {
	memzero.ZeroKey((*[32]byte)(&sess.PrivateKey))
	memzero.ZeroKey((*[32]byte)(&sess.Key))
}

// Compile-time assertion that Service implements domain.SessionDirectory.
var _ domain.SessionDirectory = (*Service)(nil)
