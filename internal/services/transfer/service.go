package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"casewire/internal/chunk"
	"casewire/internal/compress"
	"casewire/internal/crypto"
	"casewire/internal/domain"
)

// Defaults applied when Config fields are zero.
const (
	DefaultMaxFileBytes = 100 << 20 // 100 MiB
	DefaultRetention    = time.Hour
)

// Config bounds the engine.
type Config struct {
	ChunkSize    int           // ciphertext chunk size, default 64 KiB
	MaxFileBytes int64         // plaintext ceiling per transfer
	Retention    time.Duration // how long finished transfers are kept
}

func (c *Config) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = chunk.DefaultSize
	}
	if c.MaxFileBytes <= 0 {
		c.MaxFileBytes = DefaultMaxFileBytes
	}
	if c.Retention <= 0 {
		c.Retention = DefaultRetention
	}
}

// record pairs a transfer with its own mutex so two chunk fetches racing on
// the same transfer can never hand out one index twice.
type record struct {
	mu sync.Mutex
	t  domain.Transfer
}

// Service is the transfer engine. It authorizes every call through the
// session directory, so a session closed mid-transfer fails fast instead of
// hanging.
type Service struct {
	sessions domain.SessionDirectory
	clock    domain.Clock
	rand     io.Reader
	audit    domain.AuditSink
	cfg      Config

	mu        sync.Mutex
	transfers map[domain.TransferID]*record
}

// New constructs a transfer Service over the given session directory.
func New(sessions domain.SessionDirectory, clock domain.Clock, rnd io.Reader, audit domain.AuditSink, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{
		sessions:  sessions,
		clock:     clock,
		rand:      rnd,
		audit:     audit,
		cfg:       cfg,
		transfers: make(map[domain.TransferID]*record),
	}
}

// Transmit encrypts and chunks one file under the session's key.
//
// The size ceiling is checked before the quota so an oversized file never
// consumes a transfer slot. Compression is applied only when the payload is
// large enough and actually shrinks; the decision is recorded in the
// authenticated metadata so the receiver self-configures.
func (s *Service) Transmit(sessionID domain.SessionID, fileBytes []byte, meta domain.TransferMetadata) (domain.TransferPrepResponse, error) {
	if int64(len(fileBytes)) > s.cfg.MaxFileBytes {
		return domain.TransferPrepResponse{}, fmt.Errorf("%w: %d bytes over %d ceiling",
			domain.ErrFileTooLarge, len(fileBytes), s.cfg.MaxFileBytes)
	}

	sess, err := s.sessions.ConsumeTransferSlot(sessionID)
	if err != nil {
		return domain.TransferPrepResponse{}, err
	}

	payload := fileBytes
	meta.Compressed = false
	if compress.Worthwhile(len(fileBytes)) {
		packed, err := compress.Compress(fileBytes)
		if err != nil {
			return domain.TransferPrepResponse{}, s.fail(sessionID, "", fmt.Errorf("compress payload: %w", err))
		}
		if len(packed) < len(fileBytes) {
			payload = packed
			meta.Compressed = true
		}
	}
	meta.FileSize = int64(len(fileBytes))
	meta.CreatedUTC = s.clock.Now().Unix()

	aad, err := json.Marshal(meta)
	if err != nil {
		return domain.TransferPrepResponse{}, fmt.Errorf("encode metadata: %w", err)
	}
	blob, err := crypto.SealBlob(sess.Key, payload, aad, s.rand)
	if err != nil {
		return domain.TransferPrepResponse{}, s.fail(sessionID, "", fmt.Errorf("seal payload: %w", err))
	}

	rec := &record{t: domain.Transfer{
		ID:            domain.TransferID(uuid.NewString()),
		SessionID:     sessionID,
		Metadata:      meta,
		EncryptedSize: int64(len(blob)),
		Chunks:        chunk.Split(blob, s.cfg.ChunkSize),
		Status:        domain.TransferReady,
		CreatedAt:     s.clock.Now(),
	}}

	s.mu.Lock()
	s.transfers[rec.t.ID] = rec
	s.mu.Unlock()

	s.audit.Record(domain.AuditEvent{
		Action:     domain.AuditTransferPrepared,
		SessionID:  sessionID,
		TransferID: rec.t.ID,
		Principal:  sess.LocalParty,
		Timestamp:  s.clock.Now(),
		Fields: map[string]string{
			"file_name":   meta.FileName,
			"file_size":   strconv.FormatInt(meta.FileSize, 10),
			"chunks":      strconv.Itoa(rec.t.TotalChunks()),
			"compressed":  strconv.FormatBool(meta.Compressed),
			"sensitivity": meta.Sensitivity,
		},
	})

	return domain.TransferPrepResponse{
		TransferID:    rec.t.ID.String(),
		FileName:      meta.FileName,
		FileSize:      meta.FileSize,
		EncryptedSize: rec.t.EncryptedSize,
		TotalChunks:   rec.t.TotalChunks(),
		Metadata:      meta,
	}, nil
}

// NextChunk returns the lowest-index untransmitted chunk and marks it
// transmitted. Once every chunk has been handed out it returns nil and
// moves the transfer to completed; that is the sole completion path on the
// sending side.
func (s *Service) NextChunk(transferID domain.TransferID) (*domain.ChunkRecord, error) {
	rec, err := s.lookup(transferID)
	if err != nil {
		return nil, err
	}
	// Re-authorize on every fetch so a session closed mid-flight fails
	// fast instead of draining stale chunks.
	if _, err := s.sessions.Authorize(rec.t.SessionID); err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	switch rec.t.Status {
	case domain.TransferReady, domain.TransferInFlight:
	case domain.TransferCompleted:
		return nil, nil
	default:
		return nil, fmt.Errorf("transfer %s is %s", transferID, rec.t.Status)
	}

	for i := range rec.t.Chunks {
		c := &rec.t.Chunks[i]
		if c.Transmitted {
			continue
		}
		c.Transmitted = true
		rec.t.Sent++
		rec.t.Status = domain.TransferInFlight
		total := rec.t.TotalChunks()
		return &domain.ChunkRecord{
			TransferID:  transferID.String(),
			ChunkIndex:  c.Index,
			Data:        crypto.B64(c.Data),
			Hash:        c.Hash,
			IsLastChunk: c.Index == total-1,
			Progress:    int(math.Round(float64(rec.t.Sent) / float64(total) * 100)),
		}, nil
	}

	rec.t.Status = domain.TransferCompleted
	s.audit.Record(domain.AuditEvent{
		Action:     domain.AuditTransferCompleted,
		SessionID:  rec.t.SessionID,
		TransferID: transferID,
		Timestamp:  s.clock.Now(),
		Fields:     map[string]string{"chunks": strconv.Itoa(rec.t.TotalChunks())},
	})
	return nil, nil
}

// Receive reassembles and decrypts a transfer. Gates run in order, each a
// hard abort: per-chunk hashes, chunk-set completeness, the AEAD tag over
// ciphertext and metadata, then decompression when the metadata says so.
func (s *Service) Receive(sessionID domain.SessionID, meta domain.TransferMetadata, chunks []domain.Chunk) ([]byte, domain.TransferMetadata, error) {
	sess, err := s.sessions.Authorize(sessionID)
	if err != nil {
		return nil, meta, err
	}

	for _, c := range chunks {
		if !chunk.Verify(c) {
			return nil, meta, s.fail(sessionID, "", fmt.Errorf("%w: chunk %d", domain.ErrChunkIntegrity, c.Index))
		}
	}

	blob, err := chunk.Join(chunks)
	if err != nil {
		return nil, meta, s.fail(sessionID, "", err)
	}

	aad, err := json.Marshal(meta)
	if err != nil {
		return nil, meta, fmt.Errorf("encode metadata: %w", err)
	}
	payload, err := crypto.OpenBlob(sess.Key, blob, aad)
	if err != nil {
		return nil, meta, s.fail(sessionID, "", err)
	}

	if meta.Compressed {
		payload, err = compress.Decompress(payload)
		if err != nil {
			return nil, meta, s.fail(sessionID, "", fmt.Errorf("decompress payload: %w", err))
		}
	}

	s.audit.Record(domain.AuditEvent{
		Action:    domain.AuditTransferReceived,
		SessionID: sessionID,
		Principal: sess.LocalParty,
		Timestamp: s.clock.Now(),
		Fields: map[string]string{
			"file_name": meta.FileName,
			"file_size": strconv.FormatInt(int64(len(payload)), 10),
		},
	})
	return payload, meta, nil
}

// Abort moves a transfer to failed, a terminal state reachable from any
// other. Further chunk fetches on it error out; the record stays until the
// retention sweep so callers can inspect it.
func (s *Service) Abort(transferID domain.TransferID, reason string) error {
	rec, err := s.lookup(transferID)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	if rec.t.Status == domain.TransferFailed {
		rec.mu.Unlock()
		return nil
	}
	rec.t.Status = domain.TransferFailed
	sessionID := rec.t.SessionID
	rec.mu.Unlock()

	s.audit.Record(domain.AuditEvent{
		Action:     domain.AuditTransferFailed,
		SessionID:  sessionID,
		TransferID: transferID,
		Timestamp:  s.clock.Now(),
		Fields:     map[string]string{"reason": reason},
	})
	return nil
}

// Get returns a snapshot of a tracked transfer.
func (s *Service) Get(transferID domain.TransferID) (domain.Transfer, error) {
	rec, err := s.lookup(transferID)
	if err != nil {
		return domain.Transfer{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	snap := rec.t
	snap.Chunks = append([]domain.Chunk(nil), rec.t.Chunks...)
	return snap, nil
}

// RemoveForSession drops every transfer owned by the session. Wired as the
// session service's close callback.
func (s *Service) RemoveForSession(sessionID domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.transfers {
		if rec.t.SessionID == sessionID {
			delete(s.transfers, id)
		}
	}
}

// SweepOnce evicts transfers older than the retention window, whatever
// their state, and returns how many were dropped.
func (s *Service) SweepOnce() int {
	cutoff := s.clock.Now().Add(-s.cfg.Retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, rec := range s.transfers {
		if rec.t.CreatedAt.Before(cutoff) {
			delete(s.transfers, id)
			dropped++
		}
	}
	return dropped
}

// Sweep runs SweepOnce on the given interval until ctx is cancelled.
func (s *Service) Sweep(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = s.cfg.Retention
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

func (s *Service) lookup(id domain.TransferID) (*record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.transfers[id]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	return rec, nil
}

// fail emits a transfer_failed audit event and passes the error through.
func (s *Service) fail(sessionID domain.SessionID, transferID domain.TransferID, err error) error {
	s.audit.Record(domain.AuditEvent{
		Action:     domain.AuditTransferFailed,
		SessionID:  sessionID,
		TransferID: transferID,
		Timestamp:  s.clock.Now(),
		Fields:     map[string]string{"error": err.Error()},
	})
	return err
}
