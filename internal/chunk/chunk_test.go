package chunk_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"casewire/internal/chunk"
	"casewire/internal/domain"
)

func randomBuf(t *testing.T, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return buf
}

func TestSplit130KiB(t *testing.T) {
	buf := randomBuf(t, 130*1024)
	chunks := chunk.Split(buf, 64*1024)

	if len(chunks) != 3 {
		t.Fatalf("want 3 chunks, got %d", len(chunks))
	}
	wantSizes := []int{64 * 1024, 64 * 1024, 2 * 1024}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
		if len(c.Data) != wantSizes[i] {
			t.Fatalf("chunk %d: want %d bytes, got %d", i, wantSizes[i], len(c.Data))
		}
		if !chunk.Verify(c) {
			t.Fatalf("chunk %d hash does not verify", i)
		}
	}
}

func TestJoinAnyOrder(t *testing.T) {
	buf := randomBuf(t, 130*1024)
	chunks := chunk.Split(buf, 64*1024)

	shuffled := []domain.Chunk{chunks[2], chunks[0], chunks[1]}
	got, err := chunk.Join(shuffled)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !bytes.Equal(got, buf) {
		t.Fatal("join did not reproduce the original buffer")
	}
}

func TestJoinMissingChunk(t *testing.T) {
	chunks := chunk.Split(randomBuf(t, 130*1024), 64*1024)
	holed := []domain.Chunk{chunks[0], chunks[2]}
	if _, err := chunk.Join(holed); !errors.Is(err, domain.ErrReassemblyIncomplete) {
		t.Fatalf("want ErrReassemblyIncomplete, got %v", err)
	}
}

func TestJoinDuplicateIndex(t *testing.T) {
	chunks := chunk.Split(randomBuf(t, 130*1024), 64*1024)
	dup := []domain.Chunk{chunks[0], chunks[1], chunks[1]}
	if _, err := chunk.Join(dup); !errors.Is(err, domain.ErrReassemblyIncomplete) {
		t.Fatalf("want ErrReassemblyIncomplete, got %v", err)
	}
}

func TestJoinEmptySet(t *testing.T) {
	if _, err := chunk.Join(nil); !errors.Is(err, domain.ErrReassemblyIncomplete) {
		t.Fatalf("want ErrReassemblyIncomplete, got %v", err)
	}
}

func TestCount(t *testing.T) {
	if got := chunk.Count(0, 64); got != 0 {
		t.Fatalf("Count(0): %d", got)
	}
	if got := chunk.Count(1, 64); got != 1 {
		t.Fatalf("Count(1): %d", got)
	}
	if got := chunk.Count(64, 64); got != 1 {
		t.Fatalf("Count(64): %d", got)
	}
	if got := chunk.Count(65, 64); got != 2 {
		t.Fatalf("Count(65): %d", got)
	}
}
