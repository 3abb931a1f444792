// Package chunk splits ciphertext into fixed-size chunks and reassembles
// them, with a per-chunk SHA-256 content hash for early corruption
// detection during incremental transfer.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"casewire/internal/domain"
)

// DefaultSize is the chunk size used when none is configured.
const DefaultSize = 64 * 1024

// Count returns ceil(total/size).
func Count(total int64, size int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// HashHex returns the lowercase hex SHA-256 of b.
func HashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Split slices buf into ordered chunks of at most size bytes, each carrying
// its content hash. The chunk data aliases buf; callers that mutate buf must
// copy first.
func Split(buf []byte, size int) []domain.Chunk {
	if size <= 0 {
		size = DefaultSize
	}
	n := Count(int64(len(buf)), size)
	chunks := make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		lo := i * size
		hi := lo + size
		if hi > len(buf) {
			hi = len(buf)
		}
		data := buf[lo:hi]
		chunks = append(chunks, domain.Chunk{
			Index: i,
			Data:  data,
			Hash:  HashHex(data),
		})
	}
	return chunks
}

// Verify reports whether the chunk's data matches its claimed content hash.
func Verify(c domain.Chunk) bool {
	return HashHex(c.Data) == c.Hash
}

// Join reassembles the original buffer from chunks in any order. The set
// must cover indices 0..len(chunks)-1 exactly, with no gaps or duplicates;
// otherwise it fails with domain.ErrReassemblyIncomplete and returns no
// partial result.
func Join(chunks []domain.Chunk) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: empty chunk set", domain.ErrReassemblyIncomplete)
	}

	ordered := make([]domain.Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	total := 0
	for i, c := range ordered {
		if c.Index != i {
			return nil, fmt.Errorf("%w: index %d missing", domain.ErrReassemblyIncomplete, i)
		}
		total += len(c.Data)
	}

	out := make([]byte, 0, total)
	for _, c := range ordered {
		out = append(out, c.Data...)
	}
	return out, nil
}
