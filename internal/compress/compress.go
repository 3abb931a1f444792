// Package compress wraps Zstandard compression for transfer payloads.
package compress

import (
	"errors"

	"github.com/klauspost/compress/zstd"
)

// MinSize is the smallest payload worth compressing. Below this the zstd
// frame overhead tends to outweigh any gain, so payloads go out raw.
const MinSize = 1024

// Worthwhile reports whether a payload of n bytes should be offered to the
// compressor at all.
func Worthwhile(n int) bool { return n >= MinSize }

// Compress compresses in with Zstandard.
//
// special case: nil or empty input yields empty output
func Compress(in []byte) ([]byte, error) {
	if len(in) == 0 {
		return []byte{}, nil
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Close()

	return encoder.EncodeAll(in, make([]byte, 0, len(in))), nil
}

// Decompress reverses Compress.
//
// special case: nil or empty input yields empty output
func Decompress(in []byte) ([]byte, error) {
	if len(in) == 0 {
		return []byte{}, nil
	}
	// min size for magic number = 4 bytes
	if len(in) < 4 {
		return nil, errors.New("magic number invalid")
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return decoder.DecodeAll(in, make([]byte, 0, len(in)))
}
