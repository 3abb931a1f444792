package compress_test

import (
	"bytes"
	"testing"

	"casewire/internal/compress"
)

func TestRoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte("case file narrative section "), 512)

	packed, err := compress.Compress(in)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(packed) >= len(in) {
		t.Fatalf("repetitive input should shrink: %d -> %d", len(in), len(packed))
	}

	out, err := compress.Decompress(packed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Fatal("round trip mismatch")
	}
}

func TestEmptyInput(t *testing.T) {
	packed, err := compress.Compress(nil)
	if err != nil {
		t.Fatalf("Compress(nil): %v", err)
	}
	if len(packed) != 0 {
		t.Fatalf("want empty output, got %d bytes", len(packed))
	}
	out, err := compress.Decompress(nil)
	if err != nil {
		t.Fatalf("Decompress(nil): %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("want empty output, got %d bytes", len(out))
	}
}

func TestDecompressGarbage(t *testing.T) {
	if _, err := compress.Decompress([]byte{0x01}); err == nil {
		t.Fatal("short garbage must not decompress")
	}
}

func TestWorthwhile(t *testing.T) {
	if compress.Worthwhile(compress.MinSize - 1) {
		t.Fatal("payloads under the floor should go out raw")
	}
	if !compress.Worthwhile(compress.MinSize) {
		t.Fatal("payloads at the floor should be offered to the compressor")
	}
}
