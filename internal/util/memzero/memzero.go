package memzero

import "crypto/subtle"

// Zero overwrites b with zeros in a constant-time friendly way.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	zero := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zero)
}

// ZeroKey overwrites a fixed-size key array in place. Session key material
// is wiped through this before the owning record is dropped.
func ZeroKey(k *[32]byte) {
	Zero(k[:])
}
