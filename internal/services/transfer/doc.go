// Package transfer orchestrates one file transmission end to end: encrypt,
// chunk, hand out chunks for transport, and reassemble/verify/decrypt on
// the receiving side.
//
// Reception is all-or-nothing. Every gate (per-chunk hash, chunk-set
// completeness, AEAD tag, decompression) aborts the whole operation;
// partially decrypted or partially reassembled data is never returned.
// Nothing here retries; retry policy belongs to the transport's owner.
package transfer
