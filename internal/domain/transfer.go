package domain

import "time"

// TransferStatus is the lifecycle state of a transfer on the sending side.
type TransferStatus string

const (
	TransferEncrypting TransferStatus = "encrypting"
	TransferReady      TransferStatus = "ready"
	TransferInFlight   TransferStatus = "in_flight"
	TransferCompleted  TransferStatus = "completed"
	TransferFailed     TransferStatus = "failed"
)

// Chunk is one fixed-size slice of a transfer's ciphertext. Hash is the
// lowercase hex SHA-256 of Data, computed independently of the blob's AEAD
// tag so corruption can be caught per chunk during incremental transfer.
type Chunk struct {
	Index       int
	Data        []byte
	Hash        string
	Transmitted bool
}

// TransferMetadata describes a payload. It travels in the clear but is bound
// to the ciphertext as AEAD associated data, so any alteration fails
// decryption. Sensitivity is an opaque classification tag forwarded verbatim.
type TransferMetadata struct {
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	Sensitivity string `json:"sensitivity"`
	Compressed  bool   `json:"compressed"`
	CreatedUTC  int64  `json:"created_utc"`
}

// Transfer tracks one file's encrypt/chunk/transmit lifecycle. A transfer is
// owned by exactly one session; the session's key decrypts it.
type Transfer struct {
	ID        TransferID
	SessionID SessionID

	Metadata      TransferMetadata
	EncryptedSize int64

	Chunks []Chunk
	Sent   int

	Status    TransferStatus
	CreatedAt time.Time
}

// TotalChunks is the number of chunks the ciphertext was split into.
func (t *Transfer) TotalChunks() int { return len(t.Chunks) }
