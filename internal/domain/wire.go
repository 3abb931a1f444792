package domain

// Wire-level DTOs defined by the transmission layer. Binary fields are
// base64, hashes are lowercase hex SHA-256, timestamps are RFC 3339.

// SessionInitResponse is returned when a session is created.
type SessionInitResponse struct {
	SessionID string `json:"sessionId"`
	PublicKey string `json:"publicKey"`
	ExpiresAt string `json:"expiresAt"`
}

// KeyExchangeRequest carries the remote party's ephemeral public key.
type KeyExchangeRequest struct {
	SessionID       string `json:"sessionId"`
	RemotePublicKey string `json:"remotePublicKey"`
}

// TransferPrepResponse describes a prepared (encrypted and chunked) transfer.
type TransferPrepResponse struct {
	TransferID    string           `json:"transferId"`
	FileName      string           `json:"fileName"`
	FileSize      int64            `json:"fileSize"`
	EncryptedSize int64            `json:"encryptedSize"`
	TotalChunks   int              `json:"totalChunks"`
	Metadata      TransferMetadata `json:"metadata"`
}

// ChunkRecord is one ciphertext chunk ready for the transport.
type ChunkRecord struct {
	TransferID  string `json:"transferId"`
	ChunkIndex  int    `json:"chunkIndex"`
	Data        string `json:"data"`
	Hash        string `json:"hash"`
	IsLastChunk bool   `json:"isLastChunk"`
	Progress    int    `json:"progress"`
}

// ChannelEnvelope is the per-message frame of the encrypted channel. Each
// message is independently authenticated; the timestamp is bound as
// associated data.
type ChannelEnvelope struct {
	IV        string `json:"iv"`
	Data      string `json:"data"`
	Tag       string `json:"tag"`
	Timestamp string `json:"timestamp"`
}
