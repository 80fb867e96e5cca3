package domain

import (
	"encoding/json"
	"time"
)

// Envelope is the wire unit exchanged between agents. The signature always
// covers the plaintext payload; when Encrypted is set the payload field
// carries an EncryptedPayload instead, sealed after signing.
type Envelope struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
	Nonce     string          `json:"nonce"`
	Signature string          `json:"signature"`
	Encrypted bool            `json:"encrypted"`
}

// EncryptedPayload is the payload form of an encrypted envelope: the AEAD
// ciphertext with its nonce, both base64 encoded.
type EncryptedPayload struct {
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
}

// SendOptions tunes a single send operation.
type SendOptions struct {
	Encrypt  bool
	Priority Priority
	Timeout  time.Duration
}

// Response is returned to the sender after an envelope was dispatched.
type Response struct {
	MessageID string          `json:"message_id"`
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data,omitempty"`
}
