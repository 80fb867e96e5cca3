// Package service provides the secure channel's cryptographic machinery:
// per-pair key derivation, envelope signing, and payload sealing.
package service

import (
	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
)

// Keyring derives the per-agent-pair keys every envelope operation uses.
// Both ends of a pair derive identical keys regardless of direction.
type Keyring interface {
	// SigningKey derives the 32-byte HMAC key for the agent pair.
	SigningKey(agentA, agentB string) ([]byte, error)

	// SealingKey derives the 32-byte AEAD key for the agent pair.
	SealingKey(agentA, agentB string) ([]byte, error)
}

// EnvelopeSigner signs and verifies envelopes. The signature always covers
// the canonical plaintext form, never a ciphertext.
type EnvelopeSigner interface {
	// Sign computes the signature over the envelope's canonical bytes using
	// the plaintext payload. Returns the base64-encoded signature.
	Sign(key []byte, envelope *channelDomain.Envelope, plaintext []byte) (string, error)

	// Verify checks the envelope's signature against the plaintext payload.
	// Returns ErrSignatureInvalid on mismatch.
	Verify(key []byte, envelope *channelDomain.Envelope, plaintext []byte) error
}

// PayloadSealer encrypts and decrypts envelope payloads. The envelope's
// canonical header binds the ciphertext to the envelope it travels in.
type PayloadSealer interface {
	// Seal encrypts the plaintext payload for the envelope.
	Seal(key []byte, envelope *channelDomain.Envelope, plaintext []byte) (*channelDomain.EncryptedPayload, error)

	// Open decrypts an encrypted payload. Authentication failure means the
	// ciphertext or the envelope header was tampered with.
	Open(key []byte, envelope *channelDomain.Envelope, sealed *channelDomain.EncryptedPayload) ([]byte, error)
}
