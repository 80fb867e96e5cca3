package service

import (
	"crypto/sha256"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
)

const (
	signingKeyInfo = "a2a-envelope-signing-v1"
	sealingKeyInfo = "a2a-envelope-sealing-v1"
)

type keyring struct {
	masterKey []byte
}

// NewKeyring creates a Keyring deriving per-pair keys from the channel
// master key using HKDF-SHA256. Separate info strings keep signing and
// sealing key material independent.
func NewKeyring(masterKey []byte) (Keyring, error) {
	if len(masterKey) == 0 {
		return nil, apperrors.New("channel master key must not be empty")
	}
	return &keyring{masterKey: masterKey}, nil
}

// SigningKey derives the 32-byte HMAC key for the agent pair.
func (k *keyring) SigningKey(agentA, agentB string) ([]byte, error) {
	return k.derive(signingKeyInfo, agentA, agentB)
}

// SealingKey derives the 32-byte AEAD key for the agent pair.
func (k *keyring) SealingKey(agentA, agentB string) ([]byte, error) {
	return k.derive(sealingKeyInfo, agentA, agentB)
}

// derive runs HKDF-SHA256 over the master key with an info string built
// from the purpose and the order-independent pair identifier, so both ends
// derive the same key.
func (k *keyring) derive(purpose string, agentA, agentB string) ([]byte, error) {
	info := []byte(purpose + "|" + pairID(agentA, agentB))
	reader := hkdf.New(sha256.New, k.masterKey, nil, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, apperrors.Wrap(err, "failed to derive pair key")
	}
	return key, nil
}

// pairID joins the two agent IDs in lexicographic order.
func pairID(agentA, agentB string) string {
	if strings.Compare(agentA, agentB) > 0 {
		agentA, agentB = agentB, agentA
	}
	return agentA + "|" + agentB
}
