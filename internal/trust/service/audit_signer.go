package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"

	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
	trustDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
)

type auditSigner struct {
	auditKey []byte
}

// NewAuditSigner creates an HMAC-based security event signer using
// HKDF-SHA256 for key derivation and HMAC-SHA256 for signature generation.
func NewAuditSigner(auditKey []byte) (AuditSigner, error) {
	if len(auditKey) == 0 {
		return nil, apperrors.New("audit key must not be empty")
	}
	return &auditSigner{auditKey: auditKey}, nil
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// audit key. Info parameter is versioned for future algorithm changes.
func (a *auditSigner) deriveSigningKey() ([]byte, error) {
	info := []byte("security-event-signing-v1")
	reader := hkdf.New(sha256.New, a.auditKey, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, err
	}
	return signingKey, nil
}

// canonicalizeEvent converts the event to canonical bytes for signing.
// Variable-length fields are length-prefixed to prevent ambiguity.
func (a *auditSigner) canonicalizeEvent(event *trustDomain.SecurityEvent) []byte {
	buf := make([]byte, 0, 256)

	buf = append(buf, event.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(string(event.Type)))
	buf = appendLengthPrefixed(buf, []byte(event.AgentID))
	if event.Success {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = appendLengthPrefixed(buf, []byte(event.ErrorCode))
	buf = appendLengthPrefixed(buf, []byte(event.Detail))

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(event.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf
}

// Sign generates the HMAC-SHA256 signature for the event.
func (a *auditSigner) Sign(event *trustDomain.SecurityEvent) ([]byte, error) {
	signingKey, err := a.deriveSigningKey()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to derive signing key")
	}
	defer zero(signingKey)

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(a.canonicalizeEvent(event))
	return mac.Sum(nil), nil
}

// Verify checks the event's signature.
func (a *auditSigner) Verify(event *trustDomain.SecurityEvent) error {
	expected, err := a.Sign(event)
	if err != nil {
		return err
	}
	if !hmac.Equal(event.Signature, expected) {
		return trustDomain.ErrSignatureInvalid
	}
	return nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// zero overwrites sensitive data in memory with zeros.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
