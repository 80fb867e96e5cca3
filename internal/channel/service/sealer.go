package service

import (
	"encoding/base64"

	"golang.org/x/crypto/chacha20poly1305"

	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
)

type payloadSealer struct{}

// NewPayloadSealer creates a ChaCha20-Poly1305 based payload sealer.
//
// ChaCha20-Poly1305 is an authenticated encryption algorithm that combines
// the ChaCha20 stream cipher with the Poly1305 MAC. The envelope's canonical
// header is passed as additional authenticated data, so a ciphertext lifted
// into a different envelope fails authentication.
func NewPayloadSealer() PayloadSealer {
	return &payloadSealer{}
}

// Seal encrypts the plaintext payload with a fresh random nonce.
func (p *payloadSealer) Seal(
	key []byte,
	envelope *channelDomain.Envelope,
	plaintext []byte,
) (*channelDomain.EncryptedPayload, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create cipher")
	}

	nonce, err := randomBytes(aead.NonceSize())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate nonce")
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, canonicalHeader(envelope))
	return &channelDomain.EncryptedPayload{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Open decrypts an encrypted payload, authenticating it against the
// envelope's canonical header.
func (p *payloadSealer) Open(
	key []byte,
	envelope *channelDomain.Envelope,
	sealed *channelDomain.EncryptedPayload,
) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create cipher")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(sealed.Ciphertext)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSecurity, "malformed ciphertext encoding")
	}
	nonce, err := base64.StdEncoding.DecodeString(sealed.Nonce)
	if err != nil || len(nonce) != aead.NonceSize() {
		return nil, apperrors.Wrap(apperrors.ErrSecurity, "malformed nonce")
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, canonicalHeader(envelope))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSecurity, "payload authentication failed")
	}
	return plaintext, nil
}
