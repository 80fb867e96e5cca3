package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"

	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
)

type envelopeSigner struct{}

// NewEnvelopeSigner creates an HMAC-SHA256 envelope signer. Signatures cover
// the canonical plaintext bytes, so integrity holds whether or not the
// payload is later encrypted.
func NewEnvelopeSigner() EnvelopeSigner {
	return &envelopeSigner{}
}

// Sign computes the HMAC-SHA256 signature over the envelope's canonical bytes.
func (s *envelopeSigner) Sign(
	key []byte,
	envelope *channelDomain.Envelope,
	plaintext []byte,
) (string, error) {
	mac := hmac.New(sha256.New, key)
	mac.Write(canonicalBytes(envelope, plaintext))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify checks the envelope's signature against the plaintext payload.
func (s *envelopeSigner) Verify(
	key []byte,
	envelope *channelDomain.Envelope,
	plaintext []byte,
) error {
	signature, err := base64.StdEncoding.DecodeString(envelope.Signature)
	if err != nil {
		return channelDomain.ErrSignatureInvalid
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(canonicalBytes(envelope, plaintext))
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return channelDomain.ErrSignatureInvalid
	}
	return nil
}

// canonicalBytes builds the signing payload: length-prefixed id, from, to,
// type, payload and nonce, then the big-endian unix-nano timestamp. Length
// prefixes keep variable-length fields unambiguous.
func canonicalBytes(envelope *channelDomain.Envelope, plaintext []byte) []byte {
	buf := make([]byte, 0, 256+len(plaintext))

	buf = appendLengthPrefixed(buf, []byte(envelope.ID))
	buf = appendLengthPrefixed(buf, []byte(envelope.From))
	buf = appendLengthPrefixed(buf, []byte(envelope.To))
	buf = appendLengthPrefixed(buf, []byte(string(envelope.Type)))
	buf = appendLengthPrefixed(buf, plaintext)
	buf = appendLengthPrefixed(buf, []byte(envelope.Nonce))

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(envelope.Timestamp.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf
}

// canonicalHeader is the envelope identity without the payload. It is the
// AAD for payload sealing, binding a ciphertext to its envelope.
func canonicalHeader(envelope *channelDomain.Envelope) []byte {
	buf := make([]byte, 0, 256)

	buf = appendLengthPrefixed(buf, []byte(envelope.ID))
	buf = appendLengthPrefixed(buf, []byte(envelope.From))
	buf = appendLengthPrefixed(buf, []byte(envelope.To))
	buf = appendLengthPrefixed(buf, []byte(string(envelope.Type)))
	buf = appendLengthPrefixed(buf, []byte(envelope.Nonce))

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(envelope.Timestamp.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
// Panics if data length exceeds uint32 max to prevent integer overflow.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	dataLen := len(data)
	if dataLen > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(dataLen))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}
