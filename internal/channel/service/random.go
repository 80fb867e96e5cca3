package service

import (
	"crypto/rand"
	"encoding/base64"
)

// nonceLength is the size of the envelope-level nonce in bytes.
const nonceLength = 16

// GenerateNonce returns a random base64-encoded envelope nonce.
func GenerateNonce() (string, error) {
	b, err := randomBytes(nonceLength)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
