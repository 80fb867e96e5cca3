// Package service provides technical services for the token authority.
//
// It implements secure random credential generation, Argon2id secret hashing,
// SHA-256 token hashing, and PKCE code challenge verification.
package service

// SecretService defines operations for client secret generation and validation.
// Implementations must use cryptographically secure random generation and a
// memory-hard hashing algorithm for at-rest storage.
type SecretService interface {
	// GenerateSecret creates a new cryptographically secure random secret.
	// Returns both the plain text secret (to be shared with the client once)
	// and the hashed version (to be stored).
	GenerateSecret() (plainSecret string, hashedSecret string, error error)

	// HashSecret hashes a plain text secret for at-rest storage.
	HashSecret(plainSecret string) (hashedSecret string, error error)

	// CompareSecret compares a plain text secret against a hashed secret in
	// constant time. Returns true on a match.
	CompareSecret(plainSecret string, hashedSecret string) bool
}

// TokenService defines operations for token and authorization code generation.
// Tokens are short-lived bearer credentials, so a fast hash (SHA-256) suffices
// for the at-rest representation.
type TokenService interface {
	// GenerateToken creates a new cryptographically secure random token.
	// Returns the plain token and its SHA-256 hash.
	GenerateToken() (plainToken string, tokenHash string, error error)

	// HashToken hashes a plain text token using SHA-256 for store lookups.
	HashToken(plainToken string) string
}
