package service

import (
	"context"

	"gocloud.dev/secrets"

	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"

	// Register KMS provider drivers for keeper URIs
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/localsecrets"
)

// Keystore wraps private key material before it is handed to storage and
// unwraps it when TLS material is built. The storage format itself is owned
// by the collaborator, not by the authority.
type Keystore interface {
	// Wrap encrypts key material for at-rest storage.
	Wrap(ctx context.Context, keyPEM []byte) ([]byte, error)

	// Unwrap decrypts key material previously wrapped by Wrap.
	Unwrap(ctx context.Context, wrapped []byte) ([]byte, error)

	// Close releases the underlying keeper resources.
	Close() error
}

// keeperKeystore implements Keystore using a gocloud.dev secrets keeper.
// Supports: awskms://, gcpkms://, azurekeyvault://, base64key://
type keeperKeystore struct {
	keeper *secrets.Keeper
}

// NewKeystore opens a secrets keeper for the given URI.
func NewKeystore(ctx context.Context, keeperURI string) (Keystore, error) {
	keeper, err := secrets.OpenKeeper(ctx, keeperURI)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open secrets keeper")
	}
	return &keeperKeystore{keeper: keeper}, nil
}

func (k *keeperKeystore) Wrap(ctx context.Context, keyPEM []byte) ([]byte, error) {
	wrapped, err := k.keeper.Encrypt(ctx, keyPEM)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to wrap key material")
	}
	return wrapped, nil
}

func (k *keeperKeystore) Unwrap(ctx context.Context, wrapped []byte) ([]byte, error) {
	keyPEM, err := k.keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unwrap key material")
	}
	return keyPEM, nil
}

func (k *keeperKeystore) Close() error {
	return k.keeper.Close()
}

// passthroughKeystore stores key material unwrapped. Used when no keeper URI
// is configured (development, tests).
type passthroughKeystore struct{}

// NewPassthroughKeystore creates a Keystore that does not wrap key material.
func NewPassthroughKeystore() Keystore {
	return &passthroughKeystore{}
}

func (p *passthroughKeystore) Wrap(ctx context.Context, keyPEM []byte) ([]byte, error) {
	return keyPEM, nil
}

func (p *passthroughKeystore) Unwrap(ctx context.Context, wrapped []byte) ([]byte, error) {
	return wrapped, nil
}

func (p *passthroughKeystore) Close() error {
	return nil
}
