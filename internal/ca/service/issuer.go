// Package service provides the X.509 machinery behind the certificate
// authority: root and leaf key generation, certificate signing, chain
// verification, and TLS config construction.
package service

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"time"

	caDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/ca/domain"
	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
)

// RootIdentity is the authority's own key pair and self-signed certificate,
// created once at startup and held for the process lifetime.
type RootIdentity struct {
	Certificate    *x509.Certificate
	PrivateKey     *ecdsa.PrivateKey
	CertificatePEM []byte
}

// LeafMaterial is a freshly issued leaf certificate and its private key.
type LeafMaterial struct {
	CertificatePEM []byte
	PrivateKeyPEM  []byte
	NotBefore      time.Time
	NotAfter       time.Time
}

// Issuer defines the X.509 operations the certificate authority depends on.
type Issuer interface {
	// GenerateRoot creates a self-signed root identity with the given common
	// name and validity.
	GenerateRoot(commonName string, validity time.Duration) (*RootIdentity, error)

	// IssueLeaf creates a new key pair and leaf certificate for the agent,
	// signed by the root, with the given serial number and validity.
	IssueLeaf(
		root *RootIdentity,
		agentID string,
		subject caDomain.SubjectInfo,
		serial int64,
		validity time.Duration,
	) (*LeafMaterial, error)

	// Verify checks a PEM-encoded leaf certificate against the root: chain of
	// trust, validity window, and that the subject common name equals agentID.
	// Returns the parsed certificate on success.
	Verify(root *RootIdentity, certPEM []byte, agentID string) (*x509.Certificate, error)

	// ParseSerial extracts the serial number from a PEM-encoded certificate.
	ParseSerial(certPEM []byte) (int64, error)
}

type issuer struct{}

// NewIssuer creates an ECDSA P-256 based Issuer.
func NewIssuer() Issuer {
	return &issuer{}
}

// GenerateRoot creates a self-signed root identity.
func (i *issuer) GenerateRoot(commonName string, validity time.Duration) (*RootIdentity, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate root key")
	}

	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName: commonName,
		},
		NotBefore:             now,
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create root certificate")
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse root certificate")
	}

	return &RootIdentity{
		Certificate:    cert,
		PrivateKey:     key,
		CertificatePEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
	}, nil
}

// IssueLeaf creates a new key pair and leaf certificate signed by the root.
// Every issuance generates a fresh key: keys are never reused across
// certificates for the same agent.
func (i *issuer) IssueLeaf(
	root *RootIdentity,
	agentID string,
	subject caDomain.SubjectInfo,
	serial int64,
	validity time.Duration,
) (*LeafMaterial, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate leaf key")
	}

	name := pkix.Name{CommonName: agentID}
	if subject.Organization != "" {
		name.Organization = []string{subject.Organization}
	}
	if subject.Country != "" {
		name.Country = []string{subject.Country}
	}
	if subject.Locality != "" {
		name.Locality = []string{subject.Locality}
	}

	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      name,
		DNSNames:     []string{agentID},
		NotBefore:    now,
		NotAfter:     now.Add(validity),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageClientAuth,
			x509.ExtKeyUsageServerAuth,
		},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, root.Certificate, &key.PublicKey, root.PrivateKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create leaf certificate")
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal leaf key")
	}

	return &LeafMaterial{
		CertificatePEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		PrivateKeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
		NotBefore:      now,
		NotAfter:       now.Add(validity),
	}, nil
}

// Verify checks a leaf certificate against the root.
func (i *issuer) Verify(root *RootIdentity, certPEM []byte, agentID string) (*x509.Certificate, error) {
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return nil, err
	}

	// The subject must match the claimed identity before anything else: a
	// valid certificate for a different agent is still a rejection.
	if cert.Subject.CommonName != agentID {
		return nil, caDomain.ErrSubjectMismatch
	}

	roots := x509.NewCertPool()
	roots.AddCert(root.Certificate)

	now := time.Now().UTC()
	opts := x509.VerifyOptions{
		Roots:       roots,
		CurrentTime: now,
		KeyUsages:   []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
	}
	if _, err := cert.Verify(opts); err != nil {
		return nil, apperrors.Wrap(caDomain.ErrCertificateInvalid, err.Error())
	}

	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return nil, apperrors.Wrap(caDomain.ErrCertificateInvalid, "outside validity window")
	}

	return cert, nil
}

// ParseSerial extracts the serial number from a PEM-encoded certificate.
func (i *issuer) ParseSerial(certPEM []byte) (int64, error) {
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return 0, err
	}
	return cert.SerialNumber.Int64(), nil
}

// parseCertificate decodes the first PEM block and parses it as X.509.
func parseCertificate(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, apperrors.Wrap(caDomain.ErrCertificateInvalid, "not a PEM certificate")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, apperrors.Wrap(caDomain.ErrCertificateInvalid, err.Error())
	}
	return cert, nil
}

// BuildTLSMaterial wraps a certificate/key pair into client and server TLS
// configs pinned to the root. It never opens sockets itself.
func BuildTLSMaterial(rootPEM, certPEM, keyPEM []byte, serverName string) (*TLSMaterial, error) {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load key pair")
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(rootPEM); !ok {
		return nil, apperrors.Wrap(caDomain.ErrCertificateInvalid, "failed to append root certificate")
	}

	return &TLSMaterial{
		ClientConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			RootCAs:      pool,
			ServerName:   serverName,
			MinVersion:   tls.VersionTLS12,
		},
		ServerConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			ClientCAs:    pool,
			ClientAuth:   tls.RequireAndVerifyClientCert,
			MinVersion:   tls.VersionTLS12,
		},
	}, nil
}

// TLSMaterial holds ready-to-use TLS configs for both sides of a connection.
type TLSMaterial struct {
	ClientConfig *tls.Config
	ServerConfig *tls.Config
}
