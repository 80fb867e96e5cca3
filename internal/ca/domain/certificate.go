// Package domain defines the certificate authority's domain models: the
// authority's own root identity and the per-agent leaf certificates it issues.
package domain

import (
	"time"
)

// Status is the lifecycle state of a certificate, always computed at query
// time from the expiry and grace window, never stored.
type Status string

const (
	// StatusValid means the certificate is outside its grace window.
	StatusValid Status = "valid"

	// StatusExpiringSoon means the certificate expires within the grace window.
	StatusExpiringSoon Status = "expiring_soon"

	// StatusExpired means the certificate is past its expiry.
	StatusExpired Status = "expired"
)

// SubjectInfo carries the optional distinguished-name attributes for a leaf
// certificate. The common name is always the agent ID and cannot be overridden.
type SubjectInfo struct {
	Organization string
	Country      string
	Locality     string
}

// AgentCertificate is an issued leaf certificate for an agent. The private
// key is wrapped by the keystore before it is stored; the plain key leaves
// the authority only inside TLS material.
type AgentCertificate struct {
	AgentID          string
	SerialNumber     int64
	CertificatePEM   []byte
	WrappedKeyPEM    []byte // private key, wrapped at rest by the keystore
	CACertificatePEM []byte
	IssuedAt         time.Time
	ExpiresAt        time.Time
}

// StatusAt computes the certificate's lifecycle status at the given instant.
func (c *AgentCertificate) StatusAt(now time.Time, gracePeriod time.Duration) Status {
	switch {
	case now.After(c.ExpiresAt):
		return StatusExpired
	case now.After(c.ExpiresAt.Add(-gracePeriod)):
		return StatusExpiringSoon
	default:
		return StatusValid
	}
}

// CertificateStatus is the derived view returned by status queries.
type CertificateStatus struct {
	AgentID      string
	SerialNumber int64
	Status       Status
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Revoked      bool
}

// IssueCertificateOutput is returned on issuance. PrivateKeyPEM is the plain
// leaf key, returned once to the registering agent and never retrievable again.
type IssueCertificateOutput struct {
	Certificate   *AgentCertificate
	PrivateKeyPEM []byte
}
