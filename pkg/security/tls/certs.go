package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"
)

// expiryWarning is how close to NotAfter a certificate starts logging
// warnings.
const expiryWarning = 30 * 24 * time.Hour

// leaf parses the first certificate of the chain.
func leaf(cert *tls.Certificate) (*x509.Certificate, error) {
	if cert == nil {
		return nil, fmt.Errorf("certificate is nil")
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("certificate chain is empty")
	}
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return x509Cert, nil
}

// ValidateCertificate checks that the leaf certificate is inside its
// validity window at now.
func ValidateCertificate(cert *tls.Certificate, now time.Time) error {
	x509Cert, err := leaf(cert)
	if err != nil {
		return err
	}

	if now.Before(x509Cert.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", x509Cert.NotBefore.Format(time.RFC3339))
	}
	if now.After(x509Cert.NotAfter) {
		return fmt.Errorf("certificate expired on %s", x509Cert.NotAfter.Format(time.RFC3339))
	}
	return nil
}
