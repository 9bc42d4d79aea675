package tls

import (
	"crypto/tls"
	"errors"
	"fmt"

	"listingforge/gateway/pkg/config"
)

// ServerConfig builds the listener configuration from cfg. It returns nil
// when TLS is disabled. The certificate is always served from reloader.
func ServerConfig(cfg config.TLSConfig, reloader *CertificateReloader) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if reloader == nil || reloader.GetCertificate() == nil {
		return nil, errors.New("tls: certificate not loaded")
	}

	minVersion, err := ParseMinVersion(cfg.MinVersion)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		MinVersion:     minVersion,
		GetCertificate: reloader.GetCertificateFunc(),
		NextProtos:     []string{"h2", "http/1.1"},
	}, nil
}

// ParseMinVersion converts "1.2" or "1.3" to a protocol constant. Empty
// means 1.3. Older versions are rejected.
func ParseMinVersion(v string) (uint16, error) {
	switch v {
	case "1.3", "":
		return tls.VersionTLS13, nil
	case "1.2":
		return tls.VersionTLS12, nil
	default:
		return 0, fmt.Errorf("tls: unsupported minimum version %q", v)
	}
}
