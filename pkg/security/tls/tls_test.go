package tls

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"listingforge/gateway/pkg/config"
)

// writeCert writes a self-signed certificate and key into dir and returns
// their paths.
func writeCert(t *testing.T, dir, commonName string, notBefore, notAfter time.Time) (string, string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey: %v", err)
	}

	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	return certFile, keyFile
}

func loadPair(t *testing.T, certFile, keyFile string) *tls.Certificate {
	t.Helper()
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		t.Fatalf("LoadX509KeyPair: %v", err)
	}
	return &cert
}

func TestValidateCertificate(t *testing.T) {
	now := time.Now()
	dir := t.TempDir()
	certFile, keyFile := writeCert(t, dir, "valid", now.Add(-time.Hour), now.Add(24*time.Hour))
	valid := loadPair(t, certFile, keyFile)

	tests := []struct {
		name    string
		cert    *tls.Certificate
		at      time.Time
		wantErr bool
	}{
		{name: "valid", cert: valid, at: now},
		{name: "expired", cert: valid, at: now.Add(48 * time.Hour), wantErr: true},
		{name: "not yet valid", cert: valid, at: now.Add(-2 * time.Hour), wantErr: true},
		{name: "nil", cert: nil, at: now, wantErr: true},
		{name: "empty chain", cert: &tls.Certificate{}, at: now, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCertificate(tt.cert, tt.at)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCertificate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseMinVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{in: "", want: tls.VersionTLS13},
		{in: "1.3", want: tls.VersionTLS13},
		{in: "1.2", want: tls.VersionTLS12},
		{in: "1.1", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMinVersion(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMinVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMinVersion(%q) = %x, want %x", tt.in, got, tt.want)
		}
	}
}

func TestServerConfig(t *testing.T) {
	now := time.Now()
	certFile, keyFile := writeCert(t, t.TempDir(), "gateway", now.Add(-time.Hour), now.Add(90*24*time.Hour))

	cfg, err := ServerConfig(config.TLSConfig{Enabled: false}, nil)
	if err != nil || cfg != nil {
		t.Fatalf("disabled: got %v, %v; want nil, nil", cfg, err)
	}

	enabled := config.TLSConfig{Enabled: true, CertFile: certFile, KeyFile: keyFile, MinVersion: "1.2"}
	if _, err := ServerConfig(enabled, NewCertificateReloader(certFile, keyFile, 0)); err == nil {
		t.Error("expected error before the reloader has loaded a certificate")
	}

	reloader := NewCertificateReloader(certFile, keyFile, 0)
	if err := reloader.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cfg, err = ServerConfig(enabled, reloader)
	if err != nil {
		t.Fatalf("ServerConfig: %v", err)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
	cert, err := cfg.GetCertificate(&tls.ClientHelloInfo{ServerName: "localhost"})
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate = %v, %v", cert, err)
	}
}

func TestCertificateReloader_StartMissingFiles(t *testing.T) {
	reloader := NewCertificateReloader("missing.crt", "missing.key", time.Second)
	if err := reloader.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail with nonexistent files")
	}
	if err := reloader.Check(context.Background()); err == nil {
		t.Error("Check() should fail before a certificate is loaded")
	}
}

func TestCertificateReloader_Check(t *testing.T) {
	now := time.Now()
	certFile, keyFile := writeCert(t, t.TempDir(), "gateway", now.Add(-time.Hour), now.Add(24*time.Hour))

	reloader := NewCertificateReloader(certFile, keyFile, 0)
	if err := reloader.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := reloader.Check(context.Background()); err != nil {
		t.Errorf("Check() = %v, want nil", err)
	}

	reloader.now = func() time.Time { return now.Add(48 * time.Hour) }
	if err := reloader.Check(context.Background()); err == nil {
		t.Error("Check() should fail once the certificate has expired")
	}
}

func TestCertificateReloader_ReloadOnFileChange(t *testing.T) {
	now := time.Now()
	dir := t.TempDir()
	certFile, keyFile := writeCert(t, dir, "first", now.Add(-time.Hour), now.Add(24*time.Hour))

	reloader := NewCertificateReloader(certFile, keyFile, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := reloader.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	writeCert(t, dir, "second", now.Add(-time.Hour), now.Add(24*time.Hour))
	future := time.Now().Add(time.Minute)
	for _, f := range []string{certFile, keyFile} {
		if err := os.Chtimes(f, future, future); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		x509Cert, err := leaf(reloader.GetCertificate())
		if err == nil && x509Cert.Subject.CommonName == "second" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("certificate was not reloaded after the files changed")
}
