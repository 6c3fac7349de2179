package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/amiddy/amiddy/pkg/config"
)

// Material is a PEM encoded certificate and private key.
type Material struct {
	Cert []byte
	Key  []byte
}

// TLSCertificate parses the pair into a tls.Certificate.
func (m *Material) TLSCertificate() (tls.Certificate, error) {
	if m == nil {
		return tls.Certificate{}, errors.New("no certificate material")
	}
	return tls.X509KeyPair(m.Cert, m.Key)
}

// ReadMaterial reads a provided certificate and key from disk and checks
// that they form a pair.
func ReadMaterial(certPath, keyPath string) (*Material, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}

	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	m := &Material{Cert: certPEM, Key: keyPEM}
	if _, err := m.TLSCertificate(); err != nil {
		return nil, fmt.Errorf("invalid certificate pair: %w", err)
	}
	return m, nil
}

// ForVhost returns the material used to serve vhost: the provided files when
// vhost.SSL is set, otherwise a freshly generated self-signed certificate.
func ForVhost(vhost *config.Vhost, overrides *config.SelfSigned) (*Material, error) {
	if vhost.SSL != nil {
		return ReadMaterial(vhost.SSL.Cert, vhost.SSL.KeyPath())
	}

	cfg := ConfigForVhost(vhost.Name)
	if overrides != nil {
		if overrides.Organization != "" {
			cfg.Organization = overrides.Organization
		}
		if overrides.CommonName != "" {
			cfg.CommonName = overrides.CommonName
		}
		if overrides.Days > 0 {
			cfg.ValidFor = time.Duration(overrides.Days) * 24 * time.Hour
		}
	}

	cert, err := GenerateSelfSignedCert(cfg)
	if err != nil {
		return nil, err
	}
	return cert.Material(), nil
}
