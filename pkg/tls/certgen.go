// Package tls produces the certificate material used to terminate HTTPS on
// the virtual host and to authenticate against HTTPS dependencies.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"
)

// DefaultOrganization is the subject organization of generated certificates.
const DefaultOrganization = "amiddy Trust"

// CertificateConfig contains options for certificate generation.
type CertificateConfig struct {
	// Organization name for the certificate
	Organization string
	// Common name (CN) for the certificate
	CommonName string
	// DNS names for the subject alternative name extension
	DNSNames []string
	// IP addresses for the subject alternative name extension
	IPAddresses []net.IP
	// Validity duration
	ValidFor time.Duration
}

// AltName returns the name a vhost certificate is issued for. Names with
// more than two labels are widened to a wildcard over the parent domain, so
// "app.local.example.com" yields "*.local.example.com".
func AltName(vhostName string) string {
	parts := strings.Split(vhostName, ".")
	if len(parts) <= 2 {
		return vhostName
	}
	return "*." + strings.Join(parts[1:], ".")
}

// ConfigForVhost returns the certificate configuration for a vhost name.
func ConfigForVhost(vhostName string) *CertificateConfig {
	name := AltName(vhostName)
	cfg := &CertificateConfig{
		Organization: DefaultOrganization,
		CommonName:   name,
		ValidFor:     365 * 24 * time.Hour,
	}

	if ip := net.ParseIP(vhostName); ip != nil {
		cfg.CommonName = vhostName
		cfg.IPAddresses = []net.IP{ip}
		return cfg
	}

	cfg.DNSNames = []string{name}
	if name != vhostName {
		cfg.DNSNames = append(cfg.DNSNames, vhostName)
	}
	return cfg
}

// GeneratedCertificate contains a generated certificate and its private key.
type GeneratedCertificate struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
	CertPEM     []byte
	KeyPEM      []byte
}

// Material returns the PEM pair of the certificate.
func (g *GeneratedCertificate) Material() *Material {
	return &Material{Cert: g.CertPEM, Key: g.KeyPEM}
}

// GeneratePrivateKey generates a new ECDSA private key using P-256 curve.
func GeneratePrivateKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return key, nil
}

// CreateCertificateTemplate creates an x509 template usable both as a server
// certificate and as a client certificate.
func CreateCertificateTemplate(cfg *CertificateConfig) (*x509.Certificate, error) {
	if cfg == nil {
		cfg = ConfigForVhost("localhost")
	}

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now()
	return &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{cfg.Organization},
			CommonName:   cfg.CommonName,
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(cfg.ValidFor),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageDataEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  false,
		DNSNames:              cfg.DNSNames,
		IPAddresses:           cfg.IPAddresses,
	}, nil
}

// GenerateSelfSignedCert generates a self-signed certificate with the given configuration.
func GenerateSelfSignedCert(cfg *CertificateConfig) (*GeneratedCertificate, error) {
	if cfg == nil {
		cfg = ConfigForVhost("localhost")
	}

	privateKey, err := GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	template, err := CreateCertificateTemplate(cfg)
	if err != nil {
		return nil, err
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	return &GeneratedCertificate{
		Certificate: cert,
		PrivateKey:  privateKey,
		CertPEM:     pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
		KeyPEM:      pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	}, nil
}
