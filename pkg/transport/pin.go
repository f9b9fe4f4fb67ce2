package transport

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"strings"

	shiperrors "github.com/logship/logship-go/pkg/errors"
)

// DefaultPinnedFingerprint is the SHA-256 fingerprint of the collector's
// certificate. Validation is an exact match against this value; CA trust
// chains are deliberately ignored, so a valid certificate from any other
// issuer still fails the handshake.
const DefaultPinnedFingerprint = "a4:92:e3:8c:7f:01:5e:9a:24:d1:bb:63:08:f7:4c:2d:97:55:e0:1a:c3:6b:88:39:fa:12:d4:70:9e:46:b5:2f"

// Fingerprint computes the colon-separated SHA-256 fingerprint of a
// certificate
func Fingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)

	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = hex.EncodeToString([]byte{b})
	}
	return strings.Join(parts, ":")
}

// pinVerifier returns the VerifyPeerCertificate hook enforcing the pin.
// The handshake runs with InsecureSkipVerify because chain validation is
// replaced entirely by the fingerprint comparison.
func pinVerifier(endpoint, pinned string) func(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return shiperrors.TLSPinMismatch(endpoint, "", pinned)
		}

		leaf, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			return shiperrors.ConnectionFailed(endpoint, err).
				WithDetail("failed to parse server certificate")
		}

		presented := Fingerprint(leaf)
		if presented != pinned {
			return shiperrors.TLSPinMismatch(endpoint, presented, pinned)
		}
		return nil
	}
}

// tlsConfig builds the pinning TLS configuration for the endpoint
func (c Config) tlsConfig(serverName string) *tls.Config {
	return &tls.Config{
		ServerName:            serverName,
		InsecureSkipVerify:    true, // pin comparison replaces chain validation
		VerifyPeerCertificate: pinVerifier(c.Endpoint(), c.pinnedFingerprint()),
		MinVersion:            tls.VersionTLS12,
	}
}
