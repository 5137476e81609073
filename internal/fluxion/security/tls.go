// Package security implements the supplemental TLS certificate inspection
// surfaced by `fluxion secure` and by Probe's best-effort TLS fields: a
// handshake against the target plus the full peer certificate chain,
// expressed with crypto/tls rather than a third-party TLS library.
package security

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"net"
	"time"

	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

// WarnDays is the expiry-warning threshold from the reference implementation.
const WarnDays = 30

// Inspect dials host:port, completes a TLS handshake, and extracts the
// leaf certificate's details. verifyTLS=false skips chain validation
// (still reports exactly what the peer presented).
func Inspect(ctx context.Context, host string, port string, verifyTLS bool) (model.CertificateInfo, error) {
	if port == "" {
		port = "443"
	}

	dialer := &tls.Dialer{
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: !verifyTLS,
		},
	}

	rawConn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return model.CertificateInfo{}, fluxerr.New(fluxerr.Security, "TLS handshake failed").WithCause(err)
	}
	defer rawConn.Close()

	conn, ok := rawConn.(*tls.Conn)
	if !ok {
		return model.CertificateInfo{}, fluxerr.New(fluxerr.Security, "unexpected connection type from TLS dialer")
	}

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return model.CertificateInfo{}, fluxerr.New(fluxerr.Security, "server presented no certificates")
	}
	leaf := state.PeerCertificates[0]
	fingerprint := sha256.Sum256(leaf.Raw)

	return model.CertificateInfo{
		Subject:           leaf.Subject.String(),
		Issuer:            leaf.Issuer.String(),
		Version:           leaf.Version,
		SerialNumber:      leaf.SerialNumber.String(),
		NotBefore:         leaf.NotBefore,
		NotAfter:          leaf.NotAfter,
		SAN:               leaf.DNSNames,
		FingerprintSHA256: hex.EncodeToString(fingerprint[:]),
		TLSVersion:        tlsVersionName(state.Version),
		Cipher:            tls.CipherSuiteName(state.CipherSuite),
	}, nil
}

// ExpiringSoon reports whether cert.NotAfter is within WarnDays of now.
func ExpiringSoon(cert model.CertificateInfo, now time.Time) bool {
	return cert.NotAfter.Sub(now) <= WarnDays*24*time.Hour
}

func tlsVersionName(v uint16) string {
	switch v {
	case tls.VersionTLS10:
		return "TLS1.0"
	case tls.VersionTLS11:
		return "TLS1.1"
	case tls.VersionTLS12:
		return "TLS1.2"
	case tls.VersionTLS13:
		return "TLS1.3"
	default:
		return "unknown"
	}
}
