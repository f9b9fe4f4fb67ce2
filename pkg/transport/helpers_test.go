package transport

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestCert generates a self-signed certificate for 127.0.0.1
func newTestCert(t *testing.T) (tls.Certificate, *x509.Certificate) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test collector"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
		Leaf:        leaf,
	}, leaf
}

// testServer is a minimal collector accepting one connection and
// recording everything written to it
type testServer struct {
	listener net.Listener
	received chan []byte
}

// newTestServer starts a plain TCP collector stub
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &testServer{
		listener: listener,
		received: make(chan []byte, 16),
	}
	go s.serve()

	t.Cleanup(func() { _ = listener.Close() })
	return s
}

// newTestTLSServer starts a TLS collector stub using the given cert
func newTestTLSServer(t *testing.T, cert tls.Certificate) *testServer {
	t.Helper()

	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	listener := tls.NewListener(inner, &tls.Config{Certificates: []tls.Certificate{cert}})

	s := &testServer{
		listener: listener,
		received: make(chan []byte, 16),
	}
	go s.serve()

	t.Cleanup(func() { _ = listener.Close() })
	return s
}

func (s *testServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			buf := make([]byte, 4096)
			for {
				n, err := conn.Read(buf)
				if n > 0 {
					data := make([]byte, n)
					copy(data, buf[:n])
					s.received <- data
				}
				if err != nil {
					return
				}
			}
		}(conn)
	}
}

func (s *testServer) addr() string {
	return s.listener.Addr().String()
}

// waitFor collects received bytes until the want prefix-length is
// reached or the timeout fires
func (s *testServer) waitFor(t *testing.T, n int, timeout time.Duration) []byte {
	t.Helper()

	var got []byte
	deadline := time.After(timeout)
	for len(got) < n {
		select {
		case chunk := <-s.received:
			got = append(got, chunk...)
		case <-deadline:
			t.Fatalf("timed out waiting for %d bytes, got %d: %q", n, len(got), got)
		}
	}
	return got
}
