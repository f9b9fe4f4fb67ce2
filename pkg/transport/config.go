// Package transport owns the physical connection to the log collector:
// dialing, socket options, TLS certificate pinning, the HTTP-PUT prelude
// and the reconnect-with-backoff policy. The connection is driven by a
// single worker goroutine; nothing here is safe for concurrent use.
package transport

import (
	"fmt"
	"time"

	"github.com/logship/logship-go/pkg/logging"
)

// DefaultHost is the fixed collector endpoint
const DefaultHost = "data.logship.io"

// Collector ports by wire protocol and TLS mode
const (
	PortToken    = 10000
	PortTokenTLS = 20000
	PortHTTPPut  = 80
	PortHTTPSPut = 443
)

// Config selects the wire protocol and carries the connection tuning.
// It is immutable once the delivery worker starts.
type Config struct {
	// UseHTTPPut selects the HTTP-PUT wire protocol instead of the
	// token stream
	UseHTTPPut bool

	// UseTLS wraps the connection in TLS with certificate pinning
	UseTLS bool

	// AccountKey and Location are sent once in the HTTP-PUT request
	// header after connecting
	AccountKey string
	Location   string

	// Addr overrides the derived host:port. Intended for tests; when
	// empty the fixed host and the port table apply.
	Addr string

	// PinnedFingerprint overrides the compiled-in certificate
	// fingerprint. Intended for tests.
	PinnedFingerprint string

	// DialTimeout bounds a single connection attempt
	DialTimeout time.Duration

	// KeepAliveIdle is the idle interval before TCP keepalive probes
	// start; KeepAliveInterval is the retry interval between probes.
	KeepAliveIdle     time.Duration
	KeepAliveInterval time.Duration

	// LingerSeconds bounds how long Close may block flushing
	// unacknowledged data
	LingerSeconds int

	// WriteBufferSize sizes the buffered writer in front of the socket
	WriteBufferSize int

	Logger logging.Logger
}

// DefaultConfig returns a connection configuration with the production
// tuning applied
func DefaultConfig() Config {
	return Config{
		DialTimeout:       30 * time.Second,
		KeepAliveIdle:     5 * time.Minute,
		KeepAliveInterval: 10 * time.Second,
		LingerSeconds:     10,
		WriteBufferSize:   8192,
		Logger:            logging.NopLogger(),
	}
}

// Port returns the collector port for the configured protocol mode
func (c Config) Port() int {
	switch {
	case c.UseHTTPPut && c.UseTLS:
		return PortHTTPSPut
	case c.UseHTTPPut:
		return PortHTTPPut
	case c.UseTLS:
		return PortTokenTLS
	default:
		return PortToken
	}
}

// Endpoint returns the host:port the connection dials
func (c Config) Endpoint() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf("%s:%d", DefaultHost, c.Port())
}

// pinnedFingerprint returns the fingerprint the TLS handshake validates
// against
func (c Config) pinnedFingerprint() string {
	if c.PinnedFingerprint != "" {
		return c.PinnedFingerprint
	}
	return DefaultPinnedFingerprint
}
