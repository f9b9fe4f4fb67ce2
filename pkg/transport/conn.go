package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"

	shiperrors "github.com/logship/logship-go/pkg/errors"
	"github.com/logship/logship-go/pkg/logging"
)

// State is the connection lifecycle state. It is owned by the single
// delivery worker; no other goroutine observes it.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Closing
)

// String returns the string representation of a connection state
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

var errNotConnected = errors.New("not connected")

// Conn owns exactly one physical connection to the collector, plain or
// TLS, including the buffered writer in front of it and the HTTP-PUT
// framing prelude. All methods must be called from the same goroutine.
type Conn struct {
	config Config
	logger logging.Logger

	state   State
	netConn net.Conn
	stream  net.Conn
	w       *bufio.Writer
}

// NewConn creates an unconnected Conn for the given configuration
func NewConn(config Config) *Conn {
	logger := config.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	return &Conn{
		config: config,
		logger: logger.WithFields(logging.String("component", "transport")),
	}
}

// State returns the current connection state
func (c *Conn) State() State {
	return c.state
}

// Endpoint returns the host:port this Conn targets
func (c *Conn) Endpoint() string {
	return c.config.Endpoint()
}

// Connect opens the TCP connection, applies the socket options, performs
// the TLS handshake with certificate pinning when configured, and writes
// the HTTP-PUT prelude when configured. Every failure is reported as a
// recoverable connection error unless the classifier says otherwise.
func (c *Conn) Connect(ctx context.Context) error {
	c.state = Connecting
	endpoint := c.config.Endpoint()

	dialer := &net.Dialer{
		Timeout: c.config.DialTimeout,
		KeepAliveConfig: net.KeepAliveConfig{
			Enable:   true,
			Idle:     c.config.KeepAliveIdle,
			Interval: c.config.KeepAliveInterval,
		},
	}

	raw, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		c.state = Disconnected
		return shiperrors.ConnectionFailed(endpoint, err)
	}

	if tcp, ok := raw.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(true); err != nil {
			c.logger.Debug("failed to disable send coalescing", logging.ErrorField(err))
		}
		if err := tcp.SetLinger(c.config.LingerSeconds); err != nil {
			c.logger.Debug("failed to set linger", logging.ErrorField(err))
		}
	}

	stream := raw
	if c.config.UseTLS {
		serverName := endpoint
		if host, _, splitErr := net.SplitHostPort(endpoint); splitErr == nil {
			serverName = host
		}

		tlsConn := tls.Client(raw, c.config.tlsConfig(serverName))
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			c.state = Disconnected
			// The pin verifier's own error carries the fingerprints;
			// keep it intact instead of re-wrapping.
			if _, ok := shiperrors.AsShipError(err); ok {
				return err
			}
			return shiperrors.ConnectionFailed(endpoint, err).
				WithDetail("TLS handshake failed")
		}
		stream = tlsConn
	}

	c.netConn = raw
	c.stream = stream
	c.w = bufio.NewWriterSize(stream, c.config.WriteBufferSize)

	if c.config.UseHTTPPut {
		prelude := fmt.Sprintf("PUT /%s/hosts/%s/?realtime=1 HTTP/1.1\r\n\r\n",
			c.config.AccountKey, c.config.Location)
		_, err := c.w.WriteString(prelude)
		if err == nil {
			err = c.w.Flush()
		}
		if err != nil {
			_ = raw.Close()
			c.teardown()
			return shiperrors.ConnectionFailed(endpoint, err).
				WithDetail("failed to send HTTP PUT header")
		}
	}

	c.state = Connected
	c.logger.Debug("connected", logging.String("endpoint", endpoint))
	return nil
}

// Write appends a framed payload to the buffered stream. Failures
// propagate to the caller for classification.
func (c *Conn) Write(p []byte) error {
	if c.state != Connected || c.w == nil {
		return shiperrors.WriteFailed(c.config.Endpoint(), errNotConnected)
	}

	if _, err := c.w.Write(p); err != nil {
		return shiperrors.WriteFailed(c.config.Endpoint(), err)
	}
	return nil
}

// Flush pushes buffered bytes to the socket
func (c *Conn) Flush() error {
	if c.state != Connected || c.w == nil {
		return shiperrors.WriteFailed(c.config.Endpoint(), errNotConnected)
	}

	if err := c.w.Flush(); err != nil {
		return shiperrors.WriteFailed(c.config.Endpoint(), err)
	}
	return nil
}

// Close shuts the connection down best-effort: TLS close-notify first,
// then the socket. Step failures are logged, not propagated, except
// fatal classifications which must still surface.
func (c *Conn) Close() error {
	if c.state == Disconnected {
		return nil
	}
	c.state = Closing

	if c.w != nil {
		if err := c.w.Flush(); err != nil {
			if shiperrors.IsFatal(err) {
				return err
			}
			c.logger.Debug("flush on close failed", logging.ErrorField(err))
		}
	}

	if tlsConn, ok := c.stream.(*tls.Conn); ok {
		if err := tlsConn.CloseWrite(); err != nil {
			if shiperrors.IsFatal(err) {
				return err
			}
			c.logger.Debug("TLS close-notify failed", logging.ErrorField(err))
		}
	}

	if c.netConn != nil {
		if err := c.netConn.Close(); err != nil {
			if shiperrors.IsFatal(err) {
				return err
			}
			c.logger.Debug("socket close failed", logging.ErrorField(err))
		}
	}

	c.teardown()
	return nil
}

func (c *Conn) teardown() {
	c.netConn = nil
	c.stream = nil
	c.w = nil
	c.state = Disconnected
}
