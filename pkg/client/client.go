// Package client provides the log shipper: a bounded ingest queue
// drained by a single background worker that delivers lines to the
// collector over a persistent connection, reconnecting with backoff
// on transient failures.
package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/logship/logship-go/pkg/config"
	"github.com/logship/logship-go/pkg/errors"
	"github.com/logship/logship-go/pkg/logging"
	"github.com/logship/logship-go/pkg/observability"
	"github.com/logship/logship-go/pkg/queue"
	"github.com/logship/logship-go/pkg/transport"
)

// Shipper accepts log lines and delivers them asynchronously. AddLine
// never blocks on the network; delivery failures are retried by the
// background worker and surface only through the logging callbacks.
type Shipper struct {
	mu sync.Mutex

	token          string
	accountKey     string
	location       string
	useHTTPPut     bool
	useTLS         bool
	immediateFlush bool

	addr              string
	pinnedFingerprint string
	queueCapacity     int

	logger   logging.Logger
	metrics  observability.Metrics
	tracing  *observability.TracingProvider
	registry *queue.Registry

	queue   *queue.IngestQueue
	group   *errgroup.Group
	cancel  context.CancelFunc
	started bool
	stopped bool

	debugPending bool
}

// Option configures a Shipper at construction time
type Option func(*Shipper)

// WithCallbacks installs the four logging callbacks. Unset callbacks
// are not invoked.
func WithCallbacks(callbacks logging.Callbacks) Option {
	return func(s *Shipper) {
		s.logger = logging.NewCallbackLogger(callbacks)
	}
}

// WithLogger replaces the callback logger with an arbitrary one
func WithLogger(logger logging.Logger) Option {
	return func(s *Shipper) {
		s.logger = logger
	}
}

// WithProvider seeds the shipper settings from a configuration
// provider. Individual setters still apply on top.
func WithProvider(p config.Provider) Option {
	return func(s *Shipper) {
		settings := config.Load(p)
		s.token = settings.Token
		s.accountKey = settings.AccountKey
		s.location = settings.Location
		s.useHTTPPut = settings.UseHTTPPut
		s.useTLS = settings.UseTLS
		s.immediateFlush = settings.ImmediateFlush
		if settings.Debug {
			s.debugPending = true
		}
	}
}

// WithRegistry registers the shipper's queue with an explicit registry
// instead of the process default
func WithRegistry(r *queue.Registry) Option {
	return func(s *Shipper) {
		s.registry = r
	}
}

// WithMetrics wires a metrics provider
func WithMetrics(m observability.Metrics) Option {
	return func(s *Shipper) {
		s.metrics = m
	}
}

// WithTracing wires a tracing provider
func WithTracing(tp *observability.TracingProvider) Option {
	return func(s *Shipper) {
		s.tracing = tp
	}
}

// WithQueueCapacity overrides the default queue capacity
func WithQueueCapacity(capacity int) Option {
	return func(s *Shipper) {
		if capacity > 0 {
			s.queueCapacity = capacity
		}
	}
}

// WithAddr overrides the collector endpoint. Intended for tests.
func WithAddr(addr string) Option {
	return func(s *Shipper) {
		s.addr = addr
	}
}

// WithPinnedFingerprint overrides the pinned certificate fingerprint.
// Intended for tests.
func WithPinnedFingerprint(fingerprint string) Option {
	return func(s *Shipper) {
		s.pinnedFingerprint = fingerprint
	}
}

// NewShipper creates a shipper. The delivery worker starts lazily on
// the first AddLine call that passes credential validation.
func NewShipper(opts ...Option) *Shipper {
	s := &Shipper{
		logger:        logging.NopLogger(),
		metrics:       observability.NewNopMetrics(),
		queueCapacity: queue.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.debugPending {
		s.logger.SetLevel(logging.DebugLevel)
	}
	if s.registry == nil {
		s.registry = queue.DefaultRegistry()
	}

	s.queue = queue.NewIngestQueue(s.queueCapacity,
		queue.WithLogger(s.logger),
		queue.WithDropHook(s.metrics.RecordDropped),
	)
	s.registry.Register(s.queue)
	return s
}

// SetToken sets the per-log token used in token mode. Effective before
// the first AddLine.
func (s *Shipper) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// SetAccountKey sets the account key used in HTTP-PUT mode
func (s *Shipper) SetAccountKey(accountKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountKey = accountKey
}

// SetLocation sets the host location used in HTTP-PUT mode
func (s *Shipper) SetLocation(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = location
}

// SetUseHTTPPut selects the HTTP-PUT wire protocol
func (s *Shipper) SetUseHTTPPut(useHTTPPut bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useHTTPPut = useHTTPPut
}

// SetUseTLS wraps the connection in TLS with certificate pinning
func (s *Shipper) SetUseTLS(useTLS bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useTLS = useTLS
}

// SetImmediateFlush flushes the write buffer after every line
func (s *Shipper) SetImmediateFlush(immediateFlush bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.immediateFlush = immediateFlush
}

// SetDebug enables debug output through the logging callbacks
func (s *Shipper) SetDebug(debug bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if debug {
		s.logger.SetLevel(logging.DebugLevel)
	} else {
		s.logger.SetLevel(logging.InfoLevel)
	}
}

// AddLine queues one log line for delivery. Trailing CR and LF are
// trimmed. The first call that passes credential validation starts the
// delivery worker; on validation failure an error is logged, the
// worker is not started, and the line stays queued for delivery once a
// later call validates.
func (s *Shipper) AddLine(line string) {
	s.mu.Lock()
	if !s.started && !s.stopped {
		if err := s.validateCredentials(); err != nil {
			s.logger.Error("not starting delivery worker",
				logging.ErrorField(err))
		} else {
			s.start()
		}
	}
	s.mu.Unlock()

	s.queue.Enqueue(strings.TrimRight(line, "\r\n"))
	s.metrics.RecordEnqueued()
	s.metrics.SetQueueDepth(s.queue.Depth())
}

// Stop requests graceful shutdown and waits for the worker to exit.
// Safe to call more than once and before the worker ever started.
func (s *Shipper) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	group := s.group
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if group != nil {
		_ = group.Wait()
	}
	s.registry.Deregister(s.queue)
}

// QueueDepth reports the number of lines awaiting delivery
func (s *Shipper) QueueDepth() int {
	return s.queue.Depth()
}

// validateCredentials checks the settings for the active protocol
// mode. Callers must hold s.mu.
func (s *Shipper) validateCredentials() error {
	if s.useHTTPPut {
		if _, err := uuid.Parse(s.accountKey); err != nil {
			return errors.InvalidCredentials(
				fmt.Sprintf("account key %q is not a valid GUID", s.accountKey))
		}
		if s.location == "" {
			return errors.InvalidCredentials("location is empty")
		}
		return nil
	}
	if _, err := uuid.Parse(s.token); err != nil {
		return errors.InvalidCredentials(
			fmt.Sprintf("token %q is not a valid GUID", s.token))
	}
	return nil
}

// start launches the delivery worker. Callers must hold s.mu.
func (s *Shipper) start() {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	s.cancel = cancel
	s.group = group
	s.started = true

	w := &worker{
		queue:          s.queue,
		conn:           transport.NewConn(s.transportConfig()),
		policy:         transport.NewReconnectPolicy(s.logger),
		logger:         s.logger,
		metrics:        s.metrics,
		tracing:        s.tracing,
		token:          s.token,
		useHTTPPut:     s.useHTTPPut,
		immediateFlush: s.immediateFlush,
	}
	w.policy.SetReconnectHook(s.metrics.RecordReconnect)

	group.Go(func() error {
		return w.run(ctx)
	})
}

// transportConfig builds the connection configuration from the current
// settings. Callers must hold s.mu.
func (s *Shipper) transportConfig() transport.Config {
	cfg := transport.DefaultConfig()
	cfg.UseHTTPPut = s.useHTTPPut
	cfg.UseTLS = s.useTLS
	cfg.AccountKey = s.accountKey
	cfg.Location = s.location
	cfg.Addr = s.addr
	cfg.PinnedFingerprint = s.pinnedFingerprint
	cfg.Logger = s.logger
	return cfg
}
