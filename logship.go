// Package logship provides a resilient asynchronous log-shipping client
package logship

import (
	"github.com/logship/logship-go/pkg/client"
	"github.com/logship/logship-go/pkg/config"
	"github.com/logship/logship-go/pkg/logging"
	"github.com/logship/logship-go/pkg/queue"
)

// Version represents the current version of the library
const Version = "1.0.0"

// These exports provide direct access to the core components
var (
	// NewShipper creates a new log shipper
	NewShipper = client.NewShipper

	// NewRegistry creates an explicit queue registry
	NewRegistry = queue.NewRegistry

	// DefaultRegistry returns the process-wide queue registry
	DefaultRegistry = queue.DefaultRegistry

	// NewEnvProvider creates a configuration provider backed by
	// environment variables
	NewEnvProvider = config.NewEnvProvider
)

// Shipper options
var (
	WithCallbacks         = client.WithCallbacks
	WithLogger            = client.WithLogger
	WithProvider          = client.WithProvider
	WithRegistry          = client.WithRegistry
	WithMetrics           = client.WithMetrics
	WithTracing           = client.WithTracing
	WithQueueCapacity     = client.WithQueueCapacity
	WithAddr              = client.WithAddr
	WithPinnedFingerprint = client.WithPinnedFingerprint
)

// Logging callbacks receive messages prefixed with this signature
const Signature = logging.Signature

// Callbacks bundles the four optional logging callbacks
type Callbacks = logging.Callbacks
