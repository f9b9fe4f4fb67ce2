// Package logship provides a resilient, asynchronous log-shipping client.
//
// Applications enqueue text log lines with AddLine and a single
// background worker delivers them to the collector over a persistent
// TCP or TLS connection, surviving network failures without ever
// blocking the caller.
//
// # Overview
//
// The library consists of several sub-packages:
//
//   - pkg/client: the shipper, its delivery worker, and its options
//   - pkg/queue: the bounded ingest queue and the queue registry
//   - pkg/transport: the connection, wire framing, TLS pinning, and
//     the reconnect policy
//   - pkg/config: the configuration-provider abstraction
//   - pkg/errors: structured errors and the fatal/recoverable classifier
//   - pkg/logging: leveled logging and the callback logger
//   - pkg/observability: optional Prometheus metrics and OpenTelemetry
//     tracing
//
// # Creating a Shipper
//
// To ship lines in token mode:
//
//	import "github.com/logship/logship-go"
//
//	func main() {
//	    shipper := logship.NewShipper(
//	        logship.WithCallbacks(logship.Callbacks{
//	            Error: func(msg string) { log.Println(msg) },
//	        }),
//	    )
//	    shipper.SetToken("00000000-0000-0000-0000-000000000000")
//	    shipper.SetUseTLS(true)
//
//	    shipper.AddLine("application started")
//
//	    defer shipper.Stop()
//	}
//
// The worker starts lazily on the first AddLine call that passes
// credential validation. Stop is idempotent and waits for the worker
// to exit. To drain pending lines before process exit:
//
//	logship.DefaultRegistry().WaitEmpty(5 * time.Second)
//
// Delivery is at-least-once at the wire level: a line whose write
// failed mid-transfer is retried verbatim after reconnecting and may
// reach the collector more than once.
package logship
