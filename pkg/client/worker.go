package client

import (
	"context"
	"strings"
	"time"

	"github.com/logship/logship-go/pkg/errors"
	"github.com/logship/logship-go/pkg/logging"
	"github.com/logship/logship-go/pkg/observability"
	"github.com/logship/logship-go/pkg/queue"
	"github.com/logship/logship-go/pkg/transport"
)

// lineSeparator replaces embedded newlines so multi-line events survive
// the line-oriented wire protocol
const lineSeparator = " "

// worker is the sole consumer of the ingest queue. It owns the
// connection and all its state transitions.
type worker struct {
	queue   *queue.IngestQueue
	conn    *transport.Conn
	policy  *transport.ReconnectPolicy
	logger  logging.Logger
	metrics observability.Metrics
	tracing *observability.TracingProvider

	token          string
	useHTTPPut     bool
	immediateFlush bool
}

// run is the delivery loop. It returns nil on cancellation and panics
// on fatal errors so they terminate the process instead of being
// swallowed by the shutdown path.
func (w *worker) run(ctx context.Context) error {
	defer func() {
		if err := w.conn.Close(); err != nil {
			panic(err)
		}
	}()

	if err := w.reopen(ctx); err != nil {
		if errors.IsFatal(err) {
			panic(err)
		}
		return nil
	}
	w.logger.Info("delivery worker connected")

	for {
		line, ok := w.queue.Dequeue(ctx)
		if !ok {
			w.logger.Debug("delivery worker stopping")
			return nil
		}
		w.metrics.SetQueueDepth(w.queue.Depth())

		if err := w.deliver(ctx, w.frame(normalize(line))); err != nil {
			return nil
		}
	}
}

// deliver writes one framed payload, reconnecting and retrying the
// same payload on recoverable failures. A retried payload may reach
// the wire more than once if the failure followed a partial write.
// Returns an error only on cancellation.
func (w *worker) deliver(ctx context.Context, payload []byte) error {
	start := time.Now()

	for {
		err := w.write(ctx, payload)
		if err == nil {
			w.metrics.RecordDelivered(time.Since(start))
			return nil
		}
		if errors.IsFatal(err) {
			panic(err)
		}

		w.logger.Warn("write failed, reconnecting", logging.ErrorField(err))
		if err := w.reopen(ctx); err != nil {
			if errors.IsFatal(err) {
				panic(err)
			}
			return err
		}
	}
}

func (w *worker) write(ctx context.Context, payload []byte) (err error) {
	if w.tracing != nil {
		_, span := w.tracing.StartDeliverSpan(ctx, len(payload))
		defer func() { observability.EndSpan(span, err) }()
	}

	if err = w.conn.Write(payload); err != nil {
		return err
	}
	// Flush per line when asked to, and opportunistically whenever the
	// queue is drained so buffered lines never wait indefinitely.
	if w.immediateFlush || w.queue.Depth() == 0 {
		err = w.conn.Flush()
	}
	return err
}

// reopen drives the reconnect policy, wrapping the cycle in a span
// when tracing is wired
func (w *worker) reopen(ctx context.Context) error {
	if w.tracing == nil {
		return w.policy.Reopen(ctx, w.conn)
	}

	spanCtx, span := w.tracing.StartConnectSpan(ctx, w.conn.Endpoint())
	err := w.policy.Reopen(spanCtx, w.conn)
	observability.EndSpan(span, err)
	return err
}

// frame produces the wire payload for one normalized line
func (w *worker) frame(line string) []byte {
	if w.useHTTPPut {
		return []byte(line + "\n")
	}
	return []byte(w.token + line + "\n")
}

// normalize collapses CRLF and bare LF into the reserved line
// separator so the line carries no embedded newlines
func normalize(line string) string {
	line = strings.ReplaceAll(line, "\r\n", lineSeparator)
	return strings.ReplaceAll(line, "\n", lineSeparator)
}
