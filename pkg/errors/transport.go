package errors

import (
	"fmt"
	"time"
)

// ConnectionErrorData contains structured data for connection-related errors
type ConnectionErrorData struct {
	Endpoint  string        `json:"endpoint,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
	Retryable bool          `json:"retryable"`
	Reason    string        `json:"reason,omitempty"`
}

// PinErrorData contains structured data for certificate pinning failures
type PinErrorData struct {
	Endpoint             string `json:"endpoint,omitempty"`
	PresentedFingerprint string `json:"presented_fingerprint"`
	PinnedFingerprint    string `json:"pinned_fingerprint"`
}

// ConnectionFailed creates an error for connection failures. All socket,
// DNS and handshake failures during connect are reported through this
// constructor and are retryable.
func ConnectionFailed(endpoint string, cause error) ShipError {
	message := "failed to connect"
	if endpoint != "" {
		message = fmt.Sprintf("failed to connect to %s", endpoint)
	}
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	return WrapError(
		cause,
		CodeConnectionFailed,
		message,
		CategoryTransport,
		SeverityError,
	).WithData(&ConnectionErrorData{
		Endpoint:  endpoint,
		Retryable: true,
		Reason:    reason,
	})
}

// ConnectionLost creates an error for connections dropped mid-delivery
func ConnectionLost(endpoint string, cause error) ShipError {
	message := "connection lost"
	if endpoint != "" {
		message = fmt.Sprintf("connection to %s lost", endpoint)
	}
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	return WrapError(
		cause,
		CodeConnectionLost,
		message,
		CategoryTransport,
		SeverityError,
	).WithData(&ConnectionErrorData{
		Endpoint:  endpoint,
		Retryable: true,
		Reason:    reason,
	})
}

// TLSPinMismatch creates an error for certificate pinning failures. The
// connection is aborted; the error stays recoverable so the reconnect
// policy keeps probing, but it is never treated as a successful connect.
func TLSPinMismatch(endpoint, presented, pinned string) ShipError {
	return NewErrorf(
		CodeTLSPinMismatch,
		CategoryTransport,
		SeverityError,
		"server certificate fingerprint %s does not match pinned fingerprint %s",
		presented, pinned,
	).WithData(&PinErrorData{
		Endpoint:             endpoint,
		PresentedFingerprint: presented,
		PinnedFingerprint:    pinned,
	})
}

// WriteFailed creates an error for a failed payload write
func WriteFailed(endpoint string, cause error) ShipError {
	message := "write failed"
	if cause != nil {
		message = fmt.Sprintf("write failed: %s", cause.Error())
	}

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	return WrapError(
		cause,
		CodeWriteFailed,
		message,
		CategoryTransport,
		SeverityError,
	).WithData(&ConnectionErrorData{
		Endpoint:  endpoint,
		Retryable: true,
		Reason:    reason,
	})
}

// InvalidCredentials creates an error for credential validation failures
func InvalidCredentials(reason string) ShipError {
	return NewErrorf(
		CodeInvalidCredentials,
		CategoryValidation,
		SeverityError,
		"invalid credentials: %s", reason,
	)
}

// QueueOverflow creates the warning emitted when the overflow policy drops
// a line. It is a policy outcome, never surfaced to the AddLine caller.
func QueueOverflow(capacity int) ShipError {
	return NewErrorf(
		CodeQueueOverflow,
		CategoryQueue,
		SeverityWarning,
		"ingest queue overflow: line dropped (capacity %d)", capacity,
	)
}

// Cancelled creates the clean-termination marker for operations
// interrupted by Stop
func Cancelled(operation string) ShipError {
	return NewErrorf(
		CodeOperationCancelled,
		CategoryCancelled,
		SeverityInfo,
		"operation %s cancelled by shutdown", operation,
	)
}
