package errors

// Shipper error codes, grouped by concern. The codes are stable and are
// part of the programmatic error surface alongside Category and Severity.
const (
	// Transport errors (100-199)
	CodeTransportError    int = 100 // Generic transport error
	CodeConnectionFailed  int = 101 // Failed to establish connection
	CodeConnectionLost    int = 102 // Connection lost during delivery
	CodeConnectionTimeout int = 103 // Connection attempt timed out
	CodeTLSPinMismatch    int = 104 // Server certificate does not match pinned fingerprint

	// Validation errors (200-299)
	CodeInvalidCredentials int = 200 // Token or account key is not a well-formed GUID
	CodeInvalidParameter   int = 201 // Parameter has invalid value

	// Queue errors (300-399)
	CodeQueueOverflow int = 300 // Line dropped by the overflow policy

	// Operation errors (400-499)
	CodeOperationCancelled int = 400 // Shutdown requested mid-operation
	CodeWriteFailed        int = 401 // Write to the wire failed

	// Internal errors (500-599)
	CodeFatalRuntime int = 500 // Unrecoverable runtime condition
)

// ErrorCodeInfo provides human-readable information about error codes
type ErrorCodeInfo struct {
	Code        int
	Name        string
	Description string
	Category    Category
	Severity    Severity
}

// errorCodeRegistry maps error codes to their information
var errorCodeRegistry = map[int]ErrorCodeInfo{
	CodeTransportError:    {CodeTransportError, "TransportError", "Generic transport error", CategoryTransport, SeverityError},
	CodeConnectionFailed:  {CodeConnectionFailed, "ConnectionFailed", "Failed to establish connection", CategoryTransport, SeverityError},
	CodeConnectionLost:    {CodeConnectionLost, "ConnectionLost", "Connection lost during delivery", CategoryTransport, SeverityError},
	CodeConnectionTimeout: {CodeConnectionTimeout, "ConnectionTimeout", "Connection attempt timed out", CategoryTimeout, SeverityError},
	CodeTLSPinMismatch:    {CodeTLSPinMismatch, "TLSPinMismatch", "Certificate fingerprint mismatch", CategoryTransport, SeverityError},

	CodeInvalidCredentials: {CodeInvalidCredentials, "InvalidCredentials", "Credentials failed validation", CategoryValidation, SeverityError},
	CodeInvalidParameter:   {CodeInvalidParameter, "InvalidParameter", "Parameter has invalid value", CategoryValidation, SeverityError},

	CodeQueueOverflow: {CodeQueueOverflow, "QueueOverflow", "Line dropped by overflow policy", CategoryQueue, SeverityWarning},

	CodeOperationCancelled: {CodeOperationCancelled, "OperationCancelled", "Shutdown requested", CategoryCancelled, SeverityInfo},
	CodeWriteFailed:        {CodeWriteFailed, "WriteFailed", "Write to the wire failed", CategoryTransport, SeverityError},

	CodeFatalRuntime: {CodeFatalRuntime, "FatalRuntime", "Unrecoverable runtime condition", CategoryInternal, SeverityCritical},
}

// GetErrorCodeInfo returns information about an error code
func GetErrorCodeInfo(code int) (ErrorCodeInfo, bool) {
	info, ok := errorCodeRegistry[code]
	return info, ok
}

// GetErrorCodeCategory returns the category for an error code
func GetErrorCodeCategory(code int) Category {
	if info, ok := errorCodeRegistry[code]; ok {
		return info.Category
	}
	return CategoryInternal
}

// GetErrorCodeSeverity returns the severity for an error code
func GetErrorCodeSeverity(code int) Severity {
	if info, ok := errorCodeRegistry[code]; ok {
		return info.Severity
	}
	return SeverityError
}
