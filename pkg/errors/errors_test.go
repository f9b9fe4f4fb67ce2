package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	err := NewError(CodeConnectionFailed, "connect failed", CategoryTransport, SeverityError)

	assert.Equal(t, CodeConnectionFailed, err.Code())
	assert.Equal(t, "connect failed", err.Message())
	assert.Equal(t, CategoryTransport, err.Category())
	assert.Equal(t, SeverityError, err.Severity())
	require.NotNil(t, err.Context())
	assert.False(t, err.Context().Timestamp.IsZero())
}

func TestWithDetail(t *testing.T) {
	err := NewError(CodeWriteFailed, "write failed", CategoryTransport, SeverityError)

	detailed := err.WithDetail("connection reset by peer")
	assert.Equal(t, "write failed: connection reset by peer", detailed.Error())

	// Original error is unchanged
	assert.Equal(t, "write failed", err.Error())

	// Details accumulate
	more := detailed.WithDetail("after 42 bytes")
	assert.Equal(t, "connection reset by peer; after 42 bytes", more.Details())
}

func TestWrapErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := WrapError(cause, CodeConnectionFailed, "connect failed", CategoryTransport, SeverityError)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestConnectionFailedData(t *testing.T) {
	cause := errors.New("no route to host")
	err := ConnectionFailed("data.logship.io:10000", cause)

	assert.Equal(t, CodeConnectionFailed, err.Code())
	assert.Equal(t, CategoryTransport, err.Category())

	data, ok := err.Data().(*ConnectionErrorData)
	require.True(t, ok)
	assert.Equal(t, "data.logship.io:10000", data.Endpoint)
	assert.True(t, data.Retryable)
	assert.Equal(t, "no route to host", data.Reason)
}

func TestTLSPinMismatchData(t *testing.T) {
	err := TLSPinMismatch("data.logship.io:20000", "aa:bb", "cc:dd")

	assert.Equal(t, CodeTLSPinMismatch, err.Code())

	data, ok := err.Data().(*PinErrorData)
	require.True(t, ok)
	assert.Equal(t, "aa:bb", data.PresentedFingerprint)
	assert.Equal(t, "cc:dd", data.PinnedFingerprint)
}

func TestQueueOverflowIsWarning(t *testing.T) {
	err := QueueOverflow(32768)

	assert.Equal(t, CodeQueueOverflow, err.Code())
	assert.Equal(t, SeverityWarning, err.Severity())
	assert.Equal(t, CategoryQueue, err.Category())
}

func TestIsCategoryAndCode(t *testing.T) {
	err := InvalidCredentials("token is not a GUID")

	assert.True(t, IsCategory(err, CategoryValidation))
	assert.False(t, IsCategory(err, CategoryTransport))
	assert.True(t, IsCode(err, CodeInvalidCredentials))

	plain := fmt.Errorf("plain error")
	assert.False(t, IsCategory(plain, CategoryValidation))
	assert.False(t, IsCode(plain, CodeInvalidCredentials))
}

func TestErrorCodeRegistry(t *testing.T) {
	info, ok := GetErrorCodeInfo(CodeTLSPinMismatch)
	require.True(t, ok)
	assert.Equal(t, "TLSPinMismatch", info.Name)
	assert.Equal(t, CategoryTransport, info.Category)

	assert.Equal(t, CategoryInternal, GetErrorCodeCategory(-1))
	assert.Equal(t, SeverityError, GetErrorCodeSeverity(-1))
	assert.Equal(t, SeverityWarning, GetErrorCodeSeverity(CodeQueueOverflow))
}
