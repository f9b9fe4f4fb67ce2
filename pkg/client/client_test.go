package client

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logship/logship-go/pkg/config"
	"github.com/logship/logship-go/pkg/logging"
	"github.com/logship/logship-go/pkg/queue"
	"github.com/logship/logship-go/pkg/transport"
	"github.com/logship/logship-go/pkg/utils"
)

const (
	testToken      = "11111111-1111-1111-1111-111111111111"
	testAccountKey = "22222222-2222-2222-2222-222222222222"
)

func TestTokenModeDelivery(t *testing.T) {
	server := newTestServer(t)

	s := NewShipper(
		WithAddr(server.addr()),
		WithRegistry(queue.NewRegistry()),
	)
	defer s.Stop()
	s.SetToken(testToken)

	s.AddLine("hello")

	want := testToken + "hello\n"
	got := server.waitFor(t, len(want), 5*time.Second)
	assert.Equal(t, want, string(got))
}

func TestTokenModeDeliveryOrder(t *testing.T) {
	server := newTestServer(t)

	s := NewShipper(
		WithAddr(server.addr()),
		WithRegistry(queue.NewRegistry()),
	)
	defer s.Stop()
	s.SetToken(testToken)
	s.SetImmediateFlush(true)

	s.AddLine("first")
	s.AddLine("second")
	s.AddLine("third")

	want := testToken + "first\n" + testToken + "second\n" + testToken + "third\n"
	got := server.waitFor(t, len(want), 5*time.Second)
	assert.Equal(t, want, string(got))
}

func TestHTTPPutTLSDelivery(t *testing.T) {
	cert, leaf := newTestCert(t)
	server := newTestTLSServer(t, cert)

	s := NewShipper(
		WithAddr(server.addr()),
		WithPinnedFingerprint(transport.Fingerprint(leaf)),
		WithRegistry(queue.NewRegistry()),
	)
	defer s.Stop()
	s.SetUseHTTPPut(true)
	s.SetUseTLS(true)
	s.SetAccountKey(testAccountKey)
	s.SetLocation("host1")
	s.SetImmediateFlush(true)

	s.AddLine("hello")

	want := "PUT /" + testAccountKey + "/hosts/host1/?realtime=1 HTTP/1.1\r\n\r\n" + "hello\n"
	got := server.waitFor(t, len(want), 5*time.Second)
	assert.Equal(t, want, string(got))
}

func TestMultiLineNormalization(t *testing.T) {
	server := newTestServer(t)

	s := NewShipper(
		WithAddr(server.addr()),
		WithRegistry(queue.NewRegistry()),
	)
	defer s.Stop()
	s.SetToken(testToken)

	s.AddLine("a\r\nb\nc")

	want := testToken + "a b c\n"
	got := server.waitFor(t, len(want), 5*time.Second)
	assert.Equal(t, want, string(got))
}

func TestAddLineTrimsTrailingNewline(t *testing.T) {
	server := newTestServer(t)

	s := NewShipper(
		WithAddr(server.addr()),
		WithRegistry(queue.NewRegistry()),
	)
	defer s.Stop()
	s.SetToken(testToken)

	s.AddLine("hello\r\n")

	want := testToken + "hello\n"
	got := server.waitFor(t, len(want), 5*time.Second)
	assert.Equal(t, want, string(got))
}

func TestInvalidCredentialsDoNotStartWorker(t *testing.T) {
	server := newTestServer(t)

	var mu sync.Mutex
	var errorMsgs []string

	s := NewShipper(
		WithAddr(server.addr()),
		WithRegistry(queue.NewRegistry()),
		WithCallbacks(logging.Callbacks{
			Error: func(msg string) {
				mu.Lock()
				errorMsgs = append(errorMsgs, msg)
				mu.Unlock()
			},
		}),
	)
	defer s.Stop()
	s.SetToken("not-a-guid")

	s.AddLine("queued before credentials are valid")

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int64(0), server.accepts.Load(), "worker must not connect with invalid credentials")
	assert.Equal(t, 1, s.QueueDepth(), "line must stay queued")

	mu.Lock()
	require.NotEmpty(t, errorMsgs)
	assert.True(t, strings.HasPrefix(errorMsgs[0], logging.Signature))
	mu.Unlock()

	// A later call with valid credentials starts the worker and drains
	// everything queued so far, in order.
	s.SetToken(testToken)
	s.AddLine("second")

	want := testToken + "queued before credentials are valid\n" + testToken + "second\n"
	got := server.waitFor(t, len(want), 5*time.Second)
	assert.Equal(t, want, string(got))
}

func TestReconnectRetriesSameLine(t *testing.T) {
	server := newTestServer(t)
	metrics := &captureMetrics{}

	s := NewShipper(
		WithAddr(server.addr()),
		WithRegistry(queue.NewRegistry()),
		WithMetrics(metrics),
	)
	defer s.Stop()
	s.SetToken(testToken)
	s.SetImmediateFlush(true)

	s.AddLine("one")
	want := testToken + "one\n"
	got := server.waitFor(t, len(want), 5*time.Second)
	require.Equal(t, want, string(got))

	// Reset the server side of the connection so the next write fails
	// with a recoverable error, forcing one reconnect cycle.
	server.resetConns()
	time.Sleep(100 * time.Millisecond)

	s.AddLine("two")

	want = testToken + "two\n"
	got = server.waitFor(t, len(want), 10*time.Second)
	assert.Equal(t, want, string(got))
	assert.GreaterOrEqual(t, server.accepts.Load(), int64(2), "expected a second connection")
	assert.GreaterOrEqual(t, metrics.reconnects.Load(), int64(2), "initial connect plus one reconnect")
	assert.Equal(t, int64(2), metrics.delivered.Load())
}

func TestStopBoundedWhileReconnecting(t *testing.T) {
	detector := utils.NewGoroutineLeakDetector(t)
	detector.Start()

	// Nothing listens on port 1, so the worker loops in backoff.
	s := NewShipper(
		WithAddr("127.0.0.1:1"),
		WithRegistry(queue.NewRegistry()),
		WithQueueCapacity(16),
	)
	s.SetToken(testToken)
	s.AddLine("never delivered")

	time.Sleep(300 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while worker was mid-backoff")
	}

	detector.Check()
}

func TestStopIdempotent(t *testing.T) {
	s := NewShipper(WithRegistry(queue.NewRegistry()))

	// Stop before the worker ever started, then again.
	s.Stop()
	s.Stop()

	// AddLine after Stop must not start a worker or panic.
	s.SetToken(testToken)
	s.AddLine("ignored")
}

func TestStopThenNoNewConnections(t *testing.T) {
	server := newTestServer(t)

	s := NewShipper(
		WithAddr(server.addr()),
		WithRegistry(queue.NewRegistry()),
	)
	s.SetToken(testToken)
	s.SetImmediateFlush(true)

	s.AddLine("hello")
	server.waitFor(t, len(testToken)+6, 5*time.Second)

	s.Stop()
	accepts := server.accepts.Load()

	s.AddLine("after stop")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, accepts, server.accepts.Load(), "no connections after Stop")
}

func TestRegistryDrainBeforeShutdown(t *testing.T) {
	server := newTestServer(t)
	registry := queue.NewRegistry()

	s := NewShipper(
		WithAddr(server.addr()),
		WithRegistry(registry),
	)
	defer s.Stop()
	s.SetToken(testToken)

	for i := 0; i < 50; i++ {
		s.AddLine("line")
	}

	assert.True(t, registry.WaitEmpty(5*time.Second), "queue should drain")
}

func TestWithProviderSeedsSettings(t *testing.T) {
	server := newTestServer(t)

	s := NewShipper(
		WithProvider(config.StaticProvider{
			config.SettingToken:          testToken,
			config.SettingImmediateFlush: "true",
		}),
		WithAddr(server.addr()),
		WithRegistry(queue.NewRegistry()),
	)
	defer s.Stop()

	s.AddLine("hello")

	want := testToken + "hello\n"
	got := server.waitFor(t, len(want), 5*time.Second)
	assert.Equal(t, want, string(got))
}
