package framework

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/marmos91/filesmanager/internal/app"
	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/config"
)

// TestServer runs the complete service, wired exactly like the binary,
// on a free local port.
type TestServer struct {
	t       testing.TB
	cfg     *config.Config
	app     *app.App
	cancel  context.CancelFunc
	done    chan error
	started bool

	StartupTimeout time.Duration
}

// NewTestServer creates a stopped server for cfg. The API port is chosen
// on every Start, so the same cfg can be started again after Stop.
func NewTestServer(t testing.TB, cfg *config.Config) *TestServer {
	t.Helper()
	return &TestServer{
		t:              t,
		cfg:            cfg,
		StartupTimeout: 10 * time.Second,
	}
}

// Start wires the service and waits until /status answers. The server is
// stopped automatically when the test ends.
func (ts *TestServer) Start() {
	ts.t.Helper()

	if ts.started {
		ts.t.Fatalf("server already started")
	}

	logger.SetLevel(ts.cfg.Logging.Level)
	ts.cfg.API.Port = findFreePort(ts.t)

	ctx, cancel := context.WithCancel(context.Background())
	a, err := app.New(ctx, ts.cfg)
	if err != nil {
		cancel()
		ts.t.Fatalf("Failed to create app: %v", err)
	}

	ts.app = a
	ts.cancel = cancel
	ts.done = make(chan error, 1)
	go func() {
		ts.done <- a.Serve(ctx)
	}()

	if err := ts.waitForServer(); err != nil {
		ts.Stop()
		ts.t.Fatalf("Server failed to start: %v", err)
	}

	ts.started = true
	ts.t.Cleanup(ts.Stop)
	ts.t.Logf("Server started on port %d", ts.cfg.API.Port)
}

// Stop shuts every service down and closes the stores. Safe to call more
// than once.
func (ts *TestServer) Stop() {
	if ts.cancel == nil {
		return
	}
	ts.cancel()
	ts.cancel = nil

	select {
	case err := <-ts.done:
		if err != nil {
			ts.t.Logf("Server returned error: %v", err)
		}
	case <-time.After(15 * time.Second):
		ts.t.Logf("Server stop timeout")
	}

	if err := ts.app.Close(); err != nil {
		ts.t.Logf("Failed to close stores: %v", err)
	}
	ts.started = false
}

// URL returns the API base URL.
func (ts *TestServer) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", ts.cfg.API.Port)
}

// App exposes the wired components for assertions that bypass HTTP.
func (ts *TestServer) App() *app.App {
	return ts.app
}

// Client returns an anonymous client for this server.
func (ts *TestServer) Client() *Client {
	return NewClient(ts.t, ts.URL())
}

func (ts *TestServer) waitForServer() error {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(ts.StartupTimeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(ts.URL() + "/status")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for %s", ts.URL())
}

func findFreePort(t testing.TB) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()
	return port
}
