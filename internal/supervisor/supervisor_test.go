package supervisor

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/nasmon/nasmon-agent/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startTestChild(t *testing.T, name string, bin string, args ...string) *Child {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), name+".log")
	c, err := StartChild(name, logPath, discardLogger(), bin, args...)
	if err != nil {
		t.Fatalf("StartChild(%s): %v", bin, err)
	}
	t.Cleanup(func() { c.Stop(time.Second) })
	return c
}

func waitExit(t *testing.T, c *Child) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("child %s did not exit", c.Name)
	}
}

func TestChildStopIdempotent(t *testing.T) {
	c := startTestChild(t, "sleeper", "sleep", "60")

	if !c.Alive() {
		t.Fatal("child not alive after start")
	}

	c.Stop(2 * time.Second)
	if c.Alive() {
		t.Error("child still alive after Stop")
	}

	// Second invocation (signal path + normal unwind) must be a no-op.
	c.Stop(2 * time.Second)
}

func TestChildObservesExit(t *testing.T) {
	c := startTestChild(t, "oneshot", "sh", "-c", "exit 0")

	waitExit(t, c)
	if c.Alive() {
		t.Error("Alive() = true after exit")
	}

	// Stopping an already-exited child must not signal anything.
	c.Stop(time.Second)
}

func TestHealthCheckFailsWhenAPIChildExits(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogDir = t.TempDir()
	s := New(cfg, discardLogger())

	s.api = startTestChild(t, "api", "sh", "-c", "exit 1")
	s.static = startTestChild(t, "static", "sleep", "60")
	waitExit(t, s.api)

	if err := s.healthCheck(context.Background()); err == nil {
		t.Fatal("healthCheck() = nil, want startup failure for dead api child")
	}

	s.Shutdown()
}

func TestHealthCheckPassesAgainstLiveAPI(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/image-files" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	_, portStr, err := net.SplitHostPort(ts.Listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portStr)

	cfg := config.DefaultConfig()
	cfg.Port = port
	cfg.LogDir = t.TempDir()
	s := New(cfg, discardLogger())

	s.api = startTestChild(t, "api", "sleep", "60")
	s.static = startTestChild(t, "static", "sleep", "60")

	if err := s.healthCheck(context.Background()); err != nil {
		t.Errorf("healthCheck() = %v, want nil", err)
	}

	s.Shutdown()
}

func TestShutdownIdempotent(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogDir = t.TempDir()
	s := New(cfg, discardLogger())

	s.api = startTestChild(t, "api", "sleep", "60")
	s.static = startTestChild(t, "static", "sleep", "60")

	s.Shutdown()
	if s.api.Alive() || s.static.Alive() {
		t.Error("children still alive after Shutdown")
	}

	// Signal handler and normal unwind may both reach Shutdown.
	s.Shutdown()
}

func TestShutdownWithoutChildren(t *testing.T) {
	s := New(config.DefaultConfig(), discardLogger())
	s.Shutdown() // must not panic with nil handles
}

func TestResolveAgentBinaryEnvOverride(t *testing.T) {
	t.Setenv("NASMON_AGENT_BIN", "/opt/nasmon/agent")

	bin, err := resolveAgentBinary()
	if err != nil {
		t.Fatalf("resolveAgentBinary() error: %v", err)
	}
	if bin != "/opt/nasmon/agent" {
		t.Errorf("resolveAgentBinary() = %q, want env override", bin)
	}
}
