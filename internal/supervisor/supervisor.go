package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/nasmon/nasmon-agent/internal/config"
)

const (
	// gracePeriod is how long the children get to come up before the
	// one-time health check.
	gracePeriod = 3 * time.Second

	// pollInterval is the monitoring loop's liveness check interval.
	pollInterval = 5 * time.Second

	// stopTimeout bounds graceful child termination before escalation.
	stopTimeout = 5 * time.Second

	// probeTimeout bounds the agent binary availability probe.
	probeTimeout = 10 * time.Second

	apiLogName    = "api_server.log"
	staticLogName = "http_server.log"
)

// requiredFiles must exist in the working directory before anything is
// started. The frontend page is served verbatim by the static child.
var requiredFiles = []string{"index.html"}

// Supervisor prepares the runtime environment, starts the metrics API
// and static asset servers as child processes, health-checks them once,
// then polls both until either exits or the context is cancelled.
// A single instance owns both child handles; Shutdown is idempotent.
type Supervisor struct {
	cfg    *config.Config
	logger *slog.Logger

	agentBin string
	api      *Child
	static   *Child
}

func New(cfg *config.Config, logger *slog.Logger) *Supervisor {
	return &Supervisor{cfg: cfg, logger: logger}
}

// Run drives the full lifecycle. It returns nil only on a clean,
// signal-initiated shutdown; any preparation failure or child death
// yields an error after cleanup.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.Shutdown()

	if err := s.ensureEnvironment(); err != nil {
		return fmt.Errorf("prepare environment: %w", err)
	}
	if err := s.checkDependencies(ctx); err != nil {
		return fmt.Errorf("check dependencies: %w", err)
	}
	if err := s.startChildren(); err != nil {
		return err
	}
	if err := s.healthCheck(ctx); err != nil {
		return err
	}

	fmt.Println("=== servers started ===")
	fmt.Printf("frontend:  http://localhost:%d\n", config.StaticPort)
	fmt.Printf("api:       http://localhost:%d/system-info\n", s.cfg.Port)
	fmt.Printf("log files: %s, %s\n",
		filepath.Join(s.cfg.LogDir, apiLogName),
		filepath.Join(s.cfg.LogDir, staticLogName),
	)
	fmt.Println("press Ctrl+C to stop")

	return s.monitor(ctx)
}

// ensureEnvironment creates the log directory. Reusing an existing one
// is fine; the step is idempotent.
func (s *Supervisor) ensureEnvironment() error {
	if err := os.MkdirAll(s.cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log dir %s: %w", s.cfg.LogDir, err)
	}
	fmt.Printf("log directory: %s\n", s.cfg.LogDir)
	return nil
}

// checkDependencies verifies the required companion files exist and
// probes the agent binary cheaply before any server starts. Failures
// here are fatal: no port is bound yet.
func (s *Supervisor) checkDependencies(ctx context.Context) error {
	for _, name := range requiredFiles {
		if _, err := os.Stat(name); err != nil {
			return fmt.Errorf("required file %s: %w", name, err)
		}
	}

	bin, err := resolveAgentBinary()
	if err != nil {
		return err
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := exec.CommandContext(probeCtx, bin, "--version").Run(); err != nil {
		return fmt.Errorf("agent binary probe %s: %w", bin, err)
	}

	s.agentBin = bin
	fmt.Printf("agent binary: %s\n", bin)
	return nil
}

// resolveAgentBinary looks for the agent next to the launcher first,
// then falls back to PATH.
func resolveAgentBinary() (string, error) {
	if v := os.Getenv("NASMON_AGENT_BIN"); v != "" {
		return v, nil
	}

	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), "agent")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if bin, err := exec.LookPath("agent"); err == nil {
		return bin, nil
	}

	return "", fmt.Errorf("agent binary not found (set NASMON_AGENT_BIN or install next to the launcher)")
}

func (s *Supervisor) startChildren() error {
	fmt.Printf("starting metrics API server (port %d)...\n", s.cfg.Port)
	api, err := StartChild("api", filepath.Join(s.cfg.LogDir, apiLogName), s.logger,
		s.agentBin, "--serve", "--host", s.cfg.Host, "--port", strconv.Itoa(s.cfg.Port))
	if err != nil {
		return fmt.Errorf("start api server: %w", err)
	}
	s.api = api
	fmt.Printf("metrics API server started (PID %d)\n", api.PID())

	fmt.Printf("starting static file server (port %d)...\n", config.StaticPort)
	static, err := StartChild("static", filepath.Join(s.cfg.LogDir, staticLogName), s.logger,
		s.agentBin, "--static")
	if err != nil {
		return fmt.Errorf("start static server: %w", err)
	}
	s.static = static
	fmt.Printf("static file server started (PID %d)\n", static.PID())

	return nil
}

// healthCheck waits out the grace period, verifies both children are
// still alive, then probes the API over HTTP with a retrying client.
// The cheap listing endpoint is probed, not the sampling one.
func (s *Supervisor) healthCheck(ctx context.Context) error {
	select {
	case <-time.After(gracePeriod):
	case <-ctx.Done():
		return ctx.Err()
	}

	if !s.api.Alive() {
		return fmt.Errorf("api server exited during startup, check %s", s.api.LogPath)
	}
	if !s.static.Alive() {
		return fmt.Errorf("static server exited during startup, check %s", s.static.LogPath)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = time.Second
	client.RetryWaitMax = 5 * time.Second
	client.Logger = nil

	url := fmt.Sprintf("http://127.0.0.1:%d/image-files", s.cfg.Port)
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("api readiness probe: %w (check %s)", err, s.api.LogPath)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api readiness probe: status %d (check %s)", resp.StatusCode, s.api.LogPath)
	}

	s.logger.Info("health check passed", "api_pid", s.api.PID(), "static_pid", s.static.PID())
	return nil
}

// monitor polls both children until one exits or the context is
// cancelled. A child death is a fatal condition: no restart is
// attempted, the caller cleans up and exits non-zero.
func (s *Supervisor) monitor(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nshutting down...")
			return nil
		case <-ticker.C:
			if !s.api.Alive() {
				return fmt.Errorf("api server stopped unexpectedly, check %s", s.api.LogPath)
			}
			if !s.static.Alive() {
				return fmt.Errorf("static server stopped unexpectedly, check %s", s.static.LogPath)
			}
		}
	}
}

// Shutdown stops both children. Safe to invoke multiple times: each
// child tracks whether it has already been signalled.
func (s *Supervisor) Shutdown() {
	if s.api != nil {
		s.api.Stop(stopTimeout)
	}
	if s.static != nil {
		s.static.Stop(stopTimeout)
	}
}
