package supervisor

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Child is one supervised subprocess with its combined output redirected
// to a log file. Stop is idempotent: a child is signalled at most once
// even when the signal path and the normal unwind both reach it.
type Child struct {
	Name    string
	LogPath string

	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	done    chan struct{}
	logFile *os.File
	stopped bool
}

// StartChild launches bin with args, truncating and redirecting
// stdout+stderr to logPath.
func StartChild(name, logPath string, logger *slog.Logger, bin string, args ...string) (*Child, error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%s: open log file %s: %w", name, logPath, err)
	}

	cmd := exec.Command(bin, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("%s: start %s: %w", name, bin, err)
	}

	c := &Child{
		Name:    name,
		LogPath: logPath,
		logger:  logger,
		cmd:     cmd,
		done:    make(chan struct{}),
		logFile: logFile,
	}

	go func() {
		_ = cmd.Wait()
		logFile.Close()
		close(c.done)
	}()

	logger.Info("child started", "name", name, "pid", cmd.Process.Pid, "log", logPath)
	return c, nil
}

func (c *Child) PID() int {
	return c.cmd.Process.Pid
}

// Alive reports whether the process has not yet been observed to exit.
func (c *Child) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Done is closed once the process has exited.
func (c *Child) Done() <-chan struct{} {
	return c.done
}

// Stop terminates the child gracefully, escalating to SIGKILL when it
// does not exit within timeout. Repeat calls are no-ops.
func (c *Child) Stop(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true

	select {
	case <-c.done:
		c.logger.Info("child already exited", "name", c.Name, "pid", c.PID())
		return
	default:
	}

	c.logger.Info("stopping child", "name", c.Name, "pid", c.PID())

	if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		c.logger.Warn("sigterm failed, killing", "name", c.Name, "err", err)
		_ = c.cmd.Process.Kill()
	}

	select {
	case <-c.done:
		c.logger.Info("child stopped gracefully", "name", c.Name, "pid", c.PID())
	case <-time.After(timeout):
		c.logger.Warn("child did not stop in time, killing", "name", c.Name, "pid", c.PID())
		_ = c.cmd.Process.Kill()
		<-c.done
	}
}
