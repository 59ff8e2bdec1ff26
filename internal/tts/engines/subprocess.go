package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// errTimeout is returned when a subprocess outlives its deadline.
var errTimeout = errors.New("subprocess timed out")

// killGrace is how long an interrupted process gets before it is killed.
const killGrace = 100 * time.Millisecond

// commandRunner runs an external program and returns its stdout.
// Engines take it as a field so tests can substitute canned output.
type commandRunner func(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error)

// runCommand starts name with stdin attached before the process starts,
// interrupts it when ctx is done, and kills it if it does not exit
// within killGrace.
func runCommand(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...) //nolint:gosec
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		log.Debug("Subprocess executed", "command", name, "duration", time.Since(start), "err", err)
		if err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, &commandError{name: name, err: err, stderr: msg}
			}
			return nil, &commandError{name: name, err: err}
		}
		return stdout.Bytes(), nil

	case <-ctx.Done():
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(killGrace):
			_ = cmd.Process.Kill()
			<-done
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w: %w", name, errTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("%s cancelled: %w", name, ctx.Err())
	}
}

// commandError carries the stderr output of a failed subprocess.
type commandError struct {
	name   string
	err    error
	stderr string
}

func (e *commandError) Error() string {
	if e.stderr != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.name, e.err, e.stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.name, e.err)
}

func (e *commandError) Unwrap() error {
	return e.err
}

// withTimeout applies timeout unless ctx already carries an earlier deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
