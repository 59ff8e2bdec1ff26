package engines

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestRunCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping Unix command test on Windows")
	}

	tests := []struct {
		name        string
		input       string
		command     string
		args        []string
		expectError bool
		want        string
	}{
		{name: "stdin is attached", input: "hello world", command: "cat", want: "hello world"},
		{name: "word count", input: "one two three four five", command: "wc", args: []string{"-w"}, want: "5"},
		{name: "nonexistent command", input: "test", command: "nonexistent_command_xyz", expectError: true},
		{name: "failing command", command: "sh", args: []string{"-c", "echo oops >&2; exit 3"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(context.Background(), strings.NewReader(tt.input), tt.command, tt.args...)
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := strings.TrimSpace(string(out)); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunCommand_Stderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping Unix command test on Windows")
	}

	_, err := runCommand(context.Background(), nil, "sh", "-c", "echo bad voice >&2; exit 1")
	var cmdErr *commandError
	if !errors.As(err, &cmdErr) || cmdErr.stderr != "bad voice" {
		t.Fatalf("error = %v, want commandError with stderr", err)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Error("exit error not reachable through Unwrap")
	}
}

func TestRunCommand_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping Unix command test on Windows")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := runCommand(ctx, nil, "sleep", "10")
	if !errors.Is(err, errTimeout) {
		t.Fatalf("error = %v, want errTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("process was not stopped promptly: %v", elapsed)
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), time.Minute)
	defer cancel()
	if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > time.Minute {
		t.Errorf("deadline = %v, %v", deadline, ok)
	}

	parent, cancelParent := context.WithTimeout(context.Background(), time.Second)
	defer cancelParent()
	ctx, cancel = withTimeout(parent, time.Minute)
	defer cancel()
	if deadline, _ := ctx.Deadline(); time.Until(deadline) > time.Second {
		t.Error("earlier parent deadline was not kept")
	}
}
