package engines

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// runner executes a command with stdin and returns its stdout.
type runner func(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error)

// runCommand runs a synthesis binary. stdin is set before the process
// starts, and on cancellation the process is interrupted, then killed.
func runCommand(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, stderr.String())
		}
	case <-ctx.Done():
		// Try graceful shutdown first
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
			_ = cmd.Process.Kill()
			<-done
		}
		return nil, fmt.Errorf("%s cancelled: %w", name, ctx.Err())
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no output, stderr: %s", name, stderr.String())
	}
	return stdout.Bytes(), nil
}
