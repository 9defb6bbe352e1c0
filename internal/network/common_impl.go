package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"grimm.is/linkctl/internal/metrics"
)

// DefaultCommandTimeout bounds every external invocation unless overridden.
const DefaultCommandTimeout = 10 * time.Second

// DefaultCommandExecutor is the default RealCommandExecutor instance.
var DefaultCommandExecutor CommandExecutor = &RealCommandExecutor{Timeout: DefaultCommandTimeout}

// RealCommandExecutor is a concrete implementation of CommandExecutor using os/exec.
type RealCommandExecutor struct {
	Timeout time.Duration
}

// RunCommand runs a command and returns its stdout.
// The C locale is forced so that the text parsers see stable output.
func (r *RealCommandExecutor) RunCommand(ctx context.Context, name string, arg ...string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	// Children that outlive a killed parent must not hold Wait on the pipes.
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%w)", err, ctxErr)
		}
		return stdout.String(), &CommandError{
			Argv:     append([]string{name}, arg...),
			ExitCode: code,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return stdout.String(), nil
}

// InstrumentedExecutor counts and times every command it forwards.
type InstrumentedExecutor struct {
	Next    CommandExecutor
	Metrics *metrics.Registry
}

// RunCommand forwards to Next and records the outcome.
func (e *InstrumentedExecutor) RunCommand(ctx context.Context, name string, arg ...string) (string, error) {
	start := time.Now()
	out, err := e.Next.RunCommand(ctx, name, arg...)
	if e.Metrics != nil {
		e.Metrics.ObserveCommand(name, time.Since(start), err)
	}
	return out, err
}
