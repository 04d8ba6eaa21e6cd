package executor

import (
	"context"
	"io/fs"
	"os/exec"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	"github.com/veedubyou/stem-splitter/src/shared/lib/errors/mark"
)

var (
	BinaryNotFoundMark = mark.New("binary_not_found")
	TimeoutMark        = mark.New("command_timed_out")
	NonZeroExitMark    = mark.New("non_zero_exit")
	DefaultErrorMark   = mark.New("command_failed")
)

// exitCoder is satisfied by *exec.ExitError
type exitCoder interface {
	ExitCode() int
}

type Invocation struct {
	BinPath string
	Args    []string
	Dir     string
	Timeout time.Duration
}

type Result struct {
	Output   []byte
	ExitCode int
	Duration time.Duration
}

// Run executes the invocation to completion or until its timeout elapses.
// Failures are marked with one of the marks above so callers can tell them apart.
func Run(ctx context.Context, executor Executor, invocation Invocation) (Result, error) {
	errctx := cerr.Field("bin_path", invocation.BinPath).
		Field("args", invocation.Args).
		Field("timeout", invocation.Timeout.String())

	runCtx := ctx
	if invocation.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, invocation.Timeout)
		defer cancel()
	}

	cmd := executor.Command(runCtx, invocation.BinPath, invocation.Args...)
	if invocation.Dir != "" {
		cmd.SetDir(invocation.Dir)
	}

	start := time.Now()
	output, err := cmd.CombinedOutput()
	result := Result{
		Output:   output,
		ExitCode: 0,
		Duration: time.Since(start),
	}

	log.WithFields(log.Fields{
		"bin_path": invocation.BinPath,
		"duration": result.Duration.String(),
	}).Debug(string(output))

	if err == nil {
		return result, nil
	}

	errctx = errctx.Field("output", string(output))
	result.ExitCode = -1

	var coder exitCoder
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return result, mark.Wrap(errctx.Wrap(err).Error("Command did not finish in time"),
			TimeoutMark, "Command timed out")

	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return result, mark.Wrap(errctx.Wrap(err).Error("Binary could not be found"),
			BinaryNotFoundMark, "Binary not found")

	case errors.As(err, &coder):
		result.ExitCode = coder.ExitCode()
		return result, mark.Wrap(errctx.Field("exit_code", result.ExitCode).Wrap(err).Error("Command exited with failure"),
			NonZeroExitMark, "Command exited with non-zero status")

	default:
		return result, mark.Wrap(errctx.Wrap(err).Error("Command failed to run"),
			DefaultErrorMark, "Command failed")
	}
}
