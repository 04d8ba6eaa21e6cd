package executor

import (
	"context"
	"os/exec"
	"time"
)

// WaitDelay bounds how long a killed command may keep its output pipes open
const WaitDelay = 2 * time.Second

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

var _ Executor = BinaryFileExecutor{}

//counterfeiter:generate . Executor
type Executor interface {
	Command(ctx context.Context, name string, args ...string) Cmd
}

//counterfeiter:generate . Cmd
type Cmd interface {
	SetDir(dir string)
	CombinedOutput() ([]byte, error)
}

type BinaryFileExecutor struct{}

// Command runs the binary in its own process group so cancelling ctx also kills
// whatever the binary started, spleeter's ffmpeg children included
func (BinaryFileExecutor) Command(ctx context.Context, name string, args ...string) Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	killProcessGroupOnCancel(cmd)
	cmd.WaitDelay = WaitDelay

	return &binaryCmd{
		cmd: cmd,
	}
}

type binaryCmd struct {
	cmd *exec.Cmd
}

func (b *binaryCmd) SetDir(dir string) {
	b.cmd.Dir = dir
}

func (b *binaryCmd) CombinedOutput() ([]byte, error) {
	return b.cmd.CombinedOutput()
}
