package executor_test

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stem-splitter/src/shared/lib/executor"
	. "github.com/veedubyou/stem-splitter/src/shared/testing"
	"github.com/veedubyou/stem-splitter/src/shared/testing/dummy"
)

type scriptedCmd struct {
	ctx    context.Context
	output []byte
	err    error
	hang   bool
	dir    string
}

func (s *scriptedCmd) SetDir(dir string) {
	s.dir = dir
}

func (s *scriptedCmd) CombinedOutput() ([]byte, error) {
	if s.hang {
		<-s.ctx.Done()
		return nil, s.ctx.Err()
	}

	return s.output, s.err
}

type scriptedExecutor struct {
	cmd *scriptedCmd
}

func (s scriptedExecutor) Command(ctx context.Context, _ string, _ ...string) executor.Cmd {
	s.cmd.ctx = ctx
	return s.cmd
}

var _ = Describe("Run", func() {
	var (
		cmd        *scriptedCmd
		invocation executor.Invocation
		result     executor.Result
		err        error
	)

	BeforeEach(func() {
		cmd = &scriptedCmd{output: []byte("done")}
		invocation = executor.Invocation{
			BinPath: "/bin/tool",
			Args:    []string{"-i", "in.wav"},
			Dir:     "/work",
			Timeout: time.Second,
		}
	})

	JustBeforeEach(func() {
		result, err = executor.Run(context.Background(), scriptedExecutor{cmd: cmd}, invocation)
	})

	It("returns the output of a successful command", func() {
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Output).To(Equal([]byte("done")))
		Expect(result.ExitCode).To(Equal(0))
		Expect(cmd.dir).To(Equal("/work"))
	})

	Describe("non-zero exit", func() {
		BeforeEach(func() {
			cmd.err = dummy.ExitError{Code: 3}
		})

		It("is marked and carries the exit code", func() {
			Expect(markers.Is(err, executor.NonZeroExitMark)).To(BeTrue())
			Expect(result.ExitCode).To(Equal(3))
		})
	})

	Describe("missing binary", func() {
		BeforeEach(func() {
			cmd.err = &exec.Error{Name: "/bin/tool", Err: exec.ErrNotFound}
		})

		It("is marked as not found", func() {
			Expect(markers.Is(err, executor.BinaryNotFoundMark)).To(BeTrue())
		})
	})

	Describe("command outlives its timeout", func() {
		BeforeEach(func() {
			cmd.hang = true
			invocation.Timeout = 10 * time.Millisecond
		})

		It("is marked as timed out", func() {
			Expect(markers.Is(err, executor.TimeoutMark)).To(BeTrue())
		})
	})

	Describe("any other failure", func() {
		BeforeEach(func() {
			cmd.err = dummy.NetworkFailure
		})

		It("gets the default mark", func() {
			Expect(markers.Is(err, executor.DefaultErrorMark)).To(BeTrue())
		})
	})

	Describe("with real binaries", func() {
		BeforeEach(func() {
			if _, statErr := os.Stat("/bin/sh"); statErr != nil {
				Skip("no /bin/sh on this machine")
			}
		})

		It("returns at the timeout even when the command has children holding its output", func() {
			start := time.Now()
			result, err := executor.Run(context.Background(), executor.BinaryFileExecutor{}, executor.Invocation{
				BinPath: "/bin/sh",
				Args:    []string{"-c", "sleep 4; echo done"},
				Timeout: 200 * time.Millisecond,
			})

			Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
			Expect(markers.Is(err, executor.TimeoutMark)).To(BeTrue())
			Expect(string(result.Output)).NotTo(ContainSubstring("done"))
		})

		It("still collects the output of a command that finishes in time", func() {
			result := ExpectSuccess(executor.Run(context.Background(), executor.BinaryFileExecutor{}, executor.Invocation{
				BinPath: "/bin/sh",
				Args:    []string{"-c", "echo done"},
				Timeout: 5 * time.Second,
			}))

			Expect(string(result.Output)).To(Equal("done\n"))
		})
	})
})
