package dummy

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/veedubyou/stem-splitter/src/shared/lib/executor"
)

var _ executor.Executor = &Executor{}

const (
	SeparatorBinPath  = "/dummy/bin/spleeter"
	TranscoderBinPath = "/dummy/bin/ffmpeg"
)

type Call struct {
	Name string
	Args []string
	Dir  string
}

// Executor pretends to be spleeter and ffmpeg.
// The separator writes one wav per RawStems entry under <out>/<input base>/,
// the transcoder copies its input into whatever its last argument names.
type Executor struct {
	MissingBins map[string]bool

	SeparatorExitCode int
	// with a non-zero SeparatorExitCode, write the raw stems before exiting
	SeparatorWritesBeforeFailing bool
	SeparatorHangs               bool
	// exit cleanly after writing a plain file where the stem directory should be
	SeparatorClobbersOutput bool
	RawStems                     []string

	// the transcoder exits with 1 when any argument contains one of these
	TranscodeFailures []string
	// the transcoder exits cleanly without writing output when any argument contains one of these
	TranscodeNoOutput []string

	mutex sync.Mutex
	calls []Call
}

func NewDummyExecutor() *Executor {
	return &Executor{
		MissingBins: map[string]bool{},
		RawStems:    []string{"vocals", "accompaniment"},
	}
}

func (e *Executor) Calls() []Call {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	calls := make([]Call, len(e.calls))
	copy(calls, e.calls)
	return calls
}

func (e *Executor) CallsTo(name string) []Call {
	calls := []Call{}
	for _, call := range e.Calls() {
		if call.Name == name {
			calls = append(calls, call)
		}
	}

	return calls
}

func (e *Executor) record(call Call) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.calls = append(e.calls, call)
}

func (e *Executor) Command(ctx context.Context, name string, args ...string) executor.Cmd {
	return &cmd{
		ctx:      ctx,
		executor: e,
		call: Call{
			Name: name,
			Args: args,
		},
	}
}

type cmd struct {
	ctx      context.Context
	executor *Executor
	call     Call
}

func (c *cmd) SetDir(dir string) {
	c.call.Dir = dir
}

func (c *cmd) CombinedOutput() ([]byte, error) {
	c.executor.record(c.call)

	if c.executor.MissingBins[c.call.Name] {
		return nil, &exec.Error{Name: c.call.Name, Err: exec.ErrNotFound}
	}

	switch c.call.Name {
	case SeparatorBinPath:
		return c.separate()
	case TranscoderBinPath:
		return c.transcode()
	default:
		return nil, &exec.Error{Name: c.call.Name, Err: exec.ErrNotFound}
	}
}

func (c *cmd) separate() ([]byte, error) {
	if c.executor.SeparatorHangs {
		<-c.ctx.Done()
		return []byte("killed"), c.ctx.Err()
	}

	if c.executor.SeparatorExitCode != 0 && !c.executor.SeparatorWritesBeforeFailing {
		return []byte("separation exploded"), ExitError{Code: c.executor.SeparatorExitCode}
	}

	args := c.call.Args
	if len(args) == 0 {
		return nil, ExitError{Code: 2}
	}

	outputDir := argAfter(args, "-o")
	inputPath := args[len(args)-1]
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	rawDir := filepath.Join(outputDir, base)
	if c.executor.SeparatorClobbersOutput {
		if err := os.WriteFile(rawDir, []byte("not a directory"), 0o644); err != nil {
			return nil, err
		}
		return []byte("separated " + base), nil
	}

	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return nil, err
	}

	for _, stem := range c.executor.RawStems {
		content := []byte("raw " + stem + " of " + base)
		if err := os.WriteFile(filepath.Join(rawDir, stem+".wav"), content, 0o644); err != nil {
			return nil, err
		}
	}

	if c.executor.SeparatorExitCode != 0 {
		return []byte("separation exploded"), ExitError{Code: c.executor.SeparatorExitCode}
	}

	return []byte("separated " + base), nil
}

func (c *cmd) transcode() ([]byte, error) {
	args := c.call.Args
	if len(args) == 0 {
		return nil, ExitError{Code: 2}
	}

	outputPath := args[len(args)-1]
	inputPath := argAfter(args, "-i")

	if c.matches(c.executor.TranscodeFailures) {
		// leave a half written file behind like a crashed encoder would
		_ = os.WriteFile(outputPath, []byte("partial"), 0o644)
		return []byte("conversion failed"), ExitError{Code: 1}
	}

	if c.matches(c.executor.TranscodeNoOutput) {
		return []byte("nothing to do"), nil
	}

	input, err := os.ReadFile(inputPath)
	if err != nil {
		return []byte(err.Error()), ExitError{Code: 1}
	}

	content := append([]byte("mp3:"), input...)
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return nil, err
	}

	return []byte("transcoded"), nil
}

func (c *cmd) matches(needles []string) bool {
	for _, needle := range needles {
		for _, arg := range c.call.Args {
			if strings.Contains(arg, needle) {
				return true
			}
		}
	}

	return false
}

func argAfter(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}

	return ""
}
