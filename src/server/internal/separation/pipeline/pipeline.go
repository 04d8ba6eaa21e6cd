package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	"github.com/veedubyou/stem-splitter/src/shared/lib/executor"
)

type Strategy string

const (
	PrimaryStrategy  Strategy = "primary"
	FallbackStrategy Strategy = "fallback"
)

const (
	VocalsStem = "vocals"
	OtherStem  = "other"
)

type stemTarget struct {
	name string
	// file the separator writes for this stem
	rawFile string
	// ffmpeg filter used to approximate the stem when the separator is unusable
	filter string
}

// order here is the order stems are reported in
var stemTargets = []stemTarget{
	{name: VocalsStem, rawFile: "vocals.wav", filter: "highpass=f=200"},
	{name: OtherStem, rawFile: "accompaniment.wav", filter: "lowpass=f=1000"},
}

type Config struct {
	SeparatorBinPath  string
	SeparatorPreset   string
	TranscoderBinPath string
	SeparationTimeout time.Duration
	TranscodeTimeout  time.Duration
	TagStems          bool
}

func DefaultConfig() Config {
	return Config{
		SeparatorBinPath:  "spleeter",
		SeparatorPreset:   "spleeter:2stems",
		TranscoderBinPath: "ffmpeg",
		SeparationTimeout: 300 * time.Second,
		TranscodeTimeout:  60 * time.Second,
		TagStems:          true,
	}
}

// StemResult is the outcome of producing a single stem.
// SkipReason is set exactly when Produced is false.
type StemResult struct {
	Name       string
	Path       string
	Produced   bool
	SkipReason error
}

type Result struct {
	Strategy       Strategy
	FallbackReason string
	Stems          []StemResult
}

func (r Result) Produced() []StemResult {
	produced := []StemResult{}
	for _, stem := range r.Stems {
		if stem.Produced {
			produced = append(produced, stem)
		}
	}

	return produced
}

type Pipeline struct {
	config   Config
	executor executor.Executor
}

func NewPipeline(config Config, executor executor.Executor) Pipeline {
	return Pipeline{
		config:   config,
		executor: executor,
	}
}

// Run separates inputPath into stems under outputDir.
// Tool failures never surface as errors: they switch to the fallback or leave a stem out.
// An error means the directories themselves are unusable.
func (p Pipeline) Run(ctx context.Context, inputPath string, outputDir string) (Result, error) {
	absInputPath, err := filepath.Abs(inputPath)
	if err != nil {
		return Result{}, cerr.Field("input_path", inputPath).
			Wrap(err).Error("Cannot convert input path to absolute format")
	}

	errctx := cerr.Field("input_path", absInputPath)

	absOutputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return Result{}, errctx.Field("output_dir", outputDir).
			Wrap(err).Error("Cannot convert output dir to absolute format")
	}

	errctx = errctx.Field("output_dir", absOutputDir)

	info, err := os.Stat(absOutputDir)
	if err != nil {
		return Result{}, errctx.Wrap(err).Error("Output dir is not accessible")
	}
	if !info.IsDir() {
		return Result{}, errctx.Error("Output dir is not a directory")
	}

	// the tools keep running even if whoever asked for them goes away
	ctx = context.WithoutCancel(ctx)

	logger := log.WithFields(log.Fields{
		"input_path": absInputPath,
		"output_dir": absOutputDir,
	})

	outcome := p.attemptPrimary(ctx, absInputPath, absOutputDir)
	if outcome.Fault == nil {
		stems, err := p.finalizePrimary(ctx, baseName(absInputPath), absOutputDir)
		if err != nil {
			return Result{}, errctx.Wrap(err).Error("Failed to finalize separated stems")
		}

		if allRawMissing(stems) {
			logger.Warn("Separator exited cleanly but wrote no stems")
		}

		p.tagStems(baseName(absInputPath), stems)

		return Result{
			Strategy: PrimaryStrategy,
			Stems:    stems,
		}, nil
	}

	reason := fallbackReason(outcome.Fault)
	logger.WithError(outcome.Fault).
		WithField("fallback_reason", reason).
		Warn("Separator unusable, falling back to filters")

	removeRawOutput(baseName(absInputPath), absOutputDir)

	stems, err := p.runFallback(ctx, absInputPath, absOutputDir)
	if err != nil {
		return Result{}, errctx.Wrap(err).Error("Failed to run fallback filters")
	}

	p.tagStems(baseName(absInputPath), stems)

	return Result{
		Strategy:       FallbackStrategy,
		FallbackReason: reason,
		Stems:          stems,
	}, nil
}

func (p Pipeline) transcode(ctx context.Context, args []string) error {
	_, err := executor.Run(ctx, p.executor, executor.Invocation{
		BinPath: p.config.TranscoderBinPath,
		Args:    args,
		Timeout: p.config.TranscodeTimeout,
	})
	return err
}

// BaseName is the upload's file name without its extension
func BaseName(path string) string {
	return baseName(path)
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func stemOutputPath(outputDir string, stemName string) string {
	return filepath.Join(outputDir, stemName+".mp3")
}

func allRawMissing(stems []StemResult) bool {
	for _, stem := range stems {
		if !isRawMissing(stem.SkipReason) {
			return false
		}
	}

	return true
}
