package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	"github.com/veedubyou/stem-splitter/src/shared/lib/errors/mark"
	"github.com/veedubyou/stem-splitter/src/shared/lib/executor"
)

// PrimaryOutcome reports whether the separator ran to a clean exit.
// A non-nil Fault means the fallback should run instead.
type PrimaryOutcome struct {
	Fault error
}

func (p Pipeline) attemptPrimary(ctx context.Context, inputPath string, outputDir string) PrimaryOutcome {
	logger := log.WithFields(log.Fields{
		"input_path": inputPath,
		"output_dir": outputDir,
		"preset":     p.config.SeparatorPreset,
	})

	logger.Info("Running separator")

	args := []string{"separate", "-p", p.config.SeparatorPreset, "-o", outputDir, inputPath}
	_, err := executor.Run(ctx, p.executor, executor.Invocation{
		BinPath: p.config.SeparatorBinPath,
		Args:    args,
		Dir:     outputDir,
		Timeout: p.config.SeparationTimeout,
	})
	if err != nil {
		return PrimaryOutcome{
			Fault: cerr.Field("separator_bin_path", p.config.SeparatorBinPath).
				Wrap(err).Error("Separator failed"),
		}
	}

	logger.Info("Finished separator")
	return PrimaryOutcome{}
}

// finalizePrimary converts every raw stem the separator left under <outputDir>/<base>
// into <outputDir>/<stem>.mp3, then drops the raw directory.
func (p Pipeline) finalizePrimary(ctx context.Context, base string, outputDir string) ([]StemResult, error) {
	rawDir := filepath.Join(outputDir, base)
	results := []StemResult{}

	for _, target := range stemTargets {
		result, err := p.finalizeStem(ctx, target, rawDir, outputDir)
		if err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	removeRawOutput(base, outputDir)

	return results, nil
}

// removeRawOutput drops <outputDir>/<base>, which the separator writes even when it fails part way
func removeRawOutput(base string, outputDir string) {
	rawDir := filepath.Join(outputDir, base)
	if base == "" || base == "." || rawDir == outputDir {
		return
	}

	if err := os.RemoveAll(rawDir); err != nil {
		log.WithError(err).
			WithField("raw_dir", rawDir).
			Warn("Failed to remove raw separator output")
	}
}

func (p Pipeline) finalizeStem(ctx context.Context, target stemTarget, rawDir string, outputDir string) (StemResult, error) {
	rawPath := filepath.Join(rawDir, target.rawFile)
	outPath := stemOutputPath(outputDir, target.name)
	result := StemResult{
		Name: target.name,
		Path: outPath,
	}

	logger := log.WithFields(log.Fields{
		"stem":     target.name,
		"raw_path": rawPath,
	})

	_, err := os.Stat(rawPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("Separator did not produce this stem")
		result.SkipReason = mark.Message(RawMissingMark, "Raw stem file was not written")
		return result, nil

	case err != nil:
		return StemResult{}, cerr.Field("raw_path", rawPath).
			Wrap(err).Error("Failed to check raw stem file")
	}

	args := []string{"-y", "-i", rawPath, "-codec:a", "libmp3lame", "-qscale:a", "2", outPath}
	if err := p.transcode(ctx, args); err != nil {
		logger.WithError(err).Warn("Failed to transcode stem")
		removePartial(outPath)
		result.SkipReason = mark.Wrap(err, TranscodeFailedMark, "Failed to transcode raw stem")
		return result, nil
	}

	return checkOutput(result)
}

func checkOutput(result StemResult) (StemResult, error) {
	_, err := os.Stat(result.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.SkipReason = mark.Message(OutputMissingMark, "Transcoder exited cleanly without writing the stem")
		return result, nil

	case err != nil:
		return StemResult{}, cerr.Field("stem_path", result.Path).
			Wrap(err).Error("Failed to check stem file")
	}

	result.Produced = true
	return result, nil
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).
			WithField("path", path).
			Warn("Failed to remove partial stem file")
	}
}
