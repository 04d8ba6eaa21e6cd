package pipeline

import (
	"context"

	"github.com/apex/log"
	"github.com/veedubyou/stem-splitter/src/shared/lib/errors/mark"
)

// runFallback approximates each stem by filtering the original upload.
// Stems are independent, one failing filter doesn't stop the other.
func (p Pipeline) runFallback(ctx context.Context, inputPath string, outputDir string) ([]StemResult, error) {
	results := []StemResult{}

	for _, target := range stemTargets {
		outPath := stemOutputPath(outputDir, target.name)
		result := StemResult{
			Name: target.name,
			Path: outPath,
		}

		args := []string{"-y", "-i", inputPath, "-af", target.filter, "-q:a", "2", outPath}
		if err := p.transcode(ctx, args); err != nil {
			log.WithError(err).
				WithField("stem", target.name).
				Warn("Fallback filter failed")

			removePartial(outPath)
			result.SkipReason = mark.Wrap(err, TranscodeFailedMark, "Failed to filter stem")
			results = append(results, result)
			continue
		}

		checked, err := checkOutput(result)
		if err != nil {
			return nil, err
		}

		results = append(results, checked)
	}

	return results, nil
}
