package pipeline

import (
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/stem-splitter/src/shared/lib/errors/mark"
	"github.com/veedubyou/stem-splitter/src/shared/lib/executor"
)

var (
	RawMissingMark      = mark.New("Separator did not write the stem")
	TranscodeFailedMark = mark.New("Failed to transcode stem")
	OutputMissingMark   = mark.New("Stem output is missing")
)

const (
	SeparatorNotFoundReason = "separator_not_found"
	SeparatorTimeoutReason  = "separator_timed_out"
	SeparatorFailedReason   = "separator_failed"
)

func fallbackReason(fault error) string {
	switch {
	case markers.Is(fault, executor.BinaryNotFoundMark):
		return SeparatorNotFoundReason
	case markers.Is(fault, executor.TimeoutMark):
		return SeparatorTimeoutReason
	default:
		return SeparatorFailedReason
	}
}

func isRawMissing(err error) bool {
	return err != nil && markers.Is(err, RawMissingMark)
}
