package config

import (
	"os/exec"

	"github.com/cockroachdb/errors"
)

const (
	SpleeterBin = "spleeter"
	FFmpegBin   = "ffmpeg"
)

func FindBin(bin string) (string, error) {
	binPath, err := exec.LookPath(bin)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to find %s", bin)
	}

	return binPath, nil
}

// ResolveBin prefers the configured path, then whatever is on PATH.
// An unresolvable name is returned as is; running it later fails as a missing binary.
func ResolveBin(configured string, bin string) string {
	if configured != "" {
		return configured
	}

	binPath, err := FindBin(bin)
	if err != nil {
		return bin
	}

	return binPath
}
