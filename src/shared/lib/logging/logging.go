package logging

import (
	"io"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/multi"
	"github.com/apex/log/handlers/text"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stem-splitter/src/shared/lib/env"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Environment env.Environment
	Level       string
	// File is optional, rotated once it grows past MaxSizeMB
	File      string
	MaxSizeMB int
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// Setup installs the process wide apex/log handler.
// The returned closer flushes the log file, if there is one.
func Setup(config Config) (io.Closer, error) {
	level := log.InfoLevel
	if config.Level != "" {
		parsed, err := log.ParseLevel(config.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "Unrecognized log level %s", config.Level)
		}
		level = parsed
	}

	var console log.Handler
	switch config.Environment {
	case env.Production:
		console = json.New(os.Stderr)
	default:
		console = text.New(os.Stderr)
	}

	log.SetLevel(level)

	if config.File == "" {
		log.SetHandler(console)
		return noopCloser{}, nil
	}

	maxSize := config.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}

	fileWriter := &lumberjack.Logger{
		Filename:   config.File,
		MaxSize:    maxSize,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	}

	log.SetHandler(multi.New(console, json.New(fileWriter)))
	return fileWriter, nil
}
