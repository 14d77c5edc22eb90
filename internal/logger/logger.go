// Package logger builds the zerolog loggers used by every stage.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
)

// Config selects level, encoding and destination
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // console or json
	Output string // stdout, stderr, or a file path

	// Stdout and Stderr replace the process streams when set
	Stdout io.Writer
	Stderr io.Writer
}

// New creates a logger. The returned closer releases a log file, if any.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), nil, errors.Annotatef(err, "invalid log level '%s'", cfg.Level)
		}
		level = parsed
	}

	var (
		output io.Writer
		closer io.Closer = nopCloser{}
	)
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		output = cfg.Stdout
		if output == nil {
			output = os.Stdout
		}
	case "stderr":
		output = cfg.Stderr
		if output == nil {
			output = os.Stderr
		}
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return zerolog.Nop(), nil, errors.Annotatef(err, "failed to open log file '%s'", cfg.Output)
		}
		output, closer = file, file
	}

	return NewWithWriter(output, cfg.Format, level), closer, nil
}

// NewWithWriter creates a logger on w
func NewWithWriter(w io.Writer, format string, level zerolog.Level) zerolog.Logger {
	if !strings.EqualFold(format, "json") {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
