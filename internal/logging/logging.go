// Package logging builds the leveled console logger shared by the front ends.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

type Options struct {
	Level           log.Level
	ReportTimestamp bool
	Prefix          string
}

func DefaultOptions() Options {
	return Options{
		Level:           log.InfoLevel,
		ReportTimestamp: true,
		Prefix:          "lazytodo",
	}
}

func New(w io.Writer, opts Options) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       log.TextFormatter,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          opts.Prefix,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func ParseLevel(value string) log.Level {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// OpenFile appends to path, creating it when missing.
func OpenFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
