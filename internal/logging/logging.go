// Package logging builds the process-wide slog logger from configuration.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level, the console writer and an optional rotated
// log file.
type Options struct {
	Level  string    // debug, info, warn, error
	Output io.Writer // defaults to os.Stdout
	File   string
}

// New returns a text logger writing to opts.Output and, when opts.File is
// set, to a size-rotated file. The returned close function flushes the file
// writer.
func New(opts Options) (*slog.Logger, func() error) {
	var w io.Writer = os.Stdout
	if opts.Output != nil {
		w = opts.Output
	}
	closeFn := func() error { return nil }

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(w, rotator)
		closeFn = rotator.Close
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)}))
	return logger, closeFn
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
