package obs

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds the process logger on stdout: colorized tint output
// at debug level for interactive dev runs, JSON at info level otherwise.
func NewLogger(env string) *slog.Logger {
	if env == "dev" || env == "local" {
		return NewLoggerAt(os.Stdout, slog.LevelDebug, true)
	}
	return NewLoggerAt(os.Stdout, slog.LevelInfo, false)
}

// NewLoggerAt builds a logger on an explicit sink, threshold and format,
// for tests and tools that should not write to the process stdout.
func NewLoggerAt(w io.Writer, level slog.Level, pretty bool) *slog.Logger {
	if pretty {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}))
}
