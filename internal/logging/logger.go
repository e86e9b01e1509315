// Package logging builds the structured logger shared by the CLI and the
// graph engine.
//
// Output goes to stderr by default. With format "auto" the handler is text
// when the destination is a terminal and JSON otherwise, so piped output
// stays machine-readable:
//
//	logger := logging.New(cfg.Log, os.Stderr)
//	logger.Info("catalog loaded", "functions", n)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/funblocks/internal/config"
)

// ParseLevel maps a configured level name to slog. Unknown names yield Info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// New returns a logger writing to w. A nil w means stderr.
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	format := cfg.Format
	if format == "" || format == config.FormatAuto {
		format = config.FormatJSON
		if IsTerminal(w) {
			format = config.FormatText
		}
	}

	var h slog.Handler
	if format == config.FormatText {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
