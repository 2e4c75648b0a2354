package conf

import (
	"log/slog"
	"os"
)

// SetupLogging installs the default logger: text on stderr, debug level
// when debug is set
func SetupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
