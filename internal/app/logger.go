package app

import (
	"log/slog"

	"github.com/aitofresh/hana/internal/config"
)

// LogLevel is the process-wide log level. main.go hands it to the slog
// handler; config reloads adjust it through [App.onConfigChange].
var LogLevel slog.LevelVar

// SlogLevel maps a config log level to its slog equivalent.
func SlogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
