package config

import (
	"io"
	"strings"

	golog "github.com/tochemey/goakt/v3/log"
)

// NewLogger returns the logger shared by the actor system and the drivers.
// Unknown levels fall back to info.
func NewLogger(level string, w io.Writer) golog.Logger {
	return golog.New(parseLevel(level), w)
}

func parseLevel(level string) golog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return golog.DebugLevel
	case "warn", "warning":
		return golog.WarningLevel
	case "error":
		return golog.ErrorLevel
	default:
		return golog.InfoLevel
	}
}
