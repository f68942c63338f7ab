package log

import (
	"log/slog"
	"strings"
)

// Level represents the severity of a log message.
//
// Lower values are more severe. A record is emitted when its level is
// numerically less than or equal to the configured threshold.
type Level int

const (
	// LevelError is for failures
	LevelError Level = iota
	// LevelWarn is for conditions that deserve attention
	LevelWarn
	// LevelInfo is for general informational messages
	LevelInfo
	// LevelDebug is for detailed debugging information
	LevelDebug
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Allows reports whether a record at level msg passes a threshold of l.
func (l Level) Allows(msg Level) bool {
	return msg <= l
}

// ToSlogLevel converts our Level to slog.Level
func (l Level) ToSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel parses a string into a Level
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
