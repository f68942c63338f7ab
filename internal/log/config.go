package log

import (
	"io"
	"os"
)

// Format represents the output format for logs
type Format int

const (
	// FormatText outputs logs in human-readable text format
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "text"
	}
}

// ParseFormat parses a string into a Format
func ParseFormat(s string) Format {
	switch s {
	case "json", "JSON":
		return FormatJSON
	case "text", "TEXT", "console":
		return FormatText
	default:
		return FormatText
	}
}

// Output represents where logs should be written
type Output struct {
	writer io.Writer
}

// Writer returns the underlying io.Writer
func (o Output) Writer() io.Writer {
	if o.writer == nil {
		return io.Discard
	}
	return o.writer
}

// NewOutput creates an Output from an io.Writer
func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

// OutputStderr creates an Output that writes to stderr.
// The CLI keeps stdout for command results.
func OutputStderr() Output {
	return Output{writer: os.Stderr}
}

// Config holds configuration for the logger
type Config struct {
	// Level is the threshold; records less severe than it are dropped
	Level Level

	// Format is the output format (JSON or Text)
	Format Format

	// Output is where logs should be written
	Output Output

	// AddSource includes source file and line number in logs
	AddSource bool

	// ServiceName is attached to every record
	ServiceName string

	// Environment is attached to every record (development, production, test)
	Environment string
}

// ConfigForEnvironment returns the logging defaults for a runtime environment.
// Development logs everything, tests keep warnings, production only errors.
func ConfigForEnvironment(env string) Config {
	cfg := Config{
		Level:       LevelError,
		Format:      FormatText,
		Output:      OutputStderr(),
		ServiceName: "psichat",
		Environment: env,
	}

	switch env {
	case "development":
		cfg.Level = LevelDebug
		cfg.AddSource = true
	case "test":
		cfg.Level = LevelWarn
	case "production":
		cfg.Format = FormatJSON
	}

	return cfg
}
