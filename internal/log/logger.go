package log

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"github.com/felixgeelhaar/psichat/internal/errors"
)

// Topic tags the domain a convenience record belongs to.
type Topic string

// Domain topics with their fixed message prefixes.
const (
	TopicAuth     Topic = "auth"
	TopicAPI      Topic = "api"
	TopicAnalysis Topic = "analysis"
	TopicChat     Topic = "chat"
)

var topicPrefix = map[Topic]string{
	TopicAuth:     "[AUTH] ",
	TopicAPI:      "[API] ",
	TopicAnalysis: "[ANALYSIS] ",
	TopicChat:     "[CHAT] ",
}

// Logger provides structured logging with slog.
//
// The threshold is fixed when the logger is built; there is no setter.
type Logger struct {
	slog   *slog.Logger
	config Config
}

// New creates a new Logger with the given configuration
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level:     config.Level.ToSlogLevel(),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(config.Output.Writer(), opts)
	default:
		handler = slog.NewTextHandler(config.Output.Writer(), opts)
	}

	logger := slog.New(handler)
	if config.ServiceName != "" {
		logger = logger.With("service", config.ServiceName)
	}
	if config.Environment != "" {
		logger = logger.With("env", config.Environment)
	}

	return &Logger{
		slog:   logger,
		config: config,
	}
}

// Discard returns a logger that drops every record
func Discard() *Logger {
	return New(Config{Level: LevelError, Output: NewOutput(io.Discard)})
}

// With returns a new Logger with the given attributes added to all log entries
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// WithGroup returns a new Logger with a group name that prefixes all attributes
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{
		slog:   l.slog.WithGroup(name),
		config: l.config,
	}
}

// WithError adds error details to the logger
// If the error is a PsiChatError, it adds error_code and suggestions
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	var pcErr *errors.PsiChatError
	if stderrors.As(err, &pcErr) {
		args := []any{
			"error", pcErr.Message,
			"error_code", string(pcErr.Code),
		}

		if len(pcErr.Suggestions) > 0 {
			args = append(args, "suggestions", pcErr.Suggestions)
		}

		if pcErr.Cause != nil {
			args = append(args, "cause", pcErr.Cause.Error())
		}

		return l.With(args...)
	}

	return l.With("error", err.Error())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// DebugContext logs a debug message with context
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// InfoContext logs an info message with context
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.InfoContext(ctx, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// WarnContext logs a warning message with context
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.WarnContext(ctx, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// ErrorContext logs an error message with context
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slog.ErrorContext(ctx, msg, args...)
}

// Auth logs an INFO record about authentication
func (l *Logger) Auth(msg string, args ...any) {
	l.topic(TopicAuth, msg, args)
}

// API logs an INFO record about backend calls
func (l *Logger) API(msg string, args ...any) {
	l.topic(TopicAPI, msg, args)
}

// Analysis logs an INFO record about emotional analysis
func (l *Logger) Analysis(msg string, args ...any) {
	l.topic(TopicAnalysis, msg, args)
}

// Chat logs an INFO record about chat traffic
func (l *Logger) Chat(msg string, args ...any) {
	l.topic(TopicChat, msg, args)
}

func (l *Logger) topic(t Topic, msg string, args []any) {
	l.slog.Info(topicPrefix[t]+msg, append(args, "topic", string(t))...)
}

// LogError logs a PsiChatError with full details
func (l *Logger) LogError(msg string, err error) {
	l.LogErrorContext(context.Background(), msg, err)
}

// LogErrorContext logs a PsiChatError with full details and context
func (l *Logger) LogErrorContext(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}
	if msg == "" {
		msg = "operation failed"
	}

	var pcErr *errors.PsiChatError
	if stderrors.As(err, &pcErr) {
		args := []any{
			"error_code", string(pcErr.Code),
			"error_message", pcErr.Message,
		}

		if len(pcErr.Suggestions) > 0 {
			args = append(args, "suggestions", pcErr.Suggestions)
		}

		if pcErr.DocsURL != "" {
			args = append(args, "docs_url", pcErr.DocsURL)
		}

		if pcErr.Cause != nil {
			args = append(args, "cause", pcErr.Cause.Error())
		}

		l.ErrorContext(ctx, msg, args...)
		return
	}

	l.ErrorContext(ctx, msg, "error", err.Error())
}

// Enabled returns whether the logger is enabled for the given level
func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.slog.Enabled(ctx, level.ToSlogLevel())
}

// Handler returns the underlying slog.Handler
func (l *Logger) Handler() slog.Handler {
	return l.slog.Handler()
}

// Config returns the logger configuration
func (l *Logger) Config() Config {
	return l.config
}
