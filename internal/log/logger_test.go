package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/psichat/internal/errors"
)

func newBufferLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(Config{Level: level, Format: format, Output: NewOutput(buf)}), buf
}

func TestThresholdError(t *testing.T) {
	logger, buf := newBufferLogger(LevelError, FormatText)

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below ERROR, got %q", buf.String())
	}

	logger.Error("boom")
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected error record, got %q", buf.String())
	}
}

func TestThresholdWarn(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn, FormatText)

	logger.Info("x")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be dropped, got %q", buf.String())
	}

	logger.Warn("x")
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "msg=x") {
		t.Errorf("expected one warn record, got %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected exactly one record, got %q", out)
	}
}

func TestThresholdDebugEmitsAll(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatText)

	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")

	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Errorf("expected 4 records, got %d: %q", got, buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{
		Level:       LevelInfo,
		Format:      FormatJSON,
		Output:      NewOutput(buf),
		ServiceName: "psichat",
		Environment: "production",
	})

	logger.Info("hello", "key", "value")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if record["msg"] != "hello" {
		t.Errorf("expected msg hello, got %v", record["msg"])
	}
	if record["service"] != "psichat" || record["env"] != "production" {
		t.Errorf("expected service/env attrs, got %v", record)
	}
	if record["key"] != "value" {
		t.Errorf("expected key attr, got %v", record["key"])
	}
}

func TestDomainWrappers(t *testing.T) {
	tests := []struct {
		name   string
		log    func(*Logger)
		prefix string
		topic  Topic
	}{
		{"auth", func(l *Logger) { l.Auth("login ok") }, "[AUTH] login ok", TopicAuth},
		{"api", func(l *Logger) { l.API("login ok") }, "[API] login ok", TopicAPI},
		{"analysis", func(l *Logger) { l.Analysis("login ok") }, "[ANALYSIS] login ok", TopicAnalysis},
		{"chat", func(l *Logger) { l.Chat("login ok") }, "[CHAT] login ok", TopicChat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(LevelInfo, FormatJSON)
			tt.log(logger)

			var record map[string]any
			if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
				t.Fatalf("expected JSON output: %v", err)
			}
			if record["msg"] != tt.prefix {
				t.Errorf("msg = %v, want %q", record["msg"], tt.prefix)
			}
			if record["topic"] != string(tt.topic) {
				t.Errorf("topic = %v, want %q", record["topic"], tt.topic)
			}
			if record["level"] != "INFO" {
				t.Errorf("level = %v, want INFO", record["level"])
			}
		})
	}
}

func TestDomainWrappersRespectThreshold(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn, FormatText)
	logger.Auth("hidden")
	logger.Chat("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected INFO wrappers to be dropped at WARN, got %q", buf.String())
	}
}

func TestWithError(t *testing.T) {
	t.Run("psichat error", func(t *testing.T) {
		logger, buf := newBufferLogger(LevelInfo, FormatJSON)
		err := errors.NewNetworkError("http://127.0.0.1:8000", fmt.Errorf("refused"))
		logger.WithError(err).Error("request failed")

		out := buf.String()
		for _, want := range []string{`"error_code":"API-001"`, `"cause":"refused"`, `"suggestions"`} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %s in %s", want, out)
			}
		}
	})

	t.Run("plain error", func(t *testing.T) {
		logger, buf := newBufferLogger(LevelInfo, FormatJSON)
		logger.WithError(fmt.Errorf("plain")).Error("request failed")
		if !strings.Contains(buf.String(), `"error":"plain"`) {
			t.Errorf("expected plain error attr, got %s", buf.String())
		}
	})

	t.Run("nil error", func(t *testing.T) {
		logger, _ := newBufferLogger(LevelInfo, FormatJSON)
		if logger.WithError(nil) != logger {
			t.Error("expected the same logger for nil error")
		}
	})
}

func TestLogError(t *testing.T) {
	logger, buf := newBufferLogger(LevelError, FormatJSON)

	logger.LogError("", errors.NewConfigInvalidError("api_base_url", "empty"))

	out := buf.String()
	for _, want := range []string{`"msg":"operation failed"`, `"error_code":"CONFIG-001"`, `"error_message"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}

	buf.Reset()
	logger.LogErrorContext(context.Background(), "ignored", nil)
	if buf.Len() != 0 {
		t.Errorf("expected nil error to log nothing, got %s", buf.String())
	}
}

func TestWithAndGroup(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, FormatJSON)
	logger.With("request_id", "abc").WithGroup("http").Info("done", "status", 200)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if record["request_id"] != "abc" {
		t.Errorf("expected request_id attr, got %v", record)
	}
	group, ok := record["http"].(map[string]any)
	if !ok || group["status"] != float64(200) {
		t.Errorf("expected grouped status, got %v", record["http"])
	}
}

func TestEnabled(t *testing.T) {
	logger, _ := newBufferLogger(LevelWarn, FormatText)
	ctx := context.Background()

	if !logger.Enabled(ctx, LevelError) || !logger.Enabled(ctx, LevelWarn) {
		t.Error("expected ERROR and WARN enabled")
	}
	if logger.Enabled(ctx, LevelInfo) || logger.Enabled(ctx, LevelDebug) {
		t.Error("expected INFO and DEBUG disabled")
	}
	if logger.Config().Level != LevelWarn {
		t.Errorf("expected config level WARN, got %v", logger.Config().Level)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing")
	if logger.Handler() == nil {
		t.Error("expected a handler")
	}
}
