package log

import (
	"bytes"
	"io"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"text", FormatText},
		{"console", FormatText},
		{"", FormatText},
		{"xml", FormatText},
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.input); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatString(t *testing.T) {
	if FormatJSON.String() != "json" {
		t.Errorf("expected json, got %s", FormatJSON.String())
	}
	if FormatText.String() != "text" {
		t.Errorf("expected text, got %s", FormatText.String())
	}
}

func TestConfigForEnvironment(t *testing.T) {
	tests := []struct {
		env       string
		wantLevel Level
		wantFmt   Format
	}{
		{"development", LevelDebug, FormatText},
		{"test", LevelWarn, FormatText},
		{"production", LevelError, FormatJSON},
		{"staging", LevelError, FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := ConfigForEnvironment(tt.env)
			if cfg.Level != tt.wantLevel {
				t.Errorf("Level = %v, want %v", cfg.Level, tt.wantLevel)
			}
			if cfg.Format != tt.wantFmt {
				t.Errorf("Format = %v, want %v", cfg.Format, tt.wantFmt)
			}
			if cfg.Environment != tt.env {
				t.Errorf("Environment = %q, want %q", cfg.Environment, tt.env)
			}
		})
	}
}

func TestOutputWriter(t *testing.T) {
	var buf bytes.Buffer
	if NewOutput(&buf).Writer() != &buf {
		t.Error("expected the wrapped writer")
	}
	if (Output{}).Writer() != io.Discard {
		t.Error("expected zero Output to discard")
	}
}
