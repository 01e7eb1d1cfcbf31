package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{" info ", InfoLevel},
		{"WARN", WarnLevel},
		{"warning", WarnLevel},
		{"Error", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("TEXT") != TextFormat {
		t.Error("TEXT should parse as TextFormat")
	}
	if ParseFormat("json") != JSONFormat || ParseFormat("") != JSONFormat {
		t.Error("json and empty should parse as JSONFormat")
	}
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"Table", Table("cdr"), "table", "cdr"},
		{"Records", Records(12), "records", 12},
		{"Matches", Matches(3), "matches", 3},
		{"Subject", Subject("404"), "subject", "404"},
		{"RunID", RunID("abc"), "run_id", "abc"},
		{"Stage", Stage("correlate"), "stage", "correlate"},
		{"Duration", Duration("window", 30*time.Minute), "window", "30m0s"},
		{"Error", Error(errors.New("boom")), "error", "boom"},
		{"ErrorNil", Error(nil), "error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key || tt.field.Value != tt.value {
				t.Errorf("%s = %+v, want {%s %v}", tt.name, tt.field, tt.key, tt.value)
			}
		})
	}
}

func TestStreamLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("loaded table", Table("cdr"), Records(100))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry: %v", err)
	}
	if entry.Level != "INFO" || entry.Message != "loaded table" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Fields["table"] != "cdr" {
		t.Errorf("Fields[table] = %v, want cdr", entry.Fields["table"])
	}
	if entry.Fields["records"] != float64(100) {
		t.Errorf("Fields[records] = %v, want 100", entry.Fields["records"])
	}
	if entry.Time == "" {
		t.Error("Time field is empty")
	}
}

func TestStreamLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("plain")

	if strings.Contains(buf.String(), "fields") {
		t.Errorf("fields key should be omitted, got %s", buf.String())
	}
}

func TestStreamLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, InfoLevel, TextFormat)

	logger.Warn("missing input", Table("ipdr"), Path("/tmp/x.csv"))

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "WARN  missing input") {
		t.Errorf("text line missing level/message: %q", line)
	}
	if !strings.HasSuffix(line, "path=/tmp/x.csv table=ipdr") {
		t.Errorf("text fields should be sorted by key: %q", line)
	}
}

func TestStreamLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(lines))
	}

	var entry LogEntry
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if entry.Level != "ERROR" {
		t.Errorf("second entry level = %v, want ERROR", entry.Level)
	}
}

func TestStreamLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	child := logger.With(Component("correlation"), RunID("r1"))

	child.Info("pass done", Matches(4))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if entry.Fields["component"] != "correlation" || entry.Fields["run_id"] != "r1" {
		t.Errorf("preset fields missing: %+v", entry.Fields)
	}

	buf.Reset()
	logger.SetLevel(ErrorLevel)
	child.Info("suppressed")
	if buf.Len() != 0 {
		t.Error("child should follow the parent's level")
	}
	if child.GetLevel() != ErrorLevel {
		t.Errorf("child level = %v, want ERROR", child.GetLevel())
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	timer := StartTimer(logger, "stage complete", Stage("graph"))
	elapsed := timer.End(Count(7))
	if elapsed < 0 {
		t.Errorf("negative elapsed time %v", elapsed)
	}

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if entry.Fields["stage"] != "graph" || entry.Fields["count"] != float64(7) {
		t.Errorf("fields = %+v", entry.Fields)
	}
	if _, ok := entry.Fields["latency"]; !ok {
		t.Error("latency field missing")
	}

	buf.Reset()
	StartTimer(logger, "stage failed").EndError(errors.New("bad input"))
	if !strings.Contains(buf.String(), `"error":"bad input"`) {
		t.Errorf("EndError output = %s", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(NopLogger); !ok {
		t.Error("OrNop(nil) should return NopLogger")
	}
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, InfoLevel)
	if OrNop(l) != Logger(l) {
		t.Error("OrNop should return a non-nil logger unchanged")
	}
	StartTimer(nil, "nil logger").End()
}
