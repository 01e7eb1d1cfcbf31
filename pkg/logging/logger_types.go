package logging

import (
	"io"
	"strings"
	"sync"
	"time"
)

// Level represents a log level
type Level int

const (
	// DebugLevel is for per-record detail (index sizes, skipped rows)
	DebugLevel Level = iota
	// InfoLevel is the default: stage starts, row counts, output paths
	InfoLevel
	// WarnLevel marks recoverable input problems (missing table, coerced fields)
	WarnLevel
	// ErrorLevel marks a failed run
	ErrorLevel
)

// String returns the string representation of a log level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level, defaulting to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Format selects how entries are rendered.
type Format int

const (
	// JSONFormat writes one JSON object per line
	JSONFormat Format = iota
	// TextFormat writes "time LEVEL msg key=value ..." lines for terminals
	TextFormat
)

// ParseFormat converts "json" or "text" to a Format, defaulting to JSONFormat.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "text") {
		return TextFormat
	}
	return JSONFormat
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// Logger is the interface every analysis component logs through.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger with the given fields pre-set
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// StreamLogger writes entries to an io.Writer in JSON or text form.
// Child loggers created by With share the parent's writer, level and lock.
type StreamLogger struct {
	out    *sink
	fields []Field
}

type sink struct {
	mu     sync.Mutex
	writer io.Writer
	level  Level
	format Format
}

// LogEntry is a single JSON log line.
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger discards everything; used by tests and as the nil fallback.
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (n NopLogger) With(fields ...Field) Logger     { return n }
func (NopLogger) SetLevel(level Level)              {}
func (NopLogger) GetLevel() Level                   { return InfoLevel }

// NewNopLogger creates a logger that discards all output
func NewNopLogger() Logger {
	return NopLogger{}
}

// TimedOperation measures a pipeline stage.
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}
