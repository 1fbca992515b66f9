// Package logging provides the structured logger shared by the actors,
// simulators and the northbound API. The API is logr; zap does the writing.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level of a log entry.
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// Component names used as logger names.
const (
	ComponentActorService = "actor-service"
	ComponentHTTPClient   = "http-client"
	ComponentTopic        = "topic"
	ComponentServer       = "northbound"
	ComponentSimulator    = "simulator"
	ComponentConfig       = "config"
	ComponentGuard        = "guard"
)

// Config holds configuration for the logger.
type Config struct {
	Level       LogLevel `json:"level"`
	Format      string   `json:"format"` // "json" or "console"
	Development bool     `json:"development"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Level:  GetLogLevel(),
		Format: "json",
	}
}

// Logger wraps a logr.Logger with the component it was created for.
type Logger struct {
	logr.Logger
	component string
}

// NewLogger creates a JSON logger at the level given by LOG_LEVEL.
func NewLogger(component string) Logger {
	return NewLoggerWithLevel(component, GetLogLevel())
}

// NewLoggerWithLevel creates a JSON logger at the given level.
func NewLoggerWithLevel(component string, level LogLevel) Logger {
	cfg := DefaultConfig()
	cfg.Level = level
	return New(cfg).WithComponent(component)
}

// New builds a Logger from cfg.
func New(cfg Config) Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if strings.EqualFold(cfg.Format, "console") || cfg.Development {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(toZapLevel(cfg.Level)))

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	return Logger{Logger: zapr.NewLogger(zap.New(core, opts...))}
}

// FromLogr wraps an existing logr.Logger, e.g. testr in unit tests.
func FromLogr(l logr.Logger) Logger {
	return Logger{Logger: l}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return Logger{Logger: logr.Discard()}
}

// WithComponent returns a logger named after component.
func (l Logger) WithComponent(component string) Logger {
	return Logger{Logger: l.Logger.WithName(component), component: component}
}

// WithValues returns a logger with additional key/value pairs.
func (l Logger) WithValues(keysAndValues ...interface{}) Logger {
	return Logger{Logger: l.Logger.WithValues(keysAndValues...), component: l.component}
}

// WithName appends a name segment.
func (l Logger) WithName(name string) Logger {
	return Logger{Logger: l.Logger.WithName(name), component: l.component}
}

// WithRequestID attaches the control-loop request id.
func (l Logger) WithRequestID(requestID string) Logger {
	return l.WithValues("requestId", requestID)
}

// WithOperation attaches actor and operation names.
func (l Logger) WithOperation(actor, operation string) Logger {
	return l.WithValues("actor", actor, "operation", operation)
}

// Component returns the component the logger was created for.
func (l Logger) Component() string {
	return l.component
}

// InfoEvent logs at info level.
func (l Logger) InfoEvent(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, keysAndValues...)
}

// DebugEvent logs at V(1).
func (l Logger) DebugEvent(msg string, keysAndValues ...interface{}) {
	l.Logger.V(1).Info(msg, keysAndValues...)
}

// WarnEvent logs at warn level. Sinks that are not backed by zap get an
// info entry marked severity=warning, since logr has no warn level.
func (l Logger) WarnEvent(msg string, keysAndValues ...interface{}) {
	if u, ok := l.Logger.GetSink().(zapr.Underlier); ok {
		u.GetUnderlying().Sugar().Warnw(msg, keysAndValues...)
		return
	}
	l.Logger.Info(msg, append([]interface{}{"severity", "warning"}, keysAndValues...)...)
}

// ErrorEvent logs err at error level.
func (l Logger) ErrorEvent(err error, msg string, keysAndValues ...interface{}) {
	l.Logger.Error(err, msg, keysAndValues...)
}

// OperationStarted logs the start of one attempt. The actor and operation
// come from WithOperation.
func (l Logger) OperationStarted(subRequestID string, attempt int) {
	l.Logger.Info("operation started",
		"subRequestId", subRequestID,
		"attempt", attempt,
	)
}

// OperationCompleted logs the final outcome of an operation.
func (l Logger) OperationCompleted(result string, duration time.Duration) {
	l.Logger.Info("operation completed",
		"result", result,
		"duration_ms", duration.Milliseconds(),
	)
}

// HTTPRequest logs an outbound or served HTTP exchange.
func (l Logger) HTTPRequest(method, path string, statusCode int, durationSeconds float64) {
	l.Logger.V(1).Info("http request",
		"method", method,
		"path", path,
		"status", statusCode,
		"duration_seconds", durationSeconds,
	)
}

// HTTPError logs a failed HTTP exchange.
func (l Logger) HTTPError(method, path string, statusCode int, err error, durationSeconds float64) {
	l.Logger.Error(err, "http request failed",
		"method", method,
		"path", path,
		"status", statusCode,
		"duration_seconds", durationSeconds,
	)
}

// IntoContext stores the logger in ctx.
func (l Logger) IntoContext(ctx context.Context) context.Context {
	return logr.NewContext(ctx, l.Logger)
}

// FromContext returns the logger stored in ctx, or a discard logger.
func FromContext(ctx context.Context) Logger {
	return Logger{Logger: logr.FromContextOrDiscard(ctx)}
}

// GetLogLevel reads LOG_LEVEL, defaulting to info.
func GetLogLevel() LogLevel {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// ParseLevel converts a level name to a LogLevel, defaulting to info.
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
