// Package logging provides the leveled, structured logger used across basestyle.
//
// The API mirrors a small printf-style logger (Debug/Info/Warn/Error plus
// WithField/WithComponent) and is backed by zap. Components that expect a
// logr.Logger can obtain one through Logr.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity level of a log message.
type Level = zapcore.Level

const (
	// LevelDebug is for detailed diagnostics such as pass timings.
	LevelDebug = zapcore.DebugLevel
	// LevelInfo is for general informational messages.
	LevelInfo = zapcore.InfoLevel
	// LevelWarn is for warning messages.
	LevelWarn = zapcore.WarnLevel
	// LevelError is for error messages.
	LevelError = zapcore.ErrorLevel
)

// ParseLevel parses a string into a Level. Unknown strings map to LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "info", "INFO":
		return LevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format selects the encoder.
type Format string

const (
	// FormatConsole writes human readable lines.
	FormatConsole Format = "console"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// Config configures a Logger.
type Config struct {
	// Level is the minimum level to output.
	Level Level
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Name is attached to every record as the logger name.
	Name string
	// Format selects console or JSON encoding. Defaults to console.
	Format Format
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
		Name:   "basestyle",
		Format: FormatConsole,
	}
}

// Logger provides structured logging.
type Logger struct {
	z     *zap.Logger
	level zap.AtomicLevel
}

// New creates a logger with the given configuration.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var enc zapcore.Encoder
	if cfg.Format == FormatJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	level := zap.NewAtomicLevelAt(cfg.Level)
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(cfg.Output)), level)
	z := zap.New(core)
	if cfg.Name != "" {
		z = z.Named(cfg.Name)
	}

	return &Logger{z: z, level: level}
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{z: l.z.With(zap.Any(key, value)), level: l.level}
}

// WithFields returns a new logger with the given fields added.
// Fields are attached in key order so output is stable.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	return &Logger{z: l.z.With(zf...), level: l.level}
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel sets the minimum log level. It affects every logger derived
// from the same root.
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level)
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l.z.Core().Enabled(level)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.log(LevelError, msg, args...)
}

func (l *Logger) log(level Level, msg string, args ...any) {
	ce := l.z.Check(level, "")
	if ce == nil {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	ce.Message = msg
	ce.Write()
}

// Logr returns a logr.Logger writing to the same zap core.
func (l *Logger) Logr() logr.Logger {
	return zapr.NewLogger(l.z)
}

// Zap returns the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

// Sync flushes buffered records. Errors from syncing terminals are ignored.
func (l *Logger) Sync() {
	_ = l.z.Sync()
}

// NullLogger discards all output.
var NullLogger = &Logger{z: zap.NewNop(), level: zap.NewAtomicLevelAt(LevelError)}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// GetLogger returns the process-wide logger, creating a default one on
// first use.
func GetLogger() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = New(DefaultConfig())
	}
	return globalLogger
}

// SetLogger replaces the process-wide logger.
func SetLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

type contextKey struct{}

// IntoContext returns a copy of ctx carrying l.
func IntoContext(ctx context.Context, l *Logger) context.Context {
	if cur, ok := ctx.Value(contextKey{}).(*Logger); ok && cur == l {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or the process-wide logger.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*Logger); ok && l != nil {
			return l
		}
	}
	return GetLogger()
}
