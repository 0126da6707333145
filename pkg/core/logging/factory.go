// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating zap backed loggers
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Process wide base logger used by New
	baseMu     sync.RWMutex
	baseLogger *zap.Logger
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service name
	ServiceName string

	// Log level (debug, info, warn, error)
	Level string

	// Output format
	Format string // "json", "text" or "console" (default: json)

	// Output destination (default: stdout)
	Output io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "json",
	}
}

// NewLogger creates a new zap logger from cfg
func NewLogger(cfg LoggerConfig) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "text" || cfg.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), parseLevel(cfg.Level).zapLevel())
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if cfg.ServiceName != "" {
		logger = logger.Named(cfg.ServiceName)
	}
	return logger
}

// Configure sets the base logger used by New and NewSimpleLogger
func Configure(cfg LoggerConfig) {
	logger := NewLogger(cfg)

	baseMu.Lock()
	defer baseMu.Unlock()
	if baseLogger != nil {
		_ = baseLogger.Sync()
	}
	baseLogger = logger
}

// Sync flushes the base logger
func Sync() error {
	baseMu.RLock()
	defer baseMu.RUnlock()
	if baseLogger == nil {
		return nil
	}
	return baseLogger.Sync()
}

// base returns the configured base logger, creating a default one on first use
func base() *zap.Logger {
	baseMu.RLock()
	l := baseLogger
	baseMu.RUnlock()
	if l != nil {
		return l
	}

	baseMu.Lock()
	defer baseMu.Unlock()
	if baseLogger == nil {
		baseLogger = NewLogger(DefaultLoggerConfig(""))
	}
	return baseLogger
}

// NewSimpleLogger creates a named child of the base logger
func NewSimpleLogger(serviceName string) *zap.Logger {
	return base().Named(serviceName)
}

// parseLevel converts a string level to Level
func parseLevel(level string) Level {
	switch level {
	case "debug", "trace":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "fatal":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger wraps a sugared zap logger with the key-value API used throughout
// robbot
type Logger struct {
	sugar *zap.SugaredLogger
	name  string
}

// New creates a named logger derived from the base logger
func New(name string) *Logger {
	return &Logger{
		sugar: NewSimpleLogger(name).Sugar(),
		name:  name,
	}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), name: "nop"}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// WithLevel returns a new logger that only emits entries at or above level
func (l *Logger) WithLevel(level Level) *Logger {
	desugared := l.sugar.Desugar().WithOptions(zap.IncreaseLevel(level.zapLevel()))
	return &Logger{
		sugar: desugared.Sugar(),
		name:  l.name,
	}
}

// With returns a logger that adds the key-value pairs to every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		sugar: l.sugar.With(toFields(keysAndValues...)...),
		name:  l.name,
	}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, toFields(keysAndValues...)...)
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, toFields(keysAndValues...)...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, toFields(keysAndValues...)...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, toFields(keysAndValues...)...)
}

// toFields drops pairs whose key is not a string and a trailing orphan value
func toFields(keysAndValues ...interface{}) []interface{} {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make([]interface{}, 0, len(keysAndValues))
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, key, keysAndValues[i+1])
	}
	return fields
}
