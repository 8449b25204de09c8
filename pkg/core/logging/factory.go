// ============================================================================
// cfdkit - CFX Case Automation Toolkit
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating loggers from configuration
// Author:      Mike Stoffels
// Created:     2026-10-02
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"sync"

	cfdlog "github.com/msto63/cfdkit/foundation/core/log"
)

var (
	// Process-wide defaults applied by New
	baseMu     sync.RWMutex
	baseConfig = DefaultLoggerConfig("")
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Component name, shown as {name} in text output
	ServiceName string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: "text", "json" or "console" (default: text)
	Format string

	// Output writer (default: stderr)
	Output io.Writer

	// Additional outputs, e.g. a log file next to the case
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "text",
	}
}

// Configure sets the level, format and outputs used by later New calls
func Configure(cfg LoggerConfig) {
	baseMu.Lock()
	defer baseMu.Unlock()
	baseConfig = cfg
}

// NewLogger creates a new Foundation logger
func NewLogger(cfg LoggerConfig) *cfdlog.Logger {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}

	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	format, err := cfdlog.ParseFormat(cfg.Format)
	if err != nil {
		format = cfdlog.FormatText
	}

	return cfdlog.NewWithConfig(cfdlog.Config{
		Level:        parseLevel(cfg.Level),
		Format:       format,
		Output:       output,
		Name:         cfg.ServiceName,
		EnableCaller: format == cfdlog.FormatJSON,
	})
}

// NewSimpleLogger creates a logger from the process-wide defaults
func NewSimpleLogger(serviceName string) *cfdlog.Logger {
	baseMu.RLock()
	cfg := baseConfig
	baseMu.RUnlock()

	cfg.ServiceName = serviceName
	return NewLogger(cfg)
}

// parseLevel converts a string level to cfdlog.Level
func parseLevel(level string) cfdlog.Level {
	parsed, err := cfdlog.ParseLevel(level)
	if err != nil {
		return cfdlog.LevelInfo
	}
	return parsed
}

// Compatibility layer for code using key/value pairs

// Logger wraps the Foundation logger with key/value logging methods
type Logger struct {
	*cfdlog.Logger
	name string
}

// New creates a new key/value logger for a component
func New(name string) *Logger {
	return &Logger{
		Logger: NewSimpleLogger(name),
		name:   name,
	}
}

// NewWithWriter creates a key/value logger that writes to w using the
// process-wide level and format
func NewWithWriter(name string, w io.Writer) *Logger {
	baseMu.RLock()
	cfg := baseConfig
	baseMu.RUnlock()

	cfg.ServiceName = name
	cfg.Output = w
	cfg.AdditionalOutputs = nil
	return &Logger{Logger: NewLogger(cfg), name: name}
}

// Wrap adapts an existing Foundation logger
func Wrap(l *cfdlog.Logger) *Logger {
	return &Logger{Logger: l, name: l.Name()}
}

// With returns a logger that adds the key/value pairs to every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.WithFields(toFields(keysAndValues...)),
		name:   l.name,
	}
}

// Debug logs a debug message with key/value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message with key/value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message with key/value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message with key/value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toFields(keysAndValues...))
}

// toFields converts key-value pairs to cfdlog.Fields
func toFields(keysAndValues ...interface{}) cfdlog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(cfdlog.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
