package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level represents the logging level
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	TRACE: "TRACE",
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var logrusLevels = map[Level]logrus.Level{
	TRACE: logrus.TraceLevel,
	DEBUG: logrus.DebugLevel,
	INFO:  logrus.InfoLevel,
	WARN:  logrus.WarnLevel,
	ERROR: logrus.ErrorLevel,
}

// String returns the upper-case level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Component represents the logging component
type Component string

const (
	ComponentApp     Component = "app"
	ComponentClient  Component = "client"
	ComponentFetcher Component = "fetcher"
	ComponentPayload Component = "payload"
	ComponentFormat  Component = "format"
	ComponentCipher  Component = "cipher"
	ComponentAPI     Component = "api"
)

// Format represents the log output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatColor
)

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	Components map[Component]bool
	ShowCaller bool
	Timestamp  bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:  INFO,
		Format: FormatText,
		Output: os.Stderr,
		Components: map[Component]bool{
			ComponentApp:     true,
			ComponentClient:  false,
			ComponentFetcher: false,
			ComponentPayload: false,
			ComponentFormat:  false,
			ComponentCipher:  false,
			ComponentAPI:     true,
		},
		ShowCaller: false,
		Timestamp:  false,
	}
}

// Logger filters entries by component and level and hands them to a logrus backend.
type Logger struct {
	config  *Config
	backend *logrus.Logger
	mu      sync.RWMutex
}

// New creates a new logger instance
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Components == nil {
		config.Components = make(map[Component]bool)
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}
	l := &Logger{config: config, backend: logrus.New()}
	l.applyLocked()
	return l
}

// applyLocked pushes config into the logrus backend. Callers hold l.mu or own l exclusively.
func (l *Logger) applyLocked() {
	l.backend.SetOutput(l.config.Output)
	l.backend.SetLevel(logrusLevels[l.config.Level])
	l.backend.SetFormatter(l.formatterLocked())
}

func (l *Logger) formatterLocked() logrus.Formatter {
	switch l.config.Format {
	case FormatJSON:
		return &logrus.JSONFormatter{
			DisableTimestamp: !l.config.Timestamp,
			TimestampFormat:  "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		}
	case FormatColor:
		return &logrus.TextFormatter{
			ForceColors:      true,
			DisableTimestamp: !l.config.Timestamp,
			FullTimestamp:    true,
			TimestampFormat:  "2006-01-02 15:04:05",
		}
	default:
		return &logrus.TextFormatter{
			DisableColors:    true,
			DisableQuote:     true,
			DisableTimestamp: !l.config.Timestamp,
			FullTimestamp:    true,
			TimestampFormat:  "2006-01-02 15:04:05",
		}
	}
}

// WithComponent creates a new logger instance for a specific component
func (l *Logger) WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{
		logger:    l,
		component: component,
	}
}

// SetLevel changes the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
	l.applyLocked()
}

// SetFormat changes the log format
func (l *Logger) SetFormat(format Format) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Format = format
	l.applyLocked()
}

// SetOutput changes the log output
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Output = w
	l.applyLocked()
}

// EnableComponent enables logging for a specific component
func (l *Logger) EnableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = true
}

// DisableComponent disables logging for a specific component
func (l *Logger) DisableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = false
}

// Enabled reports whether an entry at level for component would be written.
func (l *Logger) Enabled(level Level, component Component) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.config.Level && l.config.Components[component]
}

// log writes a log entry; callerSkip counts frames above this function.
func (l *Logger) log(level Level, component Component, message string, fields map[string]interface{}, callerSkip int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level < l.config.Level {
		return
	}
	if !l.config.Components[component] {
		return
	}

	entry := l.backend.WithField("component", string(component))
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields))
	}
	if l.config.ShowCaller {
		if _, file, line, ok := runtime.Caller(callerSkip + 1); ok {
			entry = entry.WithField("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
		}
	}
	entry.Log(logrusLevels[level], message)
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component Component
	fields    map[string]interface{}
}

// With returns a logger that attaches fields to every entry.
func (cl *ComponentLogger) With(fields map[string]interface{}) *ComponentLogger {
	merged := make(map[string]interface{}, len(cl.fields)+len(fields))
	for k, v := range cl.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ComponentLogger{logger: cl.logger, component: cl.component, fields: merged}
}

// Enabled reports whether entries at level would be written.
func (cl *ComponentLogger) Enabled(level Level) bool {
	return cl.logger.Enabled(level, cl.component)
}

// Trace logs a trace message
func (cl *ComponentLogger) Trace(message string, fields ...map[string]interface{}) {
	cl.log(TRACE, message, fields...)
}

// Debug logs a debug message
func (cl *ComponentLogger) Debug(message string, fields ...map[string]interface{}) {
	cl.log(DEBUG, message, fields...)
}

// Info logs an info message
func (cl *ComponentLogger) Info(message string, fields ...map[string]interface{}) {
	cl.log(INFO, message, fields...)
}

// Warn logs a warning message
func (cl *ComponentLogger) Warn(message string, fields ...map[string]interface{}) {
	cl.log(WARN, message, fields...)
}

// Error logs an error message
func (cl *ComponentLogger) Error(message string, fields ...map[string]interface{}) {
	cl.log(ERROR, message, fields...)
}

func (cl *ComponentLogger) log(level Level, message string, fields ...map[string]interface{}) {
	merged := cl.fields
	if len(fields) > 0 && len(fields[0]) > 0 {
		merged = make(map[string]interface{}, len(cl.fields)+len(fields[0]))
		for k, v := range cl.fields {
			merged[k] = v
		}
		for k, v := range fields[0] {
			merged[k] = v
		}
	}
	// frames: ComponentLogger.log -> Info/Debug/... -> caller
	cl.logger.log(level, cl.component, message, merged, 2)
}

var (
	globalMu     sync.RWMutex
	globalLogger = New(DefaultConfig())
)

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// WithComponent returns a component logger from global logger
func WithComponent(component Component) *ComponentLogger {
	return GetGlobalLogger().WithComponent(component)
}
