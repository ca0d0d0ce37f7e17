// Package logging provides leveled, structured logging for researchlab.
//
// Initialize the logger once at startup, then obtain named loggers per component:
//
//	logging.Initialize("info", map[string]string{"agent.*": "debug"})
//	logger := logging.GetLogger("coordinator")
//	logger.Info("run started for %q", topic)
//
// Structured fields are rendered after a pipe, sorted by key:
//
//	logger.InfoWithFields("stage complete",
//	    logging.Field("stage", "writing"),
//	    logging.Field("duration_ms", elapsed.Milliseconds()),
//	)
//
// Loggers are immutable; WithField, WithFields and WithContext return copies, so a
// logger can be shared between goroutines without coordination.
//
// Per-package levels accept exact names ("coordinator") and wildcard prefixes
// ("agent.*"). Names not covered fall back to the default level.
//
// All output is written to stderr by default so that stdout stays free for the
// generated report. SetOutput redirects it, which is what the tests do. LOG_TIMESTAMP
// pins the timestamp for deterministic output.
package logging

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
)

var (
	globalLogger *Logger
	initOnce     sync.Once
	// exitFunc is called by Fatal. Tests replace it.
	exitFunc = os.Exit

	outputMu sync.Mutex
	output   io.Writer = os.Stderr
)

// Initialize sets the default level and optional per-package overrides.
// Unknown default levels fall back to INFO.
func Initialize(levelStr string, packageLevels ...map[string]string) error {
	level, err := parseLevel(levelStr)
	if err != nil {
		level = INFO
	}

	globalLogger = &Logger{
		level: level,
		name:  "researchlab",
	}

	if len(packageLevels) > 0 && packageLevels[0] != nil {
		if err := SetPackageLogLevels(packageLevels[0]); err != nil {
			return err
		}
	}
	return nil
}

// SetOutput redirects all log output and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outputMu.Lock()
	defer outputMu.Unlock()
	prev := output
	output = w
	return prev
}

// Hold buffers log output until release is called. release restores the
// previous writer and replays the buffered lines to it under the output lock,
// so lines logged concurrently land after the replay. Calling release more
// than once is a no-op.
func Hold() (release func()) {
	held := &bytes.Buffer{}
	prev := SetOutput(held)

	var once sync.Once
	return func() {
		once.Do(func() {
			outputMu.Lock()
			defer outputMu.Unlock()
			output = prev
			_, _ = prev.Write(held.Bytes())
		})
	}
}

// GetLogger returns a logger with the given component name.
func GetLogger(name string) *Logger {
	initOnce.Do(func() {
		if globalLogger == nil {
			_ = Initialize("info")
		}
	})
	return &Logger{
		level:  globalLogger.level,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

func (l *Logger) shouldLog(level LogLevel) bool {
	if pkgLevel := GetPackageLogLevel(l.name); pkgLevel >= 0 {
		return level >= pkgLevel
	}
	return level >= l.level
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return l.shouldLog(level)
}

// Debug logs a formatted debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logf(DEBUG, msg, args...)
	}
}

// Info logs a formatted info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logf(INFO, msg, args...)
	}
}

// Warn logs a formatted warning.
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logf(WARN, msg, args...)
	}
}

// Error logs a formatted error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logf(ERROR, msg, args...)
	}
}

// Fatal logs and exits with code 1.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.shouldLog(FATAL) {
		l.logf(FATAL, msg, args...)
		exitFunc(1)
	}
}

// ErrorWithErr logs msg followed by err.
func (l *Logger) ErrorWithErr(msg string, err error, args ...interface{}) {
	if l.shouldLog(ERROR) {
		args = append(args, err)
		l.logf(ERROR, msg+" - %v", args...)
	}
}

// WithName returns a logger with a different component name and no fields.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		level:  l.level,
		name:   name,
		fields: make(map[string]interface{}),
		ctx:    l.ctx,
	}
}

// WithField returns a copy of the logger carrying key=value on every line.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	next := l.clone()
	next.fields[key] = value
	return next
}

// WithFields returns a copy of the logger carrying all given fields.
func (l *Logger) WithFields(fields ...LogField) *Logger {
	next := l.clone()
	for _, f := range fields {
		next.fields[f.Key] = f.Value
	}
	return next
}

// WithContext attaches ctx; the run id and the trace and span ids of an active
// span are logged.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	next := l.clone()
	next.ctx = ctx
	return next
}

// DebugWithFields logs a debug message with structured fields.
func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.shouldLog(DEBUG) {
		l.logWithFields(DEBUG, msg, fields...)
	}
}

// InfoWithFields logs an info message with structured fields.
func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.shouldLog(INFO) {
		l.logWithFields(INFO, msg, fields...)
	}
}

// WarnWithFields logs a warning with structured fields.
func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.shouldLog(WARN) {
		l.logWithFields(WARN, msg, fields...)
	}
}

// ErrorWithFields logs an error with structured fields.
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.shouldLog(ERROR) {
		l.logWithFields(ERROR, msg, fields...)
	}
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{
		level:  l.level,
		name:   l.name,
		fields: fields,
		ctx:    l.ctx,
	}
}

// mergeFields layers context fields < logger fields < call fields.
func (l *Logger) mergeFields(extra ...LogField) map[string]interface{} {
	ctxFields := extractContextFields(l.ctx)
	if len(ctxFields) == 0 && len(l.fields) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(ctxFields)+len(l.fields)+len(extra))
	for k, v := range ctxFields {
		merged[k] = v
	}
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range extra {
		merged[f.Key] = f.Value
	}
	return merged
}

func (l *Logger) logWithFields(level LogLevel, msg string, fields ...LogField) {
	l.writeLog(level, msg, l.mergeFields(fields...))
}

func levelName(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}
