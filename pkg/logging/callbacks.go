package logging

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
)

// Signature is the fixed prefix on every message handed to a user
// callback, so shipper diagnostics are distinguishable from the
// application's own log lines.
const Signature = "logship: "

// Callback receives one fully formatted diagnostic message
type Callback func(msg string)

// Callbacks holds the optional per-level user callbacks. Unset callbacks
// are simply not invoked.
type Callbacks struct {
	Debug Callback
	Info  Callback
	Warn  Callback
	Error Callback
}

// CallbackLogger implements Logger by fanning each entry out to the
// matching user callback. It is the only channel through which the
// shipper reports failures to its caller.
type CallbackLogger struct {
	mu        sync.RWMutex
	level     Level
	callbacks Callbacks
	fields    map[string]interface{}
}

// NewCallbackLogger creates a logger routing to the given callbacks
func NewCallbackLogger(callbacks Callbacks) *CallbackLogger {
	return &CallbackLogger{
		level:     InfoLevel,
		callbacks: callbacks,
		fields:    make(map[string]interface{}),
	}
}

// SetCallbacks replaces the callback set
func (l *CallbackLogger) SetCallbacks(callbacks Callbacks) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = callbacks
}

// Debug logs a debug message
func (l *CallbackLogger) Debug(msg string, fields ...Field) {
	l.emit(DebugLevel, msg, fields...)
}

// Info logs an info message
func (l *CallbackLogger) Info(msg string, fields ...Field) {
	l.emit(InfoLevel, msg, fields...)
}

// Warn logs a warning message
func (l *CallbackLogger) Warn(msg string, fields ...Field) {
	l.emit(WarnLevel, msg, fields...)
}

// Error logs an error message
func (l *CallbackLogger) Error(msg string, fields ...Field) {
	l.emit(ErrorLevel, msg, fields...)
}

// WithFields returns a new logger carrying additional fields
func (l *CallbackLogger) WithFields(fields ...Field) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	newFields := make(map[string]interface{})
	for k, v := range l.fields {
		newFields[k] = v
	}
	for _, field := range fields {
		newFields[field.Key] = field.Value
	}

	return &CallbackLogger{
		level:     l.level,
		callbacks: l.callbacks,
		fields:    newFields,
	}
}

// WithError returns a new logger carrying the error as a field
func (l *CallbackLogger) WithError(err error) Logger {
	return l.WithFields(ErrorField(err))
}

// SetLevel sets the minimum log level
func (l *CallbackLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level
func (l *CallbackLogger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *CallbackLogger) emit(level Level, msg string, fields ...Field) {
	l.mu.RLock()
	minLevel := l.level
	callbacks := l.callbacks
	l.mu.RUnlock()

	if level < minLevel {
		return
	}

	var cb Callback
	switch level {
	case DebugLevel:
		cb = callbacks.Debug
	case InfoLevel:
		cb = callbacks.Info
	case WarnLevel:
		cb = callbacks.Warn
	case ErrorLevel:
		cb = callbacks.Error
	}
	if cb == nil {
		return
	}

	cb(Signature + l.render(msg, fields))
}

// render appends base and call-site fields to the message as sorted
// key=value pairs
func (l *CallbackLogger) render(msg string, fields []Field) string {
	l.mu.RLock()
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	l.mu.RUnlock()

	for _, field := range fields {
		merged[field.Key] = field.Value
	}

	if len(merged) == 0 {
		return msg
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(msg)
	for _, k := range keys {
		buf.WriteString(fmt.Sprintf(" %s=%v", k, merged[k]))
	}
	return buf.String()
}
