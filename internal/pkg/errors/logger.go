// Package errors provides error types, handling utilities, and logging for lumen.
package errors

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	// LogLevelWarn writes only warnings. Errors are returned, not logged.
	LogLevelWarn LogLevel = iota
	// LogLevelDebug adds a line for every git call and API round trip.
	LogLevelDebug
)

// String returns the string representation of LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelWarn:
		return "WARN"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Logger writes diagnostics as "[time] LEVEL: event key=value ..." lines.
type Logger struct {
	mu     sync.Mutex
	output io.Writer
	level  LogLevel
}

var defaultLogger = NewLogger(os.Stderr, false)

// NewLogger creates a logger writing to output. Debug lines are only
// written when verbose is set.
func NewLogger(output io.Writer, verbose bool) *Logger {
	return &Logger{output: output, level: levelFor(verbose)}
}

func levelFor(verbose bool) LogLevel {
	if verbose {
		return LogLevelDebug
	}
	return LogLevelWarn
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(verbose bool) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = levelFor(verbose)
}

// IsVerbose returns whether verbose logging is enabled.
func IsVerbose() bool {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.level >= LogLevelDebug
}

// SetOutput sets the output writer for the logger.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.output = w
}

func (l *Logger) log(level LogLevel, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.level {
		return
	}
	fmt.Fprintf(l.output, "[%s] %s: %s\n", time.Now().Format("15:04:05.000"), level, message)
}

// event logs name followed by key=value pairs at debug level. Values
// containing spaces are quoted.
func (l *Logger) event(name string, kv ...interface{}) {
	var sb strings.Builder
	sb.WriteString(name)
	for i := 0; i+1 < len(kv); i += 2 {
		value := fmt.Sprint(kv[i+1])
		if strings.ContainsAny(value, " \t\n") {
			value = strconv.Quote(value)
		}
		fmt.Fprintf(&sb, " %v=%s", kv[i], value)
	}
	l.log(LogLevelDebug, sb.String())
}

// Warn logs a warning. Warnings are written in every mode.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LogLevelWarn, fmt.Sprintf(format, args...))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LogLevelDebug, fmt.Sprintf(format, args...))
}

// LogAPIRequest logs an outgoing provider request.
func (l *Logger) LogAPIRequest(provider, endpoint, model string, promptLength int) {
	l.event("api request", "provider", provider, "endpoint", endpoint, "model", model, "prompt_length", promptLength)
}

// LogAPIResponse logs a completed provider round trip.
func (l *Logger) LogAPIResponse(provider string, statusCode int, responseLength int, duration time.Duration) {
	l.event("api response", "provider", provider, "status", statusCode,
		"response_length", responseLength, "duration", duration.Round(time.Millisecond))
}

// LogGitCommand logs a git invocation and its outcome.
func (l *Logger) LogGitCommand(args []string, outputLength int, duration time.Duration, err error) {
	command := "git " + strings.Join(args, " ")
	if err != nil {
		l.event("git failed", "command", command, "duration", duration.Round(time.Millisecond), "error", err)
		return
	}
	l.event("git", "command", command, "output_length", outputLength, "duration", duration.Round(time.Millisecond))
}

// Warn logs a warning with the default logger.
func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

// Debug logs a debug message with the default logger.
func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

func LogAPIRequest(provider, endpoint, model string, promptLength int) {
	defaultLogger.LogAPIRequest(provider, endpoint, model, promptLength)
}

func LogAPIResponse(provider string, statusCode int, responseLength int, duration time.Duration) {
	defaultLogger.LogAPIResponse(provider, statusCode, responseLength, duration)
}

func LogGitCommand(args []string, outputLength int, duration time.Duration, err error) {
	defaultLogger.LogGitCommand(args, outputLength, duration, err)
}
