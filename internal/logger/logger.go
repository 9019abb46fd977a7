// Package logger is the process-wide logger.
//
// It keeps a printf-style API so call sites read like log statements, while
// the records themselves are emitted by zerolog. Output format and destination
// are selected once at startup with Configure.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu      sync.RWMutex
	current = LevelInfo
	base    = newConsoleLogger(os.Stdout)
	closer  io.Closer
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (case-insensitive) into a Level.
func ParseLevel(level string) (Level, bool) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	}
	return LevelInfo, false
}

// SetLevel sets the minimum level. Unknown names are ignored.
func SetLevel(level string) {
	parsed, ok := ParseLevel(level)
	if !ok {
		return
	}

	mu.Lock()
	current = parsed
	mu.Unlock()
}

// GetLevel returns the minimum level currently emitted.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Configure sets level, format ("text" or "json") and output ("stdout",
// "stderr" or a file path, opened in append mode).
func Configure(level, format, output string) error {
	var (
		w io.Writer
		c io.Closer
	)

	switch output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log output %s: %w", output, err)
		}
		w, c = f, f
	}

	var next zerolog.Logger
	switch strings.ToLower(format) {
	case "", "text":
		next = newConsoleLogger(w)
	case "json":
		next = zerolog.New(w).With().Timestamp().Logger()
	default:
		if c != nil {
			_ = c.Close()
		}
		return fmt.Errorf("unknown log format %q", format)
	}

	mu.Lock()
	if closer != nil {
		_ = closer.Close()
	}
	base, closer = next, c
	mu.Unlock()

	SetLevel(level)
	return nil
}

// SetOutput redirects records to w using the text format. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	base = newConsoleLogger(w)
	mu.Unlock()
}

func newConsoleLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.DateTime,
	}).With().Timestamp().Logger()
}

func log(level Level, format string, v ...any) {
	mu.RLock()
	if level < current {
		mu.RUnlock()
		return
	}
	l := base
	mu.RUnlock()

	var event *zerolog.Event
	switch level {
	case LevelDebug:
		event = l.Debug()
	case LevelInfo:
		event = l.Info()
	case LevelWarn:
		event = l.Warn()
	default:
		event = l.Error()
	}
	event.Msgf(format, v...)
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}

// Log emits a record at the given level.
func Log(level Level, format string, v ...any) {
	log(level, format, v...)
}
