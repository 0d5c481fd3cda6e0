// Package logging defines the minimal leveled logger shared by the engine,
// services and HTTP layer.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Logger is a minimal logging interface.
// Implementations should be fast; the default is a no-op.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger implements Logger with no output.
type NopLogger struct{}

func (NopLogger) Debugf(format string, args ...any) {}
func (NopLogger) Infof(format string, args ...any)  {}
func (NopLogger) Warnf(format string, args ...any)  {}
func (NopLogger) Errorf(format string, args ...any) {}

// Level orders log severities
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// StdLogger writes leveled lines through a standard library *log.Logger.
type StdLogger struct {
	l   *log.Logger
	min Level
}

// NewStdLogger creates a logger writing to w, dropping lines below min
func NewStdLogger(w io.Writer, min Level) *StdLogger {
	return &StdLogger{l: log.New(w, "finflow ", log.LstdFlags|log.Lmsgprefix), min: min}
}

func (s *StdLogger) logf(level Level, tag, format string, args ...any) {
	if level < s.min {
		return
	}
	s.l.Print(tag + " " + fmt.Sprintf(format, args...))
}

func (s *StdLogger) Debugf(format string, args ...any) { s.logf(LevelDebug, "DEBUG", format, args...) }
func (s *StdLogger) Infof(format string, args ...any)  { s.logf(LevelInfo, "INFO", format, args...) }
func (s *StdLogger) Warnf(format string, args ...any)  { s.logf(LevelWarn, "WARN", format, args...) }
func (s *StdLogger) Errorf(format string, args ...any) { s.logf(LevelError, "ERROR", format, args...) }

// OrNop returns l, or a NopLogger when l is nil
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
