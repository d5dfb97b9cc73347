// Package logging provides the leveled logger shared by every component of a
// run.
//
// Messages go to two sinks. The console sink is filtered by the configured
// level and colours the level tag when writing to a terminal. The optional
// file sink is a size-rotated audit log that records every message,
// including debug-level per-entry decisions.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level orders message severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case tag printed in log lines.
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
		return "INFO"
	}
}

// ParseLevel converts a level name (case-insensitive) to a Level.
// Empty or unknown names yield LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Options configures New.
type Options struct {
	Level string
	// Console receives filtered, human-oriented lines. Nil discards them.
	Console io.Writer
	// FilePath enables the rotating audit log when non-empty.
	FilePath   string
	MaxSizeMB  int
	MaxAgeDays int
}

type sink struct {
	mu      sync.Mutex
	console io.Writer
	color   bool
	file    io.WriteCloser
	level   Level
	now     func() time.Time
}

// Logger writes leveled messages. Loggers derived with With share sinks
// with their parent. Safe for concurrent use.
type Logger struct {
	s      *sink
	prefix string
}

// New builds a logger from opts. The log file's directory is created if
// needed.
func New(opts Options) (*Logger, error) {
	s := &sink{
		console: opts.Console,
		color:   isTerminal(opts.Console),
		level:   ParseLevel(opts.Level),
		now:     time.Now,
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		s.file = &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: 3,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
	}

	return &Logger{s: s}, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{s: &sink{level: LevelError + 1, now: time.Now}}
}

// isTerminal reports whether w is a standard stream that accepts colour.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		return !color.NoColor
	}
	return false
}

// With returns a logger whose lines carry prefix ahead of the message.
func (l *Logger) With(prefix string) *Logger {
	if l.prefix != "" {
		prefix = l.prefix + " " + prefix
	}
	return &Logger{s: l.s, prefix: prefix}
}

// SetConsole redirects the console sink, for example through a live
// terminal view, and returns a func that restores the previous sink.
// colored selects whether level tags are coloured.
func (l *Logger) SetConsole(w io.Writer, colored bool) (restore func()) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	prev, prevColor := l.s.console, l.s.color
	l.s.console = w
	l.s.color = colored
	return func() {
		l.s.mu.Lock()
		defer l.s.mu.Unlock()
		l.s.console = prev
		l.s.color = prevColor
	}
}

// Console returns the current console sink.
func (l *Logger) Console() io.Writer {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.console
}

// Enabled reports whether messages at level reach the console.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.s.level
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }

// Close flushes and closes the audit log, if any.
func (l *Logger) Close() error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.s.file == nil {
		return nil
	}
	err := l.s.file.Close()
	l.s.file = nil
	return err
}

func (l *Logger) log(level Level, format string, args ...any) {
	toConsole := l.Enabled(level)
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if l.s.file == nil && (!toConsole || l.s.console == nil) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = l.prefix + " " + msg
	}
	now := l.s.now()

	if l.s.file != nil {
		fmt.Fprintf(l.s.file, "%s [%s] %s\n", now.Format(time.RFC3339), level, msg)
	}
	if toConsole && l.s.console != nil {
		fmt.Fprintf(l.s.console, "[%s] [%s] %s\n", now.Format("15:04:05"), l.s.tag(level), msg)
	}
}

func (s *sink) tag(level Level) string {
	if !s.color {
		return level.String()
	}
	switch level {
	case LevelDebug:
		return color.New(color.FgCyan).Sprint(level)
	case LevelInfo:
		return color.New(color.FgBlue).Sprint(level)
	case LevelWarn:
		return color.New(color.FgYellow).Sprint(level)
	case LevelError:
		return color.New(color.FgRed).Sprint(level)
	default:
		return level.String()
	}
}
