package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity levels.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(Config{Level: LevelInfo})
)

// Logger wraps slog with an audit trail for verified interface changes.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level  Level
	Output io.Writer // os.Stderr when nil
	JSON   bool
}

// New creates a new Logger with the given configuration.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = NewConsoleHandler(cfg.Output, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Default returns the process-wide logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger. Loggers already derived with
// WithComponent keep writing to the old one.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// WithComponent returns a logger with a component field.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}

// WithComponent returns a component-scoped child of the default logger.
func WithComponent(name string) *Logger {
	return Default().WithComponent(name)
}

// AuditEvent describes one change that was applied and read back.
type AuditEvent struct {
	Action    string // e.g. set_alias, manage_include
	Interface string
	Index     int
	From      string
	To        string
}

// Audit records ev at info level with a UTC timestamp. From and To are
// omitted when both are empty.
func (l *Logger) Audit(ev AuditEvent) {
	args := []any{
		"audit", true,
		"action", ev.Action,
		"iface", ev.Interface,
		"index", ev.Index,
	}
	if ev.From != "" || ev.To != "" {
		args = append(args, "from", ev.From, "to", ev.To)
	}
	args = append(args, "timestamp", time.Now().UTC().Format(time.RFC3339))
	l.Info("AUDIT", args...)
}

// ParseLevel maps debug/info/warn/error to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
