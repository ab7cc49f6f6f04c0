package logging

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int32(l))
}

// ParseLevel accepts debug, info, warn/warning and error, case-insensitively.
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
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

var minLevel atomic.Int32

func init() { minLevel.Store(int32(LevelInfo)) }

// SetLevel drops every record below l process-wide.
func SetLevel(l Level) { minLevel.Store(int32(l)) }

func enabled(l Level) bool { return int32(l) >= minLevel.Load() }

type requestIDKey struct{}

func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID returns "" when ctx carries no id.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	rid, _ := ctx.Value(requestIDKey{}).(string)
	return rid
}

// Logger writes key=value lines through the standard logger, tagged with the
// request id of the context it was built from.
type Logger struct {
	requestID string
}

func New(ctx context.Context) *Logger {
	rid := RequestID(ctx)
	if rid == "" {
		rid = "unknown"
	}
	return &Logger{requestID: rid}
}

func (l *Logger) emit(level Level, op, format string, args ...any) {
	if !enabled(level) {
		return
	}
	prefix := fmt.Sprintf("[%s] request_id=%s operation=%s ", level, l.requestID, op)
	log.Print(prefix + fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(op, format string, args ...any) { l.emit(LevelDebug, op, format, args...) }

func (l *Logger) Info(op, msg string) { l.emit(LevelInfo, op, "message=%s", msg) }

func (l *Logger) Infof(op, format string, args ...any) { l.emit(LevelInfo, op, format, args...) }

func (l *Logger) Warn(op, msg string) { l.emit(LevelWarn, op, "message=%s", msg) }

func (l *Logger) Warnf(op, format string, args ...any) { l.emit(LevelWarn, op, format, args...) }

func (l *Logger) Error(op string, err error) { l.emit(LevelError, op, "error=%v", err) }

func (l *Logger) Errorf(op, format string, args ...any) { l.emit(LevelError, op, format, args...) }
