package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config selects the handler used by the package-level logger.
type Config struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string

	// Format is "text" (human readable, via tint) or "json"
	Format string

	// Output is "stdout", "stderr" or a file path
	Output string
}

var (
	mu           sync.RWMutex
	currentLevel = new(slog.LevelVar)
	logger       = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      currentLevel,
		TimeFormat: time.DateTime,
	}))
	output io.Closer
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

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseLevel(level string) (Level, bool) {
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

func SetLevel(level string) {
	if l, ok := parseLevel(level); ok {
		currentLevel.Set(l.slogLevel())
	}
}

// Init replaces the package-level handler according to cfg.
//
// An empty Format defaults to "text" and an empty Output to "stdout".
// A file output is opened in append mode and closed by the next Init or Close.
func Init(cfg Config) error {
	w, closer, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}

	SetLevel(cfg.Level)

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		h = tint.NewHandler(w, &tint.Options{
			Level:      currentLevel,
			TimeFormat: time.DateTime,
			NoColor:    !isTerminal(w),
		})
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: currentLevel})
	default:
		if closer != nil {
			_ = closer.Close()
		}
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	mu.Lock()
	prev := output
	logger = slog.New(h)
	output = closer
	mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// Close releases a file output opened by Init.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if output == nil {
		return nil
	}
	err := output.Close()
	output = nil
	return err
}

// Slog returns the underlying structured logger for code that wants attributes
// instead of format strings (e.g. request logging).
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func openOutput(out string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(out) {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}
	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func log(level Level, format string, v ...any) {
	l := Slog()
	lvl := level.slogLevel()
	if !l.Enabled(context.Background(), lvl) {
		return
	}
	l.Log(context.Background(), lvl, fmt.Sprintf(format, v...))
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
