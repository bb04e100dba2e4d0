// Package logging configures the process-wide zerolog logger
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration
type Config struct {
	Level     string    // trace, debug, info, warn, error, fatal, panic or disabled
	Format    string    // json or console
	Caller    bool      // include file:line
	Timestamp bool      // include a timestamp field
	Output    io.Writer // defaults to os.Stderr
}

// DefaultConfig returns console logging at info level on stderr
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "console",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	initLogger(DefaultConfig())
}

// Init reconfigures the global logger. Safe to call more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(output).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	log = ctx.Logger()
}

// ParseLevel converts a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns a copy of the global logger
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// With returns a child of the global logger with a component field
func With(component string) zerolog.Logger {
	l := Logger()
	return l.With().Str("component", component).Logger()
}

// Debug starts a debug-level event on the global logger
func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

// Info starts a info-level event on the global logger
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Warn starts a warn-level event on the global logger
func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

// Error starts a error-level event on the global logger
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

// Err starts an error-level event carrying err
func Err(err error) *zerolog.Event {
	l := Logger()
	return l.Err(err)
}

type requestIDKey struct{}

// WithRequestID stores a request id for Ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Ctx returns the global logger annotated with the request id stored in ctx, if any
func Ctx(ctx context.Context) zerolog.Logger {
	l := Logger()
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return l.With().Str("request_id", id).Logger()
	}
	return l
}
