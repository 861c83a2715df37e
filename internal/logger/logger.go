// internal/logger/logger.go - Structured logging setup
package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls how the root logger is built
type Config struct {
	Level     string
	Format    string
	Component string
}

type ctxKey string

const (
	ctxRequestID ctxKey = "request_id"
	ctxArea      ctxKey = "area"
)

// Build creates the root logger. Format "json" writes one JSON object per
// line; anything else uses the human-readable console writer.
func Build(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.MessageFieldName = "msg"

	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Component != "" {
		ctx = ctx.Str("component", cfg.Component)
	}
	return ctx.Logger()
}

// ParseLevel maps a configured level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Output resolves the configured output name to a writer
func Output(name string) io.Writer {
	if strings.EqualFold(name, "stdout") {
		return os.Stdout
	}
	return os.Stderr
}

// Nop returns a logger that discards everything
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// WithRequestID stores a request ID, generating one when empty
func WithRequestID(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		reqID = NewID()
	}
	return context.WithValue(ctx, ctxRequestID, reqID)
}

// WithArea stores the "{area_type}/{code}" being rendered
func WithArea(ctx context.Context, area string) context.Context {
	if area == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxArea, area)
}

// RequestID returns the request ID stored in ctx, if any
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestID).(string)
	return s
}

// NewID returns a random 16-character hex identifier
func NewID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// FromContext returns a child logger carrying the context fields
func FromContext(ctx context.Context, parent *zerolog.Logger) *zerolog.Logger {
	var base zerolog.Logger
	if parent == nil {
		base = zerolog.Nop()
	} else {
		base = *parent
	}

	w := base.With()
	if s, ok := ctx.Value(ctxRequestID).(string); ok && s != "" {
		w = w.Str("request_id", s)
	}
	if s, ok := ctx.Value(ctxArea).(string); ok && s != "" {
		w = w.Str("area", s)
	}
	l := w.Logger()
	return &l
}
