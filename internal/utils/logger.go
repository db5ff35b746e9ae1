package utils

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// Logger wraps a zerolog.Logger so components share one configured sink.
type Logger struct {
	zerolog.Logger
}

func NewLogger(debug bool, writers ...io.Writer) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	return &Logger{
		Logger: zerolog.New(out).Level(level).With().
			Timestamp().
			Str("service", "mediashelf").
			Logger(),
	}
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithComponent returns a child logger annotated with the component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With().Str("component", component).Logger()}
}

// Ctx returns a logger carrying the request id stored in ctx, if any.
func (l *Logger) Ctx(ctx context.Context) *zerolog.Logger {
	if rid := RequestIDFromContext(ctx); rid != "" {
		child := l.With().Str("request_id", rid).Logger()
		return &child
	}
	return &l.Logger
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
