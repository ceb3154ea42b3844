// Package logger is a thin structured-logging facade over zap.
package logger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

// Attr is a single structured field attached to a log entry.
type Attr = zap.Field

func String(key, val string) Attr                 { return zap.String(key, val) }
func Int(key string, val int) Attr                { return zap.Int(key, val) }
func Int64(key string, val int64) Attr            { return zap.Int64(key, val) }
func Bool(key string, val bool) Attr              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Attr { return zap.Duration(key, val) }
func Time(key string, val time.Time) Attr         { return zap.Time(key, val) }
func Any(key string, val any) Attr                { return zap.Any(key, val) }
func Err(err error) Attr                          { return zap.Error(err) }

type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	Info(msg string)

	LogAttrs(ctx context.Context, level Level, msg string, attrs ...Attr)

	// With returns a child logger carrying the given key/value pairs.
	With(keysAndValues ...any) Logger
	// Ctx returns a logger enriched with request-scoped values found in ctx.
	Ctx(ctx context.Context) Logger

	Sync() error
}

type Option func(*zap.Config)

// WithLevel overrides the minimum enabled level ("debug", "info", "warn", "error").
func WithLevel(level string) Option {
	return func(c *zap.Config) {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err == nil {
			c.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
}

type zapAdapter struct {
	l *zap.Logger
}

// NewZapAdapter builds a JSON production logger for prod/staging and a
// console development logger for everything else.
func NewZapAdapter(appName, env string, opts ...Option) (Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod", "staging":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logger.NewZapAdapter: build: %w", err)
	}

	return &zapAdapter{l: l.With(zap.String("app", appName), zap.String("env", env))}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &zapAdapter{l: zap.NewNop()}
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) Logger {
	return &zapAdapter{l: l}
}

func (z *zapAdapter) Debugw(msg string, kv ...any) { z.l.Sugar().Debugw(msg, kv...) }
func (z *zapAdapter) Infow(msg string, kv ...any)  { z.l.Sugar().Infow(msg, kv...) }
func (z *zapAdapter) Warnw(msg string, kv ...any)  { z.l.Sugar().Warnw(msg, kv...) }
func (z *zapAdapter) Errorw(msg string, kv ...any) { z.l.Sugar().Errorw(msg, kv...) }
func (z *zapAdapter) Info(msg string)              { z.l.Info(msg) }

func (z *zapAdapter) LogAttrs(_ context.Context, level Level, msg string, attrs ...Attr) {
	if ce := z.l.Check(level, msg); ce != nil {
		ce.Write(attrs...)
	}
}

func (z *zapAdapter) With(kv ...any) Logger {
	return &zapAdapter{l: z.l.Sugar().With(kv...).Desugar()}
}

func (z *zapAdapter) Ctx(ctx context.Context) Logger {
	if id := RequestID(ctx); id != "" {
		return &zapAdapter{l: z.l.With(zap.String("request_id", id))}
	}
	return z
}

func (z *zapAdapter) Sync() error {
	return z.l.Sync()
}
