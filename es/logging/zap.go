// Package logging adapts go.uber.org/zap to es.Logger.
package logging

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/getpup/pupcommits/es"
)

// Zap is an es.Logger backed by a sugared zap logger.
// When the context carries a span, its trace and span IDs are added to every entry.
type Zap struct {
	sugar *zap.SugaredLogger
}

var _ es.Logger = (*Zap)(nil)

// NewZap builds a logger for the given mode ("prod"/"production" or anything else for development)
// and minimum level ("debug", "info", "warn", "error").
func NewZap(mode, level string) (*Zap, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		cfg.Level = lvl
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Zap{sugar: logger.Sugar()}, nil
}

// FromSugared wraps an existing sugared logger.
func FromSugared(sugar *zap.SugaredLogger) *Zap {
	return &Zap{sugar: sugar}
}

// Sync flushes buffered entries.
func (z *Zap) Sync() {
	_ = z.sugar.Sync()
}

// Debug implements es.Logger.
func (z *Zap) Debug(ctx context.Context, msg string, keyvals ...interface{}) {
	z.sugar.Debugw(msg, withTrace(ctx, keyvals)...)
}

// Info implements es.Logger.
func (z *Zap) Info(ctx context.Context, msg string, keyvals ...interface{}) {
	z.sugar.Infow(msg, withTrace(ctx, keyvals)...)
}

// Error implements es.Logger.
func (z *Zap) Error(ctx context.Context, msg string, keyvals ...interface{}) {
	z.sugar.Errorw(msg, withTrace(ctx, keyvals)...)
}

func withTrace(ctx context.Context, keyvals []interface{}) []interface{} {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return keyvals
	}
	out := make([]interface{}, 0, len(keyvals)+4)
	out = append(out, keyvals...)
	return append(out, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
}
