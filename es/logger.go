package es

import "context"

// Logger is the observability hook used by stores and the provisioner.
// A nil Logger in any config disables logging with zero overhead.
// See the logging package for a zap-backed implementation.
type Logger interface {
	// Debug logs verbose operational details such as resolved partitions.
	Debug(ctx context.Context, msg string, keyvals ...interface{})

	// Info logs significant events such as a partition being created.
	Info(ctx context.Context, msg string, keyvals ...interface{})

	// Error logs failures: concurrency conflicts, storage errors, provisioning errors.
	Error(ctx context.Context, msg string, keyvals ...interface{})
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

// Debug implements Logger.
func (NoOpLogger) Debug(_ context.Context, _ string, _ ...interface{}) {}

// Info implements Logger.
func (NoOpLogger) Info(_ context.Context, _ string, _ ...interface{}) {}

// Error implements Logger.
func (NoOpLogger) Error(_ context.Context, _ string, _ ...interface{}) {}
