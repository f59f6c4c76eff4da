package es_test

import (
	"context"
	"testing"

	"github.com/getpup/pupcommits/es"
)

// TestNoOpLogger verifies the NoOpLogger doesn't panic.
func TestNoOpLogger(t *testing.T) {
	ctx := context.Background()
	logger := es.NoOpLogger{}

	logger.Debug(ctx, "partition resolved", "partition", "Collaboration_es_AE")
	logger.Info(ctx, "partition created", "partition", "Collaboration_es_AE")
	logger.Error(ctx, "append failed", "error", "boom")
}

func TestLoggerInterface(t *testing.T) {
	var _ es.Logger = es.NoOpLogger{}
}

// recordingLogger counts calls per level.
type recordingLogger struct {
	debugCalls int
	infoCalls  int
	errorCalls int
	lastMsg    string
	lastKV     []interface{}
}

func (m *recordingLogger) Debug(_ context.Context, msg string, kv ...interface{}) {
	m.debugCalls++
	m.lastMsg, m.lastKV = msg, kv
}

func (m *recordingLogger) Info(_ context.Context, msg string, kv ...interface{}) {
	m.infoCalls++
	m.lastMsg, m.lastKV = msg, kv
}

func (m *recordingLogger) Error(_ context.Context, msg string, kv ...interface{}) {
	m.errorCalls++
	m.lastMsg, m.lastKV = msg, kv
}

func TestRecordingLogger(t *testing.T) {
	ctx := context.Background()
	var logger es.Logger = &recordingLogger{}
	rec := logger.(*recordingLogger)

	logger.Info(ctx, "provisioning started", "partitions", 4096)
	if rec.infoCalls != 1 || rec.lastMsg != "provisioning started" {
		t.Fatalf("unexpected info state: %+v", rec)
	}
	if len(rec.lastKV) != 2 || rec.lastKV[1] != 4096 {
		t.Errorf("expected key-values to be forwarded, got %v", rec.lastKV)
	}

	logger.Error(ctx, "provisioning failed")
	if rec.errorCalls != 1 {
		t.Errorf("expected 1 error call, got %d", rec.errorCalls)
	}
}
