package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &zapLogger{
		sugarLogger: zap.New(core).Sugar(),
		cfg:         &ZapConfig{Level: "debug"},
	}, logs
}

func TestInfoWithFieldsIsStructured(t *testing.T) {
	l, logs := newObservedLogger()

	l.Info(context.Background(), "Seat booked", "seat", "A1", "user_id", "alice")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "Seat booked" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	fields := entries[0].ContextMap()
	if fields["seat"] != "A1" || fields["user_id"] != "alice" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestPlainArgsAreConcatenated(t *testing.T) {
	l, logs := newObservedLogger()

	l.Warn(context.Background(), "lock busy")
	l.Error(context.Background(), "count", 3)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "lock busy" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	if len(entries[1].Context) != 0 {
		t.Fatalf("expected no structured fields, got %v", entries[1].Context)
	}
}

func TestWithFieldsAttachesToContext(t *testing.T) {
	l, logs := newObservedLogger()

	ctx := l.WithFields(context.Background(), "request_id", "r-1")
	l.Infof(ctx, "joined %s", "queue")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "r-1" {
		t.Fatalf("expected request_id r-1, got %v", got)
	}
}

func TestUnknownLevelDefaultsToDebug(t *testing.T) {
	l := &zapLogger{cfg: &ZapConfig{Level: "verbose"}}
	if l.getLoggerLevel() != zapcore.DebugLevel {
		t.Fatalf("expected debug level")
	}
}
