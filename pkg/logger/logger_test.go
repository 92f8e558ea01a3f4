package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	log, err := New("debug")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level must be enabled")
	}

	if _, err := New("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}

	if Named(nil, "x") == nil {
		t.Fatalf("Named must never return nil")
	}
}
