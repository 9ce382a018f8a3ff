package logger

import (
	"errors"
	"testing"
)

func TestNewWithLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		l := New(level)
		if l == nil {
			t.Fatalf("New(%q) returned nil", level)
		}
	}
}

func TestNewWithBadLevelFallsBack(t *testing.T) {
	l := New("shouting")
	if l == nil {
		t.Fatal("New with unknown level should still return a logger")
	}
	// Must not panic at any call site.
	l.Info("test")
	l.Warn("test")
	l.Error("test", errors.New("boom"))
}

func TestWithFieldReturnsNewLogger(t *testing.T) {
	l := NewNop()
	child := l.WithField("component", "differ")
	if child == nil {
		t.Fatal("WithField returned nil")
	}

	grandchild := child.WithFields(map[string]interface{}{"date": "2025-03-14", "kind": "queue"})
	if grandchild == nil {
		t.Fatal("WithFields returned nil")
	}
	grandchild.Debug("test")
}
