package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	Debug("hidden", "k", 1)
	Info("window generated", "first", "2023-09", "count", 13, "dangling")
	Error("store failed", errors.New("boom"), "path", "x.db")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered: %s", out)
	}
	if !strings.Contains(out, "[INFO] window generated first=2023-09 count=13\n") {
		t.Fatalf("missing info line: %s", out)
	}
	if !strings.Contains(out, "[ERROR] store failed err=boom path=x.db") {
		t.Fatalf("missing error line: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	if l, ok := ParseLevel("DEBUG"); !ok || l != LevelDebug {
		t.Fatalf("expected debug level, got %v %v", l, ok)
	}
	if _, ok := ParseLevel("verbose"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
}
