package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelNormal, &buf)

	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug output leaked at normal level")
	}
	if !strings.Contains(buf.String(), "[INF]") || !strings.Contains(buf.String(), "shown 2") {
		t.Fatalf("expected info line, got %q", buf.String())
	}

	buf.Reset()
	log.SetLevel(LevelOff)
	log.Error("nothing")
	if buf.Len() != 0 {
		t.Fatalf("expected no output when off, got %q", buf.String())
	}
}

func TestNamedSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelNormal, &buf)
	child := root.Named("engine")

	child.Warn("drift %d", 5)
	if !strings.Contains(buf.String(), "engine: drift 5") {
		t.Fatalf("expected prefixed message, got %q", buf.String())
	}

	buf.Reset()
	root.SetLevel(LevelVerbose)
	child.Debug("tick")
	if !strings.Contains(buf.String(), "[DBG]") {
		t.Fatalf("child should follow the root level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"off":     LevelOff,
		"Quiet":   LevelOff,
		"verbose": LevelVerbose,
		"debug":   LevelVerbose,
		"normal":  LevelNormal,
		"":        LevelNormal,
		"junk":    LevelNormal,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
