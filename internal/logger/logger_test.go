package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDebugModeWritesToStdout(t *testing.T) {
	log := New("debug", Options{})
	if log == nil {
		t.Fatal("expected logger instance in debug mode")
	}
	log.Sugar().Debugw("debug_probe", "key", "value")
}

func TestNewReleaseModeCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	log := New("release", Options{Dir: dir, Filename: "test.log"})
	if log == nil {
		t.Fatal("expected logger instance in release mode")
	}
	log.Sugar().Infow("release_probe", "key", "value")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(dir, "test.log")); err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
}

func TestZFallsBackWhenUninitialized(t *testing.T) {
	saved := L
	L = nil
	defer func() { L = saved }()

	if Z() == nil {
		t.Fatal("expected fallback logger")
	}
}

func TestSWAttachesFields(t *testing.T) {
	if SW("request_id", "abc") == nil {
		t.Fatal("expected sugared logger with fields")
	}
	if SW() == nil {
		t.Fatal("expected plain sugared logger")
	}
}
