package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		logFile string
	}{
		{name: "debug level, no file", level: "debug"},
		{name: "info level, no file", level: "info"},
		{name: "warn level, no file", level: "warn"},
		{name: "error level, no file", level: "error"},
		{name: "invalid level defaults to info", level: "verbose"},
		{name: "with log file", level: "info", logFile: filepath.Join(t.TempDir(), "sync.log")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Log = nil

			if err := Init(tt.level, tt.logFile); err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			if Log == nil {
				t.Fatal("Init() succeeded but Log is nil")
			}

			_ = Sync()
		})
	}
}

func TestInitWritesLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")

	if err := Init("info", logFile); err != nil {
		t.Fatalf("Init() with log file failed: %v", err)
	}

	Log.Info("sync run started")
	// Sync may fail for stdout on some systems, which is fine
	_ = Sync()

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestSyncNilLogger(t *testing.T) {
	Log = nil
	if err := Sync(); err != nil {
		t.Errorf("Sync() with nil logger returned %v", err)
	}
}
