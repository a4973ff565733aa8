package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitLogger(t *testing.T) {
	tempDir := t.TempDir()

	config := LogConfig{
		Level:      "debug",
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	if err := InitLogger(config); err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}

	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Errorf("log dir not created: %s", tempDir)
	}

	Info("test info line")
	Warn("test warn line")
	Debug("test debug line")

	time.Sleep(100 * time.Millisecond)

	mainLogPath := filepath.Join(tempDir, "estatecrawl.log")
	if _, err := os.Stat(mainLogPath); os.IsNotExist(err) {
		t.Errorf("main log file not created: %s", mainLogPath)
	}
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	config := LogConfig{
		Level:      "info",
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
	}

	if err := InitLogger(config); err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}

	Info("info level test")
	Infof("formatted info: %s", "value")
	Warn("warn level test")
	Warnf("formatted warn: %d", 123)
	Debug("debug line - suppressed at info level")
	Debugf("formatted debug: %v", true)

	time.Sleep(100 * time.Millisecond)

	mainLogPath := filepath.Join(tempDir, "estatecrawl.log")
	content, err := os.ReadFile(mainLogPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(content) == 0 {
		t.Error("log file is empty")
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "info" {
		t.Errorf("default level wrong: want 'info', got %q", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("default log dir wrong: want 'logs', got %q", config.LogDir)
	}
	if config.MaxSize != 10 {
		t.Errorf("default max size wrong: want 10, got %d", config.MaxSize)
	}
	if config.MaxBackups != 3 {
		t.Errorf("default max backups wrong: want 3, got %d", config.MaxBackups)
	}
	if config.MaxAge != 28 {
		t.Errorf("default max age wrong: want 28, got %d", config.MaxAge)
	}
	if !config.Compress {
		t.Error("default should enable compression")
	}
}

func TestWithSessionFields(t *testing.T) {
	tempDir := t.TempDir()

	config := LogConfig{
		Level:      "info",
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
	}

	if err := InitLogger(config); err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}

	scoped := WithSession("11111111-1111-1111-1111-111111111111", "traversal")
	scoped.Info().Msg("scoped log line")

	time.Sleep(100 * time.Millisecond)

	mainLogPath := filepath.Join(tempDir, "estatecrawl.log")
	content, err := os.ReadFile(mainLogPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(content) == 0 {
		t.Error("log file is empty after scoped log write")
	}
}
