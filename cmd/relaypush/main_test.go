package main

import (
	"testing"

	"go.uber.org/zap"
)

func TestRunHelp(t *testing.T) {
	if got := run([]string{"--help"}); got != 0 {
		t.Fatalf("run(--help) = %d, want 0", got)
	}
}

func TestRunExitStatuses(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no arguments", nil, 1},
		{"target only", []string{"target.example.com"}, 1},
		{"unknown flag", []string{"--bogus", "target.example.com", "app:latest"}, 125},
		{"flag missing value", []string{"target.example.com", "app:latest", "--ssh-opts"}, 125},
		{"invalid image", []string{"target.example.com", "App:Latest"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Fatalf("run(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestNewConsoleLogger(t *testing.T) {
	level := zap.NewAtomicLevelAt(zap.ErrorLevel)
	logger, err := newConsoleLogger(level)
	if err != nil {
		t.Fatalf("newConsoleLogger() error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if logger.Core().Enabled(zap.InfoLevel) {
		t.Fatal("info logs should be disabled by default")
	}
	level.SetLevel(zap.DebugLevel)
	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Fatal("debug logs should be enabled after raising the level")
	}
}
