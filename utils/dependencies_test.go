package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func fakeBinary(t *testing.T, dir, name string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Shell script fakes are not supported on Windows")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatalf("Failed to write fake %s: %v", name, err)
	}
	return path
}

func TestValidateFFmpegDependencies(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := fakeBinary(t, dir, "ffmpeg")
	ffprobe := fakeBinary(t, dir, "ffprobe")
	missing := filepath.Join(dir, "missing-tool")

	tests := []struct {
		name        string
		ffmpeg      string
		ffprobe     string
		wantErr     bool
		errContains string
	}{
		{"Both present", ffmpeg, ffprobe, false, ""},
		{"Missing ffprobe", ffmpeg, missing, true, "missing-tool not found"},
		{"Missing ffmpeg", missing, ffprobe, true, "missing-tool not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFFmpegDependencies(tt.ffmpeg, tt.ffprobe)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("Expected validation to pass, got error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation to fail")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Expected error to contain %q, got: %v", tt.errContains, err)
			}
			if !strings.Contains(err.Error(), "Install with:") && !strings.Contains(err.Error(), "Download from") {
				t.Errorf("Expected error message to contain installation instructions, got: %v", err)
			}
		})
	}
}

func TestGetInstallationInstructions(t *testing.T) {
	instructions := getInstallationInstructions()

	if instructions == "" {
		t.Error("Installation instructions should not be empty")
	}

	switch runtime.GOOS {
	case "darwin":
		if !strings.Contains(instructions, "brew install ffmpeg") {
			t.Errorf("Expected macOS instructions to mention brew, got: %s", instructions)
		}
	case "linux":
		if !strings.Contains(instructions, "apt-get install ffmpeg") {
			t.Errorf("Expected Linux instructions to mention package managers, got: %s", instructions)
		}
	default:
		if !strings.Contains(instructions, "ffmpeg.org") {
			t.Errorf("Expected instructions to mention ffmpeg.org, got: %s", instructions)
		}
	}
}
