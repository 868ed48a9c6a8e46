package video

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"MP4 lowercase", "test.mp4", true},
		{"MP4 uppercase", "test.MP4", true},
		{"WebM", "test.webm", true},
		{"MOV", "test.mov", true},
		{"FLV", "test.flv", true},
		{"MKV", "test.mkv", true},
		{"AVI", "test.avi", true},
		{"WMV", "test.wmv", true},
		{"M4V", "test.m4v", true},
		{"MPG", "test.mpg", true},

		{"Full path MP4", "/path/to/video.mp4", true},
		{"Relative path", "./videos/test.mov", true},

		{"No extension", "test", false},
		{"Text file", "test.txt", false},
		{"Image file", "test.jpg", false},
		{"Audio file", "test.mp3", false},
		{"Empty string", "", false},

		{"Multiple dots", "test.video.mp4", true},
		{"Hidden file", ".hidden.mp4", true},
		{"Space in name", "test file.mp4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsVideoFile(tt.path)
			if result != tt.expected {
				t.Errorf("IsVideoFile(%q) = %v, expected %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestVideoExtensionsIsACopy(t *testing.T) {
	exts := VideoExtensions()
	exts[0] = ".txt"
	if IsVideoFile("notes.txt") {
		t.Error("Mutating the returned slice must not change accepted extensions")
	}
}

func TestIsMP4Family(t *testing.T) {
	tests := map[string]bool{
		"a.mp4": true,
		"a.M4V": true,
		"a.mov": true,
		"a.mkv": false,
		"a.avi": false,
		"mp4":   false,
	}
	for path, expected := range tests {
		if got := IsMP4Family(path); got != expected {
			t.Errorf("IsMP4Family(%q) = %v, expected %v", path, got, expected)
		}
	}
}

func TestValidateVideoIntegrity(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	if err := (Prober{}).ValidateVideoIntegrity(ctx, filepath.Join(dir, "missing.mp4")); err == nil {
		t.Error("Expected error for missing file")
	}

	empty := createTestFile(t, dir, "empty.mp4", "")
	err := (Prober{}).ValidateVideoIntegrity(ctx, empty)
	if err == nil || err.Error() != "video file is empty" {
		t.Errorf("Expected 'video file is empty', got: %v", err)
	}

	corrupt := createTestFile(t, dir, "corrupt.mp4", "garbage")
	failing := writeScript(t, "ffprobe", "echo '[mov] moov atom not found' >&2\nexit 1\n")
	err = Prober{FFprobePath: failing}.ValidateVideoIntegrity(ctx, corrupt)
	if err == nil || !strings.Contains(err.Error(), "missing metadata") {
		t.Errorf("Expected missing metadata error, got: %v", err)
	}

	ok := writeScript(t, "ffprobe", "echo 12.5\n")
	if err := (Prober{FFprobePath: ok}).ValidateVideoIntegrity(ctx, corrupt); err != nil {
		t.Errorf("Expected valid file, got: %v", err)
	}
}

func TestExtractFirstLine(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"first\nsecond", "first"},
		{"\n\n  padded  \nrest", "padded"},
		{"", "no additional information available"},
		{"   ", "no additional information available"},
	}
	for _, tt := range tests {
		if got := extractFirstLine(tt.input); got != tt.expected {
			t.Errorf("extractFirstLine(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestLastLines(t *testing.T) {
	input := "one\n\ntwo\nthree\n  four  \n"
	if got := lastLines(input, 2); got != "three\nfour" {
		t.Errorf("lastLines() = %q", got)
	}
	if got := lastLines(input, 10); got != "one\ntwo\nthree\nfour" {
		t.Errorf("lastLines() with large n = %q", got)
	}
	if got := lastLines("", 3); got != "" {
		t.Errorf("lastLines(\"\") = %q", got)
	}
}
