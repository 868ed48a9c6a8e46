package video

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSamplePosition(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected time.Duration
	}{
		{0, 0},
		{10 * time.Second, 3 * time.Second},
		{100 * time.Second, 30 * time.Second},
		{time.Hour, 30 * time.Second},
		{-5 * time.Second, 0},
	}
	for _, tt := range tests {
		if got := SamplePosition(tt.duration); got != tt.expected {
			t.Errorf("SamplePosition(%v) = %v, expected %v", tt.duration, got, tt.expected)
		}
	}
}

func TestCalculateVideoPerceptualHash_NonExistentFile(t *testing.T) {
	_, err := FrameHasher{}.CalculateVideoPerceptualHash(context.Background(), "/path/to/nonexistent/video.mp4", 0)
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

// writeGradientJPEG writes a small image with enough structure to hash
func writeGradientJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create jpeg: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("Failed to encode jpeg: %v", err)
	}
}

func TestCompare_IdenticalFrames(t *testing.T) {
	dir := t.TempDir()
	frame := filepath.Join(dir, "frame.jpg")
	writeGradientJPEG(t, frame)

	ffmpeg := writeScript(t, "ffmpeg", fmt.Sprintf("for last; do :; done\ncp '%s' \"$last\"\n", frame))
	source := createTestFile(t, dir, "clip.mp4", "source")
	converted := createTestFile(t, dir, "clip_24fps.mp4", "converted")

	cmp, err := FrameHasher{FFmpegPath: ffmpeg}.Compare(context.Background(), source, converted, 3*time.Second)
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if cmp.Distance != 0 {
		t.Errorf("Expected distance 0, got %d", cmp.Distance)
	}
	if cmp.Position != 3*time.Second {
		t.Errorf("Expected position 3s, got %v", cmp.Position)
	}
}

func TestCompare_ExtractionFailure(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, "ffmpeg", "echo 'Output file is empty, nothing was encoded' >&2\nexit 1\n")
	source := createTestFile(t, dir, "clip.mp4", "source")

	_, err := FrameHasher{FFmpegPath: ffmpeg}.Compare(context.Background(), source, source, 0)
	if err == nil {
		t.Fatal("Expected error when frame extraction fails")
	}
}
