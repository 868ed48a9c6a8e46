package video

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/corona10/goimagehash"
)

// FrameHasher computes perceptual hashes of single frames extracted with ffmpeg
type FrameHasher struct {
	FFmpegPath string
}

// Comparison is the outcome of comparing a source and a converted video
type Comparison struct {
	Position time.Duration
	Distance int
}

// CalculateVideoPerceptualHash extracts the frame at position and calculates its perceptual hash
func (h FrameHasher) CalculateVideoPerceptualHash(ctx context.Context, videoFile string, position time.Duration) (*goimagehash.ImageHash, error) {
	if _, err := os.Stat(videoFile); err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "tempotweak-frame-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()
	tempFrame := filepath.Join(tempDir, "frame.jpg")

	binary := h.FFmpegPath
	if binary == "" {
		binary = "ffmpeg"
	}

	seek := strconv.FormatFloat(position.Seconds(), 'f', 3, 64)
	cmd := exec.CommandContext(ctx, binary, "-hide_banner", "-nostdin", "-v", "error",
		"-ss", seek, "-i", videoFile, "-vframes", "1", "-f", "image2", "-y", tempFrame)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to extract frame at %ss: %w\nffmpeg output: %s", seek, err, extractFirstLine(string(output)))
	}

	file, err := os.Open(tempFrame)
	if err != nil {
		return nil, fmt.Errorf("failed to open extracted frame: %w", err)
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate perceptual hash: %w", err)
	}

	return hash, nil
}

// Compare hashes the frame at the same timestamp in both files. A frame rate
// change keeps timestamps, so a small Hamming distance means the converted
// file shows the same picture.
func (h FrameHasher) Compare(ctx context.Context, source, converted string, position time.Duration) (*Comparison, error) {
	sourceHash, err := h.CalculateVideoPerceptualHash(ctx, source, position)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	convertedHash, err := h.CalculateVideoPerceptualHash(ctx, converted, position)
	if err != nil {
		return nil, fmt.Errorf("converted: %w", err)
	}

	distance, err := sourceHash.Distance(convertedHash)
	if err != nil {
		return nil, fmt.Errorf("failed to compare hashes: %w", err)
	}
	return &Comparison{Position: position, Distance: distance}, nil
}

// SamplePosition picks a timestamp 30% into the video, capped at 30 seconds
func SamplePosition(duration time.Duration) time.Duration {
	pos := duration * 3 / 10
	if pos > 30*time.Second {
		pos = 30 * time.Second
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}
