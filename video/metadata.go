package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Info describes the first video stream of a file
type Info struct {
	Duration  time.Duration
	FrameRate float64
	Width     int
	Height    int
	Codec     string
	HasAudio  bool
	Source    string // "ffprobe" or "mp4"
}

// Resolution formats the frame size as WIDTHxHEIGHT
func (i *Info) Resolution() string {
	return fmt.Sprintf("%dx%d", i.Width, i.Height)
}

// Prober reads stream metadata with ffprobe
type Prober struct {
	FFprobePath string
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe extracts duration, frame rate, resolution, codec and audio presence.
// When ffprobe is not installed, MP4 family files are read directly.
func (p Prober) Probe(ctx context.Context, videoFile string) (*Info, error) {
	if _, err := os.Stat(videoFile); err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.binary(), "-v", "error",
		"-show_entries", "format=duration:stream=codec_type,codec_name,width,height,avg_frame_rate,r_frame_rate",
		"-of", "json", "--", videoFile)
	output, err := cmd.Output()
	if err != nil {
		if (errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)) && IsMP4Family(videoFile) {
			return ProbeMP4(videoFile)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to probe video: %w\nffprobe output: %s", err, extractFirstLine(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}

	return parseProbeOutput(output)
}

// Duration returns the container duration
func (p Prober) Duration(ctx context.Context, videoFile string) (time.Duration, error) {
	info, err := p.Probe(ctx, videoFile)
	if err != nil {
		return 0, fmt.Errorf("failed to get duration: %w", err)
	}
	return info.Duration, nil
}

func (p Prober) binary() string {
	if p.FFprobePath == "" {
		return "ffprobe"
	}
	return p.FFprobePath
}

func parseProbeOutput(output []byte) (*Info, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{Source: "ffprobe"}
	foundVideo := false
	for _, stream := range parsed.Streams {
		switch stream.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.Codec = stream.CodecName
			info.Width = stream.Width
			info.Height = stream.Height
			rate, err := ParseFrameRate(stream.AvgFrameRate)
			if err != nil || rate == 0 {
				rate, _ = ParseFrameRate(stream.RFrameRate)
			}
			info.FrameRate = rate
		case "audio":
			info.HasAudio = true
		}
	}
	if !foundVideo {
		return nil, fmt.Errorf("no video stream found")
	}

	if d := strings.TrimSpace(parsed.Format.Duration); d != "" {
		secs, err := strconv.ParseFloat(d, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse duration: %w", err)
		}
		info.Duration = time.Duration(secs * float64(time.Second))
	}

	return info, nil
}

// ParseFrameRate parses ffprobe rates such as "30000/1001", "25/1" or "24".
// "0/0" yields zero without error.
func ParseFrameRate(rate string) (float64, error) {
	rate = strings.TrimSpace(rate)
	if rate == "" {
		return 0, fmt.Errorf("empty frame rate")
	}

	num, den, isFraction := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", rate, err)
	}
	if !isFraction {
		return n, nil
	}

	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", rate, err)
	}
	if d == 0 {
		return 0, nil
	}
	return n / d, nil
}

// GetFileSize returns the size of a file in bytes
func GetFileSize(filePath string) (int64, error) {
	fi, err := os.Stat(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to get file size: %w", err)
	}
	return fi.Size(), nil
}
