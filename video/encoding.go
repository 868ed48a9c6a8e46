package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/tempotweak/config"
	"github.com/lepinkainen/tempotweak/logging"
)

// ConvertOptions holds the fixed output policy for frame rate conversion
type ConvertOptions struct {
	FFmpegPath string
	VideoCodec string        // libx264 by default
	AudioCodec string        // aac by default
	Preset     string        // encoder preset, omitted when empty
	KillGrace  time.Duration // time ffmpeg gets to exit after an interrupt
}

// DefaultConvertOptions returns the libx264/aac policy
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptionsFromConfig(config.Default().FFmpeg)
}

// ConvertOptionsFromConfig copies the [ffmpeg] config section
func ConvertOptionsFromConfig(f config.FFmpeg) ConvertOptions {
	return ConvertOptions{
		FFmpegPath: f.FFmpegPath,
		VideoCodec: f.VideoCodec,
		AudioCodec: f.AudioCodec,
		Preset:     f.Preset,
		KillGrace:  f.KillGrace.Duration,
	}
}

// FrameRateConverter re-encodes a video at a new frame rate with ffmpeg
type FrameRateConverter struct {
	Options ConvertOptions
	Prober  Prober
	Logger  *slog.Logger
}

// NewFrameRateConverter creates a converter from the loaded config
func NewFrameRateConverter(cfg *config.Config, logger *slog.Logger) *FrameRateConverter {
	return &FrameRateConverter{
		Options: ConvertOptionsFromConfig(cfg.FFmpeg),
		Prober:  Prober{FFprobePath: cfg.FFmpeg.FFprobePath},
		Logger:  logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

// TempPaths returns the hidden partial output and intermediate audio paths
// used while writing outputPath. Both live next to the output.
func TempPaths(outputPath string) (partial, audio string) {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	partial = filepath.Join(dir, "."+name+".partial"+ext)
	audio = filepath.Join(dir, "."+name+".temp-audio.m4a")
	return partial, audio
}

// Convert writes inputPath re-timed to fps at outputPath. The video is encoded
// into a temporary file that is renamed into place only on success; audio is
// encoded to an intermediate file first and muxed in. Both temporary files are
// removed before Convert returns.
func (c *FrameRateConverter) Convert(ctx context.Context, inputPath, outputPath string, fps float64) error {
	logger := c.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	info, err := c.Prober.Probe(ctx, inputPath)
	if err != nil {
		return fmt.Errorf("failed to load video: %w", err)
	}
	logger.Debug("input probed",
		slog.String("input", inputPath),
		slog.Float64("source_fps", info.FrameRate),
		slog.Bool("audio", info.HasAudio))

	partial, audio := TempPaths(outputPath)
	defer func() {
		_ = os.Remove(partial)
		_ = os.Remove(audio)
	}()

	if info.HasAudio {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.run(ctx, BuildAudioArgs(c.Options, inputPath, audio)); err != nil {
			return fmt.Errorf("failed to extract audio: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	muxAudio := ""
	if info.HasAudio {
		muxAudio = audio
	}
	if err := c.run(ctx, BuildVideoArgs(c.Options, inputPath, muxAudio, partial, fps)); err != nil {
		return fmt.Errorf("failed to change frame rate: %w", err)
	}

	// the encode may have finished after a cancel request; do not publish it
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(partial, outputPath); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	logger.Debug("output written", slog.String("output", outputPath))
	return nil
}

// BuildAudioArgs returns the ffmpeg arguments that encode the first audio
// stream of inputPath into audioPath
func BuildAudioArgs(opts ConvertOptions, inputPath, audioPath string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", inputPath,
		"-vn", "-map", "0:a:0",
		"-c:a", opts.AudioCodec,
		audioPath,
	}
}

// BuildVideoArgs returns the ffmpeg arguments that re-time the first video
// stream of inputPath to fps and mux in audioPath when it is not empty
func BuildVideoArgs(opts ConvertOptions, inputPath, audioPath, outputPath string, fps float64) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", inputPath}
	if audioPath != "" {
		args = append(args, "-i", audioPath)
	}

	args = append(args, "-map", "0:v:0")
	if audioPath != "" {
		args = append(args, "-map", "1:a:0")
	}

	args = append(args,
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-c:v", opts.VideoCodec,
	)
	if opts.Preset != "" {
		args = append(args, "-preset", opts.Preset)
	}
	args = append(args, "-pix_fmt", "yuv420p")

	if audioPath != "" {
		// already encoded with the target codec
		args = append(args, "-c:a", "copy")
	}

	return append(args, outputPath)
}

func (c *FrameRateConverter) run(ctx context.Context, args []string) error {
	binary := c.Options.FFmpegPath
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	if c.Options.KillGrace > 0 {
		// let ffmpeg close the file, then fall back to the default kill
		cmd.Cancel = func() error {
			return cmd.Process.Signal(os.Interrupt)
		}
		cmd.WaitDelay = c.Options.KillGrace
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if c.Logger != nil {
		c.Logger.Debug("running ffmpeg", slog.String("args", strings.Join(args, " ")))
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w\nffmpeg output: %s", err, lastLines(stderr.String(), 5))
		}
		return err
	}
	return nil
}
