package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// FFmpeg holds the external tool paths and the fixed output codec policy
type FFmpeg struct {
	FFmpegPath  string   `toml:"ffmpeg_path"`
	FFprobePath string   `toml:"ffprobe_path"`
	VideoCodec  string   `toml:"video_codec"`
	AudioCodec  string   `toml:"audio_codec"`
	Preset      string   `toml:"preset"`
	KillGrace   Duration `toml:"kill_grace"`
}

// Progress controls the simulated progress cadence.
// None of these values are derived from the encoder.
type Progress struct {
	Loading  float64  `toml:"loading"`
	Start    float64  `toml:"start"`
	Ceiling  float64  `toml:"ceiling"`
	Step     float64  `toml:"step"`
	Finalize float64  `toml:"finalize"`
	Interval Duration `toml:"interval"`
}

// UI holds interactive form settings
type UI struct {
	DefaultFPS string    `toml:"default_fps"`
	Presets    []float64 `toml:"presets"`
}

// Logging configures the diagnostic log
type Logging struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Config is the full application configuration
type Config struct {
	FFmpeg   FFmpeg   `toml:"ffmpeg"`
	Progress Progress `toml:"progress"`
	UI       UI       `toml:"ui"`
	Logging  Logging  `toml:"logging"`
}

// Duration wraps time.Duration so TOML files can use strings like "500ms"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		FFmpeg: FFmpeg{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			VideoCodec:  "libx264",
			AudioCodec:  "aac",
			Preset:      "medium",
			KillGrace:   Duration{5 * time.Second},
		},
		Progress: Progress{
			Loading:  5,
			Start:    15,
			Ceiling:  90,
			Step:     1,
			Finalize: 95,
			Interval: Duration{500 * time.Millisecond},
		},
		UI: UI{
			DefaultFPS: "30",
			Presets:    []float64{4, 24, 30, 60, 120},
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// DefaultConfigPath returns the per-user config file location
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tempotweak/config.toml")
}

// Load locates, parses and validates a configuration file. A missing file is
// not an error; defaults are returned and exists is false.
func Load(path string) (cfg *Config, resolvedPath string, exists bool, err error) {
	c := Default()

	resolvedPath, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&c); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := c.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := c.Validate(); err != nil {
		return nil, "", false, err
	}

	return &c, resolvedPath, exists, nil
}

// Validate checks that all values are usable
func (c *Config) Validate() error {
	var problems []string

	if c.FFmpeg.FFmpegPath == "" {
		problems = append(problems, "ffmpeg.ffmpeg_path must not be empty")
	}
	if c.FFmpeg.FFprobePath == "" {
		problems = append(problems, "ffmpeg.ffprobe_path must not be empty")
	}
	if c.FFmpeg.VideoCodec == "" {
		problems = append(problems, "ffmpeg.video_codec must not be empty")
	}
	if c.FFmpeg.AudioCodec == "" {
		problems = append(problems, "ffmpeg.audio_codec must not be empty")
	}
	if c.FFmpeg.KillGrace.Duration < 0 {
		problems = append(problems, "ffmpeg.kill_grace must not be negative")
	}

	p := c.Progress
	if p.Loading <= 0 || p.Loading >= 100 {
		problems = append(problems, "progress.loading must be between 0 and 100 (exclusive)")
	}
	if p.Start < p.Loading {
		problems = append(problems, "progress.start must not be below progress.loading")
	}
	if p.Ceiling < p.Start || p.Ceiling >= 100 {
		problems = append(problems, "progress.ceiling must be between progress.start and 100")
	}
	if p.Finalize < p.Ceiling || p.Finalize >= 100 {
		problems = append(problems, "progress.finalize must be between progress.ceiling and 100")
	}
	if p.Step <= 0 {
		problems = append(problems, "progress.step must be positive")
	}
	if p.Interval.Duration <= 0 {
		problems = append(problems, "progress.interval must be positive")
	}

	for _, fps := range c.UI.Presets {
		if fps <= 0 {
			problems = append(problems, fmt.Sprintf("ui.presets contains non-positive value %g", fps))
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) normalize() error {
	c.FFmpeg.FFmpegPath = strings.TrimSpace(c.FFmpeg.FFmpegPath)
	c.FFmpeg.FFprobePath = strings.TrimSpace(c.FFmpeg.FFprobePath)
	c.UI.DefaultFPS = strings.TrimSpace(c.UI.DefaultFPS)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Logging.File != "" {
		expanded, err := expandPath(c.Logging.File)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("tempotweak.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
