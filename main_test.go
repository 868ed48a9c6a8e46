package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli, kong.Name("tempotweak"), kong.Vars{"version": "test"})
	if err != nil {
		t.Fatalf("Failed to build parser: %v", err)
	}
	return parser
}

func TestCLI_Structure(t *testing.T) {
	// compile-time check of the command set
	var cli CLI
	_ = cli.UI
	_ = cli.Convert
	_ = cli.Info
	_ = cli.Verify
}

func TestKongParsing_DefaultCommand(t *testing.T) {
	var cli CLI
	ctx, err := newParser(t, &cli).Parse([]string{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ctx.Command() != "ui" {
		t.Errorf("Expected default 'ui' command, got %q", ctx.Command())
	}
}

func TestKongParsing_ConvertCommand(t *testing.T) {
	testDir := t.TempDir()
	testFile := filepath.Join(testDir, "clip.mp4")
	_ = os.WriteFile(testFile, []byte("test"), 0644)

	testCases := []struct {
		name        string
		args        []string
		expectError bool
	}{
		{
			name: "Convert with all flags",
			args: []string{"convert", testFile, "--output-dir", testDir, "--fps", "24", "--yes", "--no-progress"},
		},
		{
			name: "Convert with short flags",
			args: []string{"convert", testFile, "-o", testDir, "-f", "29.97", "-y"},
		},
		{
			name: "Convert with defaults",
			args: []string{"convert", testFile},
		},
		{
			name:        "Convert missing input",
			args:        []string{"convert"},
			expectError: true,
		},
		{
			name:        "Convert nonexistent input",
			args:        []string{"convert", filepath.Join(testDir, "missing.mp4")},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var cli CLI
			ctx, err := newParser(t, &cli).Parse(tc.args)

			if tc.expectError {
				if err == nil {
					t.Errorf("Expected error for args %v, but parsing succeeded", tc.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for args %v: %v", tc.args, err)
			}
			if !strings.HasPrefix(ctx.Command(), "convert") {
				t.Errorf("Expected 'convert' command, got %q", ctx.Command())
			}
		})
	}
}

func TestKongParsing_ConvertFlags(t *testing.T) {
	testDir := t.TempDir()
	testFile := filepath.Join(testDir, "clip.mp4")
	_ = os.WriteFile(testFile, []byte("test"), 0644)

	var cli CLI
	_, err := newParser(t, &cli).Parse([]string{"--log-level", "debug", "convert", testFile, "-f", "60", "-y"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cli.Convert.FPS != "60" || !cli.Convert.Yes {
		t.Errorf("Unexpected convert flags %+v", cli.Convert)
	}
	if cli.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %q", cli.LogLevel)
	}
	if cli.Convert.Input != testFile {
		t.Errorf("Expected input %q, got %q", testFile, cli.Convert.Input)
	}
}

func TestKongParsing_InfoAndVerify(t *testing.T) {
	testDir := t.TempDir()
	source := filepath.Join(testDir, "clip.mp4")
	converted := filepath.Join(testDir, "clip_24fps.mp4")
	_ = os.WriteFile(source, []byte("test"), 0644)
	_ = os.WriteFile(converted, []byte("test"), 0644)

	testCases := []struct {
		name        string
		args        []string
		command     string
		expectError bool
	}{
		{"Info", []string{"info", source}, "info", false},
		{"Info without file", []string{"info"}, "", true},
		{"Verify", []string{"verify", source, converted}, "verify", false},
		{"Verify with threshold", []string{"verify", source, converted, "--threshold", "4"}, "verify", false},
		{"Verify with one file", []string{"verify", source}, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var cli CLI
			ctx, err := newParser(t, &cli).Parse(tc.args)
			if tc.expectError {
				if err == nil {
					t.Errorf("Expected error for args %v, but parsing succeeded", tc.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for args %v: %v", tc.args, err)
			}
			if !strings.HasPrefix(ctx.Command(), tc.command) {
				t.Errorf("Expected %q command, got %q", tc.command, ctx.Command())
			}
		})
	}
}

func TestVerifyCmd_DefaultThreshold(t *testing.T) {
	testDir := t.TempDir()
	source := filepath.Join(testDir, "a.mp4")
	_ = os.WriteFile(source, []byte("test"), 0644)

	var cli CLI
	if _, err := newParser(t, &cli).Parse([]string{"verify", source, source}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cli.Verify.Threshold != 10 {
		t.Errorf("Expected default threshold 10, got %d", cli.Verify.Threshold)
	}
}

func TestNewAppContext(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	logPath := filepath.Join(dir, "logs", "tempotweak.log")
	content := "[ffmpeg]\npreset = \"fast\"\n\n[ui]\ndefault_fps = \"24\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cli := CLI{Config: configPath, LogFile: logPath, LogLevel: "DEBUG"}
	appCtx, closeLog, err := cli.newAppContext("convert <input>")
	if err != nil {
		t.Fatalf("newAppContext() error: %v", err)
	}
	defer closeLog()

	if appCtx.Config.FFmpeg.Preset != "fast" || appCtx.Config.UI.DefaultFPS != "24" {
		t.Errorf("Config overrides not applied: %+v", appCtx.Config)
	}
	if appCtx.Config.Logging.Level != "debug" {
		t.Errorf("Expected log level override, got %q", appCtx.Config.Logging.Level)
	}
	if appCtx.ConfigPath != configPath {
		t.Errorf("Expected config path %q, got %q", configPath, appCtx.ConfigPath)
	}
	if appCtx.Version != Version {
		t.Errorf("Expected version %q, got %q", Version, appCtx.Version)
	}

	appCtx.Logger.Info("hello")
	if data, err := os.ReadFile(logPath); err != nil || !strings.Contains(string(data), "hello") {
		t.Errorf("Expected log file to receive output, got %q (%v)", data, err)
	}
}

func TestNewAppContext_InvalidLevel(t *testing.T) {
	dir := t.TempDir()
	cli := CLI{Config: filepath.Join(dir, "missing.toml"), LogLevel: "loud"}
	if _, _, err := cli.newAppContext("info <input>"); err == nil {
		t.Error("Expected error for unknown log level")
	}
}

func TestIsFormCommand(t *testing.T) {
	tests := map[string]bool{
		"ui":                 true,
		"ui <input>":         true,
		"convert <input>":    false,
		"info <input>":       false,
		"verify <src> <dst>": false,
	}
	for command, expected := range tests {
		if got := isFormCommand(command); got != expected {
			t.Errorf("isFormCommand(%q) = %v, expected %v", command, got, expected)
		}
	}
}

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}
