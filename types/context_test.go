package types

import (
	"testing"

	"github.com/lepinkainen/tempotweak/config"
)

func TestAppContextDefaults(t *testing.T) {
	var nilCtx *AppContext
	if got := nilCtx.VersionOrDefault(); got != DefaultVersion {
		t.Errorf("Expected %q for nil context, got %q", DefaultVersion, got)
	}
	if cfg := nilCtx.ConfigOrDefault(); cfg == nil || cfg.FFmpeg.VideoCodec != "libx264" {
		t.Errorf("Expected default config for nil context, got %+v", cfg)
	}

	cfg := config.Default()
	cfg.FFmpeg.Preset = "fast"
	ctx := &AppContext{Version: "1.2.3", Config: &cfg}
	if got := ctx.VersionOrDefault(); got != "1.2.3" {
		t.Errorf("Expected 1.2.3, got %q", got)
	}
	if got := ctx.ConfigOrDefault().FFmpeg.Preset; got != "fast" {
		t.Errorf("Expected loaded config to be returned, got preset %q", got)
	}
}
