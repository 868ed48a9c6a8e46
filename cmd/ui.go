package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/tempotweak/job"
	"github.com/lepinkainen/tempotweak/types"
	"github.com/lepinkainen/tempotweak/ui"
	"github.com/lepinkainen/tempotweak/utils"
	"github.com/lepinkainen/tempotweak/video"
)

// UICmd opens the interactive form
type UICmd struct {
	Input     string `arg:"" optional:"" name:"input" help:"Video file to preselect" type:"path"`
	OutputDir string `name:"output-dir" short:"o" help:"Output folder to preselect" type:"path"`
	FPS       string `name:"fps" short:"f" help:"Initial target frame rate (default: ui.default_fps from the config)"`
}

// Run starts the bubbletea program and blocks until the user quits
func (cmd *UICmd) Run(appCtx *types.AppContext) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errors.New("the interactive form needs a terminal; use the convert command instead")
	}

	cfg := appCtx.ConfigOrDefault()
	if err := utils.ValidateFFmpegDependencies(cfg.FFmpeg.FFmpegPath, cfg.FFmpeg.FFprobePath); err != nil {
		return err
	}

	logger := appCtx.LoggerOrNop()
	converter := video.NewFrameRateConverter(cfg, logger)
	ctrl := job.NewController(converter, job.Options{
		Progress: job.ProgressSettingsFromConfig(cfg.Progress),
		Logger:   logger,
	})
	defer ctrl.Close()

	fps := cmd.FPS
	if fps == "" {
		fps = cfg.UI.DefaultFPS
	}
	outputDir := cmd.OutputDir
	if outputDir == "" && cmd.Input != "" {
		if fi, err := os.Stat(cmd.Input); err == nil && !fi.IsDir() {
			outputDir = filepath.Dir(cmd.Input)
		}
	}

	model := ui.NewFormModel(ctrl, video.Prober{FFprobePath: cfg.FFmpeg.FFprobePath}, ui.FormOptions{
		InputPath:  cmd.Input,
		OutputDir:  outputDir,
		DefaultFPS: fps,
		Presets:    cfg.UI.Presets,
		Logger:     logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
